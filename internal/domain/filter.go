package domain

// FilterSelection is the set of facets a user requires, across three
// independent groups. Only keys set to true impose a constraint.
type FilterSelection struct {
	Amenities map[string]bool
	Food      map[string]bool
	Fuel      map[string]bool
}

// Empty reports whether the selection constrains nothing.
func (f FilterSelection) Empty() bool {
	return !anyTrue(f.Amenities) && !anyTrue(f.Food) && !anyTrue(f.Fuel)
}

func anyTrue(m map[string]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// Matches reports whether rec satisfies sel: every checked facet in each
// group must be true on the record (after defaults). Groups combine with
// AND; an empty selection matches every record.
func Matches(rec StoreRecord, sel FilterSelection) bool {
	return groupMatches(rec.Amenities, DefaultAmenities, sel.Amenities) &&
		groupMatches(rec.Food, DefaultFood, sel.Food) &&
		groupMatches(rec.Fuel, DefaultFuel, sel.Fuel)
}

func groupMatches(facets, defaults, wanted map[string]bool) bool {
	for key, want := range wanted {
		if !want {
			continue
		}
		if !facetValue(facets, defaults, key) {
			return false
		}
	}
	return true
}
