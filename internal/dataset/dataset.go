// Package dataset reads and writes the store dataset files.
//
// Both the hand-authored source file and the generated derived file are a
// single JSON object mapping numeric-string store ids to records. Any key
// that is not all digits is metadata, not a store; the derived file carries
// its provenance under the "__meta" key.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"store_locator/internal/domain"
)

const metaKey = "__meta"

// Meta is the provenance envelope of a derived file. SrcHash is the SHA-256
// of the exact source bytes the file was generated from.
type Meta struct {
	SrcHash     string `json:"srcHash"`
	GeneratedAt string `json:"generatedAt"`
}

// Dataset is an in-memory store mapping with deterministic iteration order.
type Dataset struct {
	Meta    Meta
	records map[string]domain.StoreRecord
	ids     []string // sorted numerically
}

func New() *Dataset {
	return &Dataset{records: map[string]domain.StoreRecord{}}
}

// IDs returns store ids in numeric order. Callers must not mutate the slice.
func (d *Dataset) IDs() []string { return d.ids }

func (d *Dataset) Len() int { return len(d.ids) }

func (d *Dataset) Get(id string) (domain.StoreRecord, bool) {
	r, ok := d.records[id]
	return r, ok
}

// Put inserts or replaces a record. Non-numeric ids are rejected so that
// metadata keys can never masquerade as stores.
func (d *Dataset) Put(id string, rec domain.StoreRecord) error {
	if !numericID(id) {
		return fmt.Errorf("dataset: non-numeric store id %q", id)
	}
	if _, exists := d.records[id]; !exists {
		d.ids = append(d.ids, id)
		sortIDs(d.ids)
	}
	d.records[id] = rec
	return nil
}

// Load reads a dataset file. Unknown non-numeric keys other than __meta are
// ignored (they are metadata, e.g. a generation timestamp).
func Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Dataset, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("dataset: parse: %w", err)
	}

	d := New()
	for key, msg := range raw {
		if key == metaKey {
			if err := json.Unmarshal(msg, &d.Meta); err != nil {
				return nil, fmt.Errorf("dataset: parse __meta: %w", err)
			}
			continue
		}
		if !numericID(key) {
			continue
		}
		var rec domain.StoreRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("dataset: parse store %s: %w", key, err)
		}
		d.records[key] = rec
		d.ids = append(d.ids, key)
	}
	sortIDs(d.ids)
	return d, nil
}

// Write marshals the dataset (records plus __meta when set) to path.
func (d *Dataset) Write(path string) error {
	out := make(map[string]any, len(d.records)+1)
	for id, rec := range d.records {
		out[id] = rec
	}
	if d.Meta != (Meta{}) {
		out[metaKey] = d.Meta
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// HashFile returns the hex SHA-256 of the file's bytes, used to decide
// whether a derived file is stale.
func HashFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func numericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sortIDs orders ids numerically, falling back to string order for ids too
// large for int64.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.ParseInt(ids[i], 10, 64)
		b, berr := strconv.ParseInt(ids[j], 10, 64)
		if aerr == nil && berr == nil {
			if a != b {
				return a < b
			}
			return ids[i] < ids[j]
		}
		return strings.Compare(ids[i], ids[j]) < 0
	})
}
