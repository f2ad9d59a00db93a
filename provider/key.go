// Package provider holds locale data records and a read-only registry of
// their locale-invariant defaults.
package provider

import (
	"fmt"
	"sort"
)

// DataKey identifies a category of locale data and its schema version.
type DataKey struct {
	Category string
	Name     string
	Version  int
}

func (k DataKey) String() string {
	return fmt.Sprintf("%s/%s@%d", k.Category, k.Name, k.Version)
}

// invariants is populated at init and never written afterwards.
var invariants = map[DataKey]any{}

func register(key DataKey, v any) {
	if _, dup := invariants[key]; dup {
		panic("provider: duplicate key " + key.String())
	}
	invariants[key] = v
}

// Invariant returns the locale-invariant default for key.
func Invariant(key DataKey) (any, bool) {
	v, ok := invariants[key]
	return v, ok
}

// InvariantAs returns the default for key as T.
func InvariantAs[T any](key DataKey) (T, error) {
	var zero T
	v, ok := invariants[key]
	if !ok {
		return zero, fmt.Errorf("provider: no invariant data for %s", key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("provider: %s holds %T, not %T", key, v, zero)
	}
	return t, nil
}

// Keys returns every registered key, sorted by name.
func Keys() []DataKey {
	keys := make([]DataKey, 0, len(invariants))
	for k := range invariants {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
