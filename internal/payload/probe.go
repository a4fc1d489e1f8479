package payload

import "sort"

// location is one named place a backend may have nested its tabular result.
// Probing walks an ordered list of locations and the first array found wins,
// which keeps the priority between nesting conventions explicit and testable
// in one place instead of repeated optional chaining at every call site.
type location struct {
	shape string
	path  []string
}

var rowLocations = []location{
	{shape: "FlatResult", path: []string{"rows"}},
	{shape: "DoublyNestedResult", path: []string{"data", "result", "rows"}},
	{shape: "NestedInData", path: []string{"data", "rows"}},
	{shape: "NestedInResult", path: []string{"result", "rows"}},
	{shape: "BareDataArray", path: []string{"data"}},
}

var columnLocations = []location{
	{shape: "FlatResult", path: []string{"columns"}},
	{shape: "DoublyNestedResult", path: []string{"data", "result", "columns"}},
	{shape: "NestedInData", path: []string{"data", "columns"}},
	{shape: "NestedInResult", path: []string{"result", "columns"}},
	{shape: "NamedColumns", path: []string{"data", "columnNames"}},
}

// The visualization-inference pass probes a narrower set of locations and in
// a different order than the extractor.
var vizRowLocations = []location{
	{shape: "FlatResult", path: []string{"rows"}},
	{shape: "NestedInData", path: []string{"data", "rows"}},
	{shape: "DoublyNestedResult", path: []string{"data", "result", "rows"}},
}

var vizColumnLocations = []location{
	{shape: "FlatResult", path: []string{"columns"}},
	{shape: "NestedInData", path: []string{"data", "columns"}},
	{shape: "DoublyNestedResult", path: []string{"data", "result", "columns"}},
}

// probeArray returns the first array found at any of the ordered locations,
// or nil when none match.
func probeArray(m map[string]any, locations []location) []any {
	for _, loc := range locations {
		if arr, ok := lookupArray(m, loc.path); ok {
			return arr
		}
	}
	return nil
}

func lookupArray(m map[string]any, path []string) ([]any, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return asArray(cur)
}

// objectColumns derives column names from a row object's keys. Decoded JSON
// objects carry no key order in Go, so the order is pinned to sorted keys;
// rendering looks cells up by name, so alignment does not depend on it.
func objectColumns(row map[string]any) []any {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
