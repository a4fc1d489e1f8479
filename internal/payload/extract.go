package payload

// Extract locates the tabular result inside a normalized or raw payload and
// returns its rows and columns, either of which is nil when unresolvable. It
// never fails, whatever the payload's shape.
//
// When rows resolve but columns do not and the first row is an object, the
// column names are derived from that object's keys.
func Extract(payload any) (rows []any, columns []any) {
	m, ok := asMap(payload)
	if !ok {
		return nil, nil
	}
	rows = probeArray(m, rowLocations)
	columns = probeArray(m, columnLocations)
	if columns == nil && len(rows) > 0 {
		if first, ok := asMap(rows[0]); ok {
			columns = objectColumns(first)
		}
	}
	return rows, columns
}
