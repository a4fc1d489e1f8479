package payload

import (
	"fmt"
	"strings"
)

// Normalize adapts an OCI-shaped analytics payload to the canonical shape the
// extractor and assembler consume. It is best-effort and never fails: each
// pass only fills fields the previous state left absent, malformed embedded
// JSON is logged and skipped, and non-object input is returned unchanged.
//
// The passes run in a fixed order because the later ones read fields the
// earlier ones may have just populated (the embedded-results pass can
// introduce data, the promotion pass hoists rows/columns that visualization
// inference and the narrative fallbacks then see).
//
// Normalize is idempotent: a synthesized response never contains the
// Results: marker, so the embedded pass cannot re-fire with different input,
// and every other pass skips fields that are already present.
func Normalize(raw any) any {
	src, ok := asMap(raw)
	if !ok {
		return raw
	}
	m := make(map[string]any, len(src)+4)
	for k, v := range src {
		m[k] = v
	}

	applyEmbeddedResults(m)
	applyAliases(m)
	promoteNestedResult(m)
	synthesizeStatus(m)
	inferVisualization(m)
	fillNarrativeFields(m)
	resolveSQLQuery(m)
	return m
}

// applyEmbeddedResults parses the JSON document some OCI responses embed
// after a "Results:" marker in the status text, merges its fields into the
// payload, and re-derives the data field from it.
func applyEmbeddedResults(m map[string]any) {
	text, ok := stringField(m, "response")
	if !ok || !strings.Contains(text, resultsMarker) {
		return
	}
	parsed, prefix, ok := ExtractEmbeddedResults(text)
	if !ok {
		return
	}

	prior := m["analysis"]
	if fields, ok := asMap(parsed); ok {
		for k, v := range fields {
			m[k] = v
		}
	}

	var data any
	switch v := parsed.(type) {
	case map[string]any:
		if result, ok := asMap(v["result"]); ok {
			data = map[string]any{"columns": result["columns"], "rows": result["rows"]}
		} else if d, ok := v["data"]; ok {
			data = d
		} else {
			data = v
		}
	case []any:
		data = map[string]any{"rows": v}
	default:
		data = v
	}
	m["data"] = data

	var analysis any
	if fields, ok := asMap(parsed); ok {
		if a, ok := fields["analysis"]; ok {
			analysis = a
		}
	}
	if analysis == nil && prefix != "" {
		analysis = prefix
	}
	if analysis == nil {
		analysis = prior
	}
	if analysis != nil {
		m["analysis"] = analysis
	} else {
		delete(m, "analysis")
	}
}

// applyAliases copies the short field names some responses use onto the
// canonical ones, without overwriting anything already present.
func applyAliases(m map[string]any) {
	if _, ok := m["sql_query"]; !ok {
		if v, ok := m["sql"]; ok {
			m["sql_query"] = v
		}
	}
	if _, ok := m["title"]; !ok {
		if v, ok := m["query"]; ok {
			m["title"] = v
		}
	}
}

// promoteNestedResult hoists rows, columns and success out of data.result to
// the top level, overwriting any top-level values.
func promoteNestedResult(m map[string]any) {
	data, ok := asMap(m["data"])
	if !ok {
		return
	}
	result, ok := asMap(data["result"])
	if !ok {
		return
	}
	for _, key := range []string{"rows", "columns", "success"} {
		if v, ok := result[key]; ok {
			m[key] = v
		}
	}
}

// synthesizeStatus fills in the success phrase when the backend signalled
// success without any status text.
func synthesizeStatus(m map[string]any) {
	if _, ok := m["response"]; ok {
		return
	}
	success := m["success"] == true
	if !success {
		if data, ok := asMap(m["data"]); ok {
			success = data["success"] == true
		}
	}
	if success {
		m["response"] = successPhrase
	}
}

// inferVisualization picks bar-chart axes when the backend supplied tabular
// data but no chart configuration. Column 0 is assumed to be the label axis;
// the first later column whose first-row value is numeric becomes the y axis.
func inferVisualization(m map[string]any) {
	if _, ok := m["visualization"]; ok {
		return
	}
	rows := probeArray(m, vizRowLocations)
	cols := probeArray(m, vizColumnLocations)
	if len(rows) == 0 || len(cols) == 0 {
		return
	}
	for i := 1; i < len(cols); i++ {
		val, ok := cellValue(rows[0], cols[i], i)
		if !ok || !isNumeric(val) {
			continue
		}
		title := "Data Visualization"
		if t, ok := stringField(m, "title"); ok && t != "" {
			title = t
		}
		m["visualization"] = map[string]any{
			"chartType": "bar",
			"xAxis":     columnName(cols[0]),
			"yAxis":     columnName(cols[i]),
			"title":     title,
		}
		return
	}
}

// cellValue resolves a column's value in a row that may be an ordered array
// or a column-name-keyed object.
func cellValue(row any, col any, idx int) (any, bool) {
	switch r := row.(type) {
	case []any:
		if idx < len(r) {
			return r[idx], true
		}
	case map[string]any:
		if name, ok := col.(string); ok {
			v, ok := r[name]
			return v, ok
		}
	}
	return nil, false
}

func columnName(col any) string {
	if s, ok := col.(string); ok {
		return s
	}
	return fmt.Sprint(col)
}

// fillNarrativeFields resolves analysis, insights, title and subtitle through
// their documented fallback chains.
func fillNarrativeFields(m map[string]any) {
	data, _ := asMap(m["data"])

	if m["analysis"] == nil {
		if data != nil && data["analysis"] != nil {
			m["analysis"] = data["analysis"]
		} else if rows, ok := asArray(m["rows"]); ok && len(rows) > 0 {
			if q, ok := stringField(m, "query"); ok && q != "" {
				m["analysis"] = fmt.Sprintf("Based on your request regarding %q, I have retrieved the following %d result(s).", q, len(rows))
			} else {
				m["analysis"] = fmt.Sprintf("I found %d record(s) matching your query.", len(rows))
			}
		}
	}

	if m["insights"] == nil {
		if v := m["KeyInformation"]; v != nil {
			m["insights"] = v
			if m["insightsHeader"] == nil {
				m["insightsHeader"] = "Key Information"
			}
		} else if v := m["key_information"]; v != nil {
			m["insights"] = v
			if m["insightsHeader"] == nil {
				m["insightsHeader"] = "Key Information"
			}
		} else if data != nil && data["insights"] != nil {
			m["insights"] = data["insights"]
		}
	}
	if m["insights"] != nil && m["insightsHeader"] == nil {
		m["insightsHeader"] = "Key Insights"
	}

	if m["title"] == nil {
		if v := m["header"]; v != nil {
			m["title"] = v
		} else if data != nil && data["title"] != nil {
			m["title"] = data["title"]
		}
	}
	if m["subtitle"] == nil {
		if v := m["subheader"]; v != nil {
			m["subtitle"] = v
		} else if data != nil && data["subtitle"] != nil {
			m["subtitle"] = data["subtitle"]
		}
	}
}

// resolveSQLQuery settles sql_query through its fallback chain.
func resolveSQLQuery(m map[string]any) {
	if m["sql_query"] != nil {
		return
	}
	if v := m["sql"]; v != nil {
		m["sql_query"] = v
		return
	}
	if data, ok := asMap(m["data"]); ok {
		if v := data["sql"]; v != nil {
			m["sql_query"] = v
			return
		}
		if v := data["sql_query"]; v != nil {
			m["sql_query"] = v
		}
	}
}
