package payload

import (
	"fmt"
	"strings"
	"time"

	"insight-chat-backend/internal/types"
)

// NoResponseText is what the transcript shows when a backend answered with no
// status text at all.
const NoResponseText = "No response received."

// Assemble decides the rendering mode for a backend payload and builds the
// assistant's transcript message.
//
// Tabular/report mode is selected when the backend signalled success and both
// rows and columns resolved; anything else falls back to the status text
// verbatim. When the extractor found nothing, data embedded inside the
// visualization object is used as a secondary source for dataRows/dataColumns.
func Assemble(payload any, rows, columns []any, now time.Time) types.ChatMessage {
	m, _ := asMap(payload)

	if rows == nil && columns == nil && m != nil {
		rows, columns = visualizationData(m)
	}

	response, _ := stringField(m, "response")
	success := response == successPhrase || strings.Contains(response, "successfully")

	var text string
	switch {
	case success && rows != nil && columns != nil:
		text = renderReport(m, rows, columns)
	case response != "":
		text = response
	default:
		text = NoResponseText
	}

	msg := types.ChatMessage{
		Role:          "assistant",
		Text:          text,
		DataRows:      rows,
		DataColumns:   columns,
		ExcelDownload: len(rows) > 0,
		Timestamp:     now.UTC().Format(time.RFC3339),
	}
	if q, ok := stringField(m, "sql_query"); ok && q != "" {
		msg.SQLQuery = &q
	} else if q, ok := stringField(m, "sql"); ok && q != "" {
		msg.SQLQuery = &q
	}
	if viz, ok := asMap(m["visualization"]); ok {
		msg.Visualization = viz
	}
	return msg
}

// visualizationData reads payload.visualization.data, which may be a bare
// row array or a {rows, columns} pair.
func visualizationData(m map[string]any) (rows []any, columns []any) {
	viz, ok := asMap(m["visualization"])
	if !ok {
		return nil, nil
	}
	switch d := viz["data"].(type) {
	case []any:
		rows = d
		if len(d) > 0 {
			if first, ok := asMap(d[0]); ok {
				columns = objectColumns(first)
			}
		}
	case map[string]any:
		rows, _ = asArray(d["rows"])
		columns, _ = asArray(d["columns"])
	}
	return rows, columns
}

// renderReport builds the markdown transcript text for tabular mode, in the
// fixed order: analysis, title, subtitle, table, insights, vendor
// distribution.
func renderReport(m map[string]any, rows, columns []any) string {
	var b strings.Builder

	if a, ok := stringField(m, "analysis"); ok && a != "" {
		b.WriteString(a)
		b.WriteString("\n\n")
	}
	if t, ok := stringField(m, "title"); ok && t != "" {
		fmt.Fprintf(&b, "### %s\n\n", t)
	}
	if st, ok := stringField(m, "subtitle"); ok && st != "" {
		fmt.Fprintf(&b, "#### %s\n\n", st)
	}

	b.WriteString("|")
	for _, c := range columns {
		fmt.Fprintf(&b, " %s |", cellText(c))
	}
	b.WriteString("\n|")
	for range columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("|")
		switch r := row.(type) {
		case []any:
			// Ragged rows are rendered as-is; the renderer tolerates them.
			for _, cell := range r {
				fmt.Fprintf(&b, " %s |", cellText(cell))
			}
		case map[string]any:
			for _, c := range columns {
				name, _ := c.(string)
				fmt.Fprintf(&b, " %s |", cellText(r[name]))
			}
		default:
			fmt.Fprintf(&b, " %s |", cellText(row))
		}
		b.WriteString("\n")
	}

	if insights := m["insights"]; insights != nil {
		header := "Key Insights"
		if h, ok := stringField(m, "insightsHeader"); ok && h != "" {
			header = h
		}
		fmt.Fprintf(&b, "\n### %s\n\n", header)
		writeBullets(&b, insights)
	}
	if dist := m["recentVendorDistribution"]; dist != nil {
		b.WriteString("\n### Recent Vendor Distribution\n\n")
		writeBullets(&b, dist)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeBullets(b *strings.Builder, v any) {
	if items, ok := asArray(v); ok {
		for _, it := range items {
			fmt.Fprintf(b, "- %s\n", cellText(it))
		}
		return
	}
	fmt.Fprintf(b, "%s\n", cellText(v))
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}
