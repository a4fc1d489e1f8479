package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assembleNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestAssembleModeSelection(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
	}{
		{
			name:     "exact success phrase selects tabular",
			raw:      `{"response": "Query executed successfully.", "rows": [["a", 1]], "columns": ["n", "c"]}`,
			wantText: "| n | c |\n| --- | --- |\n| a | 1 |",
		},
		{
			name:     "successfully substring selects tabular",
			raw:      `{"response": "Rows fetched successfully!", "rows": [["a", 1]], "columns": ["n", "c"]}`,
			wantText: "| n | c |\n| --- | --- |\n| a | 1 |",
		},
		{
			name:     "error text selects plain mode",
			raw:      `{"response": "error: timeout", "rows": [["a", 1]], "columns": ["n", "c"]}`,
			wantText: "error: timeout",
		},
		{
			name:     "success without columns selects plain mode",
			raw:      `{"response": "Query executed successfully.", "rows": [["a", 1]]}`,
			wantText: "Query executed successfully.",
		},
		{
			name:     "no response at all",
			raw:      `{}`,
			wantText: "No response received.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decode(t, tt.raw)
			m := p.(map[string]any)
			rows, _ := m["rows"].([]any)
			cols, _ := m["columns"].([]any)
			msg := Assemble(p, rows, cols, assembleNow)
			assert.Equal(t, tt.wantText, msg.Text)
			assert.Equal(t, "assistant", msg.Role)
		})
	}
}

func TestAssembleFullReportOrdering(t *testing.T) {
	p := decode(t, `{
		"response": "Query executed successfully.",
		"analysis": "Spend is concentrated in two vendors.",
		"title": "Vendor Spend",
		"subtitle": "Q3 2025",
		"insights": ["Acme grew 12%", "Globex flat"],
		"insightsHeader": "Key Information",
		"recentVendorDistribution": ["Acme 60%", "Globex 40%"]
	}`)
	rows := []any{[]any{"Acme", float64(120)}, []any{"Globex", float64(80)}}
	cols := []any{"vendor", "spend"}

	msg := Assemble(p, rows, cols, assembleNow)

	want := "Spend is concentrated in two vendors.\n\n" +
		"### Vendor Spend\n\n" +
		"#### Q3 2025\n\n" +
		"| vendor | spend |\n" +
		"| --- | --- |\n" +
		"| Acme | 120 |\n" +
		"| Globex | 80 |\n\n" +
		"### Key Information\n\n" +
		"- Acme grew 12%\n" +
		"- Globex flat\n\n" +
		"### Recent Vendor Distribution\n\n" +
		"- Acme 60%\n" +
		"- Globex 40%"
	assert.Equal(t, want, msg.Text)
}

func TestAssembleInsightsAsRawString(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully.", "insights": "one important note"}`)
	rows := []any{[]any{"a"}}
	cols := []any{"n"}

	msg := Assemble(p, rows, cols, assembleNow)

	assert.Contains(t, msg.Text, "### Key Insights\n\none important note")
}

func TestAssembleObjectRowsAlignWithColumns(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully."}`)
	rows := []any{map[string]any{"c": float64(1), "n": "a"}}
	cols := []any{"n", "c"}

	msg := Assemble(p, rows, cols, assembleNow)

	assert.Contains(t, msg.Text, "| a | 1 |")
}

func TestAssembleRaggedRowsTolerated(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully."}`)
	rows := []any{[]any{"a", float64(1)}, []any{"b"}}
	cols := []any{"n", "c"}

	assert.NotPanics(t, func() {
		msg := Assemble(p, rows, cols, assembleNow)
		assert.Contains(t, msg.Text, "| b |")
	})
}

func TestAssembleVisualizationDataFallbackBareArray(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully.", "visualization": {"chartType": "bar", "data": [{"n": "a", "c": 2}]}}`)

	msg := Assemble(p, nil, nil, assembleNow)

	require.Len(t, msg.DataRows, 1)
	assert.Equal(t, []any{"c", "n"}, msg.DataColumns)
	assert.True(t, msg.ExcelDownload)
}

func TestAssembleVisualizationDataFallbackPair(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully.", "visualization": {"data": {"rows": [["a", 2]], "columns": ["n", "c"]}}}`)

	msg := Assemble(p, nil, nil, assembleNow)

	assert.Equal(t, []any{[]any{"a", float64(2)}}, msg.DataRows)
	assert.Equal(t, []any{"n", "c"}, msg.DataColumns)
	assert.Contains(t, msg.Text, "| a | 2 |")
}

func TestAssembleVisualizationFallbackOnlyWhenExtractorEmpty(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully.", "visualization": {"data": {"rows": [["viz"]], "columns": ["v"]}}}`)
	rows := []any{[]any{"real"}}
	cols := []any{"r"}

	msg := Assemble(p, rows, cols, assembleNow)

	assert.Equal(t, rows, msg.DataRows)
	assert.Equal(t, cols, msg.DataColumns)
}

func TestAssembleSQLQueryResolution(t *testing.T) {
	p := decode(t, `{"response": "ok", "sql_query": "SELECT 1"}`)
	msg := Assemble(p, nil, nil, assembleNow)
	require.NotNil(t, msg.SQLQuery)
	assert.Equal(t, "SELECT 1", *msg.SQLQuery)

	p = decode(t, `{"response": "ok", "sql": "SELECT 2"}`)
	msg = Assemble(p, nil, nil, assembleNow)
	require.NotNil(t, msg.SQLQuery)
	assert.Equal(t, "SELECT 2", *msg.SQLQuery)

	p = decode(t, `{"response": "ok"}`)
	msg = Assemble(p, nil, nil, assembleNow)
	assert.Nil(t, msg.SQLQuery)
}

func TestAssembleVisualizationPassthrough(t *testing.T) {
	p := decode(t, `{"response": "ok", "visualization": {"chartType": "bar", "xAxis": "n", "yAxis": "c", "title": "t"}}`)

	msg := Assemble(p, nil, nil, assembleNow)

	assert.Equal(t, p.(map[string]any)["visualization"], msg.Visualization)
}

func TestAssembleExcelDownloadFlag(t *testing.T) {
	p := decode(t, `{"response": "Query executed successfully."}`)

	msg := Assemble(p, []any{[]any{"a"}}, []any{"n"}, assembleNow)
	assert.True(t, msg.ExcelDownload)

	msg = Assemble(p, []any{}, []any{"n"}, assembleNow)
	assert.False(t, msg.ExcelDownload)

	msg = Assemble(p, nil, nil, assembleNow)
	assert.False(t, msg.ExcelDownload)
}

func TestAssembleTimestamp(t *testing.T) {
	msg := Assemble(decode(t, `{"response": "ok"}`), nil, nil, assembleNow)
	assert.Equal(t, "2025-03-14T09:30:00Z", msg.Timestamp)
}

func TestAssembleNonObjectPayload(t *testing.T) {
	assert.NotPanics(t, func() {
		msg := Assemble("not an object", nil, nil, assembleNow)
		assert.Equal(t, NoResponseText, msg.Text)
	})
}
