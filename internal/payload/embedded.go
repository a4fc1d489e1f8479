package payload

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"
)

const resultsMarker = "Results:"

// resultsPattern matches a JSON object or array immediately following the
// Results: marker. The backend appends nothing after the document, so a
// greedy match to the last bracket is the whole document.
var resultsPattern = regexp.MustCompile(`(?s)^\s*(\{.*\}|\[.*\])`)

// ExtractEmbeddedResults pulls the JSON document an OCI response embeds after
// a literal "Results:" marker inside its status text. It returns the parsed
// document, the narrative prefix (text before the marker with the leading
// success phrase stripped and trimmed), and whether a document was parsed.
//
// The text-matching policy lives entirely in this function so it can be
// tested and swapped in isolation.
func ExtractEmbeddedResults(text string) (any, string, bool) {
	idx := strings.Index(text, resultsMarker)
	if idx < 0 {
		return nil, "", false
	}
	prefix := strings.TrimSpace(text[:idx])
	prefix = strings.TrimSpace(strings.TrimPrefix(prefix, successPhrase))

	match := resultsPattern.FindString(text[idx+len(resultsMarker):])
	if match == "" {
		log.Printf("[normalize] no JSON document found after %q marker", resultsMarker)
		return nil, prefix, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		log.Printf("[normalize] embedded results parse failed: %v", err)
		return nil, prefix, false
	}
	return parsed, prefix, true
}
