// Package followup derives a short list of follow-up prompts from free-form
// model output.
//
// The model is asked for a JSON array of strings but is not guaranteed to
// produce one, so Extract walks an ordered ladder of strategies and returns
// the first non-empty result:
//
//  1. the whole text is a JSON array
//  2. the whole text is a JSON object; the first array-valued key is used
//  3. a bracketed array of strings embedded in prose
//  4. one prompt per line, with list markers stripped
//  5. a fixed placeholder list
package followup

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxItems is the maximum number of follow-ups returned.
const MaxItems = 4

// Line-based results only keep lines whose length is strictly between these.
const (
	minLineLen = 5
	maxLineLen = 100
)

// Strategy names the rung of the ladder that produced a result.
type Strategy string

const (
	StrategyJSONArray     Strategy = "json_array"
	StrategyJSONObject    Strategy = "json_object"
	StrategyEmbeddedArray Strategy = "embedded_array"
	StrategyLines         Strategy = "lines"
	StrategyPlaceholder   Strategy = "placeholder"
)

var placeholders = [MaxItems]string{
	"What are the key assumptions here?",
	"How could this be applied practically?",
	"What is the strongest counter-argument?",
	"Where can I learn more about this?",
}

var (
	// embeddedArray matches a bracketed list of JSON strings.
	embeddedArray = regexp.MustCompile(`\[\s*(?:"(?:[^"\\]|\\.)*"\s*,?\s*)*\]`)

	// leadingMarkers matches enumeration, bullet, quote and bracket markers.
	leadingMarkers = regexp.MustCompile(`^(?:\d+[.)]\s*|[-*•]\s+|["'\[\]]+\s*)+`)
)

// Placeholders returns a copy of the fallback list.
func Placeholders() []string {
	return append([]string(nil), placeholders[:]...)
}

// Extract returns between one and MaxItems follow-ups parsed from raw. It
// never fails: when no strategy yields anything the placeholders are
// returned.
func Extract(raw string) []string {
	items, _ := ExtractWithStrategy(raw)
	return items
}

// ExtractWithStrategy is Extract, also reporting which strategy succeeded.
func ExtractWithStrategy(raw string) ([]string, Strategy) {
	trimmed := strings.TrimSpace(raw)

	var root any
	if err := json.Unmarshal([]byte(trimmed), &root); err == nil {
		switch v := root.(type) {
		case []any:
			if items := fromValues(v); len(items) > 0 {
				return items, StrategyJSONArray
			}
		case map[string]any:
			if items := fromFirstArrayKey([]byte(trimmed)); len(items) > 0 {
				return items, StrategyJSONObject
			}
		}
	}

	for _, match := range embeddedArray.FindAllString(trimmed, -1) {
		var values []any
		if err := json.Unmarshal([]byte(match), &values); err != nil {
			continue
		}
		if items := fromValues(values); len(items) > 0 {
			return items, StrategyEmbeddedArray
		}
	}

	if items := fromLines(trimmed); len(items) > 0 {
		return items, StrategyLines
	}

	return Placeholders(), StrategyPlaceholder
}

// fromFirstArrayKey walks a JSON object in document order and converts the
// first array-valued member.
func fromFirstArrayKey(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil
		}

		if !bytes.HasPrefix(bytes.TrimSpace(value), []byte("[")) {
			continue
		}

		var values []any
		if err := json.Unmarshal(value, &values); err != nil {
			return nil
		}
		return fromValues(values)
	}

	return nil
}

// fromValues converts up to MaxItems JSON values into non-empty strings.
// Non-string values keep their JSON text.
func fromValues(values []any) []string {
	items := make([]string, 0, MaxItems)
	for _, v := range values {
		if len(items) == MaxItems {
			break
		}

		var s string
		switch t := v.(type) {
		case string:
			s = t
		case nil:
			continue
		default:
			b, err := json.Marshal(t)
			if err != nil {
				continue
			}
			s = string(b)
		}

		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// fromLines treats each line as a candidate prompt.
func fromLines(text string) []string {
	items := make([]string, 0, MaxItems)
	for line := range strings.Lines(text) {
		if len(items) == MaxItems {
			break
		}

		line = cleanLine(line)
		n := utf8.RuneCountInString(line)
		if n > minLineLen && n < maxLineLen {
			items = append(items, line)
		}
	}
	return items
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = leadingMarkers.ReplaceAllString(line, "")
	line = strings.TrimRight(line, `",]'`)
	return strings.TrimSpace(line)
}
