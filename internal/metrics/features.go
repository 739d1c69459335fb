// Package metrics derives size features from tool payloads for telemetry.
package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Features describes a JSON payload without exposing its content.
type Features struct {
	Kind  string `json:"kind"`
	Bytes int    `json:"bytes"`
	Runes int    `json:"runes"`
	Words int    `json:"words"`
	Lines int    `json:"lines"`
}

// Measure computes features for a JSON payload. Bytes is the encoded size;
// runes, words and lines are counted on the decoded text for JSON strings and
// on the encoded form otherwise.
func Measure(payload []byte) Features {
	f := Features{Kind: kind(payload), Bytes: len(payload)}

	text := string(payload)
	if f.Kind == "string" {
		text = gjson.ParseBytes(payload).String()
	}
	f.Runes = utf8.RuneCountInString(text)
	f.Words = len(strings.Fields(text))
	f.Lines = countLines(text)
	return f
}

func kind(payload []byte) string {
	if len(payload) == 0 {
		return "empty"
	}
	if !gjson.ValidBytes(payload) {
		return "invalid"
	}
	r := gjson.ParseBytes(payload)
	switch {
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	}
	switch r.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "bool"
	default:
		return "null"
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
