// Package template implements the ${key} substituter (§4.3): literal text
// replacement performed after JSON serialization, so values are inserted
// verbatim — callers that need JSON-safe values must pre-escape them.
package template

import "strings"

// Substitute replaces every "${key}" occurrence in doc with values[key], for
// each key in the order it appears in keys. Keys not present in values are
// left untouched. Overlapping patterns cannot occur because the delimiters
// "${" and "}" are fixed.
func Substitute(doc string, values map[string]string, keys []string) string {
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		doc = strings.ReplaceAll(doc, "${"+k+"}", v)
	}
	return doc
}

// SubstituteAll is a convenience wrapper for callers that don't care about
// iteration order (e.g. the map built from repeated --template-keys flags,
// where a later flag overwrites an earlier one for the same key).
func SubstituteAll(doc string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	return Substitute(doc, values, keys)
}
