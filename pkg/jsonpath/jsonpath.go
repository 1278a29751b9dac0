// Package jsonpath extracts values from JSON response bodies with a small
// JSONPath dialect: $, .key, ['key'], ["key"] and [index].
package jsonpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/apinette/pkg/value"
)

// Extract returns the value at path as text. Strings come back unquoted,
// null as "null", and arrays and objects as their raw JSON.
func Extract(doc []byte, path string) (string, error) {
	result, err := lookup(doc, path)
	if err != nil {
		return "", err
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractValue returns the value at path as a value.Value.
func ExtractValue(doc []byte, path string) (value.Value, error) {
	result, err := lookup(doc, path)
	if err != nil {
		return value.Value{}, err
	}
	return value.Decode([]byte(result.Raw))
}

// ExtractAll evaluates every named path. Values that could be extracted are
// returned even when others fail; failures are reported together, sorted
// by name.
func ExtractAll(doc []byte, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var failures []string
	for _, name := range names {
		v, err := Extract(doc, paths[name])
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = v
	}
	if len(failures) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

func lookup(doc []byte, path string) (gjson.Result, error) {
	if len(doc) == 0 {
		return gjson.Result{}, fmt.Errorf("empty JSON document")
	}
	if strings.TrimSpace(path) == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.ValidBytes(doc) {
		return gjson.Result{}, fmt.Errorf("invalid JSON document")
	}

	gpath, err := ToGjson(path)
	if err != nil {
		return gjson.Result{}, err
	}
	result := gjson.GetBytes(doc, gpath)
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path not found: %s", path)
	}
	return result, nil
}

// ToGjson converts a JSONPath expression into a gjson path. Keys are
// escaped so that dots and wildcards inside them match literally.
//
//	$.users[0]['first.name']  ->  users.0.first\.name
func ToGjson(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this", nil
	}

	var segments []string
	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			i++
		case '[':
			end, seg, err := bracketSegment(path, i)
			if err != nil {
				return "", err
			}
			segments = append(segments, seg)
			i = end
		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			segments = append(segments, escapeKey(path[i:j]))
			i = j
		}
	}
	if len(segments) == 0 {
		return "@this", nil
	}
	return strings.Join(segments, "."), nil
}

// bracketSegment parses [n], ['key'] or ["key"] starting at path[start].
func bracketSegment(path string, start int) (int, string, error) {
	rest := path[start+1:]
	if rest != "" && (rest[0] == '\'' || rest[0] == '"') {
		quote := rest[0]
		closing := strings.IndexByte(rest[1:], quote)
		if closing < 0 || len(rest) < closing+3 || rest[closing+2] != ']' {
			return 0, "", fmt.Errorf("unterminated bracket at offset %d in %q", start, path)
		}
		key := rest[1 : closing+1]
		return start + closing + 4, escapeKey(key), nil
	}

	closing := strings.IndexByte(rest, ']')
	if closing <= 0 {
		return 0, "", fmt.Errorf("unterminated bracket at offset %d in %q", start, path)
	}
	index := rest[:closing]
	for _, c := range index {
		if c < '0' || c > '9' {
			if index == "*" {
				return start + closing + 2, "#", nil
			}
			return 0, "", fmt.Errorf("invalid index %q in %q", index, path)
		}
	}
	return start + closing + 2, index, nil
}

func escapeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(key[i])
	}
	return b.String()
}
