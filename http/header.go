package http

import (
	"net/http"
	"sort"
	"strings"
)

// HeaderField is one header line.
type HeaderField struct {
	Name  string
	Value string
}

// Header is an ordered multimap of header fields. Names compare
// case-insensitively and keep the spelling they were added with.
type Header []HeaderField

// Add appends a field, keeping any existing fields with the same name.
func (h *Header) Add(name, value string) {
	*h = append(*h, HeaderField{Name: name, Value: value})
}

// Set replaces all fields named name with a single field at the position
// of the first one, or appends it.
func (h *Header) Set(name, value string) {
	for i, f := range *h {
		if strings.EqualFold(f.Name, name) {
			(*h)[i] = HeaderField{Name: name, Value: value}
			rest := (*h)[i+1:]
			kept := (*h)[:i+1]
			for _, g := range rest {
				if !strings.EqualFold(g.Name, name) {
					kept = append(kept, g)
				}
			}
			*h = kept
			return
		}
	}
	h.Add(name, value)
}

// Get returns the first value for name, or "".
func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value for name in order.
func (h Header) Values(name string) []string {
	var out []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Has reports whether a field named name exists.
func (h Header) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Del removes every field named name.
func (h *Header) Del(name string) {
	kept := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			kept = append(kept, f)
		}
	}
	*h = kept
}

func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	copy(out, h)
	return out
}

// Map flattens the header into name -> value. A repeated name keeps the
// spelling of its first occurrence and the value of its last.
func (h Header) Map() map[string]string {
	out := make(map[string]string, len(h))
	seen := make(map[string]string, len(h))
	for _, f := range h {
		key := strings.ToLower(f.Name)
		name, ok := seen[key]
		if !ok {
			name = f.Name
			seen[key] = name
		}
		out[name] = f.Value
	}
	return out
}

// Lines renders each field as "Name: value".
func (h Header) Lines() []string {
	out := make([]string, 0, len(h))
	for _, f := range h {
		out = append(out, f.Name+": "+f.Value)
	}
	return out
}

// ParseHeaderLine splits a raw "Name: value" line at its first colon and
// trims surrounding whitespace and any CR/LF. Lines without a colon or with
// an empty name are rejected.
func ParseHeaderLine(line string) (HeaderField, bool) {
	line = strings.TrimRight(line, "\r\n")
	name, value, found := strings.Cut(line, ":")
	if !found {
		return HeaderField{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return HeaderField{}, false
	}
	return HeaderField{Name: name, Value: strings.TrimSpace(value)}, true
}

func headerFromHTTP(src http.Header) Header {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	var out Header
	for _, name := range names {
		for _, v := range src[name] {
			out.Add(name, v)
		}
	}
	return out
}

// toHTTP keeps field names as spelled so they go out on the wire verbatim.
func (h Header) toHTTP() http.Header {
	out := make(http.Header, len(h))
	for _, f := range h {
		out[f.Name] = append(out[f.Name], f.Value)
	}
	return out
}
