package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaderLine(t *testing.T) {
	tests := []struct {
		line  string
		want  HeaderField
		valid bool
	}{
		{"X-Test:  value  \r\n", HeaderField{"X-Test", "value"}, true},
		{"Host: example.com:8080", HeaderField{"Host", "example.com:8080"}, true},
		{"Empty:", HeaderField{"Empty", ""}, true},
		{"  Padded-Name : v", HeaderField{"Padded-Name", "v"}, true},
		{"no colon", HeaderField{}, false},
		{": value", HeaderField{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseHeaderLine(tt.line)
		if ok != tt.valid {
			t.Errorf("ParseHeaderLine(%q) ok = %v, want %v", tt.line, ok, tt.valid)
			continue
		}
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestHeader_MultimapOperations(t *testing.T) {
	var h Header
	h.Add("Set-Cookie", "a=1")
	h.Add("Content-Type", "text/plain")
	h.Add("set-cookie", "b=2")

	assert.Equal(t, "a=1", h.Get("SET-COOKIE"))
	assert.Equal(t, []string{"a=1", "b=2"}, h.Values("Set-Cookie"))
	assert.True(t, h.Has("content-type"))
	assert.Equal(t, map[string]string{"Set-Cookie": "b=2", "Content-Type": "text/plain"}, h.Map())

	clone := h.Clone()
	h.Set("Set-Cookie", "c=3")
	assert.Equal(t, Header{{"Set-Cookie", "c=3"}, {"Content-Type", "text/plain"}}, h)
	assert.Len(t, clone, 3)

	h.Del("content-type")
	assert.Equal(t, []string{"Set-Cookie: c=3"}, h.Lines())
}
