package http

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// URLEncode percent-encodes every byte of s except the RFC 3986 unreserved
// characters A-Z a-z 0-9 - . _ ~. Space becomes %20.
func URLEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

// URLDecode reverses URLEncode. Any %XX escape is accepted; '+' is left
// as is. A truncated or non-hex escape is a ConfigError.
func URLDecode(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", &ConfigError{Field: "url", Message: "malformed percent-encoding", Err: err}
	}
	return out, nil
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
