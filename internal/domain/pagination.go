package domain

import (
	"encoding/base64"
	"strconv"
)

// Page size bounds for history listing.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// PageRequest is an offset page encoded as an opaque token. Tokens use
// unpadded URL-safe base64 so they survive query strings unescaped.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset decodes the token. Empty, malformed or negative tokens start from
// the beginning.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Limit clamps MaxResults to [1, MaxPageSize]; unset means DefaultPageSize.
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultPageSize
	case p.MaxResults > MaxPageSize:
		return MaxPageSize
	}
	return p.MaxResults
}

// PageToken encodes an offset; offsets <= 0 encode as "".
func PageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the token after a page of limit rows at offset, or ""
// when total rows are exhausted.
func NextPageToken(offset, limit int, total int64) string {
	if int64(offset+limit) >= total {
		return ""
	}
	return PageToken(offset + limit)
}
