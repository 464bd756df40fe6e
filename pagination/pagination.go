package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the page size used when the request carries none.
	DefaultLimit = 10
	// MaxLimit caps the page size regardless of what the request asks for.
	MaxLimit = 100
)

// Params carries the offset/limit window parsed from a request.
type Params struct {
	Offset int
	Limit  int
}

// ParseQuery reads offset and limit from a query string. Missing or
// malformed values fall back to offset 0 and the default limit; limit
// is clamped to [1, MaxLimit].
func ParseQuery(query url.Values) Params {
	p := Params{Limit: DefaultLimit}

	if raw := query.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Offset = v
		}
	}

	if raw := query.Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			p.Limit = v
		}
	}

	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	return p
}

// Page is the envelope returned by every paginated endpoint. Count is
// the total before slicing; Next and Previous are fully qualified
// relative URLs, null at either end of the set.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Data     []T     `json:"data"`
}

// NewPage builds one page envelope. path and query describe the
// current request; the next/previous links re-serialize that query
// with offset and limit replaced, so they stay stable for any base
// path and preserve unrelated query parameters.
func NewPage[T any](path string, query url.Values, p Params, count int, data []T) Page[T] {
	page := Page[T]{Count: count, Data: data}
	if page.Data == nil {
		page.Data = []T{}
	}

	if p.Offset+p.Limit < count {
		page.Next = pageURL(path, query, p.Offset+p.Limit, p.Limit)
	}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		page.Previous = pageURL(path, query, prev, p.Limit)
	}

	return page
}

// pageURL rebuilds the query with the window replaced. An offset of 0
// drops the parameter entirely rather than serializing offset=0.
func pageURL(path string, query url.Values, offset, limit int) *string {
	q := url.Values{}
	for key, values := range query {
		q[key] = append([]string(nil), values...)
	}

	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	q.Set("limit", strconv.Itoa(limit))

	u := path + "?" + q.Encode()
	return &u
}
