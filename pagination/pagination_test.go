package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryDefaults(t *testing.T) {
	p := ParseQuery(url.Values{})
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestParseQueryClampsAndIgnoresGarbage(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		offset int
		limit  int
	}{
		{"explicit window", "offset=20&limit=5", 20, 5},
		{"limit above max", "limit=5000", 0, MaxLimit},
		{"limit zero", "limit=0", 0, DefaultLimit},
		{"negative offset", "offset=-3", 0, DefaultLimit},
		{"non numeric", "offset=abc&limit=xyz", 0, DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			p := ParseQuery(values)
			assert.Equal(t, tt.offset, p.Offset)
			assert.Equal(t, tt.limit, p.Limit)
		})
	}
}

func TestPageLinkNullRules(t *testing.T) {
	query := url.Values{}

	// next is null iff offset+limit >= count
	page := NewPage("/user", query, Params{Offset: 0, Limit: 10}, 10, []int{1})
	assert.Nil(t, page.Next)

	page = NewPage("/user", query, Params{Offset: 0, Limit: 10}, 11, []int{1})
	require.NotNil(t, page.Next)
	assert.Equal(t, "/user?limit=10&offset=10", *page.Next)

	// previous is null iff offset <= 0
	assert.Nil(t, page.Previous)

	page = NewPage("/user", query, Params{Offset: 10, Limit: 10}, 11, []int{1})
	require.NotNil(t, page.Previous)
	assert.Nil(t, page.Next)
}

func TestPreviousDropsZeroOffset(t *testing.T) {
	page := NewPage("/user", url.Values{}, Params{Offset: 10, Limit: 10}, 30, []int{1})

	require.NotNil(t, page.Previous)
	assert.Equal(t, "/user?limit=10", *page.Previous)

	page = NewPage("/user", url.Values{}, Params{Offset: 20, Limit: 10}, 30, []int{1})
	require.NotNil(t, page.Previous)
	assert.Equal(t, "/user?limit=10&offset=10", *page.Previous)
}

func TestPagePreservesUnrelatedParams(t *testing.T) {
	values, err := url.ParseQuery("q=smith&offset=10&limit=10")
	require.NoError(t, err)

	page := NewPage("/user", values, Params{Offset: 10, Limit: 10}, 30, []int{1})

	require.NotNil(t, page.Next)
	assert.Equal(t, "/user?limit=10&offset=20&q=smith", *page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "/user?limit=10&q=smith", *page.Previous)
}

func TestPageNeverReturnsNilData(t *testing.T) {
	page := NewPage[int]("/user", url.Values{}, Params{Limit: 10}, 0, nil)
	require.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
}
