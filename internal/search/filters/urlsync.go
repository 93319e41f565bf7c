package filters

import (
	"net/url"
	"strings"

	"golang.org/x/exp/maps"
)

// Query-string keys owned by the search page.
const (
	KeySearch      = "search"
	KeyAddress     = "address"
	KeyCategory    = "category"
	KeySubcategory = "subcategory"
	KeySortBy      = "sortBy"
	KeyMinRating   = "minRating"
	KeyBudget      = "budget"
)

var URLKeys = []string{KeySearch, KeyAddress, KeyCategory, KeySubcategory, KeySortBy, KeyMinRating, KeyBudget}

// Encode serializes the non-empty fields of d, one key per field.
func Encode(d Draft) url.Values {
	d = d.Normalize()
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set(KeySearch, d.SearchTerm)
	set(KeyAddress, d.LocationText)
	set(KeyCategory, d.CategoryID)
	set(KeySubcategory, d.SubcategoryID)
	set(KeySortBy, string(d.Sort))
	set(KeyMinRating, d.MinRating)
	set(KeyBudget, string(d.Budget))
	return v
}

// CommitInto writes d over the filter keys of current and keeps every other
// key. current is not modified.
func CommitInto(current url.Values, d Draft) url.Values {
	next := ClearAll(current)
	for k, vs := range Encode(d) {
		next[k] = vs
	}
	return next
}

// Commit returns the committed snapshot and the bare query string for d.
func Commit(d Draft) (Committed, string) {
	v := Encode(d)
	return Parse(v), v.Encode()
}

// ClearAll drops every filter key. Calling it on an already clear query is a
// no-op.
func ClearAll(current url.Values) url.Values {
	next := maps.Clone(current)
	if next == nil {
		next = url.Values{}
	}
	for _, k := range URLKeys {
		delete(next, k)
	}
	return next
}

// Parse reads committed filters from a query string. The URL is treated as
// untrusted input: missing keys, stray whitespace, "undefined"/"null" id
// placeholders and unknown enum values all decode to unset. Decoding uses the
// same normalization as Encode, so the two always agree.
func Parse(v url.Values) Committed {
	get := func(key string) string {
		return strings.TrimSpace(v.Get(key))
	}

	d := Draft{
		SearchTerm:    get(KeySearch),
		LocationText:  get(KeyAddress),
		CategoryID:    get(KeyCategory),
		SubcategoryID: get(KeySubcategory),
	}.Normalize()
	if b, ok := ParseBudget(get(KeyBudget)); ok {
		d.Budget = b
	}
	if k, ok := ParseSortKey(get(KeySortBy)); ok {
		d.Sort = k
	}
	if r, ok := ParseRating(get(KeyMinRating)); ok {
		d.MinRating = r
	}
	return Committed(d)
}

// ParseRawQuery is Parse for a raw query string; a malformed string yields
// whatever pairs could be decoded.
func ParseRawQuery(raw string) Committed {
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return Parse(v)
}
