package filters

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Parameter names expected by GET /gigs/search.
const (
	ParamAddress     = "address"
	ParamRadius      = "radius"
	ParamCategory    = "category"
	ParamSubcategory = "subcategory"
	ParamMinPrice    = "minPrice"
	ParamMaxPrice    = "maxPrice"
	ParamSortBy      = "sortBy"
	ParamMinRating   = "minRating"
	ParamSearch      = "search"
	ParamLimit       = "limit"
)

const (
	DefaultRadiusKm = 50
	DefaultLimit    = 50
)

type priceRange struct {
	min, max int
}

// Bucket bounds; zero means "no bound".
var budgetRanges = map[Budget]priceRange{
	BudgetUnder20K:  {max: 20000},
	Budget20KTo50K:  {min: 20000, max: 50000},
	Budget50KTo100K: {min: 50000, max: 100000},
	BudgetOver100K:  {min: 100000},
}

// PriceBounds returns the fixed price range of a bucket. NEGOTIABLE and the
// empty bucket carry no price constraint.
func PriceBounds(b Budget) (lo, hi int, ok bool) {
	r, ok := budgetRanges[b]
	return r.min, r.max, ok
}

type Options struct {
	RadiusKm int
	Limit    int
}

func (o Options) withDefaults() Options {
	if o.RadiusKm <= 0 {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Query is the derived request for the backend. It never contains empty
// entries: an absent key means the filter is not applied. The zero value is
// an empty query. Query values are never mutated after DeriveQuery returns.
type Query struct {
	params map[string]string
}

// DeriveQuery maps committed filters, plus the ambient address as a location
// fallback, to backend parameters.
func DeriveQuery(c Committed, ambientAddress string, opts Options) Query {
	opts = opts.withDefaults()
	d := c.Draft().Normalize()
	p := make(map[string]string, 10)

	set := func(key, value string) {
		if value != "" {
			p[key] = value
		}
	}

	address := d.LocationText
	if address == "" {
		address = strings.TrimSpace(ambientAddress)
	}
	if address != "" {
		p[ParamAddress] = address
		p[ParamRadius] = strconv.Itoa(opts.RadiusKm)
	}

	if d.CategoryID != "" {
		p[ParamCategory] = d.CategoryID
		set(ParamSubcategory, d.SubcategoryID)
	}

	if lo, hi, ok := PriceBounds(d.Budget); ok {
		if lo > 0 {
			p[ParamMinPrice] = strconv.Itoa(lo)
		}
		if hi > 0 {
			p[ParamMaxPrice] = strconv.Itoa(hi)
		}
	}

	set(ParamSortBy, string(d.Sort))
	set(ParamMinRating, d.MinRating)
	set(ParamSearch, d.SearchTerm)
	p[ParamLimit] = strconv.Itoa(opts.Limit)

	return Query{params: p}
}

func (q Query) Get(key string) (string, bool) {
	v, ok := q.params[key]
	return v, ok
}

func (q Query) Has(key string) bool {
	_, ok := q.params[key]
	return ok
}

func (q Query) Len() int { return len(q.params) }

// Keys returns the parameter names in sorted order.
func (q Query) Keys() []string {
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Values returns a copy suitable for building a request URL.
func (q Query) Values() url.Values {
	v := make(url.Values, len(q.params))
	for k, val := range q.params {
		v.Set(k, val)
	}
	return v
}

// Map returns a copy of the parameters.
func (q Query) Map() map[string]string {
	if q.params == nil {
		return map[string]string{}
	}
	return maps.Clone(q.params)
}

// Encode is deterministic, so it can key caches and memoized results.
func (q Query) Encode() string {
	return q.Values().Encode()
}

func (q Query) Equal(o Query) bool {
	return maps.Equal(q.params, o.params)
}

func (q Query) String() string { return q.Encode() }

func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Map())
}
