package filters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveQueryBudgetBuckets(t *testing.T) {
	cases := []struct {
		bucket  Budget
		wantMin string
		wantMax string
	}{
		{BudgetUnder20K, "", "20000"},
		{Budget20KTo50K, "20000", "50000"},
		{Budget50KTo100K, "50000", "100000"},
		{BudgetOver100K, "100000", ""},
		{BudgetNegotiable, "", ""},
		{BudgetAny, "", ""},
	}

	for _, tc := range cases {
		t.Run(string(tc.bucket), func(t *testing.T) {
			q := DeriveQuery(Committed{Budget: tc.bucket}, "", Options{})

			minPrice, hasMin := q.Get(ParamMinPrice)
			maxPrice, hasMax := q.Get(ParamMaxPrice)
			if tc.wantMin == "" {
				assert.False(t, hasMin, "unexpected minPrice %q", minPrice)
			} else {
				assert.Equal(t, tc.wantMin, minPrice)
			}
			if tc.wantMax == "" {
				assert.False(t, hasMax, "unexpected maxPrice %q", maxPrice)
			} else {
				assert.Equal(t, tc.wantMax, maxPrice)
			}
		})
	}
}

func TestDeriveQueryLocationPrecedence(t *testing.T) {
	ambient := "Dar es Salaam, Dar es Salaam Region, Tanzania"

	explicit := DeriveQuery(Committed{LocationText: "Arusha"}, ambient, Options{})
	addr, _ := explicit.Get(ParamAddress)
	assert.Equal(t, "Arusha", addr)
	radius, ok := explicit.Get(ParamRadius)
	require.True(t, ok)
	assert.Equal(t, "50", radius)

	fallback := DeriveQuery(Committed{}, ambient, Options{RadiusKm: 15})
	addr, _ = fallback.Get(ParamAddress)
	assert.Equal(t, ambient, addr)
	radius, _ = fallback.Get(ParamRadius)
	assert.Equal(t, "15", radius)

	global := DeriveQuery(Committed{}, "  ", Options{})
	assert.False(t, global.Has(ParamAddress))
	assert.False(t, global.Has(ParamRadius))
}

func TestDeriveQueryDropsOrphanSubcategory(t *testing.T) {
	q := DeriveQuery(Committed{SubcategoryID: "s-1"}, "", Options{})
	assert.False(t, q.Has(ParamSubcategory))
	assert.False(t, q.Has(ParamCategory))

	q = DeriveQuery(Committed{CategoryID: "c-1", SubcategoryID: "s-1"}, "", Options{})
	cat, _ := q.Get(ParamCategory)
	sub, _ := q.Get(ParamSubcategory)
	assert.Equal(t, "c-1", cat)
	assert.Equal(t, "s-1", sub)
}

func TestDeriveQueryPassThroughAndNoEmptyEntries(t *testing.T) {
	q := DeriveQuery(Committed{
		SearchTerm: "mason",
		Sort:       SortRating,
		MinRating:  "4",
	}, "", Options{Limit: 20})

	assert.Equal(t, map[string]string{
		ParamSearch:    "mason",
		ParamSortBy:    "rating",
		ParamMinRating: "4",
		ParamLimit:     "20",
	}, q.Map())

	for _, k := range q.Keys() {
		v, _ := q.Get(k)
		assert.NotEmpty(t, v, "key %s has empty value", k)
	}
}

func TestDeriveQueryEmptyFiltersOnlyLimit(t *testing.T) {
	q := DeriveQuery(Committed{}, "", Options{})
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "limit=50", q.Encode())
}

func TestQueryEqualityIsStable(t *testing.T) {
	c := Committed{CategoryID: "c", Budget: Budget20KTo50K, LocationText: "Mwanza"}
	a := DeriveQuery(c, "ignored", Options{})
	b := DeriveQuery(c, "also ignored", Options{})

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Encode(), b.Encode())
	assert.Equal(t, []string{"address", "category", "limit", "maxPrice", "minPrice", "radius"}, a.Keys())

	// Mutating a returned copy must not leak into the query.
	m := a.Map()
	m[ParamAddress] = "elsewhere"
	addr, _ := a.Get(ParamAddress)
	assert.Equal(t, "Mwanza", addr)

	var zero Query
	assert.True(t, zero.Equal(Query{}))
	assert.Empty(t, zero.Encode())
}

func TestQueryMarshalJSON(t *testing.T) {
	q := DeriveQuery(Committed{SearchTerm: "driver"}, "", Options{Limit: 10})
	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"search":"driver","limit":"10"}`, string(data))
}
