package filters

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFieldCategoryClearsSubcategory(t *testing.T) {
	store := NewStore(Draft{CategoryID: "cat-1", SubcategoryID: "sub-9"})

	for _, category := range []string{"cat-2", "cat-2", "", "cat-3"} {
		if _, err := store.SetField(FieldSubcategoryID, "sub-"+category); err != nil {
			t.Fatalf("set subcategory: %v", err)
		}
		d, err := store.SetField(FieldCategoryID, category)
		if err != nil {
			t.Fatalf("set category: %v", err)
		}
		if d.SubcategoryID != "" {
			t.Fatalf("expected subcategory cleared after category %q, got %q", category, d.SubcategoryID)
		}
		if d.CategoryID != category {
			t.Fatalf("expected category %q, got %q", category, d.CategoryID)
		}
	}
}

func TestSetFieldValidation(t *testing.T) {
	cases := []struct {
		name    string
		field   Field
		value   string
		wantErr error
	}{
		{"empty budget is legal", FieldBudget, "", nil},
		{"known budget", FieldBudget, "20K_50K", nil},
		{"unknown budget", FieldBudget, "CHEAP", ErrInvalidValue},
		{"known sort", FieldSort, "price_low", nil},
		{"unknown sort", FieldSort, "popular", ErrInvalidValue},
		{"rating zero", FieldMinRating, "0", nil},
		{"rating five", FieldMinRating, "5", nil},
		{"rating six", FieldMinRating, "6", ErrInvalidValue},
		{"rating text", FieldMinRating, "good", ErrInvalidValue},
		{"unknown field", Field("colour"), "red", ErrUnknownField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(Draft{SearchTerm: "plumber"})
			before := store.Draft()
			_, err := store.SetField(tc.field, tc.value)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			assert.Equal(t, before, store.Draft(), "draft must not change on error")
		})
	}
}

func TestResetFromCommitted(t *testing.T) {
	store := NewStore(Draft{SearchTerm: "typing..."})
	c := Committed{SearchTerm: "cleaner", CategoryID: "c1", Budget: BudgetOver100K}
	got := store.ResetFromCommitted(c)
	assert.Equal(t, c.Draft(), got)
	assert.Equal(t, c.Draft(), store.Draft())
}

func TestCommitRoundTrip(t *testing.T) {
	drafts := []Draft{
		{},
		{SearchTerm: "house cleaning"},
		{LocationText: "Arusha"},
		{CategoryID: "64f0c", SubcategoryID: "64f0d"},
		{Budget: BudgetNegotiable, Sort: SortNewest, MinRating: "0"},
		{
			SearchTerm:    "plumber & electrician",
			LocationText:  "Dar es Salaam, Tanzania",
			CategoryID:    "c-1",
			SubcategoryID: "s-2",
			Budget:        Budget50KTo100K,
			Sort:          SortPriceHigh,
			MinRating:     "4",
		},
		{SearchTerm: "null"},
		{LocationText: "Undefined"},
	}

	for _, d := range drafts {
		committed, raw := Commit(d)
		assert.Equal(t, d, committed.Draft())

		store := NewStore(Draft{})
		got := store.ResetFromCommitted(ParseRawQuery(raw))
		assert.Equal(t, d, got, "raw=%s", raw)

		// Writing the decoded state back reproduces the same URL.
		_, again := Commit(got)
		assert.Equal(t, raw, again)
	}
}

func TestCommitDropsPlaceholderIDs(t *testing.T) {
	for _, d := range []Draft{
		{CategoryID: "null"},
		{CategoryID: "c-1", SubcategoryID: "Undefined"},
	} {
		committed, raw := Commit(d)
		assert.Equal(t, committed, ParseRawQuery(raw), "raw=%s", raw)
		assert.NotContains(t, raw, "null")
		assert.NotContains(t, raw, "ndefined")
	}

	committed, raw := Commit(Draft{CategoryID: "c-1", SubcategoryID: "undefined"})
	assert.Equal(t, "category=c-1", raw)
	assert.Equal(t, Draft{CategoryID: "c-1"}, committed.Draft())
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	v := Encode(Draft{SearchTerm: "painter", LocationText: "   "})
	assert.Equal(t, url.Values{KeySearch: {"painter"}}, v)
	assert.Equal(t, "search=painter", v.Encode())
}

func TestParseDefensive(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Draft
	}{
		{"empty", "", Draft{}},
		{"id placeholders", "category=NULL&subcategory=undefined", Draft{}},
		{"placeholder words in free text kept", "search=null&address=Undefined", Draft{SearchTerm: "null", LocationText: "Undefined"}},
		{"whitespace", "search=%20%20tiler%20&address=+Moshi+", Draft{SearchTerm: "tiler", LocationText: "Moshi"}},
		{"unknown enums dropped", "budget=FREE&sortBy=popular&minRating=9", Draft{}},
		{"rating canonicalized", "minRating=04", Draft{MinRating: "4"}},
		{"orphan subcategory kept", "subcategory=s1", Draft{SubcategoryID: "s1"}},
		{"foreign keys ignored", "utm_source=mail&page=2&budget=UNDER_20K", Draft{Budget: BudgetUnder20K}},
		{"leading question mark", "?sortBy=rating", Draft{Sort: SortRating}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRawQuery(tc.raw).Draft())
		})
	}
}

func TestCommitIntoKeepsForeignKeys(t *testing.T) {
	current := url.Values{"utm_source": {"mail"}, KeySearch: {"old"}, KeyBudget: {"OVER_100K"}}
	next := CommitInto(current, Draft{SearchTerm: "new"})

	assert.Equal(t, url.Values{"utm_source": {"mail"}, KeySearch: {"new"}}, next)
	assert.Equal(t, []string{"old"}, current[KeySearch], "input must not be modified")
}

func TestClearAllIdempotent(t *testing.T) {
	current := url.Values{
		KeySearch: {"x"}, KeyAddress: {"y"}, KeyCategory: {"c"}, KeySubcategory: {"s"},
		KeySortBy: {"rating"}, KeyMinRating: {"3"}, KeyBudget: {"20K_50K"}, "ref": {"home"},
	}

	once := ClearAll(current)
	for _, k := range URLKeys {
		assert.False(t, once.Has(k), "key %s should be removed", k)
	}
	assert.Equal(t, "ref=home", once.Encode())

	twice := ClearAll(once)
	assert.Equal(t, once, twice)

	committed := CommitInto(ClearAll(url.Values{}), Draft{})
	assert.Empty(t, committed.Encode())
	assert.NotNil(t, ClearAll(nil))
}
