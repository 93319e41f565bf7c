// Package filters holds the faceted search state: the editable draft, its
// URL form and the backend query derived from it.
package filters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownField = errors.New("filters: unknown field")
	ErrInvalidValue = errors.New("filters: invalid value")
)

// Field names a draft field as it is addressed by setField.
type Field string

const (
	FieldSearchTerm    Field = "searchTerm"
	FieldLocationText  Field = "locationText"
	FieldCategoryID    Field = "categoryId"
	FieldSubcategoryID Field = "subcategoryId"
	FieldBudget        Field = "budgetBucket"
	FieldSort          Field = "sortKey"
	FieldMinRating     Field = "minRating"
)

// Fields lists every draft field in display order.
var Fields = []Field{
	FieldSearchTerm,
	FieldLocationText,
	FieldCategoryID,
	FieldSubcategoryID,
	FieldBudget,
	FieldSort,
	FieldMinRating,
}

type Budget string

const (
	BudgetAny        Budget = ""
	BudgetUnder20K   Budget = "UNDER_20K"
	Budget20KTo50K   Budget = "20K_50K"
	Budget50KTo100K  Budget = "50K_100K"
	BudgetOver100K   Budget = "OVER_100K"
	BudgetNegotiable Budget = "NEGOTIABLE"
)

var budgets = map[Budget]struct{}{
	BudgetAny:        {},
	BudgetUnder20K:   {},
	Budget20KTo50K:   {},
	Budget50KTo100K:  {},
	BudgetOver100K:   {},
	BudgetNegotiable: {},
}

// ParseBudget reports whether s is a known budget bucket.
func ParseBudget(s string) (Budget, bool) {
	b := Budget(s)
	_, ok := budgets[b]
	return b, ok
}

type SortKey string

const (
	SortNone       SortKey = ""
	SortRating     SortKey = "rating"
	SortExperience SortKey = "experience"
	SortPriceLow   SortKey = "price_low"
	SortPriceHigh  SortKey = "price_high"
	SortNewest     SortKey = "newest"
)

var sortKeys = map[SortKey]struct{}{
	SortNone:       {},
	SortRating:     {},
	SortExperience: {},
	SortPriceLow:   {},
	SortPriceHigh:  {},
	SortNewest:     {},
}

func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(s)
	_, ok := sortKeys[k]
	return k, ok
}

// ParseRating accepts "" or an integer 0..5 and returns its canonical form.
func ParseRating(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 5 {
		return "", false
	}
	return strconv.Itoa(n), true
}

// Draft is the user's in-progress filter selection. The empty string means
// "unset" for every field.
type Draft struct {
	SearchTerm    string  `json:"searchTerm"`
	LocationText  string  `json:"locationText"`
	CategoryID    string  `json:"categoryId"`
	SubcategoryID string  `json:"subcategoryId"`
	Budget        Budget  `json:"budgetBucket"`
	Sort          SortKey `json:"sortKey"`
	MinRating     string  `json:"minRating"`
}

// Committed is a draft snapshot that has been written to the URL. It is what
// the results view reflects.
type Committed Draft

func (c Committed) Draft() Draft { return Draft(c) }

// IsZero reports whether no filter is set.
func (d Draft) IsZero() bool { return d == Draft{} }

// Normalize trims free-text fields and clears placeholder ids. Committing
// always stores the normalized form, so a whitespace-only value is the same
// as unset.
func (d Draft) Normalize() Draft {
	d.SearchTerm = strings.TrimSpace(d.SearchTerm)
	d.LocationText = strings.TrimSpace(d.LocationText)
	d.CategoryID = normalizeID(d.CategoryID)
	d.SubcategoryID = normalizeID(d.SubcategoryID)
	return d
}

// normalizeID maps the "undefined"/"null" placeholders that leak from
// unset select values to "". Free text keeps those words as typed.
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "undefined", "null":
		return ""
	}
	return s
}

// Get returns the current value of a field.
func (d Draft) Get(name Field) (string, error) {
	switch name {
	case FieldSearchTerm:
		return d.SearchTerm, nil
	case FieldLocationText:
		return d.LocationText, nil
	case FieldCategoryID:
		return d.CategoryID, nil
	case FieldSubcategoryID:
		return d.SubcategoryID, nil
	case FieldBudget:
		return string(d.Budget), nil
	case FieldSort:
		return string(d.Sort), nil
	case FieldMinRating:
		return d.MinRating, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// SetField is the draft reducer: it returns d with one field replaced.
// Choosing a category clears the subcategory in the same transition, even
// when the category is unchanged.
func SetField(d Draft, name Field, value string) (Draft, error) {
	switch name {
	case FieldSearchTerm:
		d.SearchTerm = value
	case FieldLocationText:
		d.LocationText = value
	case FieldCategoryID:
		d.CategoryID = value
		d.SubcategoryID = ""
	case FieldSubcategoryID:
		d.SubcategoryID = value
	case FieldBudget:
		b, ok := ParseBudget(value)
		if !ok {
			return d, fmt.Errorf("%w: budget %q", ErrInvalidValue, value)
		}
		d.Budget = b
	case FieldSort:
		k, ok := ParseSortKey(value)
		if !ok {
			return d, fmt.Errorf("%w: sort %q", ErrInvalidValue, value)
		}
		d.Sort = k
	case FieldMinRating:
		r, ok := ParseRating(value)
		if !ok {
			return d, fmt.Errorf("%w: rating %q", ErrInvalidValue, value)
		}
		d.MinRating = r
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return d, nil
}
