package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Gig is a seller's listed service offering returned by /gigs/search.
type Gig struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	Pricing     GigPricing `json:"pricing"`
	Images      []Image    `json:"images"`
	Seller      GigSeller  `json:"seller"`
}

type GigPricing struct {
	Method     string              `json:"method,omitempty"`
	Fixed      decimal.NullDecimal `json:"fixedPrice"`
	MinPrice   decimal.NullDecimal `json:"minPrice"`
	MaxPrice   decimal.NullDecimal `json:"maxPrice"`
	Negotiable bool                `json:"negotiable,omitempty"`
	Currency   string              `json:"currency,omitempty"`
}

// StartingPrice returns the lowest advertised price, if any.
func (p GigPricing) StartingPrice() (decimal.Decimal, bool) {
	switch {
	case p.Fixed.Valid:
		return p.Fixed.Decimal, true
	case p.MinPrice.Valid:
		return p.MinPrice.Decimal, true
	case p.MaxPrice.Valid:
		return p.MaxPrice.Decimal, true
	}
	return decimal.Zero, false
}

type GigSeller struct {
	ID          string  `json:"_id"`
	FullName    string  `json:"fullName,omitempty"`
	Rating      float64 `json:"averageRating"`
	ReviewCount int     `json:"reviewCount,omitempty"`
}

type Image struct {
	URL string `json:"url"`
}

// UnmarshalJSON accepts both a bare URL string and an {"url": "..."} object,
// since the backend returns either depending on how the gig was created.
func (i *Image) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		i.URL = strings.TrimSpace(s)
		return nil
	}
	var obj struct {
		URL  string `json:"url"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	i.URL = obj.URL
	if i.URL == "" {
		i.URL = obj.Path
	}
	return nil
}
