package models

// AmbientLocation is the device-reported position used as a fallback when no
// location text was typed.
type AmbientLocation struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ResolvedAddress string  `json:"resolved_address"`
}

// Suggestion is one location autocomplete entry.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	DisplayName string `json:"display_name"`
}
