package models

// Category is a top-level service category as returned by the marketplace API.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
