package models

type Subcategory struct {
	ID         string `json:"_id"`
	CategoryID string `json:"categoryId,omitempty"`
	Name       string `json:"name"`
}
