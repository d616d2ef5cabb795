package models

import "time"

// ProductStatus controls public visibility of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// LocalizedText carries the zh/en pair every public string is stored as.
type LocalizedText struct {
	Zh string `json:"zh"`
	En string `json:"en"`
}

// Specification is one key/value row of a product spec sheet.
type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Product maps to the `products` table. Images and Specifications are stored
// as JSON text columns.
type Product struct {
	ID             string          `db:"id" json:"_id"`
	Name           LocalizedText   `json:"name"`
	Description    LocalizedText   `json:"description"`
	Category       string          `db:"category" json:"category"`
	Images         []string        `db:"images" json:"images"`
	Specifications []Specification `db:"specifications" json:"specifications"`
	Price          *float64        `db:"price" json:"price"`
	Featured       bool            `db:"featured" json:"featured"`
	Status         ProductStatus   `db:"status" json:"status"`
	SortOrder      int             `db:"sort_order" json:"order"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}
