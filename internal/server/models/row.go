package models

import "time"

// Row is one remote-shape row as kept by the server. Data holds the full row,
// the other fields are copies of its indexed columns. ReceivedAt is set by
// the database on every write and is not part of Data.
type Row struct {
	ID         string
	OwnerID    string
	UpdatedAt  time.Time
	IsDeleted  bool
	ReceivedAt time.Time
	Data       map[string]any
}

// RowHeader is the part of an incoming row the server checks before storing it.
type RowHeader struct {
	ID        string    `validate:"required,uuid"`
	OwnerID   string    `validate:"required,uuid"`
	CreatedAt time.Time `validate:"required"`
	UpdatedAt time.Time `validate:"required,gtefield=CreatedAt"`
	IsDeleted bool
}

// CatalogItem is an entry of the shared product catalog.
type CatalogItem struct {
	Barcode  string  `json:"barcode" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Category *string `json:"category"`
}
