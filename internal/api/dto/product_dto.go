package dto

import "time"

// ProductCreateRequest payload. Prices are minor currency units.
type ProductCreateRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Quantity    int64  `json:"quantity"`
}

// ProductUpdateRequest payload. Quantity is not accepted here.
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Price       *int64  `json:"price"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Category    *string `json:"category"`
}

// StockAdjustRequest payload.
type StockAdjustRequest struct {
	Delta int64 `json:"delta"`
}

// ProductResponse representation.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	Quantity    int64     `json:"quantity"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
