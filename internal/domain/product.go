package domain

import "time"

// MaxPrice caps a unit price, in minor units.
const MaxPrice int64 = 100_000_000_000

// Product is a catalog entry. Price is expressed in minor currency units.
type Product struct {
	ID          string
	Name        string
	Price       int64
	Description string
	Image       string
	Category    string
	Quantity    int64
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
