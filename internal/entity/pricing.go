package entity

import "bookstore-service/internal/pricing"

// PricingSession is one book-form editing session kept server side.
type PricingSession struct {
	ID     string        `json:"id"`
	BookID int           `json:"book_id,omitempty"`
	State  pricing.State `json:"state"`
}
