package models

import (
	"time"

	"github.com/pborman/uuid"
)

// SaleCompletedState is the only state a sale row is ever written with.
// Sale rows are append-only and never mutated after creation.
const SaleCompletedState = "completed"

// Sale records one completed purchase against a link.
type Sale struct {
	ID     string `json:"id"`
	LinkID string `json:"link_id" sql:"index"`

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`

	BuyerEmail string `json:"buyer_email,omitempty"`
	BuyerName  string `json:"buyer_name,omitempty"`

	Status string `json:"status"`

	CreatedAt time.Time `json:"created_at" sql:"index"`
}

// TableName returns the database table name for the Sale model.
func (Sale) TableName() string {
	return tableName("sales")
}

// NewSale prepares a sale row for the given link.
func NewSale(link *Link, amount float64, buyerEmail, buyerName string) *Sale {
	return &Sale{
		ID:         uuid.NewRandom().String(),
		LinkID:     link.ID,
		Amount:     amount,
		Currency:   link.Currency,
		BuyerEmail: buyerEmail,
		BuyerName:  buyerName,
		Status:     SaleCompletedState,
	}
}
