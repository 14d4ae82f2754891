package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer mirrors a customer record from the booking platform. Field
// values are owned by the mirror; nothing else writes them.
type Customer struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email,omitempty"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
