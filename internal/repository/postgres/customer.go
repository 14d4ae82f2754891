package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonloop/notifier/internal/model"
	"github.com/salonloop/notifier/internal/repository"
)

type customerRepository struct {
	*BaseRepository
}

func NewCustomerRepository(base *BaseRepository) repository.CustomerRepository {
	return &customerRepository{BaseRepository: base}
}

func (r *customerRepository) Upsert(ctx context.Context, customer *model.Customer) (uuid.UUID, error) {
	query := `
		INSERT INTO customers (id, external_id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (external_id) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	now := time.Now().UTC()

	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, query,
		customer.ID,
		customer.ExternalID,
		customer.Name,
		customer.Email,
		customer.Phone,
		now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	customer.ID = id
	return id, nil
}

func (r *customerRepository) GetByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	query := `
		SELECT id, external_id, name, email, phone, created_at, updated_at
		FROM customers
		WHERE external_id = $1
	`
	var customer model.Customer
	if err := r.db.GetContext(ctx, &customer, query, externalID); err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &customer, nil
}
