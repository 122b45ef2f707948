package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// CreateAddress inserts a new address book entry
func (s *Store) CreateAddress(ctx context.Context, a *models.UserAddress) error {
	query := `
		INSERT INTO addresses (id, user_id, street, apartment, city, state, country, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, a, query,
		a.ID, a.UserID, a.Street, a.Apartment, a.City, a.State, a.Country, a.PostalCode)
}

// GetAddressByID retrieves a single address book entry
func (s *Store) GetAddressByID(ctx context.Context, id string) (*models.UserAddress, error) {
	var a models.UserAddress
	err := s.db.GetContext(ctx, &a, "SELECT * FROM addresses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("address %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAddresses retrieves a user's address book, oldest first
func (s *Store) ListAddresses(ctx context.Context, userID string) ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	err := s.db.SelectContext(ctx, &addresses,
		"SELECT * FROM addresses WHERE user_id = $1 ORDER BY created_at", userID)
	return addresses, err
}

// UpdateAddress replaces the fields of an existing address book entry
func (s *Store) UpdateAddress(ctx context.Context, a *models.UserAddress) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE addresses
		SET street = $1, apartment = $2, city = $3, state = $4,
		    country = $5, postal_code = $6, updated_at = NOW()
		WHERE id = $7`,
		a.Street, a.Apartment, a.City, a.State, a.Country, a.PostalCode, a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("address %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// DeleteAddress removes an address book entry
func (s *Store) DeleteAddress(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM addresses WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("address %s: %w", id, ErrNotFound)
	}
	return nil
}
