package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
)

// AddressRequest carries an address book entry. A PUT replaces the whole
// entry, so every required field must be present.
type AddressRequest struct {
	Street     string `json:"street" binding:"required"`
	Apartment  string `json:"apartment"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	Country    string `json:"country" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
}

// canManageAddresses reports whether actor may touch userID's address book
func canManageAddresses(actor *models.User, userID string) bool {
	return actor.ID == userID || actor.IsAdmin
}

// ListAddresses returns a user's saved addresses. Only the owner and admins
// may read an address book.
func (s *UserService) ListAddresses(ctx context.Context, actor *models.User, userID string) ([]models.UserAddress, error) {
	ctx, span := util.StartSpan(ctx, "UserService.ListAddresses")
	defer span.End()

	if !canManageAddresses(actor, userID) {
		return nil, ErrForbidden
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListAddresses(ctx, userID)
}

// AddAddress saves a new entry in a user's address book
func (s *UserService) AddAddress(ctx context.Context, actor *models.User, userID string, req AddressRequest) (*models.UserAddress, error) {
	ctx, span := util.StartSpan(ctx, "UserService.AddAddress")
	defer span.End()

	if !canManageAddresses(actor, userID) {
		return nil, ErrForbidden
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	address := &models.UserAddress{
		ID:         uuid.NewString(),
		UserID:     userID,
		Street:     req.Street,
		Apartment:  req.Apartment,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
	}
	if err := s.store.CreateAddress(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return address, nil
}

// UpdateAddress replaces an entry in a user's address book. An entry that
// belongs to a different user reads as not found.
func (s *UserService) UpdateAddress(ctx context.Context, actor *models.User, userID, addressID string, req AddressRequest) (*models.UserAddress, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateAddress")
	defer span.End()

	if !canManageAddresses(actor, userID) {
		return nil, ErrForbidden
	}

	address, err := s.store.GetAddressByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, fmt.Errorf("address %s: %w", addressID, store.ErrNotFound)
	}

	address.Street = req.Street
	address.Apartment = req.Apartment
	address.City = req.City
	address.State = req.State
	address.Country = req.Country
	address.PostalCode = req.PostalCode

	if err := s.store.UpdateAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress removes an entry from a user's address book
func (s *UserService) DeleteAddress(ctx context.Context, actor *models.User, userID, addressID string) error {
	ctx, span := util.StartSpan(ctx, "UserService.DeleteAddress")
	defer span.End()

	if !canManageAddresses(actor, userID) {
		return ErrForbidden
	}

	address, err := s.store.GetAddressByID(ctx, addressID)
	if err != nil {
		return err
	}
	if address.UserID != userID {
		return fmt.Errorf("address %s: %w", addressID, store.ErrNotFound)
	}

	return s.store.DeleteAddress(ctx, addressID)
}
