package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anchorhub/backoffice/internal/domain"
	"github.com/anchorhub/backoffice/internal/repository"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

// AddressBook manages user shipping addresses. Every user with at least one
// address has exactly one primary address.
type AddressBook struct {
	repo   repository.AddressRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewAddressBook(repo repository.AddressRepository, events EventPublisher, logger *slog.Logger) *AddressBook {
	return &AddressBook{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAddressInput holds the parameters for creating an address. Country
// defaults to domain.DefaultCountry and AddressType to Home.
type CreateAddressInput struct {
	AddressLine string
	City        string
	State       string
	PostalCode  string
	Country     string
	PhoneNumber string
	AddressType domain.AddressType
	IsPrimary   bool
}

// UpdateAddressInput holds a partial address update. Nil fields are left unchanged.
type UpdateAddressInput struct {
	AddressLine *string
	City        *string
	State       *string
	PostalCode  *string
	Country     *string
	PhoneNumber *string
	AddressType *domain.AddressType
	IsPrimary   *bool
}

func (in *CreateAddressInput) validate() error {
	if in.Country == "" {
		in.Country = domain.DefaultCountry
	}
	if in.AddressType == "" {
		in.AddressType = domain.AddressTypeHome
	}

	required := []struct{ name, value string }{
		{"address_line", in.AddressLine},
		{"city", in.City},
		{"state", in.State},
		{"postal_code", in.PostalCode},
		{"country", in.Country},
		{"phone_number", in.PhoneNumber},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.InvalidInputf("%s is required", f.name)
		}
	}
	if !in.AddressType.Valid() {
		return apperrors.InvalidInputf("invalid address type %q", in.AddressType)
	}
	return nil
}

// ListAddresses returns the user's addresses, primary first.
func (s *AddressBook) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	addrs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	if addrs == nil {
		addrs = []domain.Address{}
	}
	return addrs, nil
}

func (s *AddressBook) GetAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	addr, err := s.repo.GetByID(ctx, userID, addressID)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return addr, nil
}

// CreateAddress stores a new address. The user's first address is always
// primary; a new primary address demotes the current one.
func (s *AddressBook) CreateAddress(ctx context.Context, userID string, input *CreateAddressInput) (*domain.Address, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	addr := &domain.Address{
		ID:          uuid.New().String(),
		UserID:      userID,
		AddressLine: input.AddressLine,
		City:        input.City,
		State:       input.State,
		PostalCode:  input.PostalCode,
		Country:     input.Country,
		PhoneNumber: input.PhoneNumber,
		AddressType: input.AddressType,
		IsPrimary:   input.IsPrimary,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var previous string
	err := s.repo.WithinUserLock(ctx, userID, func(tx repository.AddressTx) error {
		existing, err := tx.List(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			addr.IsPrimary = true
		}
		if addr.IsPrimary {
			previous = primaryID(existing)
			if err := tx.ClearPrimary(ctx, userID); err != nil {
				return err
			}
		}
		if err := tx.Insert(ctx, addr); err != nil {
			return err
		}
		return ensureSinglePrimary(ctx, tx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	if addr.IsPrimary {
		s.primaryChanged(ctx, addr, previous)
	}
	s.logger.InfoContext(ctx, "address created",
		slog.String("user_id", userID),
		slog.String("address_id", addr.ID),
		slog.Bool("is_primary", addr.IsPrimary),
	)
	return addr, nil
}

// SetPrimary makes addressID the user's only primary address.
func (s *AddressBook) SetPrimary(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	var (
		target   *domain.Address
		previous string
	)
	err := s.repo.WithinUserLock(ctx, userID, func(tx repository.AddressTx) error {
		addrs, err := tx.List(ctx, userID)
		if err != nil {
			return err
		}
		target = findAddress(addrs, addressID)
		if target == nil {
			return apperrors.NotFound("address", addressID)
		}
		previous = primaryID(addrs)

		if err := tx.ClearPrimary(ctx, userID); err != nil {
			return err
		}
		if err := tx.MarkPrimary(ctx, userID, addressID); err != nil {
			return err
		}
		return ensureSinglePrimary(ctx, tx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("set primary address: %w", err)
	}

	target.IsPrimary = true
	if previous != addressID {
		s.primaryChanged(ctx, target, previous)
	}
	s.logger.InfoContext(ctx, "primary address set",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)
	return target, nil
}

// UpdateAddress applies a partial update. Setting is_primary demotes the
// other addresses. Clearing is_primary on the current primary is ignored:
// the flag moves only by promoting another address.
func (s *AddressBook) UpdateAddress(ctx context.Context, userID, addressID string, input *UpdateAddressInput) (*domain.Address, error) {
	var (
		target   *domain.Address
		promoted bool
		previous string
	)
	err := s.repo.WithinUserLock(ctx, userID, func(tx repository.AddressTx) error {
		addrs, err := tx.List(ctx, userID)
		if err != nil {
			return err
		}
		target = findAddress(addrs, addressID)
		if target == nil {
			return apperrors.NotFound("address", addressID)
		}
		if err := applyAddressUpdate(target, input); err != nil {
			return err
		}

		if input.IsPrimary != nil && *input.IsPrimary && !target.IsPrimary {
			previous = primaryID(addrs)
			if err := tx.ClearPrimary(ctx, userID); err != nil {
				return err
			}
			target.IsPrimary = true
			promoted = true
		}

		target.UpdatedAt = s.now()
		if err := tx.Update(ctx, target); err != nil {
			return err
		}
		return ensureSinglePrimary(ctx, tx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}

	if promoted {
		s.primaryChanged(ctx, target, previous)
	}
	s.logger.InfoContext(ctx, "address updated",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)
	return target, nil
}

// DeleteAddress removes an address. When the primary address is deleted the
// oldest remaining address becomes primary.
func (s *AddressBook) DeleteAddress(ctx context.Context, userID, addressID string) error {
	var successor *domain.Address
	err := s.repo.WithinUserLock(ctx, userID, func(tx repository.AddressTx) error {
		addrs, err := tx.List(ctx, userID)
		if err != nil {
			return err
		}
		target := findAddress(addrs, addressID)
		if target == nil {
			return apperrors.NotFound("address", addressID)
		}

		if err := tx.Delete(ctx, userID, addressID); err != nil {
			return err
		}
		if target.IsPrimary {
			for i := range addrs {
				if addrs[i].ID != addressID {
					successor = &addrs[i]
					break
				}
			}
			if successor != nil {
				if err := tx.MarkPrimary(ctx, userID, successor.ID); err != nil {
					return err
				}
				successor.IsPrimary = true
			}
		}
		return ensureSinglePrimary(ctx, tx, userID)
	})
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if successor != nil {
		s.primaryChanged(ctx, successor, addressID)
	}
	s.logger.InfoContext(ctx, "address deleted",
		slog.String("user_id", userID),
		slog.String("address_id", addressID),
	)
	return nil
}

func (s *AddressBook) primaryChanged(ctx context.Context, addr *domain.Address, previous string) {
	primaryAddressChanges.Inc()
	if err := s.events.PublishPrimaryChanged(ctx, addr, previous); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish primary_changed event",
			slog.String("user_id", addr.UserID),
			slog.String("address_id", addr.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ensureSinglePrimary runs before commit of every address mutation.
func ensureSinglePrimary(ctx context.Context, tx repository.AddressTx, userID string) error {
	primaries, total, err := tx.CountPrimaries(ctx, userID)
	if err != nil {
		return err
	}
	if total > 0 && primaries != 1 {
		return apperrors.InvariantViolation(
			fmt.Sprintf("user has %d primary addresses among %d", primaries, total))
	}
	return nil
}

func applyAddressUpdate(a *domain.Address, in *UpdateAddressInput) error {
	fields := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"address_line", in.AddressLine, &a.AddressLine},
		{"city", in.City, &a.City},
		{"state", in.State, &a.State},
		{"postal_code", in.PostalCode, &a.PostalCode},
		{"country", in.Country, &a.Country},
		{"phone_number", in.PhoneNumber, &a.PhoneNumber},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if strings.TrimSpace(*f.src) == "" {
			return apperrors.InvalidInputf("%s must not be empty", f.name)
		}
		*f.dst = *f.src
	}
	if in.AddressType != nil {
		if !in.AddressType.Valid() {
			return apperrors.InvalidInputf("invalid address type %q", *in.AddressType)
		}
		a.AddressType = *in.AddressType
	}
	return nil
}

func findAddress(addrs []domain.Address, id string) *domain.Address {
	for i := range addrs {
		if addrs[i].ID == id {
			a := addrs[i]
			return &a
		}
	}
	return nil
}

func primaryID(addrs []domain.Address) string {
	for _, a := range addrs {
		if a.IsPrimary {
			return a.ID
		}
	}
	return ""
}
