package service

import (
	"context"
	"errors"
	"fmt"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
)

func findUser(ctx context.Context, repo domain.UserRepository, id int64) (*models.User, error) {
	user, err := repo.GetUserByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFoundf("user %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return user, nil
}

func findItem(ctx context.Context, repo domain.ItemRepository, id int64) (*models.Item, error) {
	item, err := repo.GetItemByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFoundf("item %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %d: %w", id, err)
	}
	return item, nil
}

func findBooking(ctx context.Context, repo domain.BookingRepository, id int64) (*models.Booking, error) {
	booking, err := repo.GetBooking(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFoundf("booking %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %d: %w", id, err)
	}
	return booking, nil
}

func validatePage(from, size int) error {
	if from < 0 {
		return domain.Invalidf("from must not be negative, got %d", from)
	}
	if size < 1 {
		return domain.Invalidf("size must be positive, got %d", size)
	}
	return nil
}

func bookingDetails(b *models.Booking, booker *models.User, item *models.Item) *models.BookingDetails {
	return &models.BookingDetails{
		ID:     b.ID,
		Start:  b.Start,
		End:    b.End,
		Status: b.Status,
		Booker: models.UserRef{ID: booker.ID, Name: booker.Name},
		Item:   models.ItemRef{ID: item.ID, Name: item.Name, OwnerID: item.OwnerID},
	}
}
