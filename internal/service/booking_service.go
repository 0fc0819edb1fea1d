package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

const (
	decisionApprove = "true"
	decisionReject  = "false"
)

// BookingService owns the booking lifecycle: a renter creates a WAITING
// booking and the item owner decides it exactly once.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	l := logger.With().Str("component", "booking_service").Logger()
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   &l,
		now:      time.Now,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error) {
	booker, err := findUser(ctx, s.repo, bookerID)
	if err != nil {
		return nil, err
	}

	if !end.After(start) {
		return nil, domain.ErrInvalidInterval
	}

	item, err := findItem(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domain.NotAvailablef("item %d is not available", item.ID)
	}
	if item.OwnerID == bookerID {
		return nil, domain.ErrSelfBooking
	}

	booking := &models.Booking{
		Start:    start.UTC(),
		End:      end.UTC(),
		ItemID:   item.ID,
		BookerID: booker.ID,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", item.ID).
		Int64("booker_id", booker.ID).
		Msg("Booking created")
	s.publishEvent(events.EventBookingCreated, booking, item, bookerID)

	return bookingDetails(booking, booker, item), nil
}

// DecideBooking approves ("true") or rejects ("false") a WAITING booking on
// behalf of the item owner.
func (s *BookingService) DecideBooking(ctx context.Context, bookingID, actorID int64, decision string) (*models.BookingDetails, error) {
	booking, err := findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.repo, actorID); err != nil {
		return nil, err
	}
	booker, err := findUser(ctx, s.repo, booking.BookerID)
	if err != nil {
		return nil, err
	}
	item, err := findItem(ctx, s.repo, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domain.NotAvailablef("item %d is not available", item.ID)
	}
	if item.OwnerID != actorID {
		return nil, fmt.Errorf("%w: user %d does not own item %d", domain.ErrForbidden, actorID, item.ID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, domain.ErrAlreadyDecided
	}

	var (
		status    models.BookingStatus
		eventType string
	)
	switch decision {
	case decisionApprove:
		status, eventType = models.StatusApproved, events.EventBookingApproved
	case decisionReject:
		status, eventType = models.StatusRejected, events.EventBookingRejected
	default:
		return nil, domain.ErrInvalidDecision
	}

	err = s.repo.DecideBooking(ctx, booking.ID, status)
	switch {
	case errors.Is(err, database.ErrConcurrentModification):
		return nil, domain.ErrAlreadyDecided
	case errors.Is(err, database.ErrNotFound):
		return nil, domain.NotFoundf("booking %d", booking.ID)
	case err != nil:
		return nil, err
	}
	booking.Status = status
	booking.Version++

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("owner_id", actorID).
		Str("status", string(status)).
		Msg("Booking decided")
	s.publishEvent(eventType, booking, item, actorID)

	return bookingDetails(booking, booker, item), nil
}

// GetBooking returns the booking to its booker or to the item owner.
func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error) {
	if _, err := findUser(ctx, s.repo, actorID); err != nil {
		return nil, err
	}
	booking, err := findBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := findItem(ctx, s.repo, booking.ItemID)
	if err != nil {
		return nil, err
	}
	booker, err := findUser(ctx, s.repo, booking.BookerID)
	if err != nil {
		return nil, err
	}

	if actorID != booking.BookerID && actorID != item.OwnerID {
		return nil, fmt.Errorf("%w: user %d cannot view booking %d", domain.ErrForbidden, actorID, booking.ID)
	}

	return bookingDetails(booking, booker, item), nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, item *models.Item, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		BookerID:  booking.BookerID,
		OwnerID:   item.OwnerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
