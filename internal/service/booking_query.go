package service

import (
	"context"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// BookingQueryService answers the six booking views for renters and owners.
type BookingQueryService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBookingQueryService(repo domain.Repository, logger *zerolog.Logger) *BookingQueryService {
	l := logger.With().Str("component", "booking_query").Logger()
	return &BookingQueryService{repo: repo, logger: &l, now: time.Now}
}

func (s *BookingQueryService) ListBookerBookings(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.BookingDetails, error) {
	filter, page, err := s.prepare(state, from, size)
	if err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.repo, bookerID); err != nil {
		return nil, err
	}

	filter.BookerID = bookerID
	return s.list(ctx, filter, page)
}

// ListOwnerBookings fails with ErrNoItems for a user owning nothing, even
// though the view itself would simply be empty.
func (s *BookingQueryService) ListOwnerBookings(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.BookingDetails, error) {
	filter, page, err := s.prepare(state, from, size)
	if err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}

	probe, err := s.repo.GetItemsByOwner(ctx, ownerID, models.Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(probe) == 0 {
		return nil, domain.ErrNoItems
	}

	filter.OwnerID = ownerID
	return s.list(ctx, filter, page)
}

func (s *BookingQueryService) prepare(state string, from, size int) (models.BookingFilter, models.Page, error) {
	if err := validatePage(from, size); err != nil {
		return models.BookingFilter{}, models.Page{}, err
	}
	st, ok := models.ParseBookingState(state)
	if !ok {
		return models.BookingFilter{}, models.Page{}, &domain.UnknownStateError{State: state}
	}
	return stateFilter(st, s.now()), models.NewPage(from, size), nil
}

// stateFilter maps a view onto store predicates. All time bounds are strict.
func stateFilter(state models.BookingState, now time.Time) models.BookingFilter {
	var f models.BookingFilter
	switch state {
	case models.StateCurrent:
		f.StartBefore, f.EndAfter = &now, &now
	case models.StatePast:
		f.EndBefore = &now
	case models.StateFuture:
		f.StartAfter = &now
	case models.StateWaiting:
		f.Status = models.StatusWaiting
	case models.StateRejected:
		f.Status = models.StatusRejected
	}
	return f
}

func (s *BookingQueryService) list(ctx context.Context, filter models.BookingFilter, page models.Page) ([]*models.BookingDetails, error) {
	rows, err := s.repo.ListBookings(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result := make([]*models.BookingDetails, 0, len(rows))
	for _, row := range rows {
		if row.Item == nil || row.Booker == nil {
			s.logger.Debug().Int64("booking_id", row.ID).Msg("Skipping booking with dangling reference")
			continue
		}
		result = append(result, &models.BookingDetails{
			ID:     row.ID,
			Start:  row.Start,
			End:    row.End,
			Status: row.Status,
			Booker: *row.Booker,
			Item:   *row.Item,
		})
	}
	return result, nil
}
