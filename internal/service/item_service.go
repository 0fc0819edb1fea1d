package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	l := logger.With().Str("component", "item_service").Logger()
	return &ItemService{repo: repo, logger: &l}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := findUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, domain.Invalidf("item name is blank")
	}

	created := *item
	created.ID = 0
	created.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, &created); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", created.ID).Int64("owner_id", ownerID).Msg("Item created")
	return &created, nil
}

// UpdateItem applies patch for the owner. Anyone else gets ErrNotFound.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	if _, err := findUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}
	item, err := findItem(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: user %d does not own item %d", domain.ErrForbidden, ownerID, itemID)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.Invalidf("item name is blank")
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.NotFoundf("item %d", itemID)
		}
		return nil, err
	}
	return item, nil
}

// Project finds the bookings on the item closest to now on either side:
// the one that ended last and the one that starts next.
func (s *ItemService) Project(ctx context.Context, itemID int64, now time.Time) (*models.Projection, error) {
	if _, err := findItem(ctx, s.repo, itemID); err != nil {
		return nil, err
	}
	return s.project(ctx, itemID, now)
}

func (s *ItemService) project(ctx context.Context, itemID int64, now time.Time) (*models.Projection, error) {
	last, err := s.repo.GetLastBooking(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	next, err := s.repo.GetNextBooking(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	return &models.Projection{Last: models.NewBookingInfo(last), Next: models.NewBookingInfo(next)}, nil
}

// GetItem shows the owner view to the owner and the booker view to others.
func (s *ItemService) GetItem(ctx context.Context, actorID, itemID int64, now time.Time) (*models.ItemView, error) {
	if _, err := findUser(ctx, s.repo, actorID); err != nil {
		return nil, err
	}
	item, err := findItem(ctx, s.repo, itemID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.GetCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID != actorID {
		return &models.ItemView{Role: models.RoleBooker, Booker: bookerView(item, comments)}, nil
	}

	projection, err := s.project(ctx, itemID, now)
	if err != nil {
		return nil, err
	}
	return &models.ItemView{Role: models.RoleOwner, Owner: ownerView(item, projection, comments)}, nil
}

// ListOwnerItems returns a page of the owner's items, each with its
// projection and comments.
func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64, from, size int, now time.Time) ([]*models.OwnerItemView, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.repo, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID, models.NewPage(from, size))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	comments, err := s.repo.GetCommentsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.OwnerItemView, 0, len(items))
	for _, item := range items {
		projection, err := s.project(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		views = append(views, ownerView(item, projection, comments[item.ID]))
	}
	return views, nil
}

func (s *ItemService) SearchItems(ctx context.Context, actorID int64, text string, from, size int) ([]*models.Item, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if _, err := findUser(ctx, s.repo, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, models.NewPage(from, size))
}

func ownerView(item *models.Item, p *models.Projection, comments []*models.CommentView) *models.OwnerItemView {
	return &models.OwnerItemView{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		RequestID:   item.RequestID,
		LastBooking: p.Last,
		NextBooking: p.Next,
		Comments:    copyComments(comments),
	}
}

func bookerView(item *models.Item, comments []*models.CommentView) *models.BookerItemView {
	return &models.BookerItemView{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		RequestID:   item.RequestID,
		Comments:    copyComments(comments),
	}
}

func copyComments(in []*models.CommentView) []models.CommentView {
	out := make([]models.CommentView, 0, len(in))
	for _, c := range in {
		out = append(out, *c)
	}
	return out
}
