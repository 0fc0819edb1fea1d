package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type CommentService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCommentService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *CommentService {
	l := logger.With().Str("component", "comment_service").Logger()
	return &CommentService{repo: repo, eventBus: eventBus, logger: &l}
}

// CanComment reports whether userID has a booking of itemID that ended
// before now. The booking status is not considered.
func (s *CommentService) CanComment(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	return s.repo.HasFinishedBooking(ctx, userID, itemID, now)
}

func (s *CommentService) SubmitComment(ctx context.Context, userID, itemID int64, text string, now time.Time) (*models.CommentView, error) {
	author, err := findUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if _, err := findItem(ctx, s.repo, itemID); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Invalidf("comment text is blank")
	}

	ok, err := s.CanComment(ctx, userID, itemID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotEligible
	}

	comment := &models.Comment{Text: text, ItemID: itemID, AuthorID: userID, Created: now.UTC()}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("comment_id", comment.ID).Int64("item_id", itemID).Int64("author_id", userID).Msg("Comment added")
	if s.eventBus != nil {
		payload := events.CommentEventPayload{CommentID: comment.ID, ItemID: itemID, AuthorID: userID, Created: comment.Created}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	return &models.CommentView{ID: comment.ID, Text: comment.Text, AuthorName: author.Name, Created: comment.Created}, nil
}
