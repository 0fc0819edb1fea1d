package service

import (
	"context"
	"io"
	"time"

	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) DecideBooking(ctx context.Context, id int64, s models.BookingStatus) error {
	return m.Called(ctx, id, s).Error(0)
}
func (m *mockRepo) ListBookings(ctx context.Context, f models.BookingFilter, p models.Page) ([]*models.BookingRow, error) {
	args := m.Called(ctx, f, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BookingRow), args.Error(1)
}
func (m *mockRepo) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, bookerID, itemID, now)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) CreateItem(ctx context.Context, i *models.Item) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}
func (m *mockRepo) UpdateItem(ctx context.Context, i *models.Item) error {
	return m.Called(ctx, i).Error(0)
}
func (m *mockRepo) GetItemsByOwner(ctx context.Context, ownerID int64, p models.Page) ([]*models.Item, error) {
	args := m.Called(ctx, ownerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *mockRepo) SearchItems(ctx context.Context, text string, p models.Page) ([]*models.Item, error) {
	args := m.Called(ctx, text, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Item), args.Error(1)
}
func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockRepo) GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.CommentView, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommentView), args.Error(1)
}
func (m *mockRepo) GetCommentsByItems(ctx context.Context, itemIDs []int64) (map[int64][]*models.CommentView, error) {
	args := m.Called(ctx, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*models.CommentView), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}
