package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// DecideBooking moves a WAITING booking to status. It fails when the
	// booking is no longer WAITING.
	DecideBooking(ctx context.Context, id int64, status models.BookingStatus) error
	ListBookings(ctx context.Context, filter models.BookingFilter, page models.Page) ([]*models.BookingRow, error)
	GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.CommentView, error)
	GetCommentsByItems(ctx context.Context, itemIDs []int64) (map[int64][]*models.CommentView, error)
}

type Repository interface {
	BookingRepository
	ItemRepository
	UserRepository
	CommentRepository
}

// RateLimitRepository counts write requests per acting user in fixed windows.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error)
	DecideBooking(ctx context.Context, bookingID, actorID int64, decision string) (*models.BookingDetails, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error)
}

type BookingQueryService interface {
	ListBookerBookings(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.BookingDetails, error)
	ListOwnerBookings(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.BookingDetails, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, actorID, itemID int64, now time.Time) (*models.ItemView, error)
	ListOwnerItems(ctx context.Context, ownerID int64, from, size int, now time.Time) ([]*models.OwnerItemView, error)
	SearchItems(ctx context.Context, actorID int64, text string, from, size int) ([]*models.Item, error)
	Project(ctx context.Context, itemID int64, now time.Time) (*models.Projection, error)
}

type CommentService interface {
	CanComment(ctx context.Context, userID, itemID int64, now time.Time) (bool, error)
	SubmitComment(ctx context.Context, userID, itemID int64, text string, now time.Time) (*models.CommentView, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}
