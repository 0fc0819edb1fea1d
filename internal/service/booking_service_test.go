package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	ownerUser  = &models.User{ID: 1, Name: "Owner", Email: "owner@example.com"}
	bookerUser = &models.User{ID: 2, Name: "Booker", Email: "booker@example.com"}
	otherUser  = &models.User{ID: 3, Name: "Stranger", Email: "stranger@example.com"}
)

func drillItem() *models.Item {
	return &models.Item{ID: 10, Name: "Drill", Description: "Cordless", Available: true, OwnerID: ownerUser.ID}
}

func waitingBooking() *models.Booking {
	return &models.Booking{
		ID:       5,
		Start:    testNow.Add(24 * time.Hour),
		End:      testNow.Add(48 * time.Hour),
		ItemID:   10,
		BookerID: bookerUser.ID,
		Status:   models.StatusWaiting,
		Version:  1,
	}
}

func newBookingService() (*BookingService, *mockRepo, *mockPublisher) {
	repo := new(mockRepo)
	bus := new(mockPublisher)
	return NewBookingService(repo, bus, testLogger()), repo, bus
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	start := testNow.Add(time.Hour)
	end := testNow.Add(3 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(drillItem(), nil)
		repo.On("CreateBooking", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
			return b.Status == models.StatusWaiting && b.ItemID == 10 && b.BookerID == bookerUser.ID &&
				b.Start.Equal(start) && b.End.Equal(end)
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 77
		}).Return(nil)
		bus.On("PublishJSON", events.EventBookingCreated, mock.MatchedBy(func(p events.BookingEventPayload) bool {
			return p.BookingID == 77 && p.OwnerID == ownerUser.ID && p.Status == "WAITING"
		})).Return(nil)

		got, err := svc.CreateBooking(ctx, bookerUser.ID, 10, start, end)
		require.NoError(t, err)
		assert.Equal(t, int64(77), got.ID)
		assert.Equal(t, models.StatusWaiting, got.Status)
		assert.Equal(t, bookerUser.ID, got.Booker.ID)
		assert.Equal(t, models.ItemRef{ID: 10, Name: "Drill", OwnerID: ownerUser.ID}, got.Item)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("BookerNotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUserByID", mock.Anything, int64(42)).Return(nil, database.ErrNotFound)

		_, err := svc.CreateBooking(ctx, 42, 10, start, end)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		for _, tc := range []struct {
			name       string
			start, end time.Time
		}{
			{"EndEqualsStart", start, start},
			{"EndBeforeStart", end, start},
		} {
			t.Run(tc.name, func(t *testing.T) {
				svc, repo, _ := newBookingService()
				repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)

				_, err := svc.CreateBooking(ctx, bookerUser.ID, 10, tc.start, tc.end)
				assert.ErrorIs(t, err, domain.ErrInvalidInterval)
				assert.ErrorIs(t, err, domain.ErrInvalidValidation)
				repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("ItemNotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
		repo.On("GetItemByID", mock.Anything, int64(99)).Return(nil, database.ErrNotFound)

		_, err := svc.CreateBooking(ctx, bookerUser.ID, 99, start, end)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ItemUnavailable", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		item := drillItem()
		item.Available = false
		repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(item, nil)

		_, err := svc.CreateBooking(ctx, bookerUser.ID, 10, start, end)
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("SelfBooking", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUserByID", mock.Anything, ownerUser.ID).Return(ownerUser, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(drillItem(), nil)

		_, err := svc.CreateBooking(ctx, ownerUser.ID, 10, start, end)
		assert.ErrorIs(t, err, domain.ErrSelfBooking)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("StorageError", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		boom := errors.New("disk full")
		repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(drillItem(), nil)
		repo.On("CreateBooking", mock.Anything, mock.Anything).Return(boom)

		_, err := svc.CreateBooking(ctx, bookerUser.ID, 10, start, end)
		assert.ErrorIs(t, err, boom)
	})
}

func expectDecideLookups(repo *mockRepo, booking *models.Booking, actor *models.User, item *models.Item) {
	repo.On("GetBooking", mock.Anything, booking.ID).Return(booking, nil)
	repo.On("GetUserByID", mock.Anything, actor.ID).Return(actor, nil)
	repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
	repo.On("GetItemByID", mock.Anything, item.ID).Return(item, nil)
}

func TestBookingService_DecideBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		expectDecideLookups(repo, waitingBooking(), ownerUser, drillItem())
		repo.On("DecideBooking", mock.Anything, int64(5), models.StatusApproved).Return(nil)
		bus.On("PublishJSON", events.EventBookingApproved, mock.Anything).Return(nil)

		got, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "true")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
		assert.Equal(t, bookerUser.ID, got.Booker.ID)
		assert.Equal(t, "Drill", got.Item.Name)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("Reject", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		expectDecideLookups(repo, waitingBooking(), ownerUser, drillItem())
		repo.On("DecideBooking", mock.Anything, int64(5), models.StatusRejected).Return(nil)
		bus.On("PublishJSON", events.EventBookingRejected, mock.Anything).Return(nil)

		got, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "false")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, got.Status)
	})

	t.Run("PublishFailureIsLoggedOnly", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		expectDecideLookups(repo, waitingBooking(), ownerUser, drillItem())
		repo.On("DecideBooking", mock.Anything, int64(5), models.StatusApproved).Return(nil)
		bus.On("PublishJSON", events.EventBookingApproved, mock.Anything).Return(errors.New("bus down"))

		_, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "true")
		assert.NoError(t, err)
	})

	t.Run("NotOwner", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		expectDecideLookups(repo, waitingBooking(), bookerUser, drillItem())

		_, err := svc.DecideBooking(ctx, 5, bookerUser.ID, "true")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		repo.AssertNotCalled(t, "DecideBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AlreadyDecided", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		booking := waitingBooking()
		booking.Status = models.StatusApproved
		expectDecideLookups(repo, booking, ownerUser, drillItem())

		_, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "false")
		assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
	})

	t.Run("StatusCheckedBeforeDecision", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		booking := waitingBooking()
		booking.Status = models.StatusRejected
		expectDecideLookups(repo, booking, ownerUser, drillItem())

		_, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "maybe")
		assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	})

	t.Run("InvalidDecision", func(t *testing.T) {
		for _, decision := range []string{"", "TRUE", "yes", "1", " true"} {
			svc, repo, _ := newBookingService()
			expectDecideLookups(repo, waitingBooking(), ownerUser, drillItem())

			_, err := svc.DecideBooking(ctx, 5, ownerUser.ID, decision)
			assert.ErrorIs(t, err, domain.ErrInvalidDecision, "decision %q", decision)
			assert.ErrorIs(t, err, domain.ErrInvalidValidation)
		}
	})

	t.Run("LostRace", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		expectDecideLookups(repo, waitingBooking(), ownerUser, drillItem())
		repo.On("DecideBooking", mock.Anything, int64(5), models.StatusApproved).Return(database.ErrConcurrentModification)

		_, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "true")
		assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	})

	t.Run("ItemUnavailable", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		item := drillItem()
		item.Available = false
		expectDecideLookups(repo, waitingBooking(), ownerUser, item)

		_, err := svc.DecideBooking(ctx, 5, ownerUser.ID, "true")
		assert.ErrorIs(t, err, domain.ErrNotAvailable)
		assert.NotErrorIs(t, err, domain.ErrAlreadyDecided)
	})

	t.Run("BookingNotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", mock.Anything, int64(404)).Return(nil, database.ErrNotFound)

		_, err := svc.DecideBooking(ctx, 404, ownerUser.ID, "true")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ActorNotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", mock.Anything, int64(5)).Return(waitingBooking(), nil)
		repo.On("GetUserByID", mock.Anything, int64(42)).Return(nil, database.ErrNotFound)

		_, err := svc.DecideBooking(ctx, 5, 42, "true")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()

	setup := func(actor *models.User) (*BookingService, *mockRepo) {
		svc, repo, _ := newBookingService()
		repo.On("GetUserByID", mock.Anything, actor.ID).Return(actor, nil)
		repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
		repo.On("GetBooking", mock.Anything, int64(5)).Return(waitingBooking(), nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(drillItem(), nil)
		return svc, repo
	}

	t.Run("Booker", func(t *testing.T) {
		svc, _ := setup(bookerUser)
		got, err := svc.GetBooking(ctx, bookerUser.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.ID)
	})

	t.Run("Owner", func(t *testing.T) {
		svc, _ := setup(ownerUser)
		got, err := svc.GetBooking(ctx, ownerUser.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, got.Status)
	})

	t.Run("Stranger", func(t *testing.T) {
		svc, _ := setup(otherUser)
		_, err := svc.GetBooking(ctx, otherUser.ID, 5)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("MissingBooking", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUserByID", mock.Anything, bookerUser.ID).Return(bookerUser, nil)
		repo.On("GetBooking", mock.Anything, int64(6)).Return(nil, database.ErrNotFound)

		_, err := svc.GetBooking(ctx, bookerUser.ID, 6)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
