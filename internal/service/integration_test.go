package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	db       *database.DB
	bookings *BookingService
	queries  *BookingQueryService
	items    *ItemService
	comments *CommentService
	users    *UserService
	bus      *events.EventBus
}

func newStack(t *testing.T, now time.Time) *stack {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "shareit.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus()
	s := &stack{
		db:       db,
		bookings: NewBookingService(db, bus, &logger),
		queries:  NewBookingQueryService(db, &logger),
		items:    NewItemService(db, &logger),
		comments: NewCommentService(db, bus, &logger),
		users:    NewUserService(db, &logger),
		bus:      bus,
	}
	s.bookings.now = func() time.Time { return now }
	s.queries.now = func() time.Time { return now }
	return s
}

func (s *stack) user(t *testing.T, name string) *models.User {
	u, err := s.users.CreateUser(context.Background(), &models.User{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	return u
}

func (s *stack) item(t *testing.T, owner *models.User, name string) *models.Item {
	it, err := s.items.CreateItem(context.Background(), owner.ID, &models.Item{Name: name, Description: name, Available: true})
	require.NoError(t, err)
	return it
}

func TestScenario_ApproveAndRedecide(t *testing.T) {
	now := time.Now().UTC()
	s := newStack(t, now)
	ctx := context.Background()

	var approvals int
	s.bus.Subscribe(events.EventBookingApproved, func(*events.Event) error { approvals++; return nil })

	u1, u2 := s.user(t, "u1"), s.user(t, "u2")
	drill := s.item(t, u1, "drill")

	created, err := s.bookings.CreateBooking(ctx, u2.ID, drill.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, created.Status)

	approved, err := s.bookings.DecideBooking(ctx, created.ID, u1.ID, "true")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, u2.ID, approved.Booker.ID)
	assert.Equal(t, drill.ID, approved.Item.ID)
	assert.Equal(t, "drill", approved.Item.Name)

	_, err = s.bookings.DecideBooking(ctx, created.ID, u1.ID, "false")
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	got, err := s.bookings.GetBooking(ctx, u2.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, 1, approvals)
}

func TestScenario_ConcurrentDecide(t *testing.T) {
	now := time.Now().UTC()
	s := newStack(t, now)
	ctx := context.Background()

	owner, booker := s.user(t, "owner"), s.user(t, "booker")
	drill := s.item(t, owner, "drill")
	created, err := s.bookings.CreateBooking(ctx, booker.ID, drill.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision := "true"
			if i%2 == 0 {
				decision = "false"
			}
			_, err := s.bookings.DecideBooking(ctx, created.ID, owner.ID, decision)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	}
	assert.Equal(t, 1, ok)
}

func TestScenario_TemporalPartition(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newStack(t, now)
	ctx := context.Background()

	owner, booker := s.user(t, "owner"), s.user(t, "booker")
	drill := s.item(t, owner, "drill")

	create := func(start, end time.Time) int64 {
		b, err := s.bookings.CreateBooking(ctx, booker.ID, drill.ID, start, end)
		require.NoError(t, err)
		return b.ID
	}
	past := create(now.Add(-5*time.Hour), now.Add(-4*time.Hour))
	current := create(now.Add(-time.Hour), now.Add(time.Hour))
	future := create(now.Add(4*time.Hour), now.Add(5*time.Hour))
	endsNow := create(now.Add(-2*time.Hour), now)
	startsNow := create(now, now.Add(3*time.Hour))

	bookingIDs := func(list []*models.BookingDetails) []int64 {
		out := []int64{}
		for _, b := range list {
			out = append(out, b.ID)
		}
		return out
	}

	for _, list := range []func(ctx context.Context, id int64, state string, from, size int) ([]*models.BookingDetails, error){
		func(ctx context.Context, _ int64, state string, from, size int) ([]*models.BookingDetails, error) {
			return s.queries.ListBookerBookings(ctx, booker.ID, state, from, size)
		},
		func(ctx context.Context, _ int64, state string, from, size int) ([]*models.BookingDetails, error) {
			return s.queries.ListOwnerBookings(ctx, owner.ID, state, from, size)
		},
	} {
		all, err := list(ctx, 0, "ALL", 0, 100)
		require.NoError(t, err)
		assert.Equal(t, []int64{future, startsNow, current, endsNow, past}, bookingIDs(all))

		cur, err := list(ctx, 0, "CURRENT", 0, 100)
		require.NoError(t, err)
		assert.Equal(t, []int64{current}, bookingIDs(cur))

		pst, err := list(ctx, 0, "PAST", 0, 100)
		require.NoError(t, err)
		assert.Equal(t, []int64{past}, bookingIDs(pst))

		fut, err := list(ctx, 0, "FUTURE", 0, 100)
		require.NoError(t, err)
		assert.Equal(t, []int64{future}, bookingIDs(fut))

		waiting, err := list(ctx, 0, "WAITING", 0, 100)
		require.NoError(t, err)
		assert.Len(t, waiting, 5)

		rejected, err := list(ctx, 0, "REJECTED", 0, 100)
		require.NoError(t, err)
		assert.Empty(t, rejected)

		page, err := list(ctx, 0, "ALL", 3, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{current, endsNow}, bookingIDs(page))
	}

	_, err := s.queries.ListOwnerBookings(ctx, booker.ID, "ALL", 0, 10)
	assert.ErrorIs(t, err, domain.ErrNoItems)
}

func TestScenario_ProjectionAndComments(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	s := newStack(t, now)
	ctx := context.Background()

	owner, booker, stranger := s.user(t, "owner"), s.user(t, "booker"), s.user(t, "stranger")
	drill := s.item(t, owner, "drill")

	ended, err := s.bookings.CreateBooking(ctx, booker.ID, drill.ID, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	_, err = s.bookings.DecideBooking(ctx, ended.ID, owner.ID, "false")
	require.NoError(t, err)
	upcoming, err := s.bookings.CreateBooking(ctx, stranger.ID, drill.ID, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)

	p1, err := s.items.Project(ctx, drill.ID, now)
	require.NoError(t, err)
	p2, err := s.items.Project(ctx, drill.ID, now)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	require.NotNil(t, p1.Last)
	assert.Equal(t, ended.ID, p1.Last.ID)
	require.NotNil(t, p1.Next)
	assert.Equal(t, upcoming.ID, p1.Next.ID)

	// a rejected but finished booking is enough to comment
	comment, err := s.comments.SubmitComment(ctx, booker.ID, drill.ID, "solid", now)
	require.NoError(t, err)
	assert.Equal(t, "booker", comment.AuthorName)

	_, err = s.comments.SubmitComment(ctx, stranger.ID, drill.ID, "looks nice", now)
	assert.ErrorIs(t, err, domain.ErrInvalidValidation)

	ownerView, err := s.items.GetItem(ctx, owner.ID, drill.ID, now)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, ownerView.Role)
	assert.Equal(t, ended.ID, ownerView.Owner.LastBooking.ID)
	require.Len(t, ownerView.Owner.Comments, 1)
	assert.Equal(t, "solid", ownerView.Owner.Comments[0].Text)

	bookerView, err := s.items.GetItem(ctx, booker.ID, drill.ID, now)
	require.NoError(t, err)
	require.Equal(t, models.RoleBooker, bookerView.Role)
	assert.Len(t, bookerView.Booker.Comments, 1)

	listed, err := s.items.ListOwnerItems(ctx, owner.ID, 0, 10, now)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, upcoming.ID, listed[0].NextBooking.ID)
}
