package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/lock"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/pkg/timeutil"
	"tutorbook/internal/repository"
	"tutorbook/internal/repository/repotest"
)

type fixture struct {
	store   *repository.Store
	svc     *Service
	tutor   *domain.TutorProfile
	student *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repotest.NewStore(t)
	tutor := repotest.Tutor(t, store, "50")
	repotest.Window(t, store, tutor.ID, int(time.Monday), "09:00", "17:00")

	return &fixture{
		store:   store,
		svc:     newService(store, lock.NewLocalLocker()),
		tutor:   tutor,
		student: repotest.User(t, store, domain.RoleStudent),
	}
}

func newService(store *repository.Store, locker lock.Locker) *Service {
	return NewService(store, locker, nil, logger.Discard(), Options{
		Now: func() time.Time { return testNow },
	})
}

func (f *fixture) request(start, end string) CreateBookingRequest {
	return CreateBookingRequest{
		TutorID:     f.tutor.ID,
		Subject:     "Algebra",
		SessionDate: testMonday,
		StartTime:   start,
		EndTime:     end,
	}
}

func (f *fixture) tutorActor() Actor {
	return Actor{UserID: f.tutor.UserID, Role: domain.RoleTutor}
}

func (f *fixture) studentActor() Actor {
	return Actor{UserID: f.student.ID, Role: domain.RoleStudent}
}

func TestCreate_InsideWindow(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)

	assert.NotZero(t, b.ID)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(b.Price), "price %s", b.Price)

	stored, err := f.store.Bookings().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", stored.StartTime)
	assert.True(t, b.Price.Equal(stored.Price))
}

func TestCreate_PriceForNinetyMinutes(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.student.ID, f.request("10:00", "11:30"))
	require.NoError(t, err)
	assert.Equal(t, "75.00", b.Price.StringFixed(2))
}

func TestCreate_OutsideWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.student.ID, f.request("18:00", "19:00"))

	var outside *domain.OutsideWindowError
	require.True(t, errors.As(err, &outside))
	assert.Equal(t, "09:00", outside.WindowStart)
	assert.Equal(t, "17:00", outside.WindowEnd)
}

func TestCreate_NoAvailabilityOnOtherDay(t *testing.T) {
	f := newFixture(t)

	req := f.request("10:00", "11:00")
	req.SessionDate = "2030-01-08"
	_, err := f.svc.Create(context.Background(), f.student.ID, req)
	assert.ErrorIs(t, err, domain.ErrNoAvailability)
}

func TestCreate_TutorNotFound(t *testing.T) {
	f := newFixture(t)

	req := f.request("10:00", "11:00")
	req.TutorID = 9999
	_, err := f.svc.Create(context.Background(), f.student.ID, req)
	assert.ErrorIs(t, err, domain.ErrTutorNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_TutorCannotBookThemself(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.tutor.UserID, f.request("10:00", "11:00"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_PastDate(t *testing.T) {
	f := newFixture(t)

	req := f.request("10:00", "11:00")
	req.SessionDate = "2029-12-31"
	_, err := f.svc.Create(context.Background(), f.student.ID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_StudentDoubleBookedAcrossTutors(t *testing.T) {
	f := newFixture(t)
	other := repotest.Tutor(t, f.store, "30")
	repotest.Window(t, f.store, other.ID, int(time.Monday), "08:00", "12:00")

	_, err := f.svc.Create(context.Background(), f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)

	req := f.request("10:30", "11:30")
	req.TutorID = other.ID
	_, err = f.svc.Create(context.Background(), f.student.ID, req)

	var double *domain.DoubleBookingError
	require.True(t, errors.As(err, &double))
	assert.Equal(t, "student", double.Party)
}

func TestCreate_CancelledSlotCanBeRebooked(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), b.ID, f.studentActor(), "")
	require.NoError(t, err)

	again, err := f.svc.Create(context.Background(), f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, again.ID)
}

func TestCreate_ConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture(t)

	const n = 12
	starts := []string{"10:00", "10:15", "10:30"}
	students := make([]*domain.User, n)
	for i := range students {
		students[i] = repotest.User(t, f.store, domain.RoleStudent)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		doubles   int
		others    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			start := starts[i%len(starts)]
			startMin, _ := timeutil.ParseClock(start)
			_, err := f.svc.Create(context.Background(), students[i].ID, f.request(start, timeutil.FormatClock(startMin+60)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrDoubleBooking):
				doubles++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, doubles)

	tutorID := f.tutor.ID
	live, err := f.store.Bookings().List(context.Background(), repository.BookingFilter{TutorID: &tutorID})
	require.NoError(t, err)
	assertNoOverlap(t, live)
}

func assertNoOverlap(t *testing.T, bookings []domain.Booking) {
	t.Helper()

	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			a, b := bookings[i], bookings[j]
			if a.Status == domain.BookingCancelled || b.Status == domain.BookingCancelled || a.SessionDate != b.SessionDate {
				continue
			}
			as, _ := timeutil.ParseClock(a.StartTime)
			ae, _ := timeutil.ParseClock(a.EndTime)
			bs, _ := timeutil.ParseClock(b.StartTime)
			be, _ := timeutil.ParseClock(b.EndTime)
			assert.False(t, as < be && bs < ae, "bookings %d and %d overlap", a.ID, b.ID)
		}
	}
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

func (busyLocker) Unlock(context.Context, string, string) error { return nil }

func TestCreate_LockTimeoutIsTransient(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, busyLocker{}, nil, logger.Discard(), Options{
		StoreTimeout: 30 * time.Millisecond,
		Now:          func() time.Time { return testNow },
	})

	_, err := svc.Create(context.Background(), f.student.ID, f.request("10:00", "11:00"))
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestComplete_UpdatesTutorTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.student.ID, f.request("10:00", "11:30"))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.student.ID, f.request("12:00", "13:00"))
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, first.ID, f.tutor.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = f.svc.Complete(ctx, second.ID, f.tutor.UserID)
	require.NoError(t, err)

	tutor, err := f.store.Tutors().GetByID(ctx, f.tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tutor.TotalSessions)
	assert.Equal(t, "125.00", tutor.TotalEarnings.StringFixed(2))
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	completed, err := f.svc.Create(ctx, f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, completed.ID, f.tutor.UserID)
	require.NoError(t, err)

	cancelled, err := f.svc.Create(ctx, f.student.ID, f.request("12:00", "13:00"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, cancelled.ID, f.studentActor(), "sick")
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, completed.ID, f.tutor.UserID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Cancel(ctx, completed.ID, f.studentActor(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Complete(ctx, cancelled.ID, f.tutor.UserID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Cancel(ctx, cancelled.ID, f.studentActor(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := f.store.Bookings().GetByID(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, got.Status)
	assert.Nil(t, got.CancelledAt)

	got, err = f.store.Bookings().GetByID(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, domain.CancelledByStudent, got.CancelledBy)
	assert.Equal(t, "sick", got.CancellationReason)
	assert.Nil(t, got.CompletedAt)

	tutor, err := f.store.Tutors().GetByID(ctx, f.tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tutor.TotalSessions)
}

func TestOwnershipChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)

	otherTutor := repotest.Tutor(t, f.store, "20")
	otherStudent := repotest.User(t, f.store, domain.RoleStudent)
	noProfile := repotest.User(t, f.store, domain.RoleTutor)

	_, err = f.svc.Complete(ctx, b.ID, otherTutor.UserID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Complete(ctx, b.ID, noProfile.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Complete(ctx, 9999, f.tutor.UserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Cancel(ctx, b.ID, Actor{UserID: otherStudent.ID, Role: domain.RoleStudent}, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Cancel(ctx, 9999, f.studentActor(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel_ByTutor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)

	got, err := f.svc.Cancel(ctx, b.ID, f.tutorActor(), "conflict")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, domain.CancelledByTutor, got.CancelledBy)
	require.NotNil(t, got.CancelledAt)
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := repotest.User(t, f.store, domain.RoleStudent)
	mine, err := f.svc.Create(ctx, f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, other.ID, f.request("12:00", "13:00"))
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, theirs.ID, f.tutor.UserID)
	require.NoError(t, err)

	list, err := f.svc.ListForUser(ctx, f.studentActor(), ListBookingsQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = f.svc.ListForUser(ctx, f.tutorActor(), ListBookingsQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListForUser(ctx, f.tutorActor(), ListBookingsQuery{Status: "COMPLETED"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, theirs.ID, list[0].ID)

	list, err = f.svc.ListForUser(ctx, f.tutorActor(), ListBookingsQuery{From: "2030-01-08"})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.ListForUser(ctx, Actor{UserID: 1, Role: domain.RoleAdmin}, ListBookingsQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	noProfile := repotest.User(t, f.store, domain.RoleTutor)
	_, err = f.svc.ListForUser(ctx, Actor{UserID: noProfile.ID, Role: domain.RoleTutor}, ListBookingsQuery{})
	assert.ErrorIs(t, err, domain.ErrTutorProfileNotFound)

	_, err = f.svc.ListForUser(ctx, f.studentActor(), ListBookingsQuery{From: "2030-02-01", To: "2030-01-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.student.ID, f.request("10:00", "11:00"))
	require.NoError(t, err)

	for _, actor := range []Actor{f.studentActor(), f.tutorActor(), {UserID: 12345, Role: domain.RoleAdmin}} {
		got, err := f.svc.Get(ctx, b.ID, actor)
		require.NoError(t, err, actor.Role)
		assert.Equal(t, b.ID, got.ID)
	}

	stranger := repotest.User(t, f.store, domain.RoleStudent)
	_, err = f.svc.Get(ctx, b.ID, Actor{UserID: stranger.ID, Role: domain.RoleStudent})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	otherTutor := repotest.Tutor(t, f.store, "20")
	_, err = f.svc.Get(ctx, b.ID, Actor{UserID: otherTutor.UserID, Role: domain.RoleTutor})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(ctx, 9999, f.studentActor())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}
