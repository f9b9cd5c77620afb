package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/metrics"
	"vetclinic/backend/internal/store"
)

// Engine computes bookable slots for a service over the availability
// horizon. It holds no state between calls.
type Engine struct {
	schedule store.ScheduleProvider
	ledger   store.BookingLedger
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, which decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(schedule store.ScheduleProvider, ledger store.BookingLedger, loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{
		schedule: schedule,
		ledger:   ledger,
		loc:      loc,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With(slog.String("component", "availability"))
	return e
}

type snapshot struct {
	service   domain.Service
	days      []domain.Day
	working   []domain.WorkingDay
	overrides []domain.CalendarOverride
	blackouts []domain.Blackout
	bookings  []domain.Appointment
}

// ComputeAvailability returns the open slots of serviceID for the 14 dates
// starting today in the clinic time zone. Dates on which the service does
// not work are omitted.
func (e *Engine) ComputeAvailability(ctx context.Context, serviceID int64) ([]domain.AvailabilityDay, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveAvailability(time.Since(started))
	}()

	if serviceID <= 0 {
		return nil, domain.NewClientError("Invalid service id")
	}

	first := domain.CalendarDate(e.now(), e.loc)
	last := first.AddDate(0, 0, domain.AvailabilityHorizonDays-1)

	snap, err := e.load(ctx, serviceID, first, last)
	if err != nil {
		return nil, err
	}

	if !snap.service.IsEnabled {
		return nil, domain.NewClientError("Requested service is disabled")
	}
	duration := snap.service.SlotDuration()
	if duration <= 0 {
		return nil, domain.NewConfigurationError("Service duration not implemented")
	}

	resolver, err := domain.NewWeekdayResolver(snap.days)
	if err != nil {
		return nil, err
	}

	workingByDay := make(map[int]domain.WorkingDay, len(snap.working))
	for _, wd := range snap.working {
		workingByDay[wd.DayID] = wd
	}

	overridesByDate := make(map[string][]domain.CalendarOverride)
	for _, o := range snap.overrides {
		if !o.Scope.AppliesTo(serviceID) {
			continue
		}
		key := domain.DateKey(o.Date)
		overridesByDate[key] = append(overridesByDate[key], o)
	}

	blackoutsByDate := make(map[string][]domain.Blackout)
	for _, b := range snap.blackouts {
		if !b.Scope.AppliesTo(serviceID) {
			continue
		}
		key := domain.DateKey(b.Date)
		blackoutsByDate[key] = append(blackoutsByDate[key], b)
	}

	bookedByDate := make(map[string][]domain.TimeOfDay)
	for _, a := range snap.bookings {
		if a.IsCanceled || a.ServiceID != serviceID {
			continue
		}
		local := a.Date.In(e.loc)
		key := domain.DateKey(domain.CalendarDate(local, e.loc))
		bookedByDate[key] = append(bookedByDate[key], domain.TimeOfDayOf(local))
	}

	out := make([]domain.AvailabilityDay, 0, domain.AvailabilityHorizonDays)
	for i := 0; i < domain.AvailabilityHorizonDays; i++ {
		date := first.AddDate(0, 0, i)
		key := domain.DateKey(date)

		wd, ok := workingByDay[resolver.Resolve(date)]
		if !ok || !wd.IsEnabled {
			continue
		}
		hours, err := wd.Hours()
		if err != nil {
			return nil, err
		}
		slots := domain.GenerateSlots(hours, duration)

		hours, slots, open := applyOverrides(overridesByDate[key], hours, slots, duration)
		if !open {
			continue
		}

		for _, b := range blackoutsByDate[key] {
			slots = domain.RemoveOverlapping(slots, duration, b.StartTime, b.EndTime)
		}
		for _, booked := range bookedByDate[key] {
			slots = domain.RemoveBooked(slots, duration, booked)
		}

		out = append(out, domain.AvailabilityDay{
			Date:      date,
			ServiceID: serviceID,
			Hours:     hours,
			Slots:     slots,
		})
	}

	e.logger.DebugContext(ctx, "availability computed",
		slog.Int64("service_id", serviceID),
		slog.String("from", domain.DateKey(first)),
		slog.Int("days", len(out)),
	)
	return out, nil
}

// applyOverrides folds the overrides of one date, in retrieval order, into
// the weekly hours. open is false once a non-working override is seen. The
// grid is regenerated only when an override changes an effective time.
func applyOverrides(overrides []domain.CalendarOverride, hours domain.DayHours, slots []domain.TimeOfDay, duration time.Duration) (domain.DayHours, []domain.TimeOfDay, bool) {
	for _, o := range overrides {
		if !o.IsWorkingDate {
			return hours, nil, false
		}
		merged, changed := o.Merge(hours)
		if changed {
			hours = merged
			slots = domain.GenerateSlots(hours, duration)
		}
	}
	return hours, slots, true
}

// load reads everything the computation needs concurrently. The first
// failure cancels the remaining reads.
func (e *Engine) load(ctx context.Context, serviceID int64, first, last time.Time) (snapshot, error) {
	var snap snapshot

	from := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, e.loc)
	to := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, e.loc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc, err := e.schedule.GetService(gctx, serviceID)
		if errors.Is(err, store.ErrNotFound) {
			return domain.NewClientError("Invalid service id")
		}
		snap.service = svc
		return err
	})
	g.Go(func() error {
		days, err := e.schedule.ListDays(gctx)
		snap.days = days
		return err
	})
	g.Go(func() error {
		working, err := e.schedule.ListWorkingDays(gctx, serviceID)
		snap.working = working
		return err
	})
	g.Go(func() error {
		overrides, err := e.schedule.ListOverridesInRange(gctx, serviceID, first, last)
		snap.overrides = overrides
		return err
	})
	g.Go(func() error {
		blackouts, err := e.schedule.ListBlackoutsInRange(gctx, serviceID, first, last)
		snap.blackouts = blackouts
		return err
	})
	g.Go(func() error {
		bookings, err := e.ledger.ListAppointmentsInRange(gctx, serviceID, from, to, false)
		snap.bookings = bookings
		return err
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}
