// Package remote connects a session's event log to the persistence service.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/templui/hydrate/internal/apperror"
	"github.com/templui/hydrate/internal/model"
	"github.com/templui/hydrate/internal/service"
	"github.com/templui/hydrate/internal/tracker"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 3
)

var ErrIntakeNotFound = apperror.NotFound("intake_not_found", "intake not found on server")

// IntakeService is the part of service.IntakeService the adapter needs.
type IntakeService interface {
	AddClientIntake(ctx context.Context, userID, clientID string, amountMl int, at time.Time) (*model.Intake, error)
	DeleteIntake(ctx context.Context, intakeID, userID string) (service.DeleteResult, error)
	TodayIntakes(ctx context.Context, userID string) ([]*model.Intake, error)
	WeeklyIntakes(ctx context.Context, userID string) ([]*model.Intake, error)
}

type Option func(*Adapter)

// WithTimeout bounds every attempt, not the whole retry sequence.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithMaxRetries(n int) Option {
	return func(a *Adapter) {
		if n >= 0 {
			a.maxRetries = n
		}
	}
}

// WithBackOff replaces the exponential policy, mostly for tests.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(a *Adapter) { a.newBackOff = newBackOff }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// Adapter implements tracker.Syncer for one user.
type Adapter struct {
	intakes    IntakeService
	userID     string
	loc        *time.Location
	timeout    time.Duration
	maxRetries int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

var _ tracker.Syncer = (*Adapter)(nil)

func NewAdapter(intakes IntakeService, userID string, loc *time.Location, opts ...Option) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	a := &Adapter{
		intakes:    intakes,
		userID:     userID,
		loc:        loc,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Persist stores ev with its original timestamp and returns the server id.
// The local id travels along as the client id, so a retry after a lost
// response finds the row the first attempt created.
func (a *Adapter) Persist(ctx context.Context, ev tracker.IntakeEvent) (string, error) {
	intake, err := retry(ctx, a, "persist", func(ctx context.Context) (*model.Intake, error) {
		return a.intakes.AddClientIntake(ctx, a.userID, ev.ID, ev.AmountMl, ev.Time())
	})
	if err != nil {
		return "", err
	}
	return intake.ID, nil
}

func (a *Adapter) Delete(ctx context.Context, id string) error {
	_, err := retry(ctx, a, "delete", func(ctx context.Context) (struct{}, error) {
		result, err := a.intakes.DeleteIntake(ctx, id, a.userID)
		if err != nil {
			return struct{}{}, err
		}
		if !result.Success {
			return struct{}{}, ErrIntakeNotFound.WithMeta("intake_id", id)
		}
		return struct{}{}, nil
	})
	return err
}

// FetchToday returns today's server events.
func (a *Adapter) FetchToday(ctx context.Context) ([]tracker.IntakeEvent, error) {
	rows, err := retry(ctx, a, "fetch_today", func(ctx context.Context) ([]*model.Intake, error) {
		return a.intakes.TodayIntakes(ctx, a.userID)
	})
	if err != nil {
		return nil, err
	}
	return a.events(rows), nil
}

// FetchWeek returns the trailing seven days of server events.
func (a *Adapter) FetchWeek(ctx context.Context) ([]tracker.IntakeEvent, error) {
	rows, err := retry(ctx, a, "fetch_week", func(ctx context.Context) ([]*model.Intake, error) {
		return a.intakes.WeeklyIntakes(ctx, a.userID)
	})
	if err != nil {
		return nil, err
	}
	return a.events(rows), nil
}

func (a *Adapter) events(rows []*model.Intake) []tracker.IntakeEvent {
	out := make([]tracker.IntakeEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, tracker.IntakeEvent{
			ID:          r.ID,
			AmountMl:    r.AmountMl,
			TimestampMs: r.TimestampMs,
			DateKey:     tracker.DateKey(r.TimestampMs, a.loc),
		})
	}
	return out
}

// retry runs op with a per-attempt timeout. Validation and not-found errors
// are final; anything else is retried and finally wrapped as a sync error.
func retry[T any](ctx context.Context, a *Adapter, name string, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(a.maxRetries)), ctx)

	result, err := backoff.RetryWithData(func() (T, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		v, err := op(callCtx)
		if err == nil {
			return v, nil
		}
		if permanent(err) {
			return v, backoff.Permanent(err)
		}
		a.logger.Debug("remote call failed", "op", name, "attempt", attempt, "error", err)
		return v, err
	}, policy)
	if err == nil {
		return result, nil
	}

	if permanent(err) {
		return result, err
	}
	return result, apperror.Sync(name+" failed", err).WithMeta("attempts", strconv.Itoa(attempt))
}

func permanent(err error) bool {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindNotFound, apperror.KindUnauthorized:
		return true
	}
	return errors.Is(err, context.Canceled)
}
