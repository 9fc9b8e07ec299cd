package tracker

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/templui/hydrate/internal/apperror"
)

var ErrInvalidAmount = apperror.Validation("invalid_amount", "amount must be a positive number of ml")

// Syncer is the remote side of the event log. Persist returns the server id
// assigned to the event.
type Syncer interface {
	Persist(ctx context.Context, ev IntakeEvent) (string, error)
	Delete(ctx context.Context, id string) error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithSyncer(syncer Syncer) Option {
	return func(s *Store) { s.syncer = syncer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// OnChange registers fn to receive a snapshot of the log after every mutation.
// fn runs with the store lock held and must not call back into the store.
func OnChange(fn func([]IntakeEvent)) Option {
	return func(s *Store) { s.onChange = fn }
}

// Store is the ordered intake log of one session. Writes are optimistic:
// events are visible immediately and confirmed by the Syncer in the background.
type Store struct {
	mu     sync.Mutex
	events []IntakeEvent // newest first

	// server ids removed locally; never re-imported
	removed map[string]struct{}
	// local ids removed before their add was confirmed
	tombstones map[string]struct{}

	now      func() time.Time
	loc      *time.Location
	syncer   Syncer
	logger   *slog.Logger
	onChange func([]IntakeEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

func NewStore(opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		removed:    make(map[string]struct{}),
		tombstones: make(map[string]struct{}),
		now:        time.Now,
		loc:        time.Local,
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}

// Append records a new local event and starts persisting it. A zero at means now.
func (s *Store) Append(amountMl int, at time.Time) (IntakeEvent, error) {
	if amountMl <= 0 {
		return IntakeEvent{}, ErrInvalidAmount.WithMeta("amount_ml", strconv.Itoa(amountMl))
	}
	if at.IsZero() {
		at = s.now()
	}

	ev := normalize(IntakeEvent{
		ID:          NewLocalID(),
		AmountMl:    amountMl,
		TimestampMs: at.UnixMilli(),
	}, s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append([]IntakeEvent{ev}, s.events...)
	s.sortLocked()
	s.changedLocked()
	s.persistAsyncLocked(ev)

	return ev, nil
}

// Promote replaces a confirmed local id with its server id. If the local
// event was removed while the add was in flight, the server copy is deleted.
func (s *Store) Promote(localID, serverID string) bool {
	if serverID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tombstones[localID]; ok {
		delete(s.tombstones, localID)
		s.removed[serverID] = struct{}{}
		if i := s.indexLocked(serverID); i >= 0 {
			s.events = slices.Delete(s.events, i, i+1)
			s.changedLocked()
		}
		s.deleteAsyncLocked(serverID)
		return false
	}

	i := s.indexLocked(localID)
	if i < 0 {
		return false
	}

	if s.indexLocked(serverID) >= 0 {
		// reconciliation already pulled in the server copy
		s.events = slices.Delete(s.events, i, i+1)
	} else {
		s.events[i].ID = serverID
	}
	s.changedLocked()
	return true
}

// Remove deletes the event with the given id, or the most recent event when
// id is empty. It reports false when there is nothing to remove.
func (s *Store) Remove(id string) (IntakeEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return IntakeEvent{}, false
	}

	i := 0
	if id != "" {
		i = s.indexLocked(id)
		if i < 0 {
			return IntakeEvent{}, false
		}
	}

	ev := s.events[i]
	s.events = slices.Delete(s.events, i, i+1)

	if ev.IsLocal() {
		s.tombstones[ev.ID] = struct{}{}
	} else {
		s.removed[ev.ID] = struct{}{}
		s.deleteAsyncLocked(ev.ID)
	}
	s.changedLocked()

	return ev, true
}

// ReconcileRemote folds the authoritative server events into the log.
// Pending local events whose timestamp the server already has are replaced by
// the server copy; everything else local is kept.
func (s *Store) ReconcileRemote(serverEvents []IntakeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := s.acceptLocked(serverEvents)

	ids := make(map[string]struct{}, len(incoming))
	stamps := make(map[int64]struct{}, len(incoming))
	for _, ev := range incoming {
		ids[ev.ID] = struct{}{}
		stamps[ev.TimestampMs] = struct{}{}
	}

	merged := make([]IntakeEvent, 0, len(incoming)+len(s.events))
	merged = append(merged, incoming...)
	for _, ev := range s.events {
		if _, ok := ids[ev.ID]; ok {
			continue
		}
		if ev.IsLocal() {
			if _, ok := stamps[ev.TimestampMs]; ok {
				continue
			}
		}
		merged = append(merged, ev)
	}

	s.events = merged
	s.sortLocked()
	s.changedLocked()
}

// Merge adds historical server events missing from the log, matching by id
// and then by timestamp. Existing events are never removed.
func (s *Store) Merge(serverEvents []IntakeEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(s.events))
	stamps := make(map[int64]struct{}, len(s.events))
	for _, ev := range s.events {
		ids[ev.ID] = struct{}{}
		stamps[ev.TimestampMs] = struct{}{}
	}

	added := 0
	for _, ev := range s.acceptLocked(serverEvents) {
		if _, ok := ids[ev.ID]; ok {
			continue
		}
		if _, ok := stamps[ev.TimestampMs]; ok {
			continue
		}
		s.events = append(s.events, ev)
		ids[ev.ID] = struct{}{}
		stamps[ev.TimestampMs] = struct{}{}
		added++
	}

	if added > 0 {
		s.sortLocked()
		s.changedLocked()
	}
	return added
}

// Restore replaces the log with previously saved events.
func (s *Store) Restore(events []IntakeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(events))
	restored := make([]IntakeEvent, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" || ev.AmountMl <= 0 {
			continue
		}
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		restored = append(restored, normalize(ev, s.loc))
	}
	s.events = restored
	s.sortLocked()
}

// Reset drops every event and all pending bookkeeping.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	s.removed = make(map[string]struct{})
	s.tombstones = make(map[string]struct{})
	s.changedLocked()
}

// Events returns a copy of the log, newest first.
func (s *Store) Events() []IntakeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// TodaySummary describes the current calendar day.
type TodaySummary struct {
	DateKey      string     `json:"date_key"`
	TotalMl      int        `json:"total_ml"`
	IntakeCount  int        `json:"intake_count"`
	LastIntakeAt *time.Time `json:"last_intake_at,omitempty"`
}

func (s *Store) Today() TodaySummary {
	today := DateKey(s.now().UnixMilli(), s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	sum := TodaySummary{DateKey: today}
	var last int64
	for _, ev := range s.events {
		if ev.DateKey != today {
			continue
		}
		sum.TotalMl += ev.AmountMl
		sum.IntakeCount++
		last = max(last, ev.TimestampMs)
	}
	if sum.IntakeCount > 0 {
		t := time.UnixMilli(last).In(s.loc)
		sum.LastIntakeAt = &t
	}
	return sum
}

func (s *Store) TodayTotal() int {
	return s.Today().TotalMl
}

// Wait blocks until in-flight remote calls finish.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight remote calls and waits for them to return.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Store) acceptLocked(events []IntakeEvent) []IntakeEvent {
	out := make([]IntakeEvent, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.ID == "" || ev.AmountMl <= 0 {
			continue
		}
		if _, ok := s.removed[ev.ID]; ok {
			continue
		}
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, normalize(ev, s.loc))
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.events, func(ev IntakeEvent) bool { return ev.ID == id })
}

func (s *Store) sortLocked() {
	slices.SortStableFunc(s.events, func(a, b IntakeEvent) int {
		return cmp.Compare(b.TimestampMs, a.TimestampMs)
	})
}

func (s *Store) changedLocked() {
	if s.onChange != nil {
		s.onChange(slices.Clone(s.events))
	}
}

func (s *Store) persistAsyncLocked(ev IntakeEvent) {
	if s.syncer == nil || s.closed {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		serverID, err := s.syncer.Persist(s.ctx, ev)
		if err != nil {
			s.logger.Warn("failed to persist intake",
				"error", apperror.Sync("remote add failed", err),
				"intake_id", ev.ID,
				"amount_ml", ev.AmountMl,
			)
			s.mu.Lock()
			delete(s.tombstones, ev.ID)
			s.mu.Unlock()
			return
		}
		s.Promote(ev.ID, serverID)
	}()
}

func (s *Store) deleteAsyncLocked(id string) {
	if s.syncer == nil || s.closed {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := s.syncer.Delete(s.ctx, id)
		if err != nil {
			s.logger.Warn("failed to delete intake",
				"error", apperror.Sync("remote delete failed", err),
				"intake_id", id,
			)
		}
	}()
}
