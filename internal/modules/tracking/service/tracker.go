package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"bnkchallenge/internal/modules/tracking/domain"
	"bnkchallenge/internal/modules/tracking/dto"
	trackingout "bnkchallenge/internal/modules/tracking/port/out"
	"bnkchallenge/internal/platform/clock"
	apperrors "bnkchallenge/internal/platform/errors"
	"bnkchallenge/internal/platform/id"
	"bnkchallenge/internal/platform/logging"
)

const (
	progressBuffer = 16
	relayBuffer    = 64
	persistTimeout = 5 * time.Second
)

// Tracker runs at most one dwell session at a time.
type Tracker struct {
	clock   clock.Clock
	ids     id.Generator
	sampler trackingout.Sampler
	wallet  trackingout.Wallet
	journal trackingout.Journal
	relay   trackingout.Relay
	logger  hclog.Logger

	mu        sync.Mutex
	current   *run
	lastState domain.State
	callbacks []func(dto.Completion)
}

type run struct {
	session     domain.DwellSession
	feed        trackingout.Feed
	handle      *Handle
	hasProgress bool
	relay       chan relayItem
}

// relayItem carries exactly one of progress or completion.
type relayItem struct {
	progress   *dto.Progress
	completion *dto.Completion
}

// Options carries the optional collaborators. Journal and Relay may be nil.
type Options struct {
	Journal trackingout.Journal
	Relay   trackingout.Relay
	Logger  hclog.Logger
}

func NewTracker(clk clock.Clock, ids id.Generator, sampler trackingout.Sampler, wallet trackingout.Wallet, opts Options) *Tracker {
	return &Tracker{
		clock:     clk,
		ids:       ids,
		sampler:   sampler,
		wallet:    wallet,
		journal:   opts.Journal,
		relay:     opts.Relay,
		logger:    logging.OrDiscard(opts.Logger).Named("tracking"),
		lastState: domain.StateIdle,
	}
}

// Handle is the subscription for one session.
type Handle struct {
	sessionID string
	missionID string
	progress  chan dto.Progress
	done      chan dto.Outcome
	stop      func()
}

func (h *Handle) SessionID() string { return h.sessionID }
func (h *Handle) MissionID() string { return h.missionID }
func (h *Handle) Progress() <-chan dto.Progress { return h.progress }
func (h *Handle) Done() <-chan dto.Outcome { return h.done }

// Stop cancels this session. It does nothing once the session has ended.
func (h *Handle) Stop() { h.stop() }

func (h *Handle) finish(outcome dto.Outcome) {
	close(h.progress)
	h.done <- outcome
	close(h.done)
}

func (t *Tracker) StartTracking(ctx context.Context, mission domain.Mission) (*Handle, error) {
	session, err := domain.NewSession(t.ids.New(), mission, t.clock.Now())
	if err != nil {
		return nil, err
	}

	r := &run{session: session}
	r.handle = &Handle{
		sessionID: session.SessionID,
		missionID: session.MissionID,
		progress:  make(chan dto.Progress, progressBuffer),
		done:      make(chan dto.Outcome, 1),
		stop:      func() { t.cancel(r) },
	}

	t.mu.Lock()
	if t.current != nil {
		active := t.current.session.MissionID
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: mission %s", apperrors.ErrActiveSessionExists, active)
	}
	if t.relay != nil {
		r.relay = make(chan relayItem, relayBuffer)
		go t.publish(r.relay)
	}
	t.current = r
	t.lastState = domain.StateTracking
	t.mu.Unlock()

	feed, err := t.sampler.Arm(ctx, session.ArmTarget())
	if err != nil {
		t.mu.Lock()
		owned := t.current == r
		if owned {
			t.current = nil
			t.lastState = domain.StateIdle
		}
		t.mu.Unlock()
		if owned {
			r.closeRelay(nil)
			r.handle.finish(dto.Outcome{State: string(domain.StateCancelled)})
		}
		return nil, fmt.Errorf("arm sampler: %w", err)
	}

	t.mu.Lock()
	if t.current != r {
		// Stopped while the sampler was arming.
		t.mu.Unlock()
		feed.Close()
		return r.handle, nil
	}
	r.feed = feed
	t.mu.Unlock()

	t.logger.Info("tracking started", "session", session.SessionID, "mission", session.MissionID)
	go t.pump(r, feed)
	return r.handle, nil
}

func (t *Tracker) pump(r *run, feed trackingout.Feed) {
	for ev := range feed.Events() {
		switch ev.Kind {
		case domain.EventProgress:
			if err := t.apply(r, ev.Sample); err != nil && !errors.Is(err, errStaleRun) {
				t.logger.Warn("sample rejected", "mission", r.handle.missionID, "error", err)
			}
		case domain.EventCompletion:
			t.complete(r, ev.Completion)
		}
	}
	t.mu.Lock()
	stalled := t.current == r
	t.mu.Unlock()
	if stalled {
		t.logger.Warn("sampling source ended before completion", "mission", r.handle.missionID)
	}
}

var errStaleRun = errors.New("session no longer active")

// HandleSample feeds one observation into the active session directly.
func (t *Tracker) HandleSample(_ context.Context, sample domain.Sample) error {
	t.mu.Lock()
	r := t.current
	t.mu.Unlock()
	if r == nil {
		return apperrors.ErrNoActiveSession
	}
	if err := t.apply(r, sample); err != nil && !errors.Is(err, errStaleRun) {
		return err
	}
	return nil
}

func (t *Tracker) apply(r *run, sample domain.Sample) error {
	t.mu.Lock()
	if t.current != r {
		t.mu.Unlock()
		return errStaleRun
	}
	if sample.MissionID != "" && sample.MissionID != r.session.MissionID {
		t.mu.Unlock()
		t.logger.Debug("ignoring sample for another mission", "mission", sample.MissionID)
		return nil
	}
	if sample.At.IsZero() {
		sample.At = t.clock.Now()
	}
	progress, err := r.session.Apply(sample)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	r.hasProgress = true
	out := toProgressDTO(progress)
	select {
	case r.handle.progress <- out:
	default:
	}
	if r.relay != nil {
		select {
		case r.relay <- relayItem{progress: &out}:
		default:
			t.logger.Debug("relay backlog full, dropping progress", "mission", out.MissionID)
		}
	}
	t.mu.Unlock()
	return nil
}

// publish drains one run's relay queue so a slow relay never stalls the pump.
func (t *Tracker) publish(items <-chan relayItem) {
	for item := range items {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		switch {
		case item.progress != nil:
			if err := t.relay.PublishProgress(ctx, *item.progress); err != nil {
				t.logger.Warn("relay progress failed", "mission", item.progress.MissionID, "error", err)
			}
		case item.completion != nil:
			if err := t.relay.PublishCompletion(ctx, *item.completion); err != nil {
				t.logger.Warn("relay completion failed", "mission", item.completion.MissionID, "error", err)
			}
		}
		cancel()
	}
}

// closeRelay queues the final completion, if any, and ends the run's relay
// queue. It must be called once, after the run stopped being current.
func (r *run) closeRelay(completion *dto.Completion) {
	if r.relay == nil {
		return
	}
	if completion != nil {
		item := relayItem{completion: completion}
		select {
		case r.relay <- item:
		default:
			// Full: evict the oldest progress to make room.
			select {
			case <-r.relay:
			default:
			}
			r.relay <- item
		}
	}
	close(r.relay)
}

func (t *Tracker) complete(r *run, notice domain.CompletionNotice) {
	t.mu.Lock()
	if t.current != r {
		t.mu.Unlock()
		return
	}
	if notice.MissionID != "" && notice.MissionID != r.session.MissionID {
		t.mu.Unlock()
		t.logger.Debug("ignoring completion for another mission", "mission", notice.MissionID)
		return
	}
	t.current = nil
	t.lastState = domain.StateCompleted
	r.session.Active = false
	session := r.session
	feed := r.feed
	callbacks := slices.Clone(t.callbacks)
	t.mu.Unlock()

	if feed != nil {
		feed.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	reward := session.Reward
	if notice.Reward != nil {
		reward = *notice.Reward
	}
	balance, err := t.wallet.Credit(ctx, session.MissionID, reward, notice.CoinBalance)
	if err != nil {
		t.logger.Warn("wallet credit failed", "mission", session.MissionID, "error", err)
		if notice.CoinBalance != nil {
			balance = *notice.CoinBalance
		}
	}

	completion := dto.Completion{
		SessionID:   session.SessionID,
		MissionID:   session.MissionID,
		Reward:      reward,
		CoinBalance: balance,
		CompletedAt: t.clock.Now(),
	}
	t.logger.Info("mission completed", "mission", session.MissionID, "reward", reward, "balance", balance)

	t.record(ctx, session, domain.StateCompleted, reward, balance)
	r.closeRelay(&completion)
	for _, fn := range callbacks {
		fn(completion)
	}
	r.handle.finish(dto.Outcome{State: string(domain.StateCompleted), Completion: &completion})
}

// StopTracking cancels the active session. Without one it does nothing.
func (t *Tracker) StopTracking(_ context.Context) error {
	t.mu.Lock()
	r := t.current
	t.mu.Unlock()
	if r == nil {
		return nil
	}
	t.cancel(r)
	return nil
}

func (t *Tracker) cancel(r *run) {
	t.mu.Lock()
	if t.current != r {
		t.mu.Unlock()
		return
	}
	t.current = nil
	t.lastState = domain.StateCancelled
	r.session.Active = false
	session := r.session
	feed := r.feed
	t.mu.Unlock()

	if feed != nil {
		feed.Close()
	}
	t.logger.Info("tracking cancelled", "mission", session.MissionID)
	r.closeRelay(nil)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	t.record(ctx, session, domain.StateCancelled, 0, 0)
	r.handle.finish(dto.Outcome{State: string(domain.StateCancelled)})
}

func (t *Tracker) record(ctx context.Context, session domain.DwellSession, state domain.State, reward, balance int) {
	if t.journal == nil {
		return
	}
	err := t.journal.Record(ctx, domain.SessionRecord{
		SessionID:        session.SessionID,
		MissionID:        session.MissionID,
		State:            state,
		AccumulatedDwell: session.AccumulatedDwell,
		Samples:          session.Samples,
		Reward:           reward,
		CoinBalance:      balance,
		StartedAt:        session.StartedAt,
		EndedAt:          t.clock.Now(),
	})
	if err != nil {
		t.logger.Warn("journal write failed", "session", session.SessionID, "error", err)
	}
}

// OnComplete registers fn for every later completion.
func (t *Tracker) OnComplete(fn func(dto.Completion)) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() dto.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return dto.Snapshot{
			State:     string(t.lastState),
			Remaining: domain.FormatRemaining(nil),
		}
	}
	s := t.current.session
	out := dto.Snapshot{
		IsTracking:   true,
		State:        string(domain.StateTracking),
		SessionID:    s.SessionID,
		MissionID:    s.MissionID,
		MissionTitle: s.MissionTitle,
		Reward:       s.Reward,
		Remaining:    domain.FormatRemaining(nil),
	}
	if t.current.hasProgress {
		p := s.Progress()
		progress := toProgressDTO(p)
		out.Progress = &progress
		out.Percent = domain.ProgressPercent(&p)
		out.Remaining = domain.FormatRemaining(&p)
	}
	return out
}

func (t *Tracker) History(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if t.journal == nil {
		return nil, nil
	}
	return t.journal.List(ctx, limit)
}

func toProgressDTO(p domain.Progress) dto.Progress {
	return dto.Progress{
		MissionID:              p.MissionID,
		AccumulatedDwellMillis: p.Accumulated.Milliseconds(),
		RequiredDwellMillis:    p.Required.Milliseconds(),
		DistanceMeters:         p.DistanceMeters,
		IsInZone:               p.InZone,
	}
}
