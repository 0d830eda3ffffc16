package routes

import (
	"context"
	"time"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPollInterval is the pause between polls that observed no change.
	DefaultPollInterval = time.Second
	// DefaultMaxRetries is the number of consecutive poll failures tolerated.
	DefaultMaxRetries = 5
	// DefaultBackoffBase is the first retry delay after a failed poll.
	DefaultBackoffBase = 500 * time.Millisecond
	// DefaultBackoffMax caps the retry delay.
	DefaultBackoffMax = 30 * time.Second
)

// PollFunc performs one status query for a receipt and returns the receipt
// advanced by at most one state. Returning the same state means no change.
type PollFunc func(ctx context.Context, receipt *types.Receipt) (*types.Receipt, error)

// TrackerOptions configures a Tracker.
//
// Fields:
// - PollInterval: pause after a poll that observed no change.
// - MaxRetries: consecutive poll failures before the tracker gives up.
// - BackoffBase: first retry delay, doubled on every consecutive failure.
// - BackoffMax: retry delay cap.
// - StopWhen: ends the sequence after a poll without change if it returns true,
//   used by manual routes that cannot progress without Complete.
// - Logger: the logger.
// - Metrics: the metrics recorder.
type TrackerOptions struct {
	PollInterval time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	StopWhen     func(*types.Receipt) bool
	Logger       *logrus.Logger
	Metrics      metrics.Recorder
}

func (o TrackerOptions) withDefaults() TrackerOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = DefaultBackoffMax
	}
	if o.StopWhen == nil {
		o.StopWhen = func(*types.Receipt) bool { return false }
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NoopRecorder{}
	}
	return o
}

// Tracker is a pull-based sequence of receipts for one transfer:
//
//	t := route.Track(ctx, receipt, 2*time.Minute)
//	for t.Next() {
//		receipt = t.Receipt()
//	}
//	if err := t.Err(); err != nil { ... }
//
// Every receipt returned after Next is in a strictly later state than the
// previous one. The sequence ends on a terminal state, once the timeout since
// the Track call elapses, when StopWhen holds after an unchanged poll, or when
// polling keeps failing. Reaching the timeout is not an error; tracking can be
// resumed with a new Track call and the last receipt.
type Tracker struct {
	ctx      context.Context
	poll     PollFunc
	opts     TrackerOptions
	deadline time.Time
	route    string

	current *types.Receipt
	done    bool
	err     error
}

// NewTracker creates a tracker starting from receipt.
//
// Parameters:
// - ctx: cancels tracking; Err reports ctx.Err() afterwards.
// - route: the route name, used in logs and metrics.
// - receipt: the last known receipt. A nil receipt ends the sequence at once
//   with a *errors.PreconditionError.
// - timeout: upper bound on wall-clock tracking time from now.
// - poll: the route's poll step.
// - opts: tracking options.
func NewTracker(ctx context.Context, route string, receipt *types.Receipt, timeout time.Duration, poll PollFunc, opts TrackerOptions) *Tracker {
	t := &Tracker{
		ctx:      ctx,
		poll:     poll,
		opts:     opts.withDefaults(),
		deadline: time.Now().Add(timeout),
		route:    route,
		current:  receipt.Clone(),
	}
	if receipt == nil {
		t.finish(RequireState(receipt, types.Created))
	}
	return t
}

// Receipt returns the receipt yielded by the last successful Next call, or the
// starting receipt before that.
func (t *Tracker) Receipt() *types.Receipt {
	return t.current.Clone()
}

// Err returns the error that ended the sequence, if any.
func (t *Tracker) Err() error {
	return t.err
}

// Next polls until the receipt advances and reports whether a new receipt is available.
func (t *Tracker) Next() bool {
	if t.done {
		return false
	}

	logger := t.opts.Logger.WithFields(logrus.Fields{
		"route":    t.route,
		"transfer": t.current.ID,
	})
	labels := map[string]string{"route": t.route, "chain": t.current.From.String()}

	failures := 0
	var lastErr error
	for {
		if t.current.State.IsTerminal() {
			return t.finish(nil)
		}
		if err := t.ctx.Err(); err != nil {
			return t.finish(err)
		}
		if !time.Now().Before(t.deadline) {
			logger.WithField("state", t.current.State).Debug("Tracking timeout reached")
			if lastErr != nil {
				return t.finish(&commonerrors.TrackingError{Attempts: failures, Cause: lastErr})
			}
			return t.finish(nil)
		}

		t.opts.Metrics.IncCounter(metrics.TrackerPoll, labels)
		next, err := t.pollOnce()
		if err != nil {
			if t.ctx.Err() != nil {
				return t.finish(t.ctx.Err())
			}
			if errors.Is(err, errDeadline) {
				// Cut off by the tracking deadline.
				continue
			}
			failures++
			lastErr = err
			t.opts.Metrics.IncCounter(metrics.TrackerPollFailed, labels)
			if errors.Is(err, commonerrors.ErrTransferFailed) {
				return t.finish(&commonerrors.TrackingError{Attempts: failures, Cause: err})
			}
			if failures >= t.opts.MaxRetries {
				return t.finish(&commonerrors.TrackingError{Attempts: failures, Cause: err})
			}

			delay := t.backoff(failures)
			logger.WithFields(logrus.Fields{
				"attempt": failures,
				"delay":   delay,
			}).WithError(err).Warn("Transfer status poll failed, retrying")
			t.sleep(delay)
			continue
		}
		failures, lastErr = 0, nil

		if next != nil && next.State > t.current.State {
			next.ID, next.Route = t.current.ID, t.current.Route
			t.current = next
			t.opts.Metrics.IncCounter(metrics.StateAdvanced, labels)
			logger.WithField("state", next.State).Info("Transfer state advanced")
			return true
		}

		if t.opts.StopWhen(t.current) {
			logger.WithField("state", t.current.State).Debug("Transfer needs external action, tracking paused")
			return t.finish(nil)
		}

		t.sleep(t.opts.PollInterval)
	}
}

var errDeadline = errors.New("tracking deadline reached during poll")

// pollOnce runs the poll step bounded by the tracking deadline.
func (t *Tracker) pollOnce() (*types.Receipt, error) {
	ctx, cancel := context.WithDeadline(t.ctx, t.deadline)
	defer cancel()

	next, err := t.poll(ctx, t.current.Clone())
	if err != nil && ctx.Err() == context.DeadlineExceeded && t.ctx.Err() == nil {
		return nil, errDeadline
	}
	return next, err
}

// backoff returns the delay before retry attempt n (1-based).
func (t *Tracker) backoff(n int) time.Duration {
	d := t.opts.BackoffBase
	for i := 1; i < n; i++ {
		d *= 2
		if d >= t.opts.BackoffMax {
			return t.opts.BackoffMax
		}
	}
	return d
}

// sleep suspends until d elapses, the deadline passes or ctx is done.
// It reports whether the full duration elapsed.
func (t *Tracker) sleep(d time.Duration) bool {
	if remaining := time.Until(t.deadline); remaining < d {
		d = remaining
	}
	if d <= 0 {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (t *Tracker) finish(err error) bool {
	t.done = true
	t.err = err
	return false
}
