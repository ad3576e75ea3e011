package generation

import (
	"context"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/easel-cli/api/schemas"
)

// StatusFunc receives the poll snapshot of each completed tick. Wired up only
// in the verbose discipline.
type StatusFunc func(schemas.PollSnapshot)

// poller is the pipeline's central state machine. It evaluates the page state
// on a fixed cadence until the page reaches a terminal state (ready or error
// slot set) or the generation budget elapses. The page exposes no completion
// event or callback, so mutable page state inspected from outside is the only
// observation channel.
type poller struct {
	session  schemas.PageSession
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration
	onStatus StatusFunc
}

func newPoller(session schemas.PageSession, logger *zap.Logger, interval, timeout time.Duration, onStatus StatusFunc) *poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &poller{
		session:  session,
		logger:   logger.Named("poller"),
		interval: interval,
		timeout:  timeout,
		onStatus: onStatus,
	}
}

// wait blocks until the page reaches a terminal state and returns its final
// snapshot. A snapshot with the error slot set is terminal even if the ready
// flag has not flipped yet. Transient evaluation failures are tolerated; the
// budget is the only thing that ends the loop early.
func (p *poller) wait(ctx context.Context) (schemas.PollSnapshot, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// One token per interval, starting full, so the first inspection happens
	// immediately.
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)

	var last schemas.PollSnapshot
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(pollCtx); err != nil {
			if pollCtx.Err() == context.Canceled {
				return last, fmt.Errorf("generation interrupted: %w", ctx.Err())
			}
			return last, failf(GenerationTimeout, "generation did not complete within %s", p.timeout)
		}

		snapshot, err := p.snapshot(pollCtx)
		if err != nil {
			p.logger.Debug("Poll tick failed, retrying.", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		last = snapshot

		if p.onStatus != nil {
			p.onStatus(snapshot)
		}
		if snapshot.Error != "" || snapshot.Ready {
			return snapshot, nil
		}
	}
}

func (p *poller) snapshot(ctx context.Context) (schemas.PollSnapshot, error) {
	raw, err := p.session.Evaluate(ctx, snapshotExpression)
	if err != nil {
		return schemas.PollSnapshot{}, err
	}
	var snap schemas.PollSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return schemas.PollSnapshot{}, fmt.Errorf("decoding poll snapshot: %w", err)
	}
	return snap, nil
}
