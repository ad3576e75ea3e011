package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/easel-cli/api/schemas"
	"github.com/xkilldash9x/easel-cli/internal/config"
)

// sessionCloseTimeout bounds the deferred teardown so a wedged browser can
// never keep the process alive.
const sessionCloseTimeout = 15 * time.Second

// consoleTailLimit caps how many captured console entries are replayed into
// the log when a run fails.
const consoleTailLimit = 20

// Pipeline drives one generation end to end: open a page, bootstrap the
// library, trigger the driver, poll to a terminal state, decode the result
// and persist it. Steps run strictly in that order, one attempt per
// invocation, and the page session is released on every exit path.
type Pipeline struct {
	logger  *zap.Logger
	manager schemas.BrowserManager
	cfg     config.GenerationConfig
}

// NewPipeline wires a pipeline to a browser manager and generation settings.
func NewPipeline(logger *zap.Logger, manager schemas.BrowserManager, cfg config.GenerationConfig) (*Pipeline, error) {
	if manager == nil {
		return nil, errors.New("browser manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger:  logger.Named("pipeline"),
		manager: manager,
		cfg:     cfg,
	}, nil
}

// Run executes a single generation request and returns the decoded result
// after it has been written to req.OutputPath. Every failure carries a
// Category; the session teardown runs regardless of which step failed.
func (p *Pipeline) Run(ctx context.Context, req schemas.GenerationRequest) (*schemas.GenerationResult, error) {
	if req.Model == "" {
		req.Model = p.cfg.Model
	}
	if req.Model == "" {
		req.Model = schemas.DefaultModel
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation request: %w", err)
	}

	log := p.logger.With(
		zap.String("model", req.Model),
		zap.String("output_path", req.OutputPath),
	)
	log.Info("Starting generation.", zap.String("prompt", excerpt(req.Prompt, excerptLimit)))

	session, err := p.manager.NewSession(ctx)
	if err != nil {
		return nil, wrapf(LaunchFailure, err, "could not open a browser page: %v", err)
	}
	log = log.With(zap.String("session_id", session.ID()))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), sessionCloseTimeout)
		defer cancel()
		if cerr := session.Close(closeCtx); cerr != nil {
			log.Warn("Session close reported an error.", zap.Error(cerr))
		}
	}()

	if err := p.bootstrap(ctx, session, log); err != nil {
		p.dumpConsole(session, log)
		return nil, err
	}
	log.Info("Image library ready.")

	if err := trigger(ctx, session, req.Prompt, req.Model); err != nil {
		p.dumpConsole(session, log)
		return nil, err
	}
	log.Info("Generation triggered.")

	interval := p.cfg.PollInterval
	var onStatus StatusFunc
	if req.Visible {
		interval = p.cfg.VerbosePollInterval
		onStatus = func(s schemas.PollSnapshot) {
			log.Info("Generation status.",
				zap.Bool("ready", s.Ready),
				zap.Bool("has_data", s.HasData),
				zap.String("error", s.Error))
		}
	}
	snapshot, err := newPoller(session, log, interval, p.cfg.Timeout, onStatus).wait(ctx)
	if err != nil {
		p.dumpConsole(session, log)
		return nil, err
	}

	result, err := extract(ctx, session, snapshot)
	if err != nil {
		p.dumpConsole(session, log)
		return nil, err
	}

	if err := writeFile(req.OutputPath, result.Bytes); err != nil {
		return nil, err
	}
	log.Info("Image written.",
		zap.String("class", string(result.Class)),
		zap.Int("bytes", len(result.Bytes)))
	return result, nil
}

// bootstrap installs the page document and waits for the library to become
// callable. Both failure modes belong to the load phase, including an
// unreachable script URL, which simply never satisfies the readiness
// predicate.
func (p *Pipeline) bootstrap(ctx context.Context, session schemas.PageSession, log *zap.Logger) error {
	if err := session.SetContent(ctx, pageDocument(p.cfg.ScriptURL)); err != nil {
		return wrapf(LoadTimeout, err, "could not install the bootstrap document: %v", err)
	}
	log.Debug("Bootstrap document installed.", zap.String("script_url", p.cfg.ScriptURL))

	if err := session.WaitForExpression(ctx, libraryReadyExpression, p.cfg.LibraryLoadTimeout); err != nil {
		return wrapf(LoadTimeout, err, "library did not become callable within %s", p.cfg.LibraryLoadTimeout)
	}
	return nil
}

// dumpConsole replays the tail of the captured page console into the log.
// Called only on failure paths, where the page's own output is usually the
// best diagnostic available.
func (p *Pipeline) dumpConsole(session schemas.PageSession, log *zap.Logger) {
	entries := session.ConsoleLogs()
	if len(entries) == 0 {
		return
	}
	if len(entries) > consoleTailLimit {
		entries = entries[len(entries)-consoleTailLimit:]
	}
	for _, entry := range entries {
		log.Debug("Page console entry.",
			zap.String("type", entry.Type),
			zap.String("source", entry.Source),
			zap.String("text", entry.Text))
	}
}
