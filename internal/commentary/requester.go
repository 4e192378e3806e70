package commentary

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

// DefaultTimeout bounds each of the three requests of a turn.
const DefaultTimeout = 15 * time.Second

// Requester gathers the three commentary lines for a turn from the mover's
// model. It never fails: any error, empty answer or timeout is replaced by a
// fallback line. Safe for concurrent use.
type Requester struct {
	opts    Options
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	clients map[clientKey]Commentator
}

type clientKey struct {
	provider   Provider
	model      string
	credential string
}

// NewRequester creates a Requester. A non-positive timeout uses DefaultTimeout.
func NewRequester(logger *log.Logger, timeout time.Duration, opts Options) *Requester {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Requester{
		opts:    opts,
		timeout: timeout,
		logger:  logger,
		clients: make(map[clientKey]Commentator),
	}
}

// Comment returns commentary for turn, which was played from the state before.
func (r *Requester) Comment(ctx context.Context, before engine.GameState, turn engine.Turn) engine.Commentary {
	mover := before.Player(turn.Player)
	logger := r.logger.With("game", before.ID, "turn", turn.Number, "provider", mover.Provider)

	c, err := r.client(mover)
	if err != nil {
		logger.Warn("commentary client unavailable, using fallbacks", "error", err)
		return FallbackCommentary()
	}

	pre := NewGameContext(before)
	post := NewPostRollContext(before, turn)

	return engine.Commentary{
		PreRoll: r.call(ctx, logger, KindPreRoll, func(ctx context.Context) (string, error) {
			return c.PreRoll(ctx, pre)
		}),
		PostRoll: r.call(ctx, logger, KindPostRoll, func(ctx context.Context) (string, error) {
			return c.PostRoll(ctx, post)
		}),
		TrashTalk: r.call(ctx, logger, KindTrashTalk, func(ctx context.Context) (string, error) {
			return c.TrashTalk(ctx, post)
		}),
	}
}

func (r *Requester) call(ctx context.Context, logger *log.Logger, kind Kind, fn func(context.Context) (string, error)) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := fn(ctx)
	if err != nil {
		logger.Warn("commentary request failed", "kind", kind, "elapsed", time.Since(start), "error", err)
		return Fallback(kind)
	}
	logger.Debug("commentary received", "kind", kind, "elapsed", time.Since(start))
	return text
}

func (r *Requester) client(p engine.Player) (Commentator, error) {
	provider, err := ParseProvider(p.Provider)
	if err != nil {
		return nil, err
	}
	key := clientKey{provider: provider, model: p.Model, credential: p.Credential}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[key]; ok {
		return c, nil
	}
	c, err := New(provider, p.Credential, p.Model, r.opts)
	if err != nil {
		return nil, err
	}
	r.clients[key] = c
	return c, nil
}

// Validate checks a credential against the provider.
func (r *Requester) Validate(ctx context.Context, p engine.Player) bool {
	c, err := r.client(p)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return c.ValidateCredential(ctx)
}

// Offline produces fallback commentary without contacting any provider.
type Offline struct{}

// Comment implements the driver's commentary source.
func (Offline) Comment(context.Context, engine.GameState, engine.Turn) engine.Commentary {
	return FallbackCommentary()
}

// FallbackCommentary fills all three slots with canned lines.
func FallbackCommentary() engine.Commentary {
	return engine.Commentary{
		PreRoll:   Fallback(KindPreRoll),
		PostRoll:  Fallback(KindPostRoll),
		TrashTalk: Fallback(KindTrashTalk),
	}
}
