// Package driver runs a game to completion: it plays one turn at a time,
// collects commentary, waits a fixed delay and repeats, while the user may
// pause, resume or reset at any point.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

var (
	ErrNotIdle    = errors.New("driver: game already started")
	ErrNotRunning = errors.New("driver: game is not running")
	ErrNotPaused  = errors.New("driver: game is not paused")
	ErrBusy       = errors.New("driver: a turn is already in progress")
	ErrClosed     = errors.New("driver: closed")
)

// Status is the state of the driver loop.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// DefaultDelay is the pause between two turns.
const DefaultDelay = 2 * time.Second

// Commentator supplies the three commentary lines for a turn. It must not
// fail; implementations substitute fallbacks themselves.
type Commentator interface {
	Comment(ctx context.Context, before engine.GameState, turn engine.Turn) engine.Commentary
}

// Persister stores a completed game.
type Persister interface {
	SaveGame(ctx context.Context, g engine.GameState) error
}

// Config wires a Driver.
type Config struct {
	Player1     engine.PlayerConfig
	Player2     engine.PlayerConfig
	Delay       time.Duration
	Engine      *engine.Engine // nil uses engine.New()
	Commentary  Commentator    // required
	Persister   Persister      // optional
	Logger      *log.Logger
	SaveTimeout time.Duration
}

// Snapshot is a consistent view of the driver.
type Snapshot struct {
	Status  Status           `json:"status"`
	Busy    bool             `json:"busy"`
	HasGame bool             `json:"hasGame"`
	State   engine.GameState `json:"game"`
	Saved   bool             `json:"saved"`
	Err     string           `json:"error,omitempty"`
}

// Driver orchestrates a single game at a time.
type Driver struct {
	cfg    Config
	engine *engine.Engine
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	status  Status
	state   engine.GameState
	hasGame bool
	gen     uint64 // bumped on reset; stale turn results are discarded
	timer   *time.Timer
	busy    bool
	saved   bool
	lastErr error
	done    chan struct{} // closed when the current game ends or is discarded
	ended   bool
	closed  bool

	subMu  sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

// New creates an idle driver.
func New(cfg Config) (*Driver, error) {
	if cfg.Commentary == nil {
		return nil, errors.New("driver: commentary source is required")
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("driver: negative turn delay %v", cfg.Delay)
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	eng := cfg.Engine
	if eng == nil {
		eng = engine.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Driver{
		cfg:    cfg,
		engine: eng,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		status: StatusIdle,
		done:   make(chan struct{}),
		subs:   make(map[int]func(Event)),
	}, nil
}

// Subscribe registers fn for every event. Callbacks run on driver
// goroutines and must not block. The returned func unsubscribes.
func (d *Driver) Subscribe(fn func(Event)) func() {
	d.subMu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	d.subMu.Unlock()

	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

func (d *Driver) notify(events ...Event) {
	d.subMu.RLock()
	fns := make([]func(Event), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.RUnlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// event builds a notification from the current state. Caller holds mu.
func (d *Driver) event(t EventType) Event {
	return Event{Type: t, Status: d.status, State: d.state.Redacted()}
}

// Start creates a new game and begins the loop. The first turn is played
// immediately. Configuration errors leave the driver idle.
func (d *Driver) Start() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.status != StatusIdle {
		d.mu.Unlock()
		return ErrNotIdle
	}

	state, err := d.engine.NewGame(d.cfg.Player1, d.cfg.Player2)
	if err != nil {
		d.mu.Unlock()
		return err
	}

	d.state = state
	d.hasGame = true
	d.saved = false
	d.lastErr = nil
	d.busy = false
	d.status = StatusRunning
	d.schedule(0)
	ev := d.event(EventStarted)
	d.mu.Unlock()

	d.logger.Info("game started", "game", state.ID,
		"player1", state.Player1.Name, "model1", state.Player1.Model,
		"player2", state.Player2.Name, "model2", state.Player2.Model)
	d.notify(ev)
	return nil
}

// Pause stops the loop after the turn in flight, if any.
func (d *Driver) Pause() error {
	d.mu.Lock()
	if d.status != StatusRunning {
		d.mu.Unlock()
		return ErrNotRunning
	}
	d.status = StatusPaused
	d.stopTimer()
	ev := d.event(EventPaused)
	d.mu.Unlock()

	d.logger.Info("game paused", "game", ev.State.ID)
	d.notify(ev)
	return nil
}

// Resume restarts the loop. After a failed turn it retries from the last
// good state.
func (d *Driver) Resume() error {
	d.mu.Lock()
	if d.status != StatusPaused {
		d.mu.Unlock()
		return ErrNotPaused
	}
	d.status = StatusRunning
	d.lastErr = nil
	if !d.busy {
		d.schedule(d.cfg.Delay)
	}
	ev := d.event(EventResumed)
	d.mu.Unlock()

	d.logger.Info("game resumed", "game", ev.State.ID)
	d.notify(ev)
	return nil
}

// Reset discards the game from any state. A pending turn is cancelled and
// a turn already in flight is allowed to finish but its result is dropped.
func (d *Driver) Reset() {
	d.mu.Lock()
	id := d.state.ID
	d.stopTimer()
	d.gen++
	d.status = StatusIdle
	d.state = engine.GameState{}
	d.hasGame = false
	d.busy = false
	d.saved = false
	d.lastErr = nil
	d.endGame()
	d.done = make(chan struct{})
	d.ended = false
	ev := d.event(EventReset)
	d.mu.Unlock()

	d.logger.Info("game reset", "game", id)
	d.notify(ev)
}

// Step plays a single turn while paused and returns once it is done.
func (d *Driver) Step() error {
	gen, before, err := d.claimStep()
	if err != nil {
		return err
	}
	d.playTurn(gen, before)
	return nil
}

// StepAsync claims a single turn while paused and plays it in the
// background. The outcome reaches subscribers as EventTurn or EventError.
func (d *Driver) StepAsync() error {
	gen, before, err := d.claimStep()
	if err != nil {
		return err
	}
	go d.playTurn(gen, before)
	return nil
}

// claimStep marks the driver busy for a manual turn.
func (d *Driver) claimStep() (uint64, engine.GameState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		return 0, engine.GameState{}, ErrClosed
	case d.status != StatusPaused:
		return 0, engine.GameState{}, ErrNotPaused
	case d.busy:
		return 0, engine.GameState{}, ErrBusy
	}
	d.busy = true
	return d.gen, d.state, nil
}

// Snapshot returns the current status and game.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{
		Status:  d.status,
		Busy:    d.busy,
		HasGame: d.hasGame,
		State:   d.state.Redacted(),
		Saved:   d.saved,
	}
	if d.lastErr != nil {
		s.Err = d.lastErr.Error()
	}
	return s
}

// Wait blocks until the current game finishes or ctx is done.
// A reset or Close while waiting returns ErrNotRunning.
func (d *Driver) Wait(ctx context.Context) (engine.GameState, error) {
	d.mu.Lock()
	done := d.done
	gen := d.gen
	d.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return engine.GameState{}, ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen || d.status != StatusFinished {
		return engine.GameState{}, ErrNotRunning
	}
	return d.state.Redacted(), nil
}

// Close stops the loop and abandons outstanding work.
func (d *Driver) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopTimer()
	d.gen++
	if d.status == StatusRunning {
		d.status = StatusPaused
	}
	d.endGame()
	d.mu.Unlock()
	d.cancel()
}

// endGame releases waiters. Caller holds mu.
func (d *Driver) endGame() {
	if !d.ended {
		close(d.done)
		d.ended = true
	}
}

// schedule arms the timer for the next turn. Caller holds mu.
func (d *Driver) schedule(delay time.Duration) {
	d.stopTimer()
	gen := d.gen
	d.timer = time.AfterFunc(delay, func() { d.runTurn(gen, false) })
}

// stopTimer cancels a pending turn. Caller holds mu.
func (d *Driver) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// runTurn plays one turn of generation gen. Automatic turns only run while
// the loop is running; manual steps only while paused.
func (d *Driver) runTurn(gen uint64, manual bool) {
	d.mu.Lock()
	want := StatusRunning
	if manual {
		want = StatusPaused
	}
	if gen != d.gen || d.busy || d.status != want {
		d.mu.Unlock()
		return
	}
	d.busy = true
	d.timer = nil
	before := d.state
	d.mu.Unlock()

	d.playTurn(gen, before)
}

// playTurn executes a claimed turn and publishes the result.
func (d *Driver) playTurn(gen uint64, before engine.GameState) {
	logger := d.logger.With("game", before.ID, "turn", len(before.Turns)+1)

	res, err := d.execute(before)
	var next engine.GameState
	if err == nil {
		start := time.Now()
		c := d.cfg.Commentary.Comment(d.ctx, before, res.Turn)
		next, err = res.State.WithTurnCommentary(res.Turn.Number, c)
		logger.Debug("commentary attached", "elapsed", time.Since(start))
	}

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		logger.Debug("discarding turn from a reset game")
		return
	}
	d.busy = false

	if err != nil {
		d.status = StatusPaused
		d.lastErr = err
		ev := d.event(EventError)
		ev.Err = err
		d.mu.Unlock()

		logger.Error("turn failed, loop halted", "error", err)
		d.notify(ev)
		return
	}

	d.state = next
	turn := next.Turns[len(next.Turns)-1]
	events := []Event{d.event(EventTurn)}
	events[0].Turn = &turn

	logger.Info("turn played",
		"player", turn.Player, "roll", turn.Roll,
		"from", turn.From, "to", turn.Final, "event", engine.DescribeEvent(turn.Event))

	if res.IsGameOver {
		d.status = StatusFinished
		d.stopTimer()
		finished := d.event(EventFinished)
		finished.Turn = &turn
		events = append(events, finished)
		d.endGame()
		saveNow := !d.saved
		d.saved = true
		d.mu.Unlock()

		logger.Info(engine.Summary(next))
		d.notify(events...)
		if saveNow {
			d.persist(next.Redacted())
		}
		return
	}

	if d.status == StatusRunning {
		d.schedule(d.cfg.Delay)
	}
	d.mu.Unlock()
	d.notify(events...)
}

// execute runs the engine, converting a panic into a turn fault.
func (d *Driver) execute(state engine.GameState) (res engine.TurnResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("driver: turn panicked: %v", r)
		}
	}()
	return d.engine.ExecuteTurn(state)
}

// persist hands the completed game to the persister. Failures are logged
// and reported, never retried.
func (d *Driver) persist(state engine.GameState) {
	if d.cfg.Persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.SaveTimeout)
	defer cancel()

	err := d.cfg.Persister.SaveGame(ctx, state)
	if err != nil {
		d.logger.Error("failed to save game", "game", state.ID, "error", err)
	} else {
		d.logger.Info("game saved", "game", state.ID)
	}

	ev := Event{Type: EventSaved, Status: StatusFinished, State: state, Err: err}
	d.notify(ev)
}
