// Package session holds the authoritative state of one game: the board, whose
// turn it is, the scores and the lifecycle between games. Every mutation goes
// through the session lock and is announced to subscribers as an Event.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/bot"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/turn"
)

const DefaultThinkDelay = time.Second

type State uint8

const (
	NotStarted State = iota
	InProgress
	Ended
)

func (that State) String() string {
	switch that {
	case InProgress:
		return "in_progress"
	case Ended:
		return "ended"
	default:
		return "not_started"
	}
}

func (that State) status() string {
	switch that {
	case InProgress:
		return entity.StatusOngoing
	case Ended:
		return entity.StatusFinished
	default:
		return entity.StatusWaiting
	}
}

type Options struct {
	ID     string
	Mode   entity.Mode
	Logger *slog.Logger

	// ThinkDelay is the pause before the computer's move is applied.
	ThinkDelay time.Duration
	Scheduler  Scheduler
	Rand       *rand.Rand

	// Distribution defaults to turn.Local.
	Distribution turn.Distribution

	// ComputerMark is the computer's side in local mode. Defaults to Circle.
	ComputerMark   entity.Mark
	RandomPlayOdds int
}

// acceptedKey identifies an applied request. Participants number their own
// messages, so ids only collide within one player.
type acceptedKey struct {
	player entity.Mark
	id     string
}

// MoveRequest asks to place Player's mark on Coord.
type MoveRequest struct {
	Coord  entity.Coord
	Player entity.Mark

	// ID is the client's message id. A request whose ID was already accepted
	// from the same player in the current game is ignored.
	ID string
	// Generation, when non-zero, must match the current game.
	Generation uint64
}

type Session struct {
	mu sync.Mutex

	id         string
	mode       entity.Mode
	logger     *slog.Logger
	thinkDelay time.Duration
	scheduler  Scheduler
	rng        *rand.Rand
	odds       int

	coordinator *turn.Coordinator
	computer    entity.Mark
	difficulty  entity.Difficulty
	selector    bot.MoveSelector

	state      State
	board      entity.Board
	marks      int
	score      entity.Score
	result     entity.WinResult
	lastWinner entity.Mark
	generation uint64
	joined     int
	accepted   map[acceptedKey]struct{}
	cancelAI   func()
	closed     bool

	seq         uint64
	nextSubID   uint64
	subscribers []subscriber
}

func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Scheduler == nil {
		opts.Scheduler = timerScheduler{}
	}

	if opts.Rand == nil {
		opts.Rand = bot.NewRand()
	}

	if opts.Mode == "" {
		opts.Mode = entity.ModeLocal
	}

	computer := entity.None
	if opts.Mode == entity.ModeLocal {
		computer = opts.ComputerMark
		if !computer.IsPlayer() {
			computer = entity.Circle
		}
	}

	return &Session{
		id:          opts.ID,
		mode:        opts.Mode,
		logger:      opts.Logger.With("sessionID", opts.ID, "mode", string(opts.Mode)),
		thinkDelay:  opts.ThinkDelay,
		scheduler:   opts.Scheduler,
		rng:         opts.Rand,
		odds:        opts.RandomPlayOdds,
		coordinator: turn.NewCoordinator(opts.Distribution, opts.Rand),
		computer:    computer,
		generation:  1,
		accepted:    make(map[acceptedKey]struct{}),
	}
}

func (that *Session) ID() string {
	return that.id
}

func (that *Session) Mode() entity.Mode {
	return that.mode
}

// SetDifficulty picks the computer opponent. It is only allowed in local mode
// before the first game starts.
func (that *Session) SetDifficulty(level entity.Difficulty) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.mode != entity.ModeLocal {
		return apperror.ErrWrongMode
	}

	if that.state != NotStarted {
		return apperror.ErrDifficultyLocked
	}

	selector, err := bot.New(level, that.rng, bot.Options{RandomPlayOdds: that.odds})
	if err != nil {
		return fmt.Errorf("failed to set difficulty: %w", err)
	}

	that.difficulty = level
	that.selector = selector

	return nil
}

// Start begins a local game against the computer.
func (that *Session) Start(ctx context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.closed:
		return apperror.ErrSessionClosed
	case that.mode != entity.ModeLocal:
		return apperror.ErrWrongMode
	case that.state != NotStarted:
		return apperror.ErrAlreadyStarted
	case that.selector == nil:
		return apperror.ErrDifficultyNotSet
	}

	that.begin(ctx)

	// displays need the initial score before the first game ends
	score := that.score
	that.emit(Event{Kind: KindScoresChanged, Score: &score})

	that.scheduleComputerMove()

	return nil
}

// Join seats the next participant of a networked session: Cross first, then
// Circle. The second join starts the game.
func (that *Session) Join(ctx context.Context) (entity.Mark, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.closed:
		return entity.None, apperror.ErrSessionClosed
	case that.mode != entity.ModeNetworked:
		return entity.None, apperror.ErrWrongMode
	case that.joined >= 2:
		return entity.None, apperror.ErrSessionFull
	}

	that.joined++
	if that.joined == 1 {
		return entity.Cross, nil
	}

	that.begin(ctx)

	return entity.Circle, nil
}

func (that *Session) begin(ctx context.Context) {
	that.state = InProgress
	that.board = entity.Board{}
	that.marks = 0

	that.emit(Event{Kind: KindGameStarted})

	first := that.coordinator.Start(ctx)
	that.emit(Event{Kind: KindTurnChanged, Turn: first})

	that.logger.Info("game started", "first", first.String())
}

// RequestMove applies a move if it is legal. Illegal requests change nothing,
// emit nothing and are only logged.
func (that *Session) RequestMove(ctx context.Context, req MoveRequest) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "RequestMove", "player", req.Player.String(), "cell", req.Coord.String())

	if err := that.validate(req); err != nil {
		log.Debug("move rejected", "error", err)
		return
	}

	if req.ID != "" {
		that.accepted[acceptedKey{player: req.Player, id: req.ID}] = struct{}{}
	}

	that.applyMove(ctx, req.Coord, req.Player)
}

func (that *Session) validate(req MoveRequest) error {
	switch {
	case that.closed:
		return apperror.ErrSessionClosed
	case that.state != InProgress:
		return apperror.ErrGameIsNotStarted
	case req.Generation != 0 && req.Generation != that.generation:
		return apperror.ErrStaleMove
	}

	if _, ok := that.accepted[acceptedKey{player: req.Player, id: req.ID}]; ok && req.ID != "" {
		return apperror.ErrDuplicateMove
	}

	if !req.Coord.Valid() {
		return apperror.ErrInvalidCell
	}

	if !req.Player.IsPlayer() || req.Player != that.coordinator.CurrentTurn() || req.Player == that.computer {
		return apperror.ErrNotYourTurn
	}

	if that.board.At(req.Coord) != entity.None {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *Session) applyMove(ctx context.Context, coord entity.Coord, player entity.Mark) {
	if err := that.board.Apply(coord, player); err != nil {
		that.logger.Error("validated move failed to apply", "cell", coord.String(), "error", err)
		return
	}

	that.marks++
	that.emit(Event{Kind: KindMoveAccepted, Move: &Move{Coord: coord, Player: player}})

	result := that.board.Winner()

	switch {
	case result.IsDecisive():
		that.finish(ctx, result)

		that.score.Add(result.Winner)
		score := that.score
		that.emit(Event{Kind: KindScoresChanged, Score: &score})
		that.emit(Event{Kind: KindGameEnded, Result: &result})
		that.emit(Event{Kind: KindWinnerDetermined, Winner: result.Winner})

		that.logger.Info("game won", "winner", result.Winner.String(), "line", result.Line.String())
	case that.marks == entity.BoardSize*entity.BoardSize:
		that.finish(ctx, result)

		that.emit(Event{Kind: KindGameEnded, Result: &entity.WinResult{}})
		that.emit(Event{Kind: KindWinnerDetermined, Winner: entity.None})

		that.logger.Info("game drawn")
	default:
		next := that.coordinator.RecordMove(ctx, player)
		that.emit(Event{Kind: KindTurnChanged, Turn: next})

		that.scheduleComputerMove()
	}
}

func (that *Session) finish(ctx context.Context, result entity.WinResult) {
	that.state = Ended
	that.result = result
	that.lastWinner = result.Winner
	that.coordinator.EndGame(ctx, result.Winner)
	that.cancelPending()

	that.emit(Event{Kind: KindTurnChanged, Turn: entity.None})
}

// RequestRestart starts the next game of a finished session. Scores are kept.
func (that *Session) RequestRestart(ctx context.Context) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "RequestRestart")

	if that.closed {
		log.Debug("restart rejected", "error", apperror.ErrSessionClosed)
		return
	}

	if that.state != Ended {
		log.Debug("restart rejected", "error", apperror.ErrGameNotFinished, "state", that.state.String())
		return
	}

	that.cancelPending()

	that.board = entity.Board{}
	that.marks = 0
	that.result = entity.WinResult{}
	that.generation++
	clear(that.accepted)
	that.state = InProgress

	first := that.coordinator.Restart(ctx, that.lastWinner)
	that.emit(Event{Kind: KindTurnChanged, Turn: first})
	that.emit(Event{Kind: KindGameRestarted})

	log.Info("game restarted", "generation", that.generation, "first", first.String())

	that.scheduleComputerMove()
}

func (that *Session) scheduleComputerMove() {
	if that.computer == entity.None || that.coordinator.CurrentTurn() != that.computer {
		return
	}

	that.cancelPending()

	generation := that.generation
	that.cancelAI = that.scheduler.Schedule(that.thinkDelay, func() {
		that.playComputerMove(generation)
	})
}

func (that *Session) playComputerMove(generation uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "playComputerMove", "generation", generation)

	if that.closed || generation != that.generation || that.state != InProgress ||
		that.coordinator.CurrentTurn() != that.computer {
		log.Debug("discarding stale computer move")
		return
	}

	that.cancelAI = nil

	move, ok := that.selector.SelectMove(that.board, that.computer)
	if !ok {
		log.Warn("computer found no move")
		return
	}

	that.applyMove(context.Background(), move, that.computer)
}

func (that *Session) cancelPending() {
	if that.cancelAI != nil {
		that.cancelAI()
		that.cancelAI = nil
	}
}

func (that *Session) CurrentTurn() entity.Mark {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.coordinator.CurrentTurn()
}

// LocalPlayerIdentity is the mark of the human at this end: the opponent of the
// computer in local mode, the host's Cross in networked mode. A networked guest
// plays Circle; per-participant identity is the entity.Player.Mark handed out
// by Join.
func (that *Session) LocalPlayerIdentity() entity.Mark {
	if that.computer != entity.None {
		return that.computer.Opponent()
	}

	return entity.Cross
}

func (that *Session) CrossScore() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.score.Cross
}

func (that *Session) CircleScore() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.score.Circle
}

func (that *Session) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

func (that *Session) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.Snapshot{
		ID:         that.id,
		Mode:       that.mode,
		Status:     that.state.status(),
		Board:      that.board,
		Marks:      that.marks,
		Turn:       that.coordinator.CurrentTurn(),
		Score:      that.score,
		Result:     that.result,
		Generation: that.generation,
		Difficulty: that.difficulty,
	}
}

// Subscribe returns a channel of events with room for buffer pending events.
// A subscriber that falls behind is dropped and its channel closed. The returned
// func unsubscribes.
func (that *Session) Subscribe(buffer int) (<-chan Event, func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	events := make(chan Event, buffer)
	if that.closed {
		close(events)
		return events, func() {}
	}

	that.nextSubID++
	id := that.nextSubID
	that.subscribers = append(that.subscribers, subscriber{id: id, events: events})

	return events, func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		that.removeSubscriber(id)
	}
}

func (that *Session) removeSubscriber(id uint64) {
	for i, sub := range that.subscribers {
		if sub.id == id {
			close(sub.events)
			that.subscribers = append(that.subscribers[:i], that.subscribers[i+1:]...)

			return
		}
	}
}

func (that *Session) emit(event Event) {
	that.seq++
	event.SessionID = that.id
	event.Generation = that.generation
	event.Seq = that.seq

	kept := that.subscribers[:0]
	for _, sub := range that.subscribers {
		select {
		case sub.events <- event:
			kept = append(kept, sub)
		default:
			that.logger.Warn("dropping slow subscriber", "subscriber", sub.id, "event", string(event.Kind))
			close(sub.events)
		}
	}

	clear(that.subscribers[len(kept):])
	that.subscribers = kept
}

// Close cancels a pending computer move and closes all subscriptions. Later
// requests are ignored.
func (that *Session) Close() {
	if !that.markClosed() {
		return
	}

	// flushing queued turns may wait on the network, so it runs unlocked
	that.coordinator.Close()

	that.logger.Info("session closed")
}

func (that *Session) markClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	that.closed = true
	that.cancelPending()

	for _, sub := range that.subscribers {
		close(sub.events)
	}

	that.subscribers = nil

	return true
}

// IsClosed reports whether Close was called.
func (that *Session) IsClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}
