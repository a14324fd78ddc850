package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-duel/internal/session"
	"github.com/rocketscienceinc/tictactoe-duel/internal/turn"
)

const (
	watchBuffer  = 64
	storeTimeout = 2 * time.Second
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type sessionRepo interface {
	Save(ctx context.Context, snapshot *entity.Snapshot) error
	GetByID(ctx context.Context, id string) (*entity.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type SessionOptions struct {
	ThinkDelay     time.Duration
	RandomPlayOdds int
	Scheduler      session.Scheduler
}

// SessionManager owns every running session and the participants seated in them.
type SessionManager struct {
	logger      *slog.Logger
	playerRepo  playerRepo
	sessionRepo sessionRepo
	publisher   turn.TurnPublisher
	opts        SessionOptions

	mu       sync.RWMutex
	sessions map[string]*session.Session
	watchers sync.WaitGroup
}

func NewSessionManager(
	logger *slog.Logger,
	playerRepo playerRepo,
	sessionRepo sessionRepo,
	publisher turn.TurnPublisher,
	opts SessionOptions,
) *SessionManager {
	if opts.ThinkDelay <= 0 {
		opts.ThinkDelay = session.DefaultThinkDelay
	}

	return &SessionManager{
		logger:      logger,
		playerRepo:  playerRepo,
		sessionRepo: sessionRepo,
		publisher:   publisher,
		opts:        opts,
		sessions:    make(map[string]*session.Session),
	}
}

func (that *SessionManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id %w", err)
	}

	return player, nil
}

// CreateSession seats the player in a new session. A "bot" game starts right
// away against the computer; any other type waits for a second participant.
// A player already seated in a running session gets that session back.
func (that *SessionManager) CreateSession(
	ctx context.Context,
	playerID, gameType string,
	difficulty entity.Difficulty,
) (*session.Session, *entity.Player, error) {
	log := that.logger.With("method", "CreateSession", "playerID", playerID)

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	if player.InSession() {
		if existing, err := that.GetSession(player.SessionID); err == nil {
			return existing, player, nil
		}

		player.Leave()
	}

	id := pkg.GenerateSessionID()
	mode := entity.ModeForType(gameType)

	s := session.New(session.Options{
		ID:             id,
		Mode:           mode,
		Logger:         that.logger,
		ThinkDelay:     that.opts.ThinkDelay,
		Scheduler:      that.opts.Scheduler,
		Distribution:   that.distribution(id, mode),
		RandomPlayOdds: that.opts.RandomPlayOdds,
	})

	that.register(s)

	switch mode {
	case entity.ModeLocal:
		err = that.startLocal(ctx, s, difficulty)
		player.Mark = s.LocalPlayerIdentity()
	default:
		player.Mark, err = s.Join(ctx)
	}

	if err != nil {
		that.discard(s)
		return nil, nil, fmt.Errorf("failed to start session: %w", err)
	}

	player.SessionID = id
	if err = that.updatePlayer(ctx, player); err != nil {
		that.discard(s)
		return nil, nil, err
	}

	log.Info("session created", "sessionID", id, "mode", string(mode), "mark", player.Mark.String())

	return s, player, nil
}

func (that *SessionManager) startLocal(ctx context.Context, s *session.Session, difficulty entity.Difficulty) error {
	if difficulty == entity.DifficultyNone {
		return apperror.ErrDifficultyNotSet
	}

	if err := s.SetDifficulty(difficulty); err != nil {
		return err
	}

	return s.Start(ctx)
}

func (that *SessionManager) distribution(id string, mode entity.Mode) turn.Distribution {
	if mode == entity.ModeNetworked && that.publisher != nil {
		return turn.NewBroadcast(that.logger, that.publisher, id)
	}

	return turn.Local{}
}

// JoinSession seats the player as the second participant of a networked session.
func (that *SessionManager) JoinSession(ctx context.Context, sessionID, playerID string) (*session.Session, *entity.Player, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	s, err := that.GetSession(sessionID)
	if err != nil {
		return nil, nil, err
	}

	if player.SessionID == sessionID {
		return s, player, nil
	}

	mark, err := s.Join(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join session %s: %w", sessionID, err)
	}

	player.SessionID = sessionID
	player.Mark = mark
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, nil, err
	}

	return s, player, nil
}

// MakeMove forwards a move on behalf of the player. The session decides whether
// the move is legal; illegal moves are dropped there.
func (that *SessionManager) MakeMove(ctx context.Context, playerID string, req session.MoveRequest) (*session.Session, error) {
	s, player, err := that.GetSessionByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	req.Player = player.Mark
	s.RequestMove(ctx, req)

	return s, nil
}

func (that *SessionManager) Restart(ctx context.Context, playerID string) (*session.Session, error) {
	s, _, err := that.GetSessionByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	s.RequestRestart(ctx)

	return s, nil
}

func (that *SessionManager) GetSessionByPlayer(ctx context.Context, playerID string) (*session.Session, *entity.Player, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	if !player.InSession() {
		return nil, player, apperror.ErrNotInSession
	}

	s, err := that.GetSession(player.SessionID)
	if err != nil {
		return nil, player, err
	}

	return s, player, nil
}

func (that *SessionManager) GetSession(id string) (*session.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	s, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return s, nil
}

// StoredSnapshot returns the replicated copy of a session.
func (that *SessionManager) StoredSnapshot(ctx context.Context, id string) (*entity.Snapshot, error) {
	snapshot, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session snapshot: %w", err)
	}

	return snapshot, nil
}

// LeaveSession unseats the player and closes the session they were in.
func (that *SessionManager) LeaveSession(ctx context.Context, playerID string) error {
	s, player, err := that.GetSessionByPlayer(ctx, playerID)
	if err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		return err
	}

	player.Leave()
	if err = that.updatePlayer(ctx, player); err != nil {
		return err
	}

	if s != nil {
		that.discard(s)
	}

	return nil
}

// CloseAll closes every session and waits until their snapshots are stored.
func (that *SessionManager) CloseAll() {
	that.mu.Lock()
	sessions := that.sessions
	that.sessions = make(map[string]*session.Session)
	that.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}

	that.watchers.Wait()

	that.logger.Info("all sessions closed", "count", len(sessions))
}

func (that *SessionManager) register(s *session.Session) {
	events, _ := s.Subscribe(watchBuffer)

	that.mu.Lock()
	that.sessions[s.ID()] = s
	that.mu.Unlock()

	that.watchers.Add(1)
	go that.watch(s, events)
}

// watch stores a fresh snapshot after every event. Once the session is closed
// its snapshot is removed.
func (that *SessionManager) watch(s *session.Session, events <-chan session.Event) {
	defer that.watchers.Done()

	log := that.logger.With("method", "watch", "sessionID", s.ID())

	for event := range events {
		snapshot := s.Snapshot()

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := that.sessionRepo.Save(ctx, &snapshot); err != nil {
			log.Error("failed to store snapshot", "event", string(event.Kind), "error", err)
		}
		cancel()
	}

	if !s.IsClosed() {
		log.Warn("snapshot watcher fell behind and was dropped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := that.sessionRepo.DeleteByID(ctx, s.ID()); err != nil {
		log.Error("failed to delete session snapshot", "error", err)
	}
}

func (that *SessionManager) discard(s *session.Session) {
	that.mu.Lock()
	delete(that.sessions, s.ID())
	that.mu.Unlock()

	s.Close()

	that.logger.Info("session discarded", "sessionID", s.ID())
}

func (that *SessionManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	player := &entity.Player{
		ID: pkg.GeneratePlayerID(),
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *SessionManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *SessionManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
