package turn

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 16
)

// Local keeps the turn inside the process.
type Local struct{}

func (Local) Distribute(context.Context, entity.Mark) {}

type TurnPublisher interface {
	PublishTurn(ctx context.Context, sessionID string, turn entity.Mark) error
}

// Broadcast pushes every authoritative turn value to the remote participant.
// Turns are published in order by a background worker, so a slow publisher
// never holds up the session. Publishing failures are logged only; the
// coordinator's state stays authoritative.
type Broadcast struct {
	logger    *slog.Logger
	publisher TurnPublisher
	sessionID string

	mu      sync.Mutex
	queue   chan entity.Mark
	closed  bool
	stopped chan struct{}
}

func NewBroadcast(logger *slog.Logger, publisher TurnPublisher, sessionID string) *Broadcast {
	broadcast := &Broadcast{
		logger:    logger.With("component", "turn-broadcast", "sessionID", sessionID),
		publisher: publisher,
		sessionID: sessionID,
		queue:     make(chan entity.Mark, queueSize),
		stopped:   make(chan struct{}),
	}

	go broadcast.run()

	return broadcast
}

// Distribute queues turn for publishing. When the queue is full the oldest
// queued value is dropped; the latest turn always gets through.
func (that *Broadcast) Distribute(_ context.Context, turn entity.Mark) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	for {
		select {
		case that.queue <- turn:
			return
		default:
		}

		select {
		case stale := <-that.queue:
			that.logger.Warn("turn queue full, dropping stale turn", "turn", stale.String())
		default:
		}
	}
}

// Close publishes the turns still queued and stops the worker.
func (that *Broadcast) Close() {
	that.mu.Lock()
	if !that.closed {
		that.closed = true
		close(that.queue)
	}
	that.mu.Unlock()

	<-that.stopped
}

func (that *Broadcast) run() {
	defer close(that.stopped)

	for turn := range that.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := that.publisher.PublishTurn(ctx, that.sessionID, turn); err != nil {
			that.logger.Error("failed to publish turn", "turn", turn.String(), "error", err)
		}

		cancel()
	}
}
