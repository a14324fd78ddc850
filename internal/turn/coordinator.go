// Package turn decides whose move it is. The policy lives in Coordinator and is
// shared by every session; only the Distribution differs between modes.
package turn

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

// Distribution makes the authoritative turn visible to participants.
type Distribution interface {
	Distribute(ctx context.Context, turn entity.Mark)
}

// Coordinator is not safe for concurrent use; the owning session serialises calls.
type Coordinator struct {
	turn entity.Mark
	dist Distribution
	rng  *rand.Rand
}

func NewCoordinator(dist Distribution, rng *rand.Rand) *Coordinator {
	if dist == nil {
		dist = Local{}
	}

	return &Coordinator{
		turn: entity.None,
		dist: dist,
		rng:  rng,
	}
}

func (that *Coordinator) CurrentTurn() entity.Mark {
	return that.turn
}

// Start hands the first move of a fresh session to a random player.
func (that *Coordinator) Start(ctx context.Context) entity.Mark {
	that.set(ctx, that.randomPlayer())

	return that.turn
}

// RecordMove passes the turn to the other player after player moved.
func (that *Coordinator) RecordMove(ctx context.Context, player entity.Mark) entity.Mark {
	if !player.IsPlayer() {
		panic(fmt.Sprintf("turn: move recorded for invalid player %d", player))
	}

	that.set(ctx, player.Opponent())

	return that.turn
}

// EndGame freezes the board: nobody may move until Restart.
func (that *Coordinator) EndGame(ctx context.Context, _ entity.Mark) {
	that.set(ctx, entity.None)
}

// Restart lets the loser of a decisive game open the next one. After a draw the
// first mover is drawn at random.
func (that *Coordinator) Restart(ctx context.Context, lastWinner entity.Mark) entity.Mark {
	first := lastWinner.Opponent()
	if first == entity.None {
		first = that.randomPlayer()
	}

	that.set(ctx, first)

	return that.turn
}

// Close releases the distribution once the owning session is done with it.
func (that *Coordinator) Close() {
	if closer, ok := that.dist.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (that *Coordinator) set(ctx context.Context, turn entity.Mark) {
	that.turn = turn
	that.dist.Distribute(ctx, turn)
}

func (that *Coordinator) randomPlayer() entity.Mark {
	if that.rng.IntN(2) == 0 {
		return entity.Cross
	}

	return entity.Circle
}
