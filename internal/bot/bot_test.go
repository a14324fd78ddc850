package bot

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func place(t *testing.T, board *entity.Board, mark entity.Mark, cells ...entity.Coord) {
	t.Helper()

	for _, c := range cells {
		require.NoError(t, board.Apply(c, mark))
	}
}

func TestNew(t *testing.T) {
	rng := seeded(1)

	t.Run("Maps difficulty to selector", func(t *testing.T) {
		easy, err := New(entity.EasyDifficulty, rng, Options{})
		require.NoError(t, err)
		assert.IsType(t, &Random{}, easy)

		medium, err := New(entity.MediumDifficulty, rng, Options{})
		require.NoError(t, err)
		assert.IsType(t, &Heuristic{}, medium)

		hard, err := New(entity.HardDifficulty, rng, Options{})
		require.NoError(t, err)
		assert.IsType(t, &Minimax{}, hard)
	})

	t.Run("Rejects DifficultyNone", func(t *testing.T) {
		selector, err := New(entity.DifficultyNone, rng, Options{})

		require.ErrorIs(t, err, apperror.ErrUnknownDifficulty)
		assert.Nil(t, selector)
	})
}

func TestRandom_SelectMove(t *testing.T) {
	t.Run("Only picks empty cells", func(t *testing.T) {
		// Given: a board with a single free cell
		var board entity.Board
		for _, c := range board.EmptyCells() {
			if c != (entity.Coord{Col: 2, Row: 1}) {
				place(t, &board, entity.Cross, c)
			}
		}

		selector := NewRandom(seeded(7))

		// When: the random opponent chooses many times
		for i := 0; i < 20; i++ {
			move, ok := selector.SelectMove(board, entity.Circle)

			// Then: it always returns the free cell
			require.True(t, ok)
			assert.Equal(t, entity.Coord{Col: 2, Row: 1}, move)
		}
	})

	t.Run("Reports no move on a full board", func(t *testing.T) {
		var board entity.Board
		for _, c := range board.EmptyCells() {
			place(t, &board, entity.Cross, c)
		}

		_, ok := NewRandom(seeded(7)).SelectMove(board, entity.Circle)

		assert.False(t, ok)
	})
}

func TestSelectByRules(t *testing.T) {
	t.Run("Takes the win before blocking", func(t *testing.T) {
		// Given: Circle can win on column 2 and Cross threatens column 0
		var board entity.Board
		place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0}, entity.Coord{Col: 0, Row: 1})
		place(t, &board, entity.Circle, entity.Coord{Col: 2, Row: 1}, entity.Coord{Col: 2, Row: 2})

		// When: the rules pick a move for Circle
		move, ok := SelectByRules(&board, entity.Circle)

		// Then: Circle completes its own column instead of blocking (0,2)
		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 2, Row: 0}, move)
	})

	t.Run("Blocks the opponent", func(t *testing.T) {
		var board entity.Board
		place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0}, entity.Coord{Col: 0, Row: 1})
		place(t, &board, entity.Circle, entity.Coord{Col: 1, Row: 1})

		move, ok := SelectByRules(&board, entity.Circle)

		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 0, Row: 2}, move)
	})

	t.Run("Prefers the center", func(t *testing.T) {
		var board entity.Board
		place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0})

		move, ok := SelectByRules(&board, entity.Circle)

		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 1, Row: 1}, move)
	})

	t.Run("Falls back to corners in fixed order", func(t *testing.T) {
		var board entity.Board
		place(t, &board, entity.Cross, entity.Coord{Col: 1, Row: 1})
		place(t, &board, entity.Circle, entity.Coord{Col: 0, Row: 0})
		place(t, &board, entity.Cross, entity.Coord{Col: 2, Row: 2})

		move, ok := SelectByRules(&board, entity.Circle)

		// top-right comes after the occupied top-left
		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 2, Row: 0}, move)
	})

	t.Run("Falls back to the first free cell", func(t *testing.T) {
		// Given: center and corners taken and no line with two of a kind plus a gap
		board := entity.Board{
			{entity.Cross, entity.None, entity.Circle},
			{entity.None, entity.Circle, entity.None},
			{entity.Circle, entity.None, entity.Cross},
		}

		move, ok := SelectByRules(&board, entity.Cross)

		// Then: the first empty cell in column-major order is taken
		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 0, Row: 1}, move)
	})
}

func TestFindCompletingMove(t *testing.T) {
	t.Run("Rows are scanned before columns", func(t *testing.T) {
		var board entity.Board
		place(t, &board, entity.Cross,
			entity.Coord{Col: 0, Row: 2}, entity.Coord{Col: 1, Row: 2},
			entity.Coord{Col: 0, Row: 0},
		)

		move, ok := FindCompletingMove(&board, entity.Cross)

		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 2, Row: 2}, move)
	})

	t.Run("Finds the anti diagonal", func(t *testing.T) {
		var board entity.Board
		place(t, &board, entity.Circle, entity.Coord{Col: 2, Row: 0}, entity.Coord{Col: 1, Row: 1})

		move, ok := FindCompletingMove(&board, entity.Circle)

		require.True(t, ok)
		assert.Equal(t, entity.Coord{Col: 0, Row: 2}, move)
	})

	t.Run("A blocked line does not count", func(t *testing.T) {
		var board entity.Board
		place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0}, entity.Coord{Col: 1, Row: 0})
		place(t, &board, entity.Circle, entity.Coord{Col: 2, Row: 0})

		_, ok := FindCompletingMove(&board, entity.Cross)

		assert.False(t, ok)
	})
}

func TestHeuristic_BlocksMostOfTheTime(t *testing.T) {
	// Given: Cross threatens the top row and Circle has no win of its own
	var board entity.Board
	place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0}, entity.Coord{Col: 1, Row: 0})
	place(t, &board, entity.Circle, entity.Coord{Col: 2, Row: 2})

	selector := NewHeuristic(seeded(42), DefaultRandomPlayOdds)
	block := entity.Coord{Col: 2, Row: 0}

	// When: the medium opponent answers many times
	const trials = 1000
	blocked := 0
	for i := 0; i < trials; i++ {
		move, ok := selector.SelectMove(board, entity.Circle)
		require.True(t, ok)
		require.Equal(t, entity.None, board.At(move))

		if move == block {
			blocked++
		}
	}

	// Then: it blocks in at least four of five games, allowing for sampling noise
	assert.GreaterOrEqual(t, blocked, trials*3/4)
	assert.Less(t, blocked, trials)
}

func TestHeuristic_OddsOfOneAlwaysPlaysRandomly(t *testing.T) {
	var board entity.Board
	place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0}, entity.Coord{Col: 1, Row: 0})

	selector := NewHeuristic(seeded(3), 1)

	seen := map[entity.Coord]bool{}
	for i := 0; i < 200; i++ {
		move, ok := selector.SelectMove(board, entity.Circle)
		require.True(t, ok)
		seen[move] = true
	}

	assert.Greater(t, len(seen), 1)
}

func TestMinimax_TakesImmediateWin(t *testing.T) {
	// Given: Circle has two on the middle row and Cross threatens row 0
	var board entity.Board
	place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0}, entity.Coord{Col: 1, Row: 0}, entity.Coord{Col: 2, Row: 2})
	place(t, &board, entity.Circle, entity.Coord{Col: 0, Row: 1}, entity.Coord{Col: 1, Row: 1})

	// When: minimax moves for Circle
	move, ok := NewMinimax().SelectMove(board, entity.Circle)

	// Then: it wins at once instead of blocking
	require.True(t, ok)
	assert.Equal(t, entity.Coord{Col: 2, Row: 1}, move)
}

func TestMinimax_FullBoard(t *testing.T) {
	var board entity.Board
	for _, c := range board.EmptyCells() {
		board[c.Col][c.Row] = entity.Cross
	}

	_, ok := NewMinimax().SelectMove(board, entity.Circle)

	assert.False(t, ok)
}

func TestMinimax_AnswersCornerOpeningOptimally(t *testing.T) {
	// Given: the human opens in the top-left corner and the computer plays second
	var board entity.Board
	place(t, &board, entity.Cross, entity.Coord{Col: 0, Row: 0})

	ai := NewMinimax()

	// When: the hard opponent answers
	move, ok := ai.SelectMove(board, entity.Circle)
	require.True(t, ok)

	// Then: the reply scores as well as the best possible reply and does not lose
	best := -winScore
	for _, c := range board.EmptyCells() {
		next := board
		next[c.Col][c.Row] = entity.Circle
		best = max(best, ai.Score(next, entity.Circle))
	}

	chosen := board
	chosen[move.Col][move.Row] = entity.Circle
	assert.Equal(t, best, ai.Score(chosen, entity.Circle))
	assert.Equal(t, 0, best)

	// the center is the only reply to a corner opening that avoids a forced loss
	assert.Equal(t, entity.Coord{Col: 1, Row: 1}, move)
}

func TestMinimax_NeverLoses(t *testing.T) {
	ai := NewMinimax()

	for _, aiMark := range []entity.Mark{entity.Cross, entity.Circle} {
		t.Run("computer plays "+aiMark.String(), func(t *testing.T) {
			var board entity.Board

			// Cross always moves first; every opponent reply is explored.
			games := exploreAgainstEveryOpponent(t, ai, board, entity.Cross, aiMark)

			assert.Positive(t, games)
		})
	}
}

func TestMinimax_SelfPlayDraws(t *testing.T) {
	ai := NewMinimax()

	var board entity.Board
	mark := entity.Cross
	for !board.IsFull() && board.Winner().Winner == entity.None {
		move, ok := ai.SelectMove(board, mark)
		require.True(t, ok)
		place(t, &board, mark, move)
		mark = mark.Opponent()
	}

	assert.Equal(t, entity.None, board.Winner().Winner)
	assert.True(t, board.IsFull())
}

// exploreAgainstEveryOpponent plays ai against all legal opponent strategies and
// returns the number of finished games.
func exploreAgainstEveryOpponent(t *testing.T, ai MoveSelector, board entity.Board, toMove, aiMark entity.Mark) int {
	t.Helper()

	if winner := board.Winner().Winner; winner != entity.None {
		require.NotEqual(t, aiMark.Opponent(), winner, "computer lost on board %v", board)
		return 1
	}

	if board.IsFull() {
		return 1
	}

	if toMove == aiMark {
		move, ok := ai.SelectMove(board, aiMark)
		require.True(t, ok)

		board[move.Col][move.Row] = aiMark

		return exploreAgainstEveryOpponent(t, ai, board, toMove.Opponent(), aiMark)
	}

	games := 0
	for _, c := range board.EmptyCells() {
		next := board
		next[c.Col][c.Row] = toMove
		games += exploreAgainstEveryOpponent(t, ai, next, toMove.Opponent(), aiMark)
	}

	return games
}
