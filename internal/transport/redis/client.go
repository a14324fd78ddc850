// Package redis replicates the authoritative turn of networked sessions
// through Redis so that participants served by other processes can follow it.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
)

type Client struct {
	client *redis.Client
	logger *slog.Logger
}

func New(logger *slog.Logger, client *redis.Client) *Client {
	return &Client{
		client: client,
		logger: logger.With("component", "turn-publisher"),
	}
}

func turnKey(sessionID string) string {
	return "session:" + sessionID + ":turn"
}

// PublishTurn stores the turn and announces it on the session's turn channel.
func (that *Client) PublishTurn(ctx context.Context, sessionID string, turn entity.Mark) error {
	key := turnKey(sessionID)
	value := turn.String()

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, 0)
		pipe.Publish(ctx, key, value)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish turn: %w", err)
	}

	return nil
}

// LastTurn returns the most recently published turn.
func (that *Client) LastTurn(ctx context.Context, sessionID string) (entity.Mark, error) {
	value, err := that.client.Get(ctx, turnKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return entity.None, apperror.ErrNoTurn
	}

	if err != nil {
		return entity.None, fmt.Errorf("failed to get turn: %w", err)
	}

	var turn entity.Mark
	if err = turn.UnmarshalText([]byte(value)); err != nil {
		return entity.None, fmt.Errorf("failed to parse turn: %w", err)
	}

	return turn, nil
}

// SubscribeTurns follows the published turns of a session until ctx is done.
func (that *Client) SubscribeTurns(ctx context.Context, sessionID string) (<-chan entity.Mark, error) {
	sub := that.client.Subscribe(ctx, turnKey(sessionID))

	// wait for the subscription to be confirmed so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to turns: %w", err)
	}

	turns := make(chan entity.Mark)

	go func() {
		defer close(turns)
		defer sub.Close()

		messages := sub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var turn entity.Mark
				if err := turn.UnmarshalText([]byte(msg.Payload)); err != nil {
					that.logger.Error("skipping malformed turn", "payload", msg.Payload, "error", err)
					continue
				}

				select {
				case turns <- turn:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return turns, nil
}
