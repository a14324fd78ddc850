package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/session"
)

func (that *Server) handleConnect(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := parsePayload(msg)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, "malformed payload")
		return err
	}

	playerID := ""
	if payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
	}

	player, err := that.uSession.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, "failed to create a new player")
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	c.setPlayer(player.ID)

	payloadResp := Payload{Player: player}

	if player.InSession() {
		s, _, err := that.uSession.GetSessionByPlayer(ctx, player.ID)
		if err == nil {
			that.follow(c, s)

			snapshot := s.Snapshot()
			payloadResp.Session = &snapshot
		} else {
			log.Warn("player's session is gone", "playerID", player.ID, "error", err)
		}
	}

	that.send(c, msg.Action, payloadResp)

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, playerID, err := that.parseWithPlayer(c, msg)
	if err != nil {
		return err
	}

	s, player, err := that.uSession.CreateSession(ctx, playerID, payloadReq.Type, payloadReq.Difficulty)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, fmt.Sprintf("failed to create a new game: %v", err))
		return fmt.Errorf("failed to create session: %w", err)
	}

	that.follow(c, s)

	snapshot := s.Snapshot()
	that.send(c, msg.Action, Payload{Player: player, Session: &snapshot})

	log.Info("session created", "playerID", playerID, "sessionID", s.ID())

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleJoinGame")

	payloadReq, playerID, err := that.parseWithPlayer(c, msg)
	if err != nil {
		return err
	}

	if payloadReq.SessionID == "" {
		that.sendErrorResponse(c, msg.Action, "Session id is required")
		return nil
	}

	s, player, err := that.uSession.JoinSession(ctx, payloadReq.SessionID, playerID)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, fmt.Sprintf("session %s: %v", payloadReq.SessionID, err))
		return fmt.Errorf("failed to join session: %w", err)
	}

	that.follow(c, s)

	snapshot := s.Snapshot()
	that.send(c, msg.Action, Payload{Player: player, Session: &snapshot})

	log.Info("Player joined session", "playerID", playerID, "sessionID", s.ID())

	return nil
}

// handleGameTurn forwards the move. Accepted moves reach every participant as
// events; rejected ones produce nothing.
func (that *Server) handleGameTurn(ctx context.Context, c *client, msg *Message) error {
	payloadReq, playerID, err := that.parseWithPlayer(c, msg)
	if err != nil {
		return err
	}

	var cell entity.Coord

	switch {
	case payloadReq.Cell != nil:
		cell = *payloadReq.Cell
	case payloadReq.Position != nil:
		var ok bool
		if cell, ok = that.translator.ToCoord(*payloadReq.Position); !ok {
			that.sendErrorResponse(c, msg.Action, apperror.ErrInvalidCell.Error())
			return nil
		}
	default:
		that.sendErrorResponse(c, msg.Action, "Cell is required")
		return nil
	}

	s, err := that.uSession.MakeMove(ctx, playerID, session.MoveRequest{
		Coord:      cell,
		ID:         msg.ID,
		Generation: payloadReq.Generation,
	})
	if err != nil {
		that.sendErrorResponse(c, msg.Action, err.Error())
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.follow(c, s)

	return nil
}

func (that *Server) handleRestart(ctx context.Context, c *client, msg *Message) error {
	_, playerID, err := that.parseWithPlayer(c, msg)
	if err != nil {
		return err
	}

	s, err := that.uSession.Restart(ctx, playerID)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, err.Error())
		return fmt.Errorf("failed to restart: %w", err)
	}

	that.follow(c, s)

	return nil
}

func (that *Server) handleState(ctx context.Context, c *client, msg *Message) error {
	_, playerID, err := that.parseWithPlayer(c, msg)
	if err != nil {
		return err
	}

	s, player, err := that.uSession.GetSessionByPlayer(ctx, playerID)
	if errors.Is(err, apperror.ErrNotInSession) {
		that.send(c, msg.Action, Payload{Player: player})
		return nil
	}

	if err != nil {
		that.sendErrorResponse(c, msg.Action, err.Error())
		return fmt.Errorf("failed to get session: %w", err)
	}

	snapshot := s.Snapshot()
	that.send(c, msg.Action, Payload{Player: player, Session: &snapshot})

	return nil
}

// handleLeave unseats the player. The session ends for every participant.
func (that *Server) handleLeave(ctx context.Context, c *client, msg *Message) error {
	_, playerID, err := that.parseWithPlayer(c, msg)
	if err != nil {
		return err
	}

	_, sessionID := c.seat()

	err = that.uSession.LeaveSession(ctx, playerID)
	if err != nil && !errors.Is(err, apperror.ErrNotInSession) {
		that.sendErrorResponse(c, msg.Action, err.Error())
		return fmt.Errorf("failed to leave session: %w", err)
	}

	c.unfollow(sessionID)
	that.send(c, msg.Action, Payload{SessionID: sessionID})

	that.logger.Info("player left session", "playerID", playerID, "sessionID", sessionID)

	return nil
}

// parseWithPlayer decodes the payload and resolves the acting player: the one
// this connection connected as. A payload player is only taken before connect.
func (that *Server) parseWithPlayer(c *client, msg *Message) (Payload, string, error) {
	payloadReq, err := parsePayload(msg)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, "malformed payload")
		return Payload{}, "", err
	}

	playerID := c.player()
	if playerID == "" && payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
	}

	if playerID == "" {
		that.sendErrorResponse(c, msg.Action, "Player is required")
		return Payload{}, "", errPlayerRequired
	}

	return payloadReq, playerID, nil
}

var errPlayerRequired = errors.New("player is missing in payload")

func parsePayload(msg *Message) (Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return Payload{}, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}
