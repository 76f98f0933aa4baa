package api

import (
	"encoding/json"
	"fmt"

	"github.com/cinematch/cinematch/internal/session"
	"github.com/cinematch/cinematch/internal/websocket"
)

// sessionBridge exposes the session manager to websocket clients.
type sessionBridge struct {
	sessions *session.Manager
}

func (b *sessionBridge) Exists(sessionID string) bool {
	_, err := b.sessions.Get(sessionID)
	return err == nil
}

func (b *sessionBridge) Attach(sessionID string, publish func(msgType string, payload any)) (func(), error) {
	c, err := b.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return c.Subscribe(func(_ string, s session.State) {
		publish(websocket.TypeSessionState, s)
	}), nil
}

func (b *sessionBridge) Handle(sessionID, msgType string, payload json.RawMessage) error {
	c, err := b.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	e, err := decodeMessage(msgType, payload)
	if err != nil {
		return err
	}
	c.Dispatch(e)
	return nil
}

func decodeMessage(msgType string, payload json.RawMessage) (session.Event, error) {
	var req interface {
		event() (session.Event, error)
	}
	switch msgType {
	case MessageQueryChanged:
		req = &queryRequest{}
	case MessageFilterChanged:
		req = &filterRequest{}
	case MessageItemSelected:
		req = &selectRequest{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msgType)
	}

	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidEvent)
	}
	if err := json.Unmarshal(payload, req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return req.event()
}
