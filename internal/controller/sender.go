package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/service/room"
	"github.com/studyroom/server/pkg/validator"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	eventRoomState       = "room:state"
	eventRoomUpdate      = "room:update"
	eventTechniqueUpdate = "technique:update"
	eventQuizUpdate      = "quiz:update"
	eventChatMessage     = "chat:message"
	eventTyping          = "typing"
	eventError           = "error"
)

func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.InfoContext(ctx, "failed to write to conn", "error", err)
		}
	}
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.InfoContext(ctx, "failed to write to conn", "error", err)
	}
}

func (c controller) writeError(ctx context.Context, conn *websocket.Conn, err error) {
	c.logger.DebugContext(ctx, "sending error", "error", err)
	c.writeToConn(ctx, conn, &Output{
		Type: eventError,
		Payload: map[string]string{
			"code":    errorCode(err),
			"message": err.Error(),
		},
	})
}

func (c controller) writeValidationError(ctx context.Context, conn *websocket.Conn, validationErrors []validator.ValidationError) {
	c.writeToConn(ctx, conn, &Output{
		Type: eventError,
		Payload: map[string]any{
			"code":   "validation_error",
			"errors": validationErrors,
		},
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrRoomFull):
		return "room_full"
	case errors.Is(err, room.ErrMemberNotFound):
		return "member_not_found"
	case errors.Is(err, room.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, room.ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, room.ErrQuizAlreadyActive):
		return "quiz_already_active"
	case errors.Is(err, room.ErrQuizNotFound):
		return "quiz_not_found"
	case errors.Is(err, room.ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, room.ErrSenderMuted):
		return "sender_muted"
	case errors.Is(err, room.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, room.ErrCannotRemoveHost):
		return "cannot_remove_host"
	case errors.Is(err, room.ErrTargetNotMember):
		return "target_not_member"
	default:
		return "internal_error"
	}
}
