package controller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/service/room"
)

func (c controller) handleAlive(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
}

func (c controller) handleGetState(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	roomState, err := c.roomService.GetRoomState(ctx, c.getRoomIdFromCtx(ctx))
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.writeToConn(ctx, conn, &Output{
		Type:    eventRoomState,
		Payload: map[string]any{"state": roomState},
	})
}

func (c controller) handleUpdateProfile(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		Username *string `json:"username" validate:"omitempty,min=1,max=32"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	updateResponse, err := c.roomService.UpdateProfile(ctx, &room.UpdateProfileParams{
		Username: data.Username,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcast(ctx, updateResponse.Conns, &Output{
		Type: eventRoomUpdate,
		Payload: map[string]any{
			"members": updateResponse.Members,
		},
	})
}

func (c controller) handleUpdateTechnique(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		Action          string `json:"action" validate:"required,oneof=start pause reset"`
		ExpectedVersion int    `json:"expected_version" validate:"gte=0"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	techniqueResponse, err := c.roomService.UpdateTechnique(ctx, &room.UpdateTechniqueParams{
		Action:          data.Action,
		ExpectedVersion: data.ExpectedVersion,
		SenderId:        c.getMemberIdFromCtx(ctx),
		RoomId:          c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcastTechnique(ctx, techniqueResponse)
}

func (c controller) handleAdvancePhase(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		ExpectedVersion int `json:"expected_version" validate:"gte=0"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	techniqueResponse, err := c.roomService.AdvancePhase(ctx, &room.AdvancePhaseParams{
		ExpectedVersion: data.ExpectedVersion,
		SenderId:        c.getMemberIdFromCtx(ctx),
		RoomId:          c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		// a concurrent advance already moved the phase, the sender will
		// receive the broadcast that the winner triggered
		if errors.Is(err, room.ErrVersionConflict) {
			c.logger.DebugContext(ctx, "phase already advanced")
			return
		}
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcastTechnique(ctx, techniqueResponse)
}

func (c controller) broadcastTechnique(ctx context.Context, techniqueResponse room.TechniqueResponse) {
	c.broadcast(ctx, techniqueResponse.Conns, &Output{
		Type: eventTechniqueUpdate,
		Payload: map[string]any{
			"technique": techniqueResponse.Technique,
			"state":     techniqueResponse.State,
		},
	})
}

func (c controller) handlePublishQuiz(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		Topic        string   `json:"topic" validate:"max=128"`
		Question     string   `json:"question" validate:"required"`
		Options      []string `json:"options" validate:"required,min=2,max=8,dive,required"`
		CorrectIndex int      `json:"correct_index" validate:"gte=0"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	quizResponse, err := c.roomService.PublishQuiz(ctx, &room.PublishQuizParams{
		Topic:        data.Topic,
		Question:     data.Question,
		Options:      data.Options,
		CorrectIndex: data.CorrectIndex,
		SenderId:     c.getMemberIdFromCtx(ctx),
		RoomId:       c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcastQuiz(ctx, quizResponse)
}

func (c controller) handleSubmitAnswer(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		OptionIndex int `json:"option_index" validate:"gte=0"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	quizResponse, err := c.roomService.SubmitAnswer(ctx, &room.SubmitAnswerParams{
		OptionIndex: data.OptionIndex,
		SenderId:    c.getMemberIdFromCtx(ctx),
		RoomId:      c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcastQuiz(ctx, quizResponse)
}

func (c controller) handleClearQuiz(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	quizResponse, err := c.roomService.ClearQuiz(ctx, &room.ClearQuizParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcastQuiz(ctx, quizResponse)
}

func (c controller) broadcastQuiz(ctx context.Context, quizResponse room.QuizResponse) {
	c.broadcast(ctx, quizResponse.Conns, &Output{
		Type: eventQuizUpdate,
		Payload: map[string]any{
			"quiz":         quizResponse.Quiz,
			"leaderboard":  quizResponse.Leaderboard,
			"is_completed": quizResponse.IsCompleted,
		},
	})
}

func (c controller) handleSendMessage(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		Text string `json:"text" validate:"required,min=1,max=2000"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	sendResponse, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		Text:     data.Text,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcast(ctx, sendResponse.Conns, &Output{
		Type:    eventChatMessage,
		Payload: sendResponse.Message,
	})
}

func (c controller) handleTyping(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	typingResponse, err := c.roomService.Typing(ctx, &room.TypingParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	c.broadcast(ctx, typingResponse.Conns, &Output{
		Type: eventTyping,
		Payload: map[string]any{
			"room_id":   typingResponse.RoomId,
			"member_id": c.getMemberIdFromCtx(ctx),
			"username":  typingResponse.Username,
			"sent_at":   time.Now().UnixMilli(),
		},
	})
}

func (c controller) handleModerateMember(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var data struct {
		Action   string `json:"action" validate:"required,oneof=mute_chat unmute_chat remove transfer_host"`
		MemberId string `json:"member_id" validate:"required"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		c.logger.DebugContext(ctx, "failed to unmarshal payload", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if validationErrors, ok := c.validate.Validate(data); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		c.writeValidationError(ctx, conn, validationErrors)
		return
	}

	params := &room.ModerateMemberParams{
		TargetId: data.MemberId,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	}

	var moderationResponse room.ModerationResponse
	var removedConn *websocket.Conn
	var err error

	switch data.Action {
	case "mute_chat":
		moderationResponse, err = c.roomService.MuteMember(ctx, params)
	case "unmute_chat":
		moderationResponse, err = c.roomService.UnmuteMember(ctx, params)
	case "transfer_host":
		moderationResponse, err = c.roomService.TransferHost(ctx, params)
	case "remove":
		var removeResponse room.RemoveMemberResponse
		removeResponse, err = c.roomService.RemoveMember(ctx, params)
		moderationResponse = removeResponse.ModerationResponse
		removedConn = removeResponse.RemovedConn
	}
	if err != nil {
		c.writeError(ctx, conn, err)
		return
	}

	if removedConn != nil {
		formattedCloseMessage := websocket.FormatCloseMessage(4001, "removed from the room")
		if err := removedConn.WriteMessage(websocket.CloseMessage, formattedCloseMessage); err != nil {
			c.logger.InfoContext(ctx, "failed to write close message", "error", err)
		}
		removedConn.Close()
	}

	c.broadcast(ctx, moderationResponse.Conns, &Output{
		Type: eventRoomUpdate,
		Payload: map[string]any{
			"room":    moderationResponse.Room,
			"members": moderationResponse.Members,
		},
	})
	c.broadcast(ctx, moderationResponse.Conns, &Output{
		Type:    eventChatMessage,
		Payload: moderationResponse.SystemMessage,
	})
}
