package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
)

// SystemSenderId marks messages emitted by the server itself
// (join/leave notices, moderation audit trail).
const SystemSenderId = "system"

type SendMessageParams struct {
	Text     string
	SenderId string
	RoomId   string
}

type SendMessageResponse struct {
	Message ChatMessage
	Conns   []*websocket.Conn
}

func (s service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return SendMessageResponse{}, ErrMemberNotFound
		}
		return SendMessageResponse{}, err
	}

	if member.IsMuted {
		return SendMessageResponse{}, ErrSenderMuted
	}

	message, err := s.appendChatMessage(ctx, params.RoomId, params.SenderId, member.Username, params.Text)
	if err != nil {
		return SendMessageResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendMessageResponse{}, err
	}

	return SendMessageResponse{
		Message: message,
		Conns:   conns,
	}, nil
}

type TypingParams struct {
	SenderId string
	RoomId   string
}

type TypingResponse struct {
	RoomId   string
	Username string
	Conns    []*websocket.Conn
}

// Typing is advisory. Nothing is persisted, recipients expire the hint on
// their own timer.
func (s service) Typing(ctx context.Context, params *TypingParams) (TypingResponse, error) {
	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return TypingResponse{}, ErrMemberNotFound
		}
		return TypingResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return TypingResponse{}, err
	}

	return TypingResponse{
		RoomId:   params.RoomId,
		Username: member.Username,
		Conns:    conns,
	}, nil
}

func (s service) appendChatMessage(ctx context.Context, roomId, senderId, username, text string) (ChatMessage, error) {
	message := ChatMessage{
		Id:       uuid.NewString(),
		RoomId:   roomId,
		SenderId: senderId,
		Username: username,
		Text:     text,
		SentAt:   time.Now().UnixMilli(),
	}

	raw, err := json.Marshal(message)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("failed to marshal chat message: %w", err)
	}

	if err := s.roomRepo.AddChatMessage(ctx, &room.AddChatMessageParams{
		RoomId:  roomId,
		Message: raw,
	}); err != nil {
		return ChatMessage{}, err
	}

	return message, nil
}

func (s service) appendSystemMessage(ctx context.Context, roomId, text string) (ChatMessage, error) {
	return s.appendChatMessage(ctx, roomId, SystemSenderId, SystemSenderId, text)
}

func (s service) getChatHistory(ctx context.Context, roomId string) ([]ChatMessage, error) {
	raw, err := s.roomRepo.GetChatMessages(ctx, &room.GetChatMessagesParams{
		RoomId: roomId,
		Limit:  s.chatHistoryLimit,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]ChatMessage, 0, len(raw))
	for _, m := range raw {
		var message ChatMessage
		if err := json.Unmarshal(m, &message); err != nil {
			s.logger.WarnContext(ctx, "skipping malformed chat message", "error", err)
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}
