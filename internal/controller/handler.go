package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/service/room"
	"github.com/studyroom/server/pkg/ctxlogger"
	"github.com/studyroom/server/pkg/rest"
)

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	connectToken := r.URL.Query().Get("connect-token")
	if connectToken == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "connect-token is required"})
		return
	}

	createResponse, err := c.roomService.CreateRoom(ctx, &room.CreateRoomParams{
		ConnectToken: connectToken,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid connect token"})
		return
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", createResponse.RoomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", createResponse.MemberId))

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(ctx, "failed to upgrade connection", "error", err)
		c.disconnect(ctx, createResponse.MemberId, createResponse.RoomId)
		return
	}
	defer c.disconnect(ctx, createResponse.MemberId, createResponse.RoomId)

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: createResponse.MemberId,
	}); err != nil {
		c.logger.ErrorContext(ctx, "failed to connect member", "error", err)
		conn.Close()
		return
	}

	c.sendRoomState(ctx, conn, createResponse.RoomId, createResponse.AuthToken)

	c.serve(ctx, conn, createResponse.MemberId, createResponse.RoomId)
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomId := chi.URLParam(r, "room-id")

	connectToken := r.URL.Query().Get("connect-token")
	if connectToken == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "connect-token is required"})
		return
	}

	joinResponse, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnectToken: connectToken,
		AuthToken:    r.URL.Query().Get("auth-token"),
		RoomId:       roomId,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to join room", "error", err)
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		case errors.Is(err, room.ErrRoomFull):
			rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": "room is full"})
		default:
			rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid connect token"})
		}
		return
	}

	memberId := joinResponse.JoinedMember.Id

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", memberId))

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(ctx, "failed to upgrade connection", "error", err)
		c.disconnect(ctx, memberId, roomId)
		return
	}
	defer c.disconnect(ctx, memberId, roomId)

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: memberId,
	}); err != nil {
		c.logger.ErrorContext(ctx, "failed to connect member", "error", err)
		conn.Close()
		return
	}

	roomState, err := c.roomService.GetRoomState(ctx, roomId)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get room state", "error", err)
		conn.Close()
		return
	}

	c.writeToConn(ctx, conn, &Output{
		Type: eventRoomState,
		Payload: map[string]any{
			"auth_token": joinResponse.AuthToken,
			"state":      roomState,
		},
	})

	c.broadcast(ctx, joinResponse.Conns, &Output{
		Type: eventRoomUpdate,
		Payload: map[string]any{
			"room":    roomState.Room,
			"members": roomState.Members,
		},
	})
	c.broadcast(ctx, joinResponse.Conns, &Output{
		Type:    eventChatMessage,
		Payload: joinResponse.SystemMessage,
	})

	c.serve(ctx, conn, memberId, roomId)
}

func (c controller) sendRoomState(ctx context.Context, conn *websocket.Conn, roomId, authToken string) {
	roomState, err := c.roomService.GetRoomState(ctx, roomId)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get room state", "error", err)
		return
	}

	c.writeToConn(ctx, conn, &Output{
		Type: eventRoomState,
		Payload: map[string]any{
			"auth_token": authToken,
			"state":      roomState,
		},
	})
}

func (c controller) serve(ctx context.Context, conn *websocket.Conn, memberId, roomId string) {
	ctx = context.WithValue(ctx, roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, memberIdCtxKey, memberId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect runs after the serve loop ends, whatever the reason. A member
// already removed by moderation shows up here as ErrMemberNotFound, which
// is the expected second pass.
func (c controller) disconnect(ctx context.Context, memberId, roomId string) {
	disconnectResponse, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if disconnectResponse.IsRoomEmpty {
		return
	}

	c.broadcast(ctx, disconnectResponse.Conns, &Output{
		Type: eventRoomUpdate,
		Payload: map[string]any{
			"room":    disconnectResponse.Room,
			"members": disconnectResponse.Members,
		},
	})
	for _, systemMessage := range disconnectResponse.SystemMessages {
		c.broadcast(ctx, disconnectResponse.Conns, &Output{
			Type:    eventChatMessage,
			Payload: systemMessage,
		})
	}
}
