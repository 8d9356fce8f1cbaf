package controller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/studyroom/server/internal/repository/room/redis"
	"github.com/studyroom/server/internal/service/room"
)

func newTestController(t *testing.T) (*controller, iRoomService) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &room.Config{
		Secret:                "test-secret",
		MembersLimit:          9,
		ChatHistoryLimit:      50,
		EmptyRoomTTL:          30 * time.Second,
		FocusDuration:         25 * time.Minute,
		ShortBreakDuration:    5 * time.Minute,
		LongBreakDuration:     15 * time.Minute,
		CyclesBeforeLongBreak: 4,
	}

	roomRepo := roomRedis.NewRepo(rc, logger)
	connRepo := inmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, cfg, logger)

	return NewController(roomService, logger), roomService
}

func setupModerationRoom(t *testing.T, svc iRoomService) (hostId, memberId, roomId string) {
	t.Helper()

	ctx := context.Background()

	connectToken, err := svc.CreateRoomSession(ctx, &room.CreateRoomSessionParams{
		Username:  "host",
		RoomName:  "focus hour",
		Technique: "pomodoro",
	})
	require.NoError(t, err)

	createResp, err := svc.CreateRoom(ctx, &room.CreateRoomParams{ConnectToken: connectToken})
	require.NoError(t, err)

	joinToken, err := svc.JoinRoomSession(ctx, &room.JoinRoomSessionParams{
		Username: "student",
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)

	joinResp, err := svc.JoinRoom(ctx, &room.JoinRoomParams{
		ConnectToken: joinToken,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)

	return createResp.MemberId, joinResp.JoinedMember.Id, createResp.RoomId
}

func moderationCtx(roomId, memberId string) context.Context {
	ctx := context.WithValue(context.Background(), roomIdCtxKey, roomId)
	return context.WithValue(ctx, memberIdCtxKey, memberId)
}

func moderationPayload(t *testing.T, action, memberId string) json.RawMessage {
	t.Helper()

	payload, err := json.Marshal(map[string]string{
		"action":    action,
		"member_id": memberId,
	})
	require.NoError(t, err)

	return payload
}

func TestModerateMemberWireActions(t *testing.T) {
	c, svc := newTestController(t)
	hostId, memberId, roomId := setupModerationRoom(t, svc)

	ctx := moderationCtx(roomId, hostId)

	c.handleModerateMember(ctx, nil, moderationPayload(t, "mute_chat", memberId))

	_, err := svc.SendMessage(context.Background(), &room.SendMessageParams{
		Text:     "can anyone hear me",
		SenderId: memberId,
		RoomId:   roomId,
	})
	assert.ErrorIs(t, err, room.ErrSenderMuted)

	c.handleModerateMember(ctx, nil, moderationPayload(t, "unmute_chat", memberId))

	_, err = svc.SendMessage(context.Background(), &room.SendMessageParams{
		Text:     "back again",
		SenderId: memberId,
		RoomId:   roomId,
	})
	require.NoError(t, err)

	c.handleModerateMember(ctx, nil, moderationPayload(t, "transfer_host", memberId))

	state, err := svc.GetRoomState(context.Background(), roomId)
	require.NoError(t, err)
	assert.Equal(t, memberId, state.Room.HostId)

	// authority moved with the transfer, so removal now runs as the new host
	c.handleModerateMember(moderationCtx(roomId, memberId), nil, moderationPayload(t, "remove", hostId))

	state, err = svc.GetRoomState(context.Background(), roomId)
	require.NoError(t, err)
	require.Len(t, state.Members, 1)
	assert.Equal(t, memberId, state.Members[0].Id)
}
