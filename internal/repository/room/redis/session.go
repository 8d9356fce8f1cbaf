package redis

import (
	"context"
	"time"

	"github.com/studyroom/server/internal/repository/room"
)

const sessionTTL = 5 * time.Minute

func (r repo) getCreateRoomSessionKey(connectToken string) string {
	return "session:create:" + connectToken
}

func (r repo) getJoinRoomSessionKey(connectToken string) string {
	return "session:join:" + connectToken
}

func (r repo) SetCreateRoomSession(ctx context.Context, params *room.SetCreateRoomSessionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	key := r.getCreateRoomSessionKey(params.ConnectToken)
	r.hSetStruct(ctx, pipe, key, room.CreateRoomSession{
		Username:  params.Username,
		RoomName:  params.RoomName,
		Topic:     params.Topic,
		Technique: params.Technique,
	})
	pipe.Expire(ctx, key, sessionTTL)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetCreateRoomSession(ctx context.Context, connectToken string) (room.CreateRoomSession, error) {
	var session room.CreateRoomSession
	if err := r.rc.HGetAll(ctx, r.getCreateRoomSessionKey(connectToken)).Scan(&session); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.CreateRoomSession{}, err
	}

	if session.Username == "" {
		return room.CreateRoomSession{}, room.ErrSessionNotFound
	}

	return session, nil
}

func (r repo) SetJoinRoomSession(ctx context.Context, params *room.SetJoinRoomSessionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	key := r.getJoinRoomSessionKey(params.ConnectToken)
	r.hSetStruct(ctx, pipe, key, room.JoinRoomSession{
		Username: params.Username,
		RoomId:   params.RoomId,
	})
	pipe.Expire(ctx, key, sessionTTL)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetJoinRoomSession(ctx context.Context, connectToken string) (room.JoinRoomSession, error) {
	var session room.JoinRoomSession
	if err := r.rc.HGetAll(ctx, r.getJoinRoomSessionKey(connectToken)).Scan(&session); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.JoinRoomSession{}, err
	}

	if session.Username == "" {
		return room.JoinRoomSession{}, room.ErrSessionNotFound
	}

	return session, nil
}
