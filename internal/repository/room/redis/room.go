package redis

import (
	"context"

	"github.com/studyroom/server/internal/repository/room"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) getRoomPrefix(roomId string) string {
	return "room:" + roomId + "*"
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	r.hSetStruct(ctx, pipe, r.getRoomKey(params.RoomId), room.Room{
		Name:         params.Name,
		Topic:        params.Topic,
		Technique:    params.Technique,
		MembersLimit: params.MembersLimit,
		HostId:       params.HostId,
		CreatedAt:    params.CreatedAt,
	})

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	var rm room.Room
	if err := r.rc.HGetAll(ctx, r.getRoomKey(roomId)).Scan(&rm); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Room{}, err
	}

	if rm.CreatedAt == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	return rm, nil
}

func (r repo) RoomExists(ctx context.Context, roomId string) (bool, error) {
	exists, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return false, err
	}

	return exists == 1, nil
}

func (r repo) UpdateRoomHost(ctx context.Context, roomId, hostId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
		"host_id": hostId,
	})
	if err := r.rc.HSet(ctx, r.getRoomKey(roomId), "host_id", hostId).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// ExpireRoom schedules every key belonging to the room for deletion. Called
// when the last member leaves so a quick re-join can still revive the room.
func (r repo) ExpireRoom(ctx context.Context, params *room.ExpireRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.EvalSha(ctx, r.expireKeysWithPrefixScript, []string{}, r.getRoomPrefix(params.RoomId), params.ExpireAt).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// PersistRoom cancels a pending ExpireRoom.
func (r repo) PersistRoom(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	if err := r.rc.EvalSha(ctx, r.persistKeysWithPrefixScript, []string{}, r.getRoomPrefix(roomId)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
