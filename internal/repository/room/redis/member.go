package redis

import (
	"context"

	"github.com/studyroom/server/internal/repository/room"
)

func (r repo) getMemberKey(roomId, memberId string) string {
	return "room:" + roomId + ":member:" + memberId
}

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	r.hSetStruct(ctx, pipe, r.getMemberKey(params.RoomId, params.MemberId), room.Member{
		Username: params.Username,
		IsMuted:  params.IsMuted,
		IsHost:   params.IsHost,
		JoinedAt: params.JoinedAt,
	})
	r.addWithIncrement(ctx, pipe, r.getMemberListKey(params.RoomId), params.MemberId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, params *room.GetMemberParams) (room.Member, error) {
	var member room.Member
	if err := r.rc.HGetAll(ctx, r.getMemberKey(params.RoomId, params.MemberId)).Scan(&member); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Member{}, err
	}

	if member.Username == "" {
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberIds, err := r.rc.ZRange(ctx, r.getMemberListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return memberIds, nil
}

func (r repo) GetMemberCount(ctx context.Context, roomId string) (int, error) {
	count, err := r.rc.ZCard(ctx, r.getMemberListKey(roomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return 0, err
	}

	return int(count), nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	pipe.ZRem(ctx, r.getMemberListKey(params.RoomId), params.MemberId)
	pipe.Del(ctx, r.getMemberKey(params.RoomId, params.MemberId))

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) updateMemberField(ctx context.Context, roomId, memberId, field string, value interface{}) error {
	key := r.getMemberKey(roomId, memberId)

	exists, err := r.rc.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return room.ErrMemberNotFound
	}

	return r.rc.HSet(ctx, key, field, value).Err()
}

func (r repo) UpdateMemberIsMuted(ctx context.Context, roomId, memberId string, isMuted bool) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id":   roomId,
		"member_id": memberId,
		"is_muted":  isMuted,
	})
	if err := r.updateMemberField(ctx, roomId, memberId, "is_muted", isMuted); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateMemberIsHost(ctx context.Context, roomId, memberId string, isHost bool) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id":   roomId,
		"member_id": memberId,
		"is_host":   isHost,
	})
	if err := r.updateMemberField(ctx, roomId, memberId, "is_host", isHost); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateMemberUsername(ctx context.Context, roomId, memberId, username string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id":   roomId,
		"member_id": memberId,
		"username":  username,
	})
	if err := r.updateMemberField(ctx, roomId, memberId, "username", username); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
