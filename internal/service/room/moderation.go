package room

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
)

type ModerateMemberParams struct {
	TargetId string
	SenderId string
	RoomId   string
}

type ModerationResponse struct {
	TargetMember  Member
	Members       []Member
	Room          RoomInfo
	SystemMessage ChatMessage
	Conns         []*websocket.Conn
}

func (s service) MuteMember(ctx context.Context, params *ModerateMemberParams) (ModerationResponse, error) {
	return s.setMemberMuted(ctx, params, true)
}

func (s service) UnmuteMember(ctx context.Context, params *ModerateMemberParams) (ModerationResponse, error) {
	return s.setMemberMuted(ctx, params, false)
}

func (s service) setMemberMuted(ctx context.Context, params *ModerateMemberParams, muted bool) (ModerationResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	if err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return ModerationResponse{}, err
	}

	target, err := s.getTargetMember(ctx, params.RoomId, params.TargetId)
	if err != nil {
		return ModerationResponse{}, err
	}

	if err := s.roomRepo.UpdateMemberIsMuted(ctx, params.RoomId, params.TargetId, muted); err != nil {
		return ModerationResponse{}, err
	}
	target.IsMuted = muted

	text := target.Username + " has been muted by the host"
	if !muted {
		text = target.Username + " has been unmuted by the host"
	}

	return s.moderationResponse(ctx, params.RoomId, target, text)
}

type RemoveMemberResponse struct {
	ModerationResponse
	RemovedConn *websocket.Conn
}

func (s service) RemoveMember(ctx context.Context, params *ModerateMemberParams) (RemoveMemberResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	if err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return RemoveMemberResponse{}, err
	}

	if params.TargetId == params.SenderId {
		return RemoveMemberResponse{}, ErrCannotRemoveHost
	}

	target, err := s.getTargetMember(ctx, params.RoomId, params.TargetId)
	if err != nil {
		return RemoveMemberResponse{}, err
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		MemberId: params.TargetId,
		RoomId:   params.RoomId,
	}); err != nil {
		return RemoveMemberResponse{}, err
	}

	removedConn, err := s.connRepo.RemoveByMemberId(params.TargetId)
	if err != nil {
		s.logger.DebugContext(ctx, "removed member had no connection", "member_id", params.TargetId)
	}

	resp, err := s.moderationResponse(ctx, params.RoomId, target, target.Username+" has been removed from the room")
	if err != nil {
		return RemoveMemberResponse{}, err
	}

	return RemoveMemberResponse{
		ModerationResponse: resp,
		RemovedConn:        removedConn,
	}, nil
}

// TransferHost reassigns host authority in one serialized mutation so two
// concurrent transfers cannot leave clients disagreeing about the host.
func (s service) TransferHost(ctx context.Context, params *ModerateMemberParams) (ModerationResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	if err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return ModerationResponse{}, err
	}

	target, err := s.getTargetMember(ctx, params.RoomId, params.TargetId)
	if err != nil {
		return ModerationResponse{}, err
	}

	if err := s.roomRepo.UpdateMemberIsHost(ctx, params.RoomId, params.SenderId, false); err != nil {
		return ModerationResponse{}, err
	}
	if err := s.roomRepo.UpdateMemberIsHost(ctx, params.RoomId, params.TargetId, true); err != nil {
		return ModerationResponse{}, err
	}
	if err := s.roomRepo.UpdateRoomHost(ctx, params.RoomId, params.TargetId); err != nil {
		return ModerationResponse{}, err
	}
	target.IsHost = true

	return s.moderationResponse(ctx, params.RoomId, target, target.Username+" is now the host")
}

func (s service) getTargetMember(ctx context.Context, roomId, targetId string) (Member, error) {
	target, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: targetId,
		RoomId:   roomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return Member{}, ErrTargetNotMember
		}
		return Member{}, err
	}

	return Member{
		Id:       targetId,
		Username: target.Username,
		IsMuted:  target.IsMuted,
		IsHost:   target.IsHost,
		JoinedAt: target.JoinedAt,
	}, nil
}

func (s service) moderationResponse(ctx context.Context, roomId string, target Member, auditText string) (ModerationResponse, error) {
	systemMessage, err := s.appendSystemMessage(ctx, roomId, auditText)
	if err != nil {
		return ModerationResponse{}, err
	}

	info, err := s.getRoomInfo(ctx, roomId)
	if err != nil {
		return ModerationResponse{}, err
	}

	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return ModerationResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return ModerationResponse{}, err
	}

	return ModerationResponse{
		TargetMember:  target,
		Members:       members,
		Room:          info,
		SystemMessage: systemMessage,
		Conns:         conns,
	}, nil
}
