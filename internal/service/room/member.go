package room

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     *websocket.Conn
	MemberId string
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		s.logger.InfoContext(ctx, "failed to connect member", "error", err)
		return err
	}

	return nil
}

type DisconnectMemberParams struct {
	MemberId string
	RoomId   string
}

type DisconnectMemberResponse struct {
	Conns          []*websocket.Conn
	Members        []Member
	Room           RoomInfo
	SystemMessages []ChatMessage
	IsRoomEmpty    bool
}

// DisconnectMember handles both a voluntary leave and a dropped socket.
// When the host leaves, the oldest remaining member inherits the room; when
// nobody remains, the room's keys get an expiry window instead of immediate
// deletion so a reconnecting member can revive it.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.MemberId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return DisconnectMemberResponse{}, ErrMemberNotFound
		}
		return DisconnectMemberResponse{}, err
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		MemberId: params.MemberId,
		RoomId:   params.RoomId,
	}); err != nil {
		return DisconnectMemberResponse{}, err
	}

	if _, err := s.connRepo.RemoveByMemberId(params.MemberId); err != nil {
		s.logger.DebugContext(ctx, "no connection to remove", "member_id", params.MemberId)
	}

	count, err := s.roomRepo.GetMemberCount(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	if count == 0 {
		if err := s.roomRepo.ExpireRoom(ctx, &room.ExpireRoomParams{
			RoomId:   params.RoomId,
			ExpireAt: time.Now().Add(s.emptyRoomTTL).Unix(),
		}); err != nil {
			return DisconnectMemberResponse{}, err
		}

		s.logger.InfoContext(ctx, "room empty, scheduled for expiry", "room_id", params.RoomId)

		return DisconnectMemberResponse{IsRoomEmpty: true}, nil
	}

	messages := make([]ChatMessage, 0, 2)

	leftMessage, err := s.appendSystemMessage(ctx, params.RoomId, member.Username+" has left the room")
	if err != nil {
		return DisconnectMemberResponse{}, err
	}
	messages = append(messages, leftMessage)

	if member.IsHost {
		electedMessage, err := s.electNewHost(ctx, params.RoomId)
		if err != nil {
			return DisconnectMemberResponse{}, err
		}
		messages = append(messages, electedMessage)
	}

	info, err := s.getRoomInfo(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	members, err := s.getMembers(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	return DisconnectMemberResponse{
		Conns:          conns,
		Members:        members,
		Room:           info,
		SystemMessages: messages,
	}, nil
}

// electNewHost promotes the oldest remaining member (first in join order).
func (s service) electNewHost(ctx context.Context, roomId string) (ChatMessage, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return ChatMessage{}, err
	}
	if len(memberIds) == 0 {
		return ChatMessage{}, ErrMemberNotFound
	}

	newHostId := memberIds[0]
	if err := s.roomRepo.UpdateMemberIsHost(ctx, roomId, newHostId, true); err != nil {
		return ChatMessage{}, err
	}
	if err := s.roomRepo.UpdateRoomHost(ctx, roomId, newHostId); err != nil {
		return ChatMessage{}, err
	}

	newHost, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: newHostId,
		RoomId:   roomId,
	})
	if err != nil {
		return ChatMessage{}, err
	}

	s.logger.InfoContext(ctx, "host re-elected", "room_id", roomId, "host_id", newHostId)

	return s.appendSystemMessage(ctx, roomId, newHost.Username+" is now the host")
}

type UpdateProfileParams struct {
	Username *string
	SenderId string
	RoomId   string
}

type UpdateProfileResponse struct {
	UpdatedMember Member
	Members       []Member
	Conns         []*websocket.Conn
}

func (s service) UpdateProfile(ctx context.Context, params *UpdateProfileParams) (UpdateProfileResponse, error) {
	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return UpdateProfileResponse{}, ErrMemberNotFound
		}
		return UpdateProfileResponse{}, err
	}

	if params.Username != nil && member.Username != *params.Username {
		if err := s.roomRepo.UpdateMemberUsername(ctx, params.RoomId, params.SenderId, *params.Username); err != nil {
			return UpdateProfileResponse{}, err
		}
		member.Username = *params.Username
	}

	members, err := s.getMembers(ctx, params.RoomId)
	if err != nil {
		return UpdateProfileResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return UpdateProfileResponse{}, err
	}

	return UpdateProfileResponse{
		UpdatedMember: Member{
			Id:       params.SenderId,
			Username: member.Username,
			IsMuted:  member.IsMuted,
			IsHost:   member.IsHost,
			JoinedAt: member.JoinedAt,
		},
		Members: members,
		Conns:   conns,
	}, nil
}
