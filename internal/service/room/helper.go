package room

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
)

func (s service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			// member joined but the socket is gone, skip it
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s service) getMembers(ctx context.Context, roomId string) ([]Member, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return []Member{}, err
	}

	members := make([]Member, 0, len(memberIds))
	for _, memberId := range memberIds {
		member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: memberId,
			RoomId:   roomId,
		})
		if err != nil {
			return []Member{}, err
		}

		members = append(members, Member{
			Id:       memberId,
			Username: member.Username,
			IsMuted:  member.IsMuted,
			IsHost:   member.IsHost,
			JoinedAt: member.JoinedAt,
		})
	}

	return members, nil
}

func (s service) getRoomInfo(ctx context.Context, roomId string) (RoomInfo, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return RoomInfo{}, ErrRoomNotFound
		}
		return RoomInfo{}, err
	}

	return RoomInfo{
		Id:           roomId,
		Name:         rm.Name,
		Topic:        rm.Topic,
		Technique:    rm.Technique,
		MembersLimit: rm.MembersLimit,
		HostId:       rm.HostId,
	}, nil
}

func (s service) checkIfMemberHost(ctx context.Context, roomId, memberId string) error {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	if rm.HostId != memberId {
		return ErrNotAuthorized
	}

	return nil
}
