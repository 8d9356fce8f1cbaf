package room

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
)

const roomIdLength = 8

type CreateRoomSessionParams struct {
	Username  string
	RoomName  string
	Topic     string
	Technique string
}

// CreateRoomSession stores the validated profile under a one-shot connect
// token. The websocket upgrade redeems the token, so the ws endpoint never
// parses request bodies.
func (s service) CreateRoomSession(ctx context.Context, params *CreateRoomSessionParams) (string, error) {
	connectToken := uuid.NewString()
	if err := s.roomRepo.SetCreateRoomSession(ctx, &room.SetCreateRoomSessionParams{
		ConnectToken: connectToken,
		Username:     params.Username,
		RoomName:     params.RoomName,
		Topic:        params.Topic,
		Technique:    params.Technique,
	}); err != nil {
		return "", err
	}

	return connectToken, nil
}

type JoinRoomSessionParams struct {
	Username string
	RoomId   string
}

func (s service) JoinRoomSession(ctx context.Context, params *JoinRoomSessionParams) (string, error) {
	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrRoomNotFound
	}

	connectToken := uuid.NewString()
	if err := s.roomRepo.SetJoinRoomSession(ctx, &room.SetJoinRoomSessionParams{
		ConnectToken: connectToken,
		Username:     params.Username,
		RoomId:       params.RoomId,
	}); err != nil {
		return "", err
	}

	return connectToken, nil
}

type CreateRoomParams struct {
	ConnectToken string
}

type CreateRoomResponse struct {
	RoomId    string
	MemberId  string
	AuthToken string
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	session, err := s.roomRepo.GetCreateRoomSession(ctx, params.ConnectToken)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	roomId := s.generator.GenerateRandomString(roomIdLength)
	memberId := uuid.NewString()
	now := time.Now()

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:       roomId,
		Name:         session.RoomName,
		Topic:        session.Topic,
		Technique:    session.Technique,
		MembersLimit: s.membersLimit,
		HostId:       memberId,
		CreatedAt:    now.Unix(),
	}); err != nil {
		return CreateRoomResponse{}, err
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: memberId,
		Username: session.Username,
		IsMuted:  false,
		IsHost:   true,
		JoinedAt: now.Unix(),
		RoomId:   roomId,
	}); err != nil {
		return CreateRoomResponse{}, err
	}

	initial := s.initialTechniqueState()
	if err := s.roomRepo.SetTechniqueState(ctx, &room.SetTechniqueStateParams{
		Phase:        initial.Phase,
		IsRunning:    initial.IsRunning,
		PhaseEndsAt:  initial.PhaseEndsAt,
		RemainingSec: initial.RemainingSec,
		CycleCount:   initial.CycleCount,
		Version:      initial.Version,
		RoomId:       roomId,
	}); err != nil {
		return CreateRoomResponse{}, err
	}

	authToken, err := s.generateAuthToken(memberId, roomId)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "host_id", memberId)

	return CreateRoomResponse{
		RoomId:    roomId,
		MemberId:  memberId,
		AuthToken: authToken,
	}, nil
}

type JoinRoomParams struct {
	ConnectToken string
	AuthToken    string
	RoomId       string
}

type JoinRoomResponse struct {
	JoinedMember  Member
	Members       []Member
	SystemMessage ChatMessage
	AuthToken     string
	Conns         []*websocket.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	session, err := s.roomRepo.GetJoinRoomSession(ctx, params.ConnectToken)
	if err != nil {
		return JoinRoomResponse{}, err
	}
	roomId := session.RoomId

	// a connect token is bound to the room it was minted for
	if params.RoomId != roomId {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	s.locks.Lock(roomId)
	defer s.locks.Unlock(roomId)

	exists, err := s.roomRepo.RoomExists(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}
	if !exists {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	// the room may be in its empty-room grace window
	if err := s.roomRepo.PersistRoom(ctx, roomId); err != nil {
		return JoinRoomResponse{}, err
	}

	countBefore, err := s.roomRepo.GetMemberCount(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	memberId, joined, err := s.resolveJoiningMember(ctx, roomId, params.AuthToken, session.Username)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	// whoever revives an empty room inherits it, the previous host's
	// record is long gone
	if countBefore == 0 && !joined.IsHost {
		if err := s.roomRepo.UpdateMemberIsHost(ctx, roomId, memberId, true); err != nil {
			return JoinRoomResponse{}, err
		}
		if err := s.roomRepo.UpdateRoomHost(ctx, roomId, memberId); err != nil {
			return JoinRoomResponse{}, err
		}
		joined.IsHost = true
	}

	// conns are captured before the joiner's socket exists, so this list
	// is exactly the members that need the member-joined broadcast
	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	systemMessage, err := s.appendSystemMessage(ctx, roomId, joined.Username+" has joined the room")
	if err != nil {
		return JoinRoomResponse{}, err
	}

	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	authToken, err := s.generateAuthToken(memberId, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		JoinedMember:  joined,
		Members:       members,
		SystemMessage: systemMessage,
		AuthToken:     authToken,
		Conns:         conns,
	}, nil
}

// resolveJoiningMember reuses the identity from a valid auth token when the
// member record still exists (reconnect), otherwise registers a new member
// subject to the capacity check.
func (s service) resolveJoiningMember(ctx context.Context, roomId, authToken, username string) (string, Member, error) {
	if authToken != "" {
		if c, err := s.parseAuthToken(authToken); err == nil && c.RoomId == roomId {
			if existing, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
				MemberId: c.MemberId,
				RoomId:   roomId,
			}); err == nil {
				return c.MemberId, Member{
					Id:       c.MemberId,
					Username: existing.Username,
					IsMuted:  existing.IsMuted,
					IsHost:   existing.IsHost,
					JoinedAt: existing.JoinedAt,
				}, nil
			}
		}
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return "", Member{}, ErrRoomNotFound
		}
		return "", Member{}, err
	}

	count, err := s.roomRepo.GetMemberCount(ctx, roomId)
	if err != nil {
		return "", Member{}, err
	}
	if count >= rm.MembersLimit {
		return "", Member{}, ErrRoomFull
	}

	memberId := uuid.NewString()
	joinedAt := time.Now().Unix()
	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: memberId,
		Username: username,
		IsMuted:  false,
		IsHost:   false,
		JoinedAt: joinedAt,
		RoomId:   roomId,
	}); err != nil {
		return "", Member{}, err
	}

	return memberId, Member{
		Id:       memberId,
		Username: username,
		IsMuted:  false,
		IsHost:   false,
		JoinedAt: joinedAt,
	}, nil
}

func (s service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	info, err := s.getRoomInfo(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	state, err := s.roomRepo.GetTechniqueState(ctx, roomId)
	if err != nil {
		if !errors.Is(err, room.ErrTechniqueNotFound) {
			return RoomState{}, err
		}
		state = s.initialTechniqueState()
	}

	quiz, err := s.getQuiz(ctx, roomId)
	if err != nil && !errors.Is(err, ErrQuizNotFound) {
		return RoomState{}, err
	}

	history, err := s.getChatHistory(ctx, roomId)
	if err != nil {
		return RoomState{}, err
	}

	return RoomState{
		Room:           info,
		Members:        members,
		TechniqueState: s.toTechniqueState(state),
		Quiz:           quiz,
		ChatHistory:    history,
	}, nil
}
