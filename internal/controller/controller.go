package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/service/room"
	"github.com/studyroom/server/pkg/validator"
	"github.com/studyroom/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoomSession(context.Context, *room.CreateRoomSessionParams) (string, error)
	JoinRoomSession(context.Context, *room.JoinRoomSessionParams) (string, error)
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	GetRoomState(ctx context.Context, roomId string) (room.RoomState, error)
	UpdateTechnique(context.Context, *room.UpdateTechniqueParams) (room.TechniqueResponse, error)
	AdvancePhase(context.Context, *room.AdvancePhaseParams) (room.TechniqueResponse, error)
	PublishQuiz(context.Context, *room.PublishQuizParams) (room.QuizResponse, error)
	SubmitAnswer(context.Context, *room.SubmitAnswerParams) (room.QuizResponse, error)
	ClearQuiz(context.Context, *room.ClearQuizParams) (room.QuizResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
	Typing(context.Context, *room.TypingParams) (room.TypingResponse, error)
	MuteMember(context.Context, *room.ModerateMemberParams) (room.ModerationResponse, error)
	UnmuteMember(context.Context, *room.ModerateMemberParams) (room.ModerationResponse, error)
	RemoveMember(context.Context, *room.ModerateMemberParams) (room.RemoveMemberResponse, error)
	TransferHost(context.Context, *room.ModerateMemberParams) (room.ModerationResponse, error)
	UpdateProfile(context.Context, *room.UpdateProfileParams) (room.UpdateProfileResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.initWSMux()

	return c
}
