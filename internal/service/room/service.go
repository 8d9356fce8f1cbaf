package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
	"github.com/studyroom/server/pkg/keylock"
	"github.com/studyroom/server/pkg/randstr"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrMemberNotFound    = errors.New("member not found")
	ErrVersionConflict   = errors.New("version conflict")
	ErrInvalidAction     = errors.New("invalid action")
	ErrQuizAlreadyActive = errors.New("quiz already active")
	ErrQuizNotFound      = errors.New("no active quiz")
	ErrAlreadyAnswered   = errors.New("already answered")
	ErrSenderMuted       = errors.New("sender is muted")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrCannotRemoveHost  = errors.New("cannot remove host")
	ErrTargetNotMember   = errors.New("target is not a member")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	RoomExists(ctx context.Context, roomId string) (bool, error)
	UpdateRoomHost(ctx context.Context, roomId, hostId string) error
	ExpireRoom(context.Context, *room.ExpireRoomParams) error
	PersistRoom(ctx context.Context, roomId string) error
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMember(context.Context, *room.GetMemberParams) (room.Member, error)
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	GetMemberCount(ctx context.Context, roomId string) (int, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	UpdateMemberIsMuted(ctx context.Context, roomId, memberId string, isMuted bool) error
	UpdateMemberIsHost(ctx context.Context, roomId, memberId string, isHost bool) error
	UpdateMemberUsername(ctx context.Context, roomId, memberId, username string) error
	// technique
	SetTechniqueState(context.Context, *room.SetTechniqueStateParams) error
	GetTechniqueState(ctx context.Context, roomId string) (room.TechniqueState, error)
	// quiz
	SetQuiz(context.Context, *room.SetQuizParams) error
	GetQuiz(ctx context.Context, roomId string) (room.Quiz, error)
	RemoveQuiz(ctx context.Context, roomId string) error
	AddQuizAnswer(context.Context, *room.AddQuizAnswerParams) error
	GetQuizAnswers(ctx context.Context, roomId string) ([]room.QuizAnswer, error)
	// chat
	AddChatMessage(context.Context, *room.AddChatMessageParams) error
	GetChatMessages(context.Context, *room.GetChatMessagesParams) ([][]byte, error)
	// connect sessions
	SetCreateRoomSession(context.Context, *room.SetCreateRoomSessionParams) error
	GetCreateRoomSession(ctx context.Context, connectToken string) (room.CreateRoomSession, error)
	SetJoinRoomSession(context.Context, *room.SetJoinRoomSessionParams) error
	GetJoinRoomSession(ctx context.Context, connectToken string) (room.JoinRoomSession, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, memberId string) error
	RemoveByMemberId(memberId string) (*websocket.Conn, error)
	GetConn(memberId string) (*websocket.Conn, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret                string
	MembersLimit          int
	ChatHistoryLimit      int
	EmptyRoomTTL          time.Duration
	FocusDuration         time.Duration
	ShortBreakDuration    time.Duration
	LongBreakDuration     time.Duration
	CyclesBeforeLongBreak int
}

type service struct {
	roomRepo  iRoomRepo
	connRepo  iConnRepo
	generator iGenerator
	// locks serializes every state-mutating operation per room id so
	// concurrent commands from different members cannot interleave.
	locks  *keylock.KeyLock
	logger *slog.Logger

	secret                string
	membersLimit          int
	chatHistoryLimit      int
	emptyRoomTTL          time.Duration
	focusDuration         time.Duration
	shortBreakDuration    time.Duration
	longBreakDuration     time.Duration
	cyclesBeforeLongBreak int
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:              roomRepo,
		connRepo:              connRepo,
		locks:                 keylock.New(),
		logger:                logger,
		secret:                cfg.Secret,
		membersLimit:          cfg.MembersLimit,
		chatHistoryLimit:      cfg.ChatHistoryLimit,
		emptyRoomTTL:          cfg.EmptyRoomTTL,
		focusDuration:         cfg.FocusDuration,
		shortBreakDuration:    cfg.ShortBreakDuration,
		longBreakDuration:     cfg.LongBreakDuration,
		cyclesBeforeLongBreak: cfg.CyclesBeforeLongBreak,
	}

	letterBytes := []byte("abcdefghjkmnpqrstuvwxyz23456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
