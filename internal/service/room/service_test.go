package room

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/studyroom/server/internal/repository/room/redis"
)

func newTestService(t *testing.T, cfg *Config) (*service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	if cfg.MembersLimit == 0 {
		cfg.MembersLimit = 9
	}
	if cfg.ChatHistoryLimit == 0 {
		cfg.ChatHistoryLimit = 50
	}
	if cfg.EmptyRoomTTL == 0 {
		cfg.EmptyRoomTTL = 30 * time.Second
	}
	if cfg.FocusDuration == 0 {
		cfg.FocusDuration = 25 * time.Minute
	}
	if cfg.ShortBreakDuration == 0 {
		cfg.ShortBreakDuration = 5 * time.Minute
	}
	if cfg.LongBreakDuration == 0 {
		cfg.LongBreakDuration = 15 * time.Minute
	}
	if cfg.CyclesBeforeLongBreak == 0 {
		cfg.CyclesBeforeLongBreak = 4
	}

	roomRepo := roomRedis.NewRepo(rc, logger)
	connRepo := inmemory.NewRepo()

	return NewService(roomRepo, connRepo, cfg, logger), mr
}

func createTestRoom(t *testing.T, svc *service, username string) CreateRoomResponse {
	t.Helper()

	ctx := context.Background()

	connectToken, err := svc.CreateRoomSession(ctx, &CreateRoomSessionParams{
		Username:  username,
		RoomName:  "algorithms drill",
		Topic:     "graphs",
		Technique: "pomodoro",
	})
	require.NoError(t, err)

	createResp, err := svc.CreateRoom(ctx, &CreateRoomParams{ConnectToken: connectToken})
	require.NoError(t, err)
	require.NotEmpty(t, createResp.RoomId)
	require.NotEmpty(t, createResp.MemberId)
	require.NotEmpty(t, createResp.AuthToken)

	err = svc.ConnectMember(ctx, &ConnectMemberParams{
		Conn:     &websocket.Conn{},
		MemberId: createResp.MemberId,
	})
	require.NoError(t, err)

	return createResp
}

func joinTestRoom(t *testing.T, svc *service, roomId, username string) JoinRoomResponse {
	t.Helper()

	ctx := context.Background()

	connectToken, err := svc.JoinRoomSession(ctx, &JoinRoomSessionParams{
		Username: username,
		RoomId:   roomId,
	})
	require.NoError(t, err)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		ConnectToken: connectToken,
		RoomId:       roomId,
	})
	require.NoError(t, err)

	err = svc.ConnectMember(ctx, &ConnectMemberParams{
		Conn:     &websocket.Conn{},
		MemberId: joinResp.JoinedMember.Id,
	})
	require.NoError(t, err)

	return joinResp
}

func TestCreateRoom(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)

	assert.Equal(t, "algorithms drill", state.Room.Name)
	assert.Equal(t, "graphs", state.Room.Topic)
	assert.Equal(t, "pomodoro", state.Room.Technique)
	assert.Equal(t, createResp.MemberId, state.Room.HostId)

	require.Len(t, state.Members, 1)
	assert.True(t, state.Members[0].IsHost, "creator must be the host")
	assert.Equal(t, "host", state.Members[0].Username)

	assert.Equal(t, PhaseFocus, state.TechniqueState.Phase)
	assert.False(t, state.TechniqueState.IsRunning)
	assert.Equal(t, 25*60, state.TechniqueState.RemainingSec)
	assert.Equal(t, 0, state.TechniqueState.Version)
	assert.Nil(t, state.Quiz)
}

func TestJoinRoom(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	joinResp := joinTestRoom(t, svc, createResp.RoomId, "student")

	assert.NotEmpty(t, joinResp.JoinedMember.Id)
	assert.Equal(t, "student", joinResp.JoinedMember.Username)
	assert.False(t, joinResp.JoinedMember.IsHost)
	assert.False(t, joinResp.JoinedMember.IsMuted)
	assert.Len(t, joinResp.Members, 2, "member list must contain 2 members")
	assert.Contains(t, joinResp.SystemMessage.Text, "student has joined")
	assert.Equal(t, SystemSenderId, joinResp.SystemMessage.SenderId)

	// join order is creation order
	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.Equal(t, createResp.MemberId, state.Members[0].Id)
	assert.Equal(t, joinResp.JoinedMember.Id, state.Members[1].Id)
}

func TestJoinRoomFull(t *testing.T) {
	svc, _ := newTestService(t, &Config{MembersLimit: 2})
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	joinTestRoom(t, svc, createResp.RoomId, "second")

	connectToken, err := svc.JoinRoomSession(ctx, &JoinRoomSessionParams{
		Username: "third",
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)

	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		ConnectToken: connectToken,
		RoomId:       createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRejoinWithAuthToken(t *testing.T) {
	svc, _ := newTestService(t, &Config{MembersLimit: 2})
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	joinResp := joinTestRoom(t, svc, createResp.RoomId, "student")

	// a reconnect with a valid auth token reuses the member identity and
	// bypasses the capacity check
	connectToken, err := svc.JoinRoomSession(ctx, &JoinRoomSessionParams{
		Username: "student",
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)

	rejoinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		ConnectToken: connectToken,
		AuthToken:    joinResp.AuthToken,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, joinResp.JoinedMember.Id, rejoinResp.JoinedMember.Id)
	assert.Len(t, rejoinResp.Members, 2)
}

func TestUpdateTechnique(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	startResp, err := svc.UpdateTechnique(ctx, &UpdateTechniqueParams{
		Action:          ActionStart,
		ExpectedVersion: 0,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	require.NoError(t, err)
	assert.True(t, startResp.State.IsRunning)
	assert.Equal(t, 1, startResp.State.Version)
	assert.Greater(t, startResp.State.PhaseEndsAt, time.Now().Unix())
	assert.Equal(t, "pomodoro", startResp.Technique)

	// starting an already running timer is rejected
	_, err = svc.UpdateTechnique(ctx, &UpdateTechniqueParams{
		Action:          ActionStart,
		ExpectedVersion: 1,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrInvalidAction)

	// stale version is rejected without mutating anything
	_, err = svc.UpdateTechnique(ctx, &UpdateTechniqueParams{
		Action:          ActionPause,
		ExpectedVersion: 0,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrVersionConflict)

	pauseResp, err := svc.UpdateTechnique(ctx, &UpdateTechniqueParams{
		Action:          ActionPause,
		ExpectedVersion: 1,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, pauseResp.State.IsRunning)
	assert.Equal(t, 2, pauseResp.State.Version)
	assert.LessOrEqual(t, pauseResp.State.RemainingSec, 25*60)

	resetResp, err := svc.UpdateTechnique(ctx, &UpdateTechniqueParams{
		Action:          ActionReset,
		ExpectedVersion: 2,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseFocus, resetResp.State.Phase)
	assert.False(t, resetResp.State.IsRunning)
	assert.Equal(t, 25*60, resetResp.State.RemainingSec)
	assert.Equal(t, 3, resetResp.State.Version, "reset still bumps the version")
}

func TestAdvancePhaseAppliedOnce(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	advResp, err := svc.AdvancePhase(ctx, &AdvancePhaseParams{
		ExpectedVersion: 0,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, PhaseShortBreak, advResp.State.Phase)
	assert.True(t, advResp.State.IsRunning)
	assert.Equal(t, 1, advResp.State.Version)

	// every member's client suggests the advance at roughly the same
	// moment; only the first one lands
	_, err = svc.AdvancePhase(ctx, &AdvancePhaseParams{
		ExpectedVersion: 0,
		SenderId:        createResp.MemberId,
		RoomId:          createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestAdvancePhaseCycle(t *testing.T) {
	svc, _ := newTestService(t, &Config{CyclesBeforeLongBreak: 2})
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	phases := []string{}
	for version := 0; version < 4; version++ {
		advResp, err := svc.AdvancePhase(ctx, &AdvancePhaseParams{
			ExpectedVersion: version,
			SenderId:        createResp.MemberId,
			RoomId:          createResp.RoomId,
		})
		require.NoError(t, err)
		phases = append(phases, advResp.State.Phase)
	}

	assert.Equal(t, []string{PhaseShortBreak, PhaseFocus, PhaseLongBreak, PhaseFocus}, phases)

	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.Equal(t, 2, state.TechniqueState.CycleCount)
}

func TestQuizLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	join1 := joinTestRoom(t, svc, createResp.RoomId, "alice")
	join2 := joinTestRoom(t, svc, createResp.RoomId, "bob")

	publishResp, err := svc.PublishQuiz(ctx, &PublishQuizParams{
		Topic:        "graphs",
		Question:     "Which traversal uses a queue?",
		Options:      []string{"DFS", "Dijkstra", "BFS"},
		CorrectIndex: 2,
		SenderId:     createResp.MemberId,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)
	require.NotNil(t, publishResp.Quiz)
	assert.NotEmpty(t, publishResp.Quiz.Id)
	assert.False(t, publishResp.IsCompleted)

	// only one quiz at a time
	_, err = svc.PublishQuiz(ctx, &PublishQuizParams{
		Question:     "another?",
		Options:      []string{"a", "b"},
		CorrectIndex: 0,
		SenderId:     createResp.MemberId,
		RoomId:       createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrQuizAlreadyActive)

	submit1, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{
		OptionIndex: 2,
		SenderId:    createResp.MemberId,
		RoomId:      createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, submit1.IsCompleted)
	assert.Len(t, submit1.Quiz.Answers, 1)

	_, err = svc.SubmitAnswer(ctx, &SubmitAnswerParams{
		OptionIndex: 0,
		SenderId:    createResp.MemberId,
		RoomId:      createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	_, err = svc.SubmitAnswer(ctx, &SubmitAnswerParams{
		OptionIndex: 1,
		SenderId:    join1.JoinedMember.Id,
		RoomId:      createResp.RoomId,
	})
	require.NoError(t, err)

	final, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{
		OptionIndex: 2,
		SenderId:    join2.JoinedMember.Id,
		RoomId:      createResp.RoomId,
	})
	require.NoError(t, err)
	assert.True(t, final.IsCompleted, "quiz completes when every member answered")

	require.Len(t, final.Leaderboard, 3)
	// ties keep submission order, so the host's correct answer outranks bob's
	assert.Equal(t, createResp.MemberId, final.Leaderboard[0].MemberId)
	assert.Equal(t, 1, final.Leaderboard[0].Score)
	assert.Equal(t, join2.JoinedMember.Id, final.Leaderboard[1].MemberId)
	assert.Equal(t, 1, final.Leaderboard[1].Score)
	assert.Equal(t, join1.JoinedMember.Id, final.Leaderboard[2].MemberId)
	assert.Equal(t, 0, final.Leaderboard[2].Score)

	clearResp, err := svc.ClearQuiz(ctx, &ClearQuizParams{
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Nil(t, clearResp.Quiz)

	// a new round can start after clearing
	_, err = svc.PublishQuiz(ctx, &PublishQuizParams{
		Question:     "Which structure backs DFS?",
		Options:      []string{"stack", "queue"},
		CorrectIndex: 0,
		SenderId:     createResp.MemberId,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)
}

func TestSubmitAnswerWithoutActiveQuiz(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	// a submit racing a clear (or arriving before any publish) must not
	// leave anything behind
	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{
		OptionIndex: 1,
		SenderId:    createResp.MemberId,
		RoomId:      createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrQuizNotFound)

	_, err = svc.PublishQuiz(ctx, &PublishQuizParams{
		Question:     "fresh round?",
		Options:      []string{"yes", "no"},
		CorrectIndex: 0,
		SenderId:     createResp.MemberId,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)

	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	require.NotNil(t, state.Quiz)
	assert.Empty(t, state.Quiz.Answers, "fresh quiz must have no answers")

	// the member who lost the race can still answer the new quiz
	submitResp, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{
		OptionIndex: 0,
		SenderId:    createResp.MemberId,
		RoomId:      createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Len(t, submitResp.Quiz.Answers, 1)
}

func TestSubmitAnswerOutOfRange(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	_, err := svc.PublishQuiz(ctx, &PublishQuizParams{
		Question:     "two options only",
		Options:      []string{"a", "b"},
		CorrectIndex: 0,
		SenderId:     createResp.MemberId,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)

	for _, optionIndex := range []int{-1, 2, 100} {
		_, err := svc.SubmitAnswer(ctx, &SubmitAnswerParams{
			OptionIndex: optionIndex,
			SenderId:    createResp.MemberId,
			RoomId:      createResp.RoomId,
		})
		assert.ErrorIs(t, err, ErrInvalidAction)
	}

	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.Empty(t, state.Quiz.Answers, "rejected submissions must not be recorded")
}

func TestJoinRoomTokenBoundToRoom(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	roomA := createTestRoom(t, svc, "host-a")
	roomB := createTestRoom(t, svc, "host-b")

	connectToken, err := svc.JoinRoomSession(ctx, &JoinRoomSessionParams{
		Username: "wanderer",
		RoomId:   roomA.RoomId,
	})
	require.NoError(t, err)

	// redeeming room A's token at room B's endpoint must not touch either room
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{
		ConnectToken: connectToken,
		RoomId:       roomB.RoomId,
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	stateB, err := svc.GetRoomState(ctx, roomB.RoomId)
	require.NoError(t, err)
	assert.Len(t, stateB.Members, 1)

	joinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		ConnectToken: connectToken,
		RoomId:       roomA.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, "wanderer", joinResp.JoinedMember.Username)
}

func TestChatAndMute(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	joinResp := joinTestRoom(t, svc, createResp.RoomId, "chatty")

	sendResp, err := svc.SendMessage(ctx, &SendMessageParams{
		Text:     "hello",
		SenderId: joinResp.JoinedMember.Id,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", sendResp.Message.Text)
	assert.Equal(t, "chatty", sendResp.Message.Username)
	assert.NotEmpty(t, sendResp.Message.Id)

	// only the host can mute
	_, err = svc.MuteMember(ctx, &ModerateMemberParams{
		TargetId: createResp.MemberId,
		SenderId: joinResp.JoinedMember.Id,
		RoomId:   createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	muteResp, err := svc.MuteMember(ctx, &ModerateMemberParams{
		TargetId: joinResp.JoinedMember.Id,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.True(t, muteResp.TargetMember.IsMuted)
	assert.Contains(t, muteResp.SystemMessage.Text, "muted by the host")

	_, err = svc.SendMessage(ctx, &SendMessageParams{
		Text:     "still here?",
		SenderId: joinResp.JoinedMember.Id,
		RoomId:   createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrSenderMuted)

	unmuteResp, err := svc.UnmuteMember(ctx, &ModerateMemberParams{
		TargetId: joinResp.JoinedMember.Id,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, unmuteResp.TargetMember.IsMuted)

	_, err = svc.SendMessage(ctx, &SendMessageParams{
		Text:     "back",
		SenderId: joinResp.JoinedMember.Id,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)

	// history preserves order, system notices included
	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	texts := make([]string, 0, len(state.ChatHistory))
	for _, message := range state.ChatHistory {
		texts = append(texts, message.Text)
	}
	assert.Equal(t, []string{
		"chatty has joined the room",
		"hello",
		"chatty has been muted by the host",
		"chatty has been unmuted by the host",
		"back",
	}, texts)
}

func TestRemoveMember(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	joinResp := joinTestRoom(t, svc, createResp.RoomId, "troublemaker")

	// the host cannot remove themselves
	_, err := svc.RemoveMember(ctx, &ModerateMemberParams{
		TargetId: createResp.MemberId,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrCannotRemoveHost)

	_, err = svc.RemoveMember(ctx, &ModerateMemberParams{
		TargetId: "nonexistent",
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrTargetNotMember)

	removeResp, err := svc.RemoveMember(ctx, &ModerateMemberParams{
		TargetId: joinResp.JoinedMember.Id,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Len(t, removeResp.Members, 1)
	assert.NotNil(t, removeResp.RemovedConn)
	assert.Contains(t, removeResp.SystemMessage.Text, "removed from the room")

	state, err := svc.GetRoomState(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.Len(t, state.Members, 1)
}

func TestTransferHost(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	joinResp := joinTestRoom(t, svc, createResp.RoomId, "successor")

	transferResp, err := svc.TransferHost(ctx, &ModerateMemberParams{
		TargetId: joinResp.JoinedMember.Id,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, joinResp.JoinedMember.Id, transferResp.Room.HostId)
	assert.Contains(t, transferResp.SystemMessage.Text, "is now the host")

	for _, member := range transferResp.Members {
		if member.Id == joinResp.JoinedMember.Id {
			assert.True(t, member.IsHost)
		} else {
			assert.False(t, member.IsHost)
		}
	}

	// moderation now belongs to the new host
	_, err = svc.MuteMember(ctx, &ModerateMemberParams{
		TargetId: joinResp.JoinedMember.Id,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestHostReElectionOnDisconnect(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")
	join1 := joinTestRoom(t, svc, createResp.RoomId, "oldest")
	joinTestRoom(t, svc, createResp.RoomId, "newest")

	disconnectResp, err := svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.False(t, disconnectResp.IsRoomEmpty)
	assert.Len(t, disconnectResp.Members, 2)
	assert.Equal(t, join1.JoinedMember.Id, disconnectResp.Room.HostId, "oldest remaining member inherits the room")

	require.Len(t, disconnectResp.SystemMessages, 2)
	assert.Contains(t, disconnectResp.SystemMessages[0].Text, "has left the room")
	assert.Contains(t, disconnectResp.SystemMessages[1].Text, "oldest is now the host")
}

func TestEmptyRoomExpiry(t *testing.T) {
	svc, mr := newTestService(t, &Config{EmptyRoomTTL: 30 * time.Second})
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "host")

	disconnectResp, err := svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.True(t, disconnectResp.IsRoomEmpty)

	// the room still exists during the grace window
	exists, err := svc.roomRepo.RoomExists(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.True(t, exists)

	// a rejoin within the window revives the room
	connectToken, err := svc.JoinRoomSession(ctx, &JoinRoomSessionParams{
		Username: "host",
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	rejoinResp, err := svc.JoinRoom(ctx, &JoinRoomParams{
		ConnectToken: connectToken,
		AuthToken:    createResp.AuthToken,
		RoomId:       createResp.RoomId,
	})
	require.NoError(t, err)
	assert.NotEqual(t, createResp.MemberId, rejoinResp.JoinedMember.Id, "removed member records are not resurrected")

	mr.FastForward(time.Minute)
	exists, err = svc.roomRepo.RoomExists(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.True(t, exists, "revived room must not expire")

	// emptying it again lets the window lapse
	_, err = svc.DisconnectMember(ctx, &DisconnectMemberParams{
		MemberId: rejoinResp.JoinedMember.Id,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)

	mr.FastForward(time.Minute)
	exists, err = svc.roomRepo.RoomExists(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.False(t, exists, "empty room must be gone after the grace window")
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	createResp := createTestRoom(t, svc, "hos")

	username := "host"
	updateResp, err := svc.UpdateProfile(ctx, &UpdateProfileParams{
		Username: &username,
		SenderId: createResp.MemberId,
		RoomId:   createResp.RoomId,
	})
	require.NoError(t, err)
	assert.Equal(t, "host", updateResp.UpdatedMember.Username)
	require.Len(t, updateResp.Members, 1)
	assert.Equal(t, "host", updateResp.Members[0].Username)
}
