package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
	"golang.org/x/exp/slices"
)

type PublishQuizParams struct {
	Topic        string
	Question     string
	Options      []string
	CorrectIndex int
	SenderId     string
	RoomId       string
}

type QuizResponse struct {
	Quiz        *Quiz
	Leaderboard []LeaderboardEntry
	IsCompleted bool
	Conns       []*websocket.Conn
}

// PublishQuiz stores one shared quiz for the room. The payload itself comes
// from the client, which got it from the question-generation service; the
// coordinator only owns its lifecycle.
func (s service) PublishQuiz(ctx context.Context, params *PublishQuizParams) (QuizResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	if params.CorrectIndex < 0 || params.CorrectIndex >= len(params.Options) {
		return QuizResponse{}, ErrInvalidAction
	}

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}
	if !exists {
		return QuizResponse{}, ErrRoomNotFound
	}

	options, err := json.Marshal(params.Options)
	if err != nil {
		return QuizResponse{}, fmt.Errorf("failed to marshal options: %w", err)
	}

	quizId := uuid.NewString()
	if err := s.roomRepo.SetQuiz(ctx, &room.SetQuizParams{
		QuizId:       quizId,
		Topic:        params.Topic,
		Question:     params.Question,
		Options:      string(options),
		CorrectIndex: params.CorrectIndex,
		CreatedAt:    time.Now().Unix(),
		RoomId:       params.RoomId,
	}); err != nil {
		if errors.Is(err, room.ErrQuizAlreadyExists) {
			return QuizResponse{}, ErrQuizAlreadyActive
		}
		return QuizResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}

	return QuizResponse{
		Quiz: &Quiz{
			Id:           quizId,
			Topic:        params.Topic,
			Question:     params.Question,
			Options:      params.Options,
			CorrectIndex: params.CorrectIndex,
			Answers:      []QuizAnswer{},
		},
		Conns: conns,
	}, nil
}

type SubmitAnswerParams struct {
	OptionIndex int
	SenderId    string
	RoomId      string
}

// SubmitAnswer records one answer per member. Once every current member has
// answered, the response carries the computed leaderboard so clients render
// it instead of re-deriving scores themselves.
func (s service) SubmitAnswer(ctx context.Context, params *SubmitAnswerParams) (QuizResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	if _, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	}); err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return QuizResponse{}, ErrMemberNotFound
		}
		return QuizResponse{}, err
	}

	// nothing may be recorded unless a quiz is active, otherwise a submit
	// racing a clear would leave a stale answer for the next quiz
	active, err := s.getQuiz(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}

	if params.OptionIndex < 0 || params.OptionIndex >= len(active.Options) {
		return QuizResponse{}, ErrInvalidAction
	}

	if err := s.roomRepo.AddQuizAnswer(ctx, &room.AddQuizAnswerParams{
		MemberId:    params.SenderId,
		OptionIndex: params.OptionIndex,
		RoomId:      params.RoomId,
	}); err != nil {
		if errors.Is(err, room.ErrAnswerAlreadyExists) {
			return QuizResponse{}, ErrAlreadyAnswered
		}
		return QuizResponse{}, err
	}

	quiz, err := s.getQuiz(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}

	memberCount, err := s.roomRepo.GetMemberCount(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}

	resp := QuizResponse{Quiz: quiz}

	if len(quiz.Answers) >= memberCount {
		leaderboard, err := s.computeLeaderboard(ctx, params.RoomId, quiz)
		if err != nil {
			return QuizResponse{}, err
		}
		resp.Leaderboard = leaderboard
		resp.IsCompleted = true
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}
	resp.Conns = conns

	return resp, nil
}

type ClearQuizParams struct {
	SenderId string
	RoomId   string
}

func (s service) ClearQuiz(ctx context.Context, params *ClearQuizParams) (QuizResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	if err := s.roomRepo.RemoveQuiz(ctx, params.RoomId); err != nil {
		return QuizResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return QuizResponse{}, err
	}

	return QuizResponse{Quiz: nil, Conns: conns}, nil
}

func (s service) getQuiz(ctx context.Context, roomId string) (*Quiz, error) {
	storedQuiz, err := s.roomRepo.GetQuiz(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrQuizNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	var options []string
	if err := json.Unmarshal([]byte(storedQuiz.Options), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}

	storedAnswers, err := s.roomRepo.GetQuizAnswers(ctx, roomId)
	if err != nil {
		return nil, err
	}

	answers := make([]QuizAnswer, 0, len(storedAnswers))
	for _, a := range storedAnswers {
		answers = append(answers, QuizAnswer{
			MemberId:    a.MemberId,
			OptionIndex: a.OptionIndex,
			Order:       a.Order,
		})
	}

	return &Quiz{
		Id:           storedQuiz.Id,
		Topic:        storedQuiz.Topic,
		Question:     storedQuiz.Question,
		Options:      options,
		CorrectIndex: storedQuiz.CorrectIndex,
		Answers:      answers,
	}, nil
}

// computeLeaderboard scores one point per correct answer. Answers arrive
// ordered by submission, so a stable sort by score keeps earlier submitters
// ahead on ties.
func (s service) computeLeaderboard(ctx context.Context, roomId string, quiz *Quiz) ([]LeaderboardEntry, error) {
	entries := make([]LeaderboardEntry, 0, len(quiz.Answers))
	for _, answer := range quiz.Answers {
		score := 0
		if answer.OptionIndex == quiz.CorrectIndex {
			score = 1
		}

		username := answer.MemberId
		if member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: answer.MemberId,
			RoomId:   roomId,
		}); err == nil {
			username = member.Username
		}

		entries = append(entries, LeaderboardEntry{
			MemberId: answer.MemberId,
			Username: username,
			Score:    score,
		})
	}

	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return b.Score - a.Score
	})

	return entries, nil
}
