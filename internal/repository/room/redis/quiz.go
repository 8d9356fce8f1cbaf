package redis

import (
	"context"
	"strconv"

	"github.com/studyroom/server/internal/repository/room"
)

func (r repo) getQuizKey(roomId string) string {
	return "room:" + roomId + ":quiz"
}

func (r repo) getQuizAnswersKey(roomId string) string {
	return "room:" + roomId + ":quiz:answers"
}

func (r repo) getQuizAnswerListKey(roomId string) string {
	return "room:" + roomId + ":quiz:answerlist"
}

func (r repo) SetQuiz(ctx context.Context, params *room.SetQuizParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	exists, err := r.rc.Exists(ctx, r.getQuizKey(params.RoomId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if exists == 1 {
		return room.ErrQuizAlreadyExists
	}

	pipe := r.rc.TxPipeline()

	// a fresh quiz must never inherit answers
	pipe.Del(ctx, r.getQuizAnswersKey(params.RoomId))
	pipe.Del(ctx, r.getQuizAnswerListKey(params.RoomId))

	r.hSetStruct(ctx, pipe, r.getQuizKey(params.RoomId), room.Quiz{
		Id:           params.QuizId,
		Topic:        params.Topic,
		Question:     params.Question,
		Options:      params.Options,
		CorrectIndex: params.CorrectIndex,
		CreatedAt:    params.CreatedAt,
	})

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetQuiz(ctx context.Context, roomId string) (room.Quiz, error) {
	var quiz room.Quiz
	if err := r.rc.HGetAll(ctx, r.getQuizKey(roomId)).Scan(&quiz); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Quiz{}, err
	}

	if quiz.Id == "" {
		return room.Quiz{}, room.ErrQuizNotFound
	}

	return quiz, nil
}

func (r repo) RemoveQuiz(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	pipe := r.rc.TxPipeline()

	pipe.Del(ctx, r.getQuizKey(roomId))
	pipe.Del(ctx, r.getQuizAnswersKey(roomId))
	pipe.Del(ctx, r.getQuizAnswerListKey(roomId))

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// AddQuizAnswer records one answer per member. The answer list keeps
// submission order, which the leaderboard uses to break ties.
func (r repo) AddQuizAnswer(ctx context.Context, params *room.AddQuizAnswerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)

	set, err := r.rc.HSetNX(ctx, r.getQuizAnswersKey(params.RoomId), params.MemberId, params.OptionIndex).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if !set {
		return room.ErrAnswerAlreadyExists
	}

	r.addWithIncrement(ctx, r.rc, r.getQuizAnswerListKey(params.RoomId), params.MemberId)

	return nil
}

func (r repo) GetQuizAnswers(ctx context.Context, roomId string) ([]room.QuizAnswer, error) {
	memberIds, err := r.rc.ZRange(ctx, r.getQuizAnswerListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	if len(memberIds) == 0 {
		return []room.QuizAnswer{}, nil
	}

	options, err := r.rc.HMGet(ctx, r.getQuizAnswersKey(roomId), memberIds...).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	answers := make([]room.QuizAnswer, 0, len(memberIds))
	for i, memberId := range memberIds {
		optionIndex := 0
		if s, ok := options[i].(string); ok {
			optionIndex, _ = strconv.Atoi(s)
		}

		answers = append(answers, room.QuizAnswer{
			MemberId:    memberId,
			OptionIndex: optionIndex,
			Order:       i + 1,
		})
	}

	return answers, nil
}
