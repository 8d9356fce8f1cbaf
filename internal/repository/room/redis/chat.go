package redis

import (
	"context"

	"github.com/studyroom/server/internal/repository/room"
)

func (r repo) getChatKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

func (r repo) AddChatMessage(ctx context.Context, params *room.AddChatMessageParams) error {
	if err := r.rc.RPush(ctx, r.getChatKey(params.RoomId), params.Message).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// GetChatMessages returns the newest messages in send order.
func (r repo) GetChatMessages(ctx context.Context, params *room.GetChatMessagesParams) ([][]byte, error) {
	raw, err := r.rc.LRange(ctx, r.getChatKey(params.RoomId), int64(-params.Limit), -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	messages := make([][]byte, 0, len(raw))
	for _, m := range raw {
		messages = append(messages, []byte(m))
	}

	return messages, nil
}
