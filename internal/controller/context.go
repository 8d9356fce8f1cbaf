package controller

import "context"

type contextKey int

const (
	roomIdCtxKey contextKey = iota
	memberIdCtxKey
)

func (c controller) getRoomIdFromCtx(ctx context.Context) string {
	roomId, _ := ctx.Value(roomIdCtxKey).(string)
	return roomId
}

func (c controller) getMemberIdFromCtx(ctx context.Context) string {
	memberId, _ := ctx.Value(memberIdCtxKey).(string)
	return memberId
}
