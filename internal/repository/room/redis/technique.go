package redis

import (
	"context"

	"github.com/studyroom/server/internal/repository/room"
)

func (r repo) getTechniqueKey(roomId string) string {
	return "room:" + roomId + ":technique"
}

// SetTechniqueState writes the full state. The service owns version
// management, the repository just stores whatever it is told.
func (r repo) SetTechniqueState(ctx context.Context, params *room.SetTechniqueStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	r.hSetStruct(ctx, pipe, r.getTechniqueKey(params.RoomId), room.TechniqueState{
		Phase:        params.Phase,
		IsRunning:    params.IsRunning,
		PhaseEndsAt:  params.PhaseEndsAt,
		RemainingSec: params.RemainingSec,
		CycleCount:   params.CycleCount,
		Version:      params.Version,
	})

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetTechniqueState(ctx context.Context, roomId string) (room.TechniqueState, error) {
	key := r.getTechniqueKey(roomId)

	exists, err := r.rc.Exists(ctx, key).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.TechniqueState{}, err
	}
	if exists == 0 {
		return room.TechniqueState{}, room.ErrTechniqueNotFound
	}

	var state room.TechniqueState
	if err := r.rc.HGetAll(ctx, key).Scan(&state); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.TechniqueState{}, err
	}

	return state, nil
}
