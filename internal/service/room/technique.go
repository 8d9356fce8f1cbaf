package room

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studyroom/server/internal/repository/room"
)

const (
	PhaseFocus      = "focus"
	PhaseShortBreak = "short_break"
	PhaseLongBreak  = "long_break"
)

const (
	ActionStart = "start"
	ActionPause = "pause"
	ActionReset = "reset"
)

var phaseLabels = map[string]string{
	PhaseFocus:      "Focus",
	PhaseShortBreak: "Short break",
	PhaseLongBreak:  "Long break",
}

var phasePrompts = map[string]string{
	PhaseFocus:      "Put everything else away and concentrate on your task.",
	PhaseShortBreak: "Step away from the screen, stretch and grab some water.",
	PhaseLongBreak:  "You finished a full cycle. Take a proper rest.",
}

func (s service) phaseDuration(phase string) time.Duration {
	switch phase {
	case PhaseShortBreak:
		return s.shortBreakDuration
	case PhaseLongBreak:
		return s.longBreakDuration
	default:
		return s.focusDuration
	}
}

func (s service) initialTechniqueState() room.TechniqueState {
	return room.TechniqueState{
		Phase:        PhaseFocus,
		IsRunning:    false,
		PhaseEndsAt:  0,
		RemainingSec: int(s.focusDuration.Seconds()),
		CycleCount:   0,
		Version:      0,
	}
}

func (s service) toTechniqueState(state room.TechniqueState) TechniqueState {
	return TechniqueState{
		Phase:        state.Phase,
		PhaseLabel:   phaseLabels[state.Phase],
		PhasePrompt:  phasePrompts[state.Phase],
		IsRunning:    state.IsRunning,
		PhaseEndsAt:  state.PhaseEndsAt,
		RemainingSec: state.RemainingSec,
		CycleCount:   state.CycleCount,
		Version:      state.Version,
	}
}

type UpdateTechniqueParams struct {
	Action          string
	ExpectedVersion int
	SenderId        string
	RoomId          string
}

type TechniqueResponse struct {
	Technique string
	State     TechniqueState
	Conns     []*websocket.Conn
}

// UpdateTechnique applies start/pause/reset. The caller's last-observed
// version must match the stored one, otherwise nothing is mutated and
// ErrVersionConflict tells the client to re-fetch and retry.
func (s service) UpdateTechnique(ctx context.Context, params *UpdateTechniqueParams) (TechniqueResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	state, err := s.getTechniqueStateForUpdate(ctx, params.RoomId, params.ExpectedVersion)
	if err != nil {
		return TechniqueResponse{}, err
	}

	now := time.Now()

	switch params.Action {
	case ActionStart:
		if state.IsRunning {
			return TechniqueResponse{}, ErrInvalidAction
		}
		remaining := state.RemainingSec
		if remaining <= 0 {
			remaining = int(s.phaseDuration(state.Phase).Seconds())
		}
		state.RemainingSec = remaining
		state.PhaseEndsAt = now.Unix() + int64(remaining)
		state.IsRunning = true
	case ActionPause:
		if !state.IsRunning {
			return TechniqueResponse{}, ErrInvalidAction
		}
		remaining := state.PhaseEndsAt - now.Unix()
		if remaining < 0 {
			remaining = 0
		}
		state.RemainingSec = int(remaining)
		state.PhaseEndsAt = 0
		state.IsRunning = false
	case ActionReset:
		state = s.initialTechniqueState()
		state.Version = params.ExpectedVersion
	default:
		return TechniqueResponse{}, ErrInvalidAction
	}

	state.Version++

	return s.storeTechniqueState(ctx, params.RoomId, state)
}

type AdvancePhaseParams struct {
	ExpectedVersion int
	SenderId        string
	RoomId          string
}

// AdvancePhase moves to the next phase in the cycle. It serves both a user
// skip and the lazy expiry suggestion clients send when their local
// countdown hits zero; duplicate suggestions lose the version check and are
// dropped by the caller.
func (s service) AdvancePhase(ctx context.Context, params *AdvancePhaseParams) (TechniqueResponse, error) {
	s.locks.Lock(params.RoomId)
	defer s.locks.Unlock(params.RoomId)

	state, err := s.getTechniqueStateForUpdate(ctx, params.RoomId, params.ExpectedVersion)
	if err != nil {
		return TechniqueResponse{}, err
	}

	switch state.Phase {
	case PhaseFocus:
		// cycleCount counts completed returns to focus, so the focus
		// phase just finished is number cycleCount+1
		if (state.CycleCount+1)%s.cyclesBeforeLongBreak == 0 {
			state.Phase = PhaseLongBreak
		} else {
			state.Phase = PhaseShortBreak
		}
	default:
		state.Phase = PhaseFocus
		state.CycleCount++
	}

	duration := s.phaseDuration(state.Phase)
	state.RemainingSec = int(duration.Seconds())
	state.PhaseEndsAt = time.Now().Unix() + int64(duration.Seconds())
	state.IsRunning = true
	state.Version++

	return s.storeTechniqueState(ctx, params.RoomId, state)
}

func (s service) getTechniqueStateForUpdate(ctx context.Context, roomId string, expectedVersion int) (room.TechniqueState, error) {
	state, err := s.roomRepo.GetTechniqueState(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrTechniqueNotFound) {
			return room.TechniqueState{}, ErrRoomNotFound
		}
		return room.TechniqueState{}, err
	}

	if state.Version != expectedVersion {
		return room.TechniqueState{}, ErrVersionConflict
	}

	return state, nil
}

func (s service) storeTechniqueState(ctx context.Context, roomId string, state room.TechniqueState) (TechniqueResponse, error) {
	if err := s.roomRepo.SetTechniqueState(ctx, &room.SetTechniqueStateParams{
		Phase:        state.Phase,
		IsRunning:    state.IsRunning,
		PhaseEndsAt:  state.PhaseEndsAt,
		RemainingSec: state.RemainingSec,
		CycleCount:   state.CycleCount,
		Version:      state.Version,
		RoomId:       roomId,
	}); err != nil {
		return TechniqueResponse{}, err
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return TechniqueResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return TechniqueResponse{}, err
	}

	return TechniqueResponse{
		Technique: rm.Technique,
		State:     s.toTechniqueState(state),
		Conns:     conns,
	}, nil
}
