package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/studyroom/server/internal/service/room"
	"github.com/studyroom/server/pkg/rest"
)

type createRoomRequest struct {
	Username  string `json:"username" validate:"required,min=1,max=32"`
	RoomName  string `json:"room_name" validate:"required,min=1,max=64"`
	Topic     string `json:"topic" validate:"max=128"`
	Technique string `json:"technique" validate:"required,max=32"`
}

func (c controller) validateCreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request createRoomRequest
	if err := rest.ReadJSON(r, &request); err != nil {
		c.logger.DebugContext(ctx, "failed to read request body", "error", err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid request body"})
		return
	}

	if validationErrors, ok := c.validate.Validate(request); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	connectToken, err := c.roomService.CreateRoomSession(ctx, &room.CreateRoomSessionParams{
		Username:  request.Username,
		RoomName:  request.RoomName,
		Topic:     request.Topic,
		Technique: request.Technique,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to create room session", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"connect_token": connectToken})
}

type joinRoomRequest struct {
	Username string `json:"username" validate:"required,min=1,max=32"`
}

func (c controller) validateJoinRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomId := chi.URLParam(r, "room-id")

	var request joinRoomRequest
	if err := rest.ReadJSON(r, &request); err != nil {
		c.logger.DebugContext(ctx, "failed to read request body", "error", err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid request body"})
		return
	}

	if validationErrors, ok := c.validate.Validate(request); !ok {
		c.logger.DebugContext(ctx, "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	connectToken, err := c.roomService.JoinRoomSession(ctx, &room.JoinRoomSessionParams{
		Username: request.Username,
		RoomId:   roomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}
		c.logger.ErrorContext(ctx, "failed to create join session", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"connect_token": connectToken})
}
