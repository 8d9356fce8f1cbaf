package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTechniqueNotFound   = errors.New("technique state not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuizAlreadyExists   = errors.New("quiz already exists")
	ErrAnswerAlreadyExists = errors.New("answer already exists")
	ErrSessionNotFound     = errors.New("session not found")
)
