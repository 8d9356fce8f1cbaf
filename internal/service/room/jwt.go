package room

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	MemberId string
	RoomId   string
}

func (s service) generateAuthToken(memberId, roomId string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": memberId,
		"room_id":   roomId,
	})

	return token.SignedString([]byte(s.secret))
}

func (s service) parseAuthToken(tokenString string) (*claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token")
	}

	memberId, _ := mapClaims["member_id"].(string)
	roomId, _ := mapClaims["room_id"].(string)
	if memberId == "" || roomId == "" {
		return nil, errors.New("invalid token")
	}

	return &claims{MemberId: memberId, RoomId: roomId}, nil
}
