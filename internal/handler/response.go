package handler

import (
	"strconv"

	"taskmanager/internal/model"
)

// MessageResponse acknowledges an operation.
type MessageResponse struct {
	Message string `json:"message"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Message string         `json:"message"`
	User    model.Identity `json:"user"`
}

// AuthCheckResponse reports the identity behind a valid session.
type AuthCheckResponse struct {
	IsAuthenticated bool           `json:"isAuthenticated"`
	User            model.Identity `json:"user"`
}

// ProfileResponse wraps the caller's user record.
type ProfileResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// ProfilePictureResponse carries the stored picture URL.
type ProfilePictureResponse struct {
	Message           string `json:"message"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
