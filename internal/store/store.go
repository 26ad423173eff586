package store

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrUserNotFound = errors.New("user not found")
)

// Store is the persistence collaborator the gateway depends on.
type Store interface {
	GetRoom(ctx context.Context, id string) (*Room, error)
	GetUser(ctx context.Context, id string) (*User, error)

	// IsParticipant reports whether the user is in the room's current
	// participant set. Checked once at connect time; membership is not
	// re-checked for the lifetime of a connection.
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)

	CreateMessage(ctx context.Context, msg *Message) error

	// RoomMessages returns a room's messages in ascending creation order.
	RoomMessages(ctx context.Context, roomID string) ([]*Message, error)
}
