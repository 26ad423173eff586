package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestStore creates a store over an in-memory SQLite database.
func setupTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	s, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func seedRoom(t *testing.T, s *GormStore, participants ...string) *Room {
	t.Helper()
	ctx := context.Background()

	users := make([]User, 0, len(participants))
	for _, name := range participants {
		user := &User{
			ID:       uuid.New().String(),
			Username: name,
			Email:    name + "@example.com",
		}
		if err := s.CreateUser(ctx, user); err != nil {
			t.Fatalf("failed to create user %s: %v", name, err)
		}
		users = append(users, *user)
	}

	room := &Room{
		ID:           uuid.New().String(),
		Name:         "test room",
		Participants: users,
	}
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	return room
}

func TestGormStore_GetRoom(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	room := seedRoom(t, s, "alice")

	found, err := s.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom() error = %v", err)
	}
	if found.Name != "test room" {
		t.Errorf("expected name %q, got %q", "test room", found.Name)
	}

	_, err = s.GetRoom(ctx, uuid.New().String())
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestGormStore_IsParticipant(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	room := seedRoom(t, s, "alice", "bob")

	outsider := &User{ID: uuid.New().String(), Username: "charlie", Email: "charlie@example.com"}
	if err := s.CreateUser(ctx, outsider); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	for _, member := range room.Participants {
		ok, err := s.IsParticipant(ctx, room.ID, member.ID)
		if err != nil {
			t.Fatalf("IsParticipant() error = %v", err)
		}
		if !ok {
			t.Errorf("expected %s to be a participant", member.Username)
		}
	}

	ok, err := s.IsParticipant(ctx, room.ID, outsider.ID)
	if err != nil {
		t.Fatalf("IsParticipant() error = %v", err)
	}
	if ok {
		t.Error("expected charlie not to be a participant")
	}

	// A missing room has no participants.
	ok, err = s.IsParticipant(ctx, uuid.New().String(), outsider.ID)
	if err != nil {
		t.Fatalf("IsParticipant() error = %v", err)
	}
	if ok {
		t.Error("expected no membership in an unknown room")
	}
}

func TestGormStore_Messages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	room := seedRoom(t, s, "alice")
	sender := room.Participants[0]

	base := time.Now().UTC().Truncate(time.Second)
	contents := []string{"first", "second", "third"}
	for i, content := range contents {
		msg := &Message{
			ID:        uuid.New().String(),
			RoomID:    room.ID,
			SenderID:  sender.ID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}

	// A message in another room must not leak into the result.
	other := seedRoom(t, s, "bob")
	otherMsg := &Message{
		ID:       uuid.New().String(),
		RoomID:   other.ID,
		SenderID: other.Participants[0].ID,
		Content:  "elsewhere",
	}
	if err := s.CreateMessage(ctx, otherMsg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	msgs, err := s.RoomMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("RoomMessages() error = %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, msg := range msgs {
		if msg.Content != contents[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Content, contents[i])
		}
	}
}

func TestGormStore_GetUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := &User{ID: uuid.New().String(), Username: "alice", Email: "alice@example.com"}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := s.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if found.Username != "alice" {
		t.Errorf("expected username %q, got %q", "alice", found.Username)
	}

	_, err = s.GetUser(ctx, uuid.New().String())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
