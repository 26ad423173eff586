package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore implements Store over a relational database.
type GormStore struct {
	db *gorm.DB
}

// Open connects to the sqlite database at dsn and migrates the schema.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return NewGormStore(db)
}

// NewGormStore wraps an existing connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&User{}, &Room{}, &Message{}); err != nil {
		return nil, errors.Wrap(err, "migrate schema")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetRoom(ctx context.Context, id string) (*Room, error) {
	var room Room
	err := s.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, errors.Wrap(err, "query room")
	}
	return &room, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "query user")
	}
	return &user, nil
}

func (s *GormStore) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table("room_participants").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "query membership")
	}
	return count > 0, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, msg *Message) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return errors.Wrap(err, "create message")
	}
	return nil
}

func (s *GormStore) RoomMessages(ctx context.Context, roomID string) ([]*Message, error) {
	var msgs []*Message
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	return msgs, nil
}

// CreateUser inserts a user. Room and user creation belong to the external
// CRUD backend; these helpers exist for seeding and tests.
func (s *GormStore) CreateUser(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.Wrap(err, "create user")
	}
	return nil
}

// CreateRoom inserts a room together with its participant set.
func (s *GormStore) CreateRoom(ctx context.Context, room *Room) error {
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return errors.Wrap(err, "create room")
	}
	return nil
}
