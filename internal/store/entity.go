package store

import "time"

// User is a participant identity. Accounts are managed by the external CRUD
// backend; the gateway only reads them.
type User struct {
	ID          string `gorm:"primaryKey"`
	Username    string `gorm:"uniqueIndex"`
	Email       string `gorm:"uniqueIndex"`
	PhoneNumber string
	CreatedAt   time.Time
}

// Room is a bounded broadcast scope with a fixed participant set.
type Room struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Description  string
	CreatedByID  string
	Participants []User `gorm:"many2many:room_participants"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is one immutable chat utterance. Created by the gateway on receipt
// of an inbound frame; never updated or deleted here.
type Message struct {
	ID        string `gorm:"primaryKey"`
	RoomID    string `gorm:"index"`
	SenderID  string `gorm:"index"`
	Content   string
	IsRead    bool
	CreatedAt time.Time `gorm:"index"`
}
