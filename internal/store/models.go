package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsStaff      bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type BookModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Author      string `gorm:"not null"`
	Description string
	Price       float64   `gorm:"not null"`
	Stock       int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }
func (BookModel) TableName() string { return "books" }
