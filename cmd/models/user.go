package models

import "time"

// User is the identity behind posts, comments and follows.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"column:username;size:150;not null;uniqueIndex" json:"username"`
	FullName     string    `gorm:"column:full_name;size:255" json:"full_name"`
	Email        string    `gorm:"column:email;size:255" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	DateJoined   time.Time `gorm:"column:date_joined;not null;<-:create" json:"date_joined"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName falls back to the username when no full name was given.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
