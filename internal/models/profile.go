package models

import "time"

// Profile is the user-chosen display identity. Its id equals the auth user id.
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// TableName pins the table name used by the data store.
func (Profile) TableName() string { return "profiles" }

// OwnerID returns the id of the user that owns the row.
func (p Profile) OwnerID() string { return p.ID }

// User is the identity issued by the auth provider, cached for the session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
