package domain

import "time"

// User is the read-only identity mirror consumed by the chat core.
// Accounts are provisioned by the identity service; this table is never
// written here except for last_seen_at, which the presence service updates
// on the online→offline transition.
type User struct {
	ID          string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Username    string     `gorm:"column:username;size:100;uniqueIndex" json:"username"`
	DisplayName string     `gorm:"column:display_name;size:255" json:"display_name"`
	AvatarURL   string     `gorm:"column:avatar_url;size:512" json:"avatar_url,omitempty"`
	LastSeenAt  *time.Time `gorm:"column:last_seen_at" json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// UserStatusResponse presence snapshot for a single user
type UserStatusResponse struct {
	UserID     string     `json:"user_id"`
	Username   string     `json:"username,omitempty"`
	IsOnline   bool       `json:"is_online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}
