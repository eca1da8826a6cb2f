package models

import "time"

// UserModel represents an account that owns meeting records.
type UserModel struct {
	Base
	Username      string     `json:"username" gorm:"uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"        gorm:"not null"` // bcrypt
	Mail          string     `json:"mail"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }

// UserSession is a server-side login session backing a JWT.
type UserSession struct {
	Base
	UserID     string     `json:"-"           gorm:"index;not null"`
	IP         string     `json:"ip"`
	UA         string     `json:"ua"          gorm:"type:text"`
	ExpiresAt  time.Time  `json:"expires_at"  gorm:"index"`
	RevokedAt  *time.Time `json:"revoked_at"`
	LastSeenAt *time.Time `json:"last_seen_at"`
}

func (UserSession) TableName() string { return "user_sessions" }
