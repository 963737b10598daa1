package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin   = "ROLE_ADMIN"
	RoleManager = "ROLE_MANAGER"
	RoleUser    = "ROLE_USER"
)

type Role struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
}

type User struct {
	ID                     int64     `gorm:"primaryKey"`
	Username               string    `gorm:"size:50;uniqueIndex;not null"`
	Password               string    `gorm:"size:500;not null"`
	Enabled                bool      `gorm:"not null"`
	FirstName              string    `gorm:"size:100"`
	LastName               string    `gorm:"size:100"`
	Image                  string    `gorm:"size:500"`
	CreatedDate            time.Time `gorm:"autoCreateTime"`
	LastModifiedDate       time.Time `gorm:"autoUpdateTime"`
	LastPasswordChangeDate *time.Time
	Roles                  []Role `gorm:"many2many:user_roles;"`
}

// HasRole reports whether the user holds role; ROLE_ADMIN satisfies every role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == role || r.Name == RoleAdmin {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

func (u *User) RoleNames() string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}

func (u *User) DisplayName() string {
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Username
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
