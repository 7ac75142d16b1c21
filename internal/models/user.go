package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
)

func (r Role) Valid() bool {
	return r == RoleEmployer || r == RoleJobSeeker
}

// ParseRole accepts the canonical values plus the hyphenated form used by some forms.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	r := Role(s)
	return r, r.Valid()
}

// User is the identity as reported by Supabase Auth.
type User struct {
	ID           string    `json:"id"` // uuid
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignInAt time.Time `json:"last_sign_in_at"`
}

func (u *User) IsEmployer() bool  { return u != nil && u.Role == RoleEmployer }
func (u *User) IsJobSeeker() bool { return u != nil && u.Role == RoleJobSeeker }
