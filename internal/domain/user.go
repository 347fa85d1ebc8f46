package domain

import (
	"time"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// User is an authenticated account. Students own submissions, staff review them.
type User struct {
	ID              string    `bson:"_id" json:"id"`
	Username        string    `bson:"username" json:"username"` // Unique
	Name            string    `bson:"name" json:"name"`
	Email           string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash    string    `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role            Role      `bson:"role" json:"role"`
	SubmissionCount int       `bson:"submissionCount" json:"submissionCount"` // Every submission ever created, informational
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
