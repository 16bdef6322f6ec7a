package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of user roles.
type Role int

const (
	RoleStudent Role = iota + 1
	RoleAdmin
)

// ParseRole converts a stored role name into a Role.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "student":
		return RoleStudent, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", raw)
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// User is an authenticated identity.
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"-"`
}

// CanManageCatalog reports whether the user may create or remove exams and questions.
func (u User) CanManageCatalog() bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleStudent:
		return false
	}
	return false
}
