package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// SelfAssignable reports whether a role may be chosen through a profile update.
func (r Role) SelfAssignable() bool {
	return r == RoleBuyer || r == RoleSeller
}

// User is an account. Tokens holds fingerprints of the active session tokens, oldest first.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	Tokens       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasToken reports whether fingerprint is in the active token set.
func (u *User) HasToken(fingerprint string) bool {
	for _, t := range u.Tokens {
		if t == fingerprint {
			return true
		}
	}
	return false
}

// WithoutToken returns a copy of the token set with every occurrence of fingerprint dropped.
func (u *User) WithoutToken(fingerprint string) []string {
	kept := make([]string, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		if t != fingerprint {
			kept = append(kept, t)
		}
	}
	return kept
}
