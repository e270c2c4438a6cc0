package domain

import "time"

// User is a resource owner known to the identity store. Claims holds the profile
// attributes scope claim definitions are resolved against (role, office, email...).
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Active       bool
	Claims       ClaimSet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
