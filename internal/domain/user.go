package domain

import "time"

// Role determines which operations the access gate permits.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleRadiologist Role = "radiologist"
	RolePatient     Role = "patient"
)

// User represents an account in the credential store. Accounts are
// created once (startup defaults or on-demand patient provisioning)
// and never updated in place.
type User struct {
	Username     string
	PasswordHash string
	PasswordSalt string
	Iterations   int
	Role         Role
	PatientID    *int64
	CreatedOn    time.Time
}

// Identity is the authenticated principal carried by a session cookie
// or a bearer token.
type Identity struct {
	Username  string
	Role      Role
	PatientID *int64
}
