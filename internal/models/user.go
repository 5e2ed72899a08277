package models

// User is an API account allowed to read telemetry and change settings.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never exposed
}
