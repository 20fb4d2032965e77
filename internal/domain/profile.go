package domain

import "time"

// Profile holds the generation inputs for one user: voice, principles, and
// the discovery interests that drive search-type discovery. The lifecycle
// engine treats profiles as read-only.
type Profile struct {
	ID          string
	Name        string
	Voice       string
	Principles  []string
	Interests   []string
	Keywords    []string
	Communities []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
