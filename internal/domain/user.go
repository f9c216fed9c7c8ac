package domain

import "time"

// User represents an application user keyed by the commerce platform's
// customer identifier. Users are created on first successful authentication
// or by an administrative action, and soft-disabled rather than deleted.
type User struct {
	ID            int64
	CustomerID    string
	Email         string
	FirstName     string
	LastName      string
	IsActive      bool
	PublicProfile bool
	CreatedAt     time.Time
	LastLoginAt   time.Time
}
