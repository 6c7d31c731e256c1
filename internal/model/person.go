package model

import "time"

// Person is a gym member (or instructor).  Distinct from User, which is an
// authenticated operator account; people usually have no login at all.
type Person struct {
	ID          uint64    // people.id
	FullName    string    // people.full_name
	Email       *string   // people.email (nullable)
	PhoneNumber *string   // people.phone_number (nullable)
	IsActive    bool      // people.is_active
	CreatedAt   time.Time // people.created_at
	UpdatedAt   time.Time // people.updated_at
}
