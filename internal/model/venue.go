package model

import "time"

// Venue is a physical room in the gym where classes take place.  Seat-based
// classes (spinning bikes, reformer beds) enumerate their positions as Seat
// rows; capacity-only classes just use the session capacity.
type Venue struct {
	ID          uint64    // venues.id
	Name        string    // venues.name
	Description *string   // venues.description (nullable)
	Capacity    int       // venues.capacity
	CreatedAt   time.Time // venues.created_at
	UpdatedAt   time.Time // venues.updated_at
}

// Seat is a fixed position inside a venue (a bike, a bed, a station).  Seats
// are unique per (venue, label).  A standing booking or reservation that
// carries a seat claims exclusivity on it; seat uniqueness is the capacity
// mechanism for seat-based classes.
type Seat struct {
	ID       uint64 // seats.id
	VenueID  uint64 // seats.venue_id
	Label    string // seats.label
	Row      *int   // seats.row_number (nullable)
	Col      *int   // seats.col_number (nullable)
	IsActive bool   // seats.is_active
}
