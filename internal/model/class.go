package model

import "time"

// ClassType is a kind of class offered by the gym (spinning, yoga, crossfit).
// Templates and sessions reference a class type; seat-exclusive behaviour is
// not a property of the type itself but of whether a booking carries a seat.
//
// Fields:
//  ID          – primary key identifier.
//  Code        – short unique code (e.g. "SPIN").
//  Name        – display name.
//  Description – optional free-form description.
type ClassType struct {
	ID          uint64  // class_types.id
	Code        string  // class_types.code
	Name        string  // class_types.name
	Description *string // class_types.description (nullable)
}

// ClassTemplate is a recurring weekly class rule: "this class happens every
// <weekday> at <start time> in <venue>".  Templates sharing class type, venue,
// start time and instructor but differing by weekday form a time-slot group
// ("the same class, every day it occurs").
//
// Weekday uses the Sunday-based convention: 0=Sunday .. 6=Saturday.  This
// matches Go's time.Weekday numbering, but the convention is owned by the
// schema, not by the host language; scheduling code must go through
// scheduling.NormalizeWeekday rather than assuming the two agree.
type ClassTemplate struct {
	ID              uint64    // class_templates.id
	ClassTypeID     uint64    // class_templates.class_type_id
	VenueID         uint64    // class_templates.venue_id
	InstructorID    *uint64   // class_templates.instructor_id (nullable)
	Name            *string   // class_templates.name (nullable)
	Weekday         int       // class_templates.weekday (0=Sunday .. 6=Saturday)
	StartTimeLocal  string    // class_templates.start_time_local ("15:04:05")
	DurationMin     int       // class_templates.default_duration_min
	DefaultCapacity *int      // class_templates.default_capacity (nullable)
	IsActive        bool      // class_templates.is_active
	CreatedAt       time.Time // class_templates.created_at
	UpdatedAt       time.Time // class_templates.updated_at
}

// Session statuses.
const (
	SessionScheduled = "scheduled"
	SessionCanceled  = "canceled"
	SessionCompleted = "completed"
)

// ClassSession is one dated occurrence of a class.  Sessions generated by the
// expander reference their template; ad-hoc sessions have a nil TemplateID.
// At most one session may exist per (template, calendar date).
type ClassSession struct {
	ID           uint64    // class_sessions.id
	TemplateID   *uint64   // class_sessions.template_id (nullable for ad-hoc)
	ClassTypeID  uint64    // class_sessions.class_type_id
	VenueID      uint64    // class_sessions.venue_id
	InstructorID *uint64   // class_sessions.instructor_id (nullable)
	Name         *string   // class_sessions.name (nullable)
	StartAt      time.Time // class_sessions.start_at (UTC)
	EndAt        time.Time // class_sessions.end_at (UTC)
	Capacity     int       // class_sessions.capacity
	Status       string    // class_sessions.status (scheduled|canceled|completed)
	CreatedAt    time.Time // class_sessions.created_at
	UpdatedAt    time.Time // class_sessions.updated_at
}
