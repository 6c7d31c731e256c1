package scheduling

// Stats is the outcome tally of one materialization run.  Every occurrence a
// run looks at lands in exactly one bucket; skips are normal outcomes, not
// failures.  Errors collects per-occurrence failures that did not stop the
// run.
type Stats struct {
	ProcessedBookings   int      `json:"processed_bookings"`
	CreatedReservations int      `json:"created_reservations"`
	SkippedNoCapacity   int      `json:"skipped_no_capacity"`
	SkippedSeatTaken    int      `json:"skipped_seat_taken"`
	SkippedExisting     int      `json:"skipped_existing"`
	SkippedExceptions   int      `json:"skipped_exceptions"`
	Errors              []string `json:"errors"`
}

// Add folds another run's tally into this one.
func (s *Stats) Add(o *Stats) {
	s.ProcessedBookings += o.ProcessedBookings
	s.CreatedReservations += o.CreatedReservations
	s.SkippedNoCapacity += o.SkippedNoCapacity
	s.SkippedSeatTaken += o.SkippedSeatTaken
	s.SkippedExisting += o.SkippedExisting
	s.SkippedExceptions += o.SkippedExceptions
	s.Errors = append(s.Errors, o.Errors...)
}

// Preview outcomes.
const (
	PreviewWillCreate  = "will_create"
	PreviewExisting    = "existing"
	PreviewSkipped     = "skipped"
	PreviewRescheduled = "rescheduled"
	PreviewBlocked     = "blocked"
	PreviewNoSession   = "no_session"
)

// PreviewEntry describes what a materialization run would do for one
// occurrence of one standing booking, without writing anything.
type PreviewEntry struct {
	StandingBookingID uint64  `json:"standing_booking_id"`
	PersonID          uint64  `json:"person_id"`
	TemplateID        uint64  `json:"template_id"`
	Date              string  `json:"date"`
	SessionID         *uint64 `json:"session_id,omitempty"`
	Outcome           string  `json:"outcome"`
	Reason            string  `json:"reason,omitempty"`
}
