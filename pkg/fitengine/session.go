package fitengine

import "time"

// Status is the lifecycle state of a fit session as reported by the session
// service. A session moves from PROCESSING to exactly one of COMPLETED or
// FAILED and never transitions again.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"

	// StatusUnknown is the normalized form of any status shape the service
	// returns that we do not recognize (or omits entirely). Callers treat it
	// exactly like PROCESSING.
	StatusUnknown Status = "UNKNOWN"
)

// ParseStatus normalizes a raw status string from the wire. Unrecognized or
// empty values map to StatusUnknown rather than an error; the poller keeps
// watching sessions whose status shape it cannot read.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return Status(raw)
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further status transitions can follow.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProductRef identifies one product included in a try-on.
type ProductRef struct {
	Id       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Session is the client-side view of one try-on request/result lifecycle.
// Satisfaction is tri-state: nil means the shopper has not rated the result.
// Feedback text is only meaningful once Satisfied is set to false, by
// convention; nothing here enforces that.
type Session struct {
	Id          string
	Status      Status
	ResultURL   string
	Products    []ProductRef
	RetailerId  string
	IsFavorite  bool
	Satisfied   *bool
	Feedback    string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// clone returns a shallow copy with its own product slice, so store readers
// never alias a slice the coordinator may rewrite.
func (s *Session) clone() *Session {
	cp := *s
	cp.Products = append([]ProductRef(nil), s.Products...)
	return &cp
}
