package booking

import "fmt"

type Status string

const (
	StatusRequested  Status = "REQUESTED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusDisputed   Status = "DISPUTED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

// transitions is the only place where legal status changes are defined.
// Every status has an entry, terminal ones map to an empty set.
var transitions = map[Status]map[Status]struct{}{
	StatusRequested:  {StatusConfirmed: {}, StatusCancelled: {}},
	StatusConfirmed:  {StatusInProgress: {}, StatusCancelled: {}},
	StatusInProgress: {StatusCompleted: {}, StatusCancelled: {}},
	StatusCompleted:  {StatusDisputed: {}},
	StatusCancelled:  {},
	StatusDisputed:   {},
}

// AllStatuses lists the closed status set in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusRequested,
		StatusConfirmed,
		StatusInProgress,
		StatusCompleted,
		StatusCancelled,
		StatusDisputed,
	}
}

// CanTransition reports whether the edge from -> to exists in the graph.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Successors returns the statuses reachable from s in one step, in lifecycle order.
func Successors(s Status) []Status {
	out := make([]Status, 0, 2)
	for _, candidate := range AllStatuses() {
		if CanTransition(s, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts only the literal persisted values (case-sensitive).
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, v)
	}
	return s, nil
}

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

// VerifyTrail checks that an ordered audit trail is a legal walk of the graph:
// it starts with the creation record (nil -> REQUESTED) and every later record
// continues from the previous target status.
func VerifyTrail(records []HistoryRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("audit trail is empty")
	}
	first := records[0]
	if first.FromStatus != nil || first.ToStatus != StatusRequested {
		return fmt.Errorf("audit trail must start with creation record, got %s", first.describe())
	}
	prev := first.ToStatus
	for i, rec := range records[1:] {
		if rec.FromStatus == nil {
			return fmt.Errorf("record %d has no from_status", i+1)
		}
		if *rec.FromStatus != prev {
			return fmt.Errorf("record %d starts at %s, previous record ended at %s", i+1, *rec.FromStatus, prev)
		}
		if !CanTransition(prev, rec.ToStatus) {
			return fmt.Errorf("record %d is not a legal transition: %s", i+1, rec.describe())
		}
		prev = rec.ToStatus
	}
	return nil
}
