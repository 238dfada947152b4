package booking

// Status is a booking lifecycle state.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaymentSent     Status = "payment_sent"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusCancelled       Status = "cancelled"
)

// Actor identifies which side of the platform triggers a transition.
type Actor string

const (
	ActorUser  Actor = "user"
	ActorAdmin Actor = "admin"
)

// transitions is the full lattice. Anything absent here is illegal, including
// skipping awaiting_payment straight to approved.
var transitions = map[Status]map[Status]Actor{
	StatusPending: {
		StatusAwaitingPayment: ActorAdmin,
		StatusCancelled:       ActorUser,
	},
	StatusAwaitingPayment: {
		StatusPaymentSent: ActorUser,
		StatusCancelled:   ActorUser,
	},
	StatusPaymentSent: {
		StatusApproved: ActorAdmin,
		StatusRejected: ActorAdmin,
	},
}

// CanTransition reports whether actor may move a booking from one status to
// another.
func CanTransition(from, to Status, actor Actor) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	required, ok := targets[to]
	return ok && required == actor
}

// Terminal reports whether no transition leaves the status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusPaymentSent, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Presentation is the single status-to-display mapping shared by every
// consumer, so user and admin surfaces cannot drift apart.
type Presentation struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

var presentations = map[Status]Presentation{
	StatusPending:         {Label: "Pending review", Tone: "warning"},
	StatusAwaitingPayment: {Label: "Awaiting payment", Tone: "info"},
	StatusPaymentSent:     {Label: "Payment sent", Tone: "info"},
	StatusApproved:        {Label: "Approved", Tone: "success"},
	StatusRejected:        {Label: "Rejected", Tone: "danger"},
	StatusCancelled:       {Label: "Cancelled", Tone: "muted"},
}

// Present returns the display mapping for a status.
func Present(s Status) Presentation {
	if p, ok := presentations[s]; ok {
		return p
	}
	return Presentation{Label: string(s), Tone: "muted"}
}
