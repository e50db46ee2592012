package appointment

type Status string

const (
	StatusDraft      Status = "draft"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the full lifecycle table. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Blocks reports whether an appointment in this status occupies its
// technician's time for conflict checking. Drafts hold nothing so several
// tentative drafts can negotiate the same slot; terminal statuses free the
// slot immediately.
func (s Status) Blocks() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

// TicketStage maps an appointment status to the linked helpdesk ticket
// stage requested on each transition.
func (s Status) TicketStage() string {
	switch s {
	case StatusDraft:
		return "new"
	case StatusConfirmed, StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "solved"
	case StatusCancelled:
		return "cancelled"
	default:
		return "new"
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) String() string {
	return string(p)
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type CreatedVia string

const (
	CreatedViaInternal   CreatedVia = "internal"
	CreatedViaExternal   CreatedVia = "external"
	CreatedViaAutomation CreatedVia = "automation"
)

func (v CreatedVia) String() string {
	return string(v)
}

func (v CreatedVia) IsValid() bool {
	switch v {
	case CreatedViaInternal, CreatedViaExternal, CreatedViaAutomation:
		return true
	default:
		return false
	}
}

type CancelReason string

const (
	CancelCustomerRequest       CancelReason = "customer_request"
	CancelCustomerUnavailable   CancelReason = "customer_unavailable"
	CancelTechnicianUnavailable CancelReason = "technician_unavailable"
	CancelEmergency             CancelReason = "emergency"
	CancelEquipmentIssue        CancelReason = "equipment_issue"
	CancelWeather               CancelReason = "weather"
	CancelRescheduled           CancelReason = "rescheduled"
	CancelDuplicate             CancelReason = "duplicate"
	CancelOther                 CancelReason = "other"
)

func (r CancelReason) String() string {
	return string(r)
}

func (r CancelReason) IsValid() bool {
	switch r {
	case CancelCustomerRequest, CancelCustomerUnavailable, CancelTechnicianUnavailable,
		CancelEmergency, CancelEquipmentIssue, CancelWeather,
		CancelRescheduled, CancelDuplicate, CancelOther:
		return true
	default:
		return false
	}
}
