package ticketing

// History event markers used by the ticketing system. Centralized so a
// deployment against a differently-configured instance remaps them in one
// place.
const (
	ActionManuallyAssigned = "MANUAL_ASSIGNED"
	ActionDisposed         = "DISPOSED"
	SubstatusEscalated     = "ESCALATED"
)

// PendingTicket is one entry of the pending-ticket listing as delivered by
// the ticketing API. Lifecycle fields are opaque pass-through.
type PendingTicket struct {
	ID            string       `json:"id"`
	TicketID      string       `json:"ticketId"`
	TaskTitle     string       `json:"taskTitle"`
	Date          RawTimestamp `json:"date"`
	Email         string       `json:"email"`
	Status        string       `json:"status"`
	Substatus     string       `json:"substatus"`
	SubstatusName string       `json:"substatusName"`
	IsEscalated   bool         `json:"isEscalated"`
	TicketURL     string       `json:"ticketURL"`
}

// HistoryEvent is one entry of a ticket's event history, delivered
// oldest-first by the API but not trusted to be sorted.
type HistoryEvent struct {
	Action     string       `json:"action"`
	CreateDate RawTimestamp `json:"createDate"`
	Remark     string       `json:"remark"`
	Substatus  string       `json:"substatus"`
}

// PendingFilter narrows the pending-ticket listing.
type PendingFilter struct {
	Statuses []string
	PageSize int
}
