package contact

import "time"

// Ticket categories.
const (
	CategoryGeneral  = "general"
	CategoryBilling  = "billing"
	CategoryTakedown = "takedown"
	CategoryBug      = "bug"
	CategoryAccount  = "account"
)

// Ticket statuses. Tickets open, then move through in_progress to
// resolved or closed.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Ticket is a support request. UserID is empty for tickets filed
// through the public contact form without an account.
type Ticket struct {
	ID       string `json:"id"`
	UserID   string `json:"userId,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	// AdminReply is empty until support answers.
	AdminReply string     `json:"adminReply,omitempty"`
	RepliedAt  *time.Time `json:"repliedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// API field names accepted by the list endpoint.
const (
	FieldCategory = "category"
	FieldStatus   = "status"
	FieldPriority = "priority"
)
