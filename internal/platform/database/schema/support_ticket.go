package schema

// SupportTicketTable represents the 'support.ticket' table
type SupportTicketTable struct {
	Table      string
	ID         string
	UserID     string
	Name       string
	Email      string
	Subject    string
	Message    string
	Category   string
	Status     string
	Priority   string
	AdminReply string
	RepliedAt  string
	CreatedAt  string
	UpdatedAt  string
}

// SupportTicket is the schema definition for support.ticket
var SupportTicket = SupportTicketTable{
	Table:      "support.ticket",
	ID:         "id",
	UserID:     "user_id",
	Name:       "name",
	Email:      "email",
	Subject:    "subject",
	Message:    "message",
	Category:   "category",
	Status:     "status",
	Priority:   "priority",
	AdminReply: "admin_reply",
	RepliedAt:  "replied_at",
	CreatedAt:  "created_at",
	UpdatedAt:  "updated_at",
}

func (t SupportTicketTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Name, t.Email, t.Subject, t.Message,
		t.Category, t.Status, t.Priority, t.AdminReply, t.RepliedAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
