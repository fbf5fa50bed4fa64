package domain

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message inside a conversation, kept in arrival order.
type Turn struct {
	Role    Role
	Content string
}
