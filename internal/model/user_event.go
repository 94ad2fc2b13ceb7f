package model

const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserEvent is published after a successful mutation.
type UserEvent struct {
	Type       string     `json:"type"`
	User       PublicUser `json:"user"`
	OccurredAt string     `json:"occurred_at"`
}
