package guide

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a guide conversation.
type Turn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	CreatedAt time.Time `json:"createdAt"`
	IsFailed  bool      `json:"isFailed,omitempty"`
	Sealed    bool      `json:"sealed,omitempty"`
}

func (t Turn) Role() string {
	if t.IsUser {
		return RoleUser
	}
	return RoleAssistant
}

// Open reports whether the turn can still receive fragments.
func (t Turn) Open() bool {
	return !t.IsUser && !t.Sealed
}

// Exchange binds a user turn to the assistant placeholder created with it.
type Exchange struct {
	UserTurnID      string `json:"userTurnId"`
	AssistantTurnID string `json:"assistantTurnId"`
}

// HistoryEntry is the wire shape of a prior turn sent with a chat request.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
