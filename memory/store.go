package memory

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one recorded unit of dialogue.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn returns a user turn carrying text.
func UserTurn(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// AssistantTurn returns an assistant turn carrying text.
func AssistantTurn(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }

// Store is the ordered turn log of a single conversation.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	turns []Turn
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds t to the end of the log.
func (s *Store) Append(t Turn) {
	s.turns = append(s.turns, t)
}

// Clear empties the log.
func (s *Store) Clear() {
	s.turns = nil
}

// Snapshot returns a copy of every turn appended so far, oldest first.
// The copy is never nil, and changing it does not affect the store.
func (s *Store) Snapshot() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len reports the number of turns.
func (s *Store) Len() int { return len(s.turns) }
