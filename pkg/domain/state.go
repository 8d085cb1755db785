package domain

import "strings"

// ConversationState is the record threaded through the workflow.
// Steps receive it by value and return the updated copy.
type ConversationState struct {
	// Query is the user's current message text.
	Query string `json:"query"`

	// TeamName is the normalized team identifier (empty when unset).
	TeamName string `json:"team_name,omitempty"`

	// Squad is the resolved roster.
	Squad *Squad `json:"squad,omitempty"`

	// Answer is the final response; set on every terminal branch.
	Answer string `json:"answer,omitempty"`

	ClarificationRequest  string `json:"clarification_request,omitempty"`
	ClarificationResponse string `json:"clarification_response,omitempty"`

	TeamFound bool `json:"team_found"`
	Valid     bool `json:"valid"`
	Success   bool `json:"success"`
}

// NewConversation creates a clean state for a fresh query.
func NewConversation(query string) ConversationState {
	return ConversationState{Query: query}
}

// Clone returns a copy that shares no memory with s.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.Squad = s.Squad.Clone()
	return out
}

// Finished reports whether the conversation turn produced an answer.
func (s ConversationState) Finished() bool {
	return s.Answer != ""
}

// AwaitingClarification reports whether the turn is paused on a clarification prompt.
func (s ConversationState) AwaitingClarification() bool {
	return s.ClarificationRequest != "" && s.Answer == ""
}

// NormalizeTeamName trims and lower-cases a team name into its canonical form.
func NormalizeTeamName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
