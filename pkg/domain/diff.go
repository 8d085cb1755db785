package domain

import "sort"

// StateDiff lists the fields a step changed.
// It is designed to be logged or serialized to JSON for observers.
type StateDiff struct {
	// Changed maps JSON field names to their new values.
	Changed map[string]any `json:"changed"`
}

// Fields returns the changed field names in stable order.
func (d *StateDiff) Fields() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Changed))
	for k := range d.Changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Diff calculates the difference between two conversation states.
// It returns nil when nothing changed.
func Diff(oldState, newState ConversationState) *StateDiff {
	changed := make(map[string]any)

	if oldState.Query != newState.Query {
		changed["query"] = newState.Query
	}
	if oldState.TeamName != newState.TeamName {
		changed["team_name"] = newState.TeamName
	}
	if squadName(oldState.Squad) != squadName(newState.Squad) || squadSize(oldState.Squad) != squadSize(newState.Squad) {
		// Squads are summarized; full rosters do not belong in diffs.
		changed["squad"] = squadSize(newState.Squad)
	}
	if oldState.Answer != newState.Answer {
		changed["answer"] = newState.Answer
	}
	if oldState.ClarificationRequest != newState.ClarificationRequest {
		changed["clarification_request"] = newState.ClarificationRequest
	}
	if oldState.ClarificationResponse != newState.ClarificationResponse {
		changed["clarification_response"] = newState.ClarificationResponse
	}
	if oldState.TeamFound != newState.TeamFound {
		changed["team_found"] = newState.TeamFound
	}
	if oldState.Valid != newState.Valid {
		changed["valid"] = newState.Valid
	}
	if oldState.Success != newState.Success {
		changed["success"] = newState.Success
	}

	if len(changed) == 0 {
		return nil
	}
	return &StateDiff{Changed: changed}
}

func squadName(s *Squad) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func squadSize(s *Squad) int {
	if s == nil {
		return -1
	}
	return len(s.Players)
}
