package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of player birth dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or an empty string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Player is one member of a squad, staff included.
type Player struct {
	Name        string `json:"name"`
	DateOfBirth Date   `json:"date_of_birth"`
	Position    string `json:"position"`
}

// Squad is the current roster of a team.
type Squad struct {
	Name    string   `json:"name"`
	Players []Player `json:"players"`
}

// Clone returns a deep copy of the squad. A nil squad clones to nil.
func (s *Squad) Clone() *Squad {
	if s == nil {
		return nil
	}
	out := &Squad{Name: s.Name}
	if s.Players != nil {
		out.Players = make([]Player, len(s.Players))
		copy(out.Players, s.Players)
	}
	return out
}

// PositionGroup buckets positions for presentation.
type PositionGroup string

const (
	GroupGoalkeepers PositionGroup = "Goalkeepers"
	GroupManager     PositionGroup = "Manager"
	GroupDefenders   PositionGroup = "Defenders"
	GroupMidfielders PositionGroup = "Midfielders"
	GroupForwards    PositionGroup = "Forwards"
	GroupOthers      PositionGroup = "Others"
)

// PositionGroups lists every group in display order.
var PositionGroups = []PositionGroup{
	GroupGoalkeepers,
	GroupManager,
	GroupDefenders,
	GroupMidfielders,
	GroupForwards,
	GroupOthers,
}

var positionToGroup = map[string]PositionGroup{
	"Goalkeeper":         GroupGoalkeepers,
	"Manager":            GroupManager,
	"Defender":           GroupDefenders,
	"Centre-Back":        GroupDefenders,
	"Left-Back":          GroupDefenders,
	"Right-Back":         GroupDefenders,
	"Attacking Midfield": GroupMidfielders,
	"Central Midfield":   GroupMidfielders,
	"Defensive Midfield": GroupMidfielders,
	"Centre-Forward":     GroupForwards,
	"Right Winger":       GroupForwards,
	"Left Wing":          GroupForwards,
}

// GroupOf maps a provider position label to its group. Unknown labels land in Others.
func GroupOf(position string) PositionGroup {
	if g, ok := positionToGroup[position]; ok {
		return g
	}
	return GroupOthers
}

// Grouped buckets the players by position group, keeping roster order inside a group.
func (s *Squad) Grouped() map[PositionGroup][]Player {
	grouped := make(map[PositionGroup][]Player)
	if s == nil {
		return grouped
	}
	for _, p := range s.Players {
		g := GroupOf(p.Position)
		grouped[g] = append(grouped[g], p)
	}
	return grouped
}
