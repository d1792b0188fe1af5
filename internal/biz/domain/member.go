package domain

import "fmt"

// RotationKeyAll is the rotation key for posts with no team restriction.
const RotationKeyAll = "all"

// TeamMember represents one roster row (value object)
type TeamMember struct {
	TeamID string
	Name   string
	ChatID string // Telegram numeric chat id, empty until the member runs /start
	Active bool
}

// HasChatID checks whether the member has a linked, numeric chat id
func (m *TeamMember) HasChatID() bool {
	if m.ChatID == "" {
		return false
	}
	for _, r := range m.ChatID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatDisplay formats for display
func (m *TeamMember) FormatDisplay() string {
	return fmt.Sprintf("%s (team %s)", m.Name, m.TeamID)
}

// FilterRoster returns the active members eligible for the given rotation
// key, preserving roster order. The "all" key matches every active member.
func FilterRoster(members []TeamMember, key string) []TeamMember {
	var result []TeamMember
	for _, m := range members {
		if !m.Active {
			continue
		}
		if key == RotationKeyAll || key == "" || m.TeamID == key {
			result = append(result, m)
		}
	}
	return result
}

// FindMemberByName finds a roster member by name (case-sensitive match on
// the sheet value)
func FindMemberByName(members []TeamMember, name string) *TeamMember {
	for i := range members {
		if members[i].Name == name {
			return &members[i]
		}
	}
	return nil
}
