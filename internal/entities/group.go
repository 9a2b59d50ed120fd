package entities

type Group struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Welcome    bool           `json:"welcome"`
	AntiLink   bool           `json:"anti_link"`
	BotAdmin   bool           `json:"bot_admin"`
	CustomData map[string]any `json:"custom_data"`
}

// GroupMetadata is what the transport knows about a group chat right now.
// It is not persisted; the Store keeps its own Group record.
type GroupMetadata struct {
	Name         string
	Participants []Participant
}

type Participant struct {
	ID      string
	IsAdmin bool
}

// IsAdmin reports whether the given JID is listed as a group admin.
func (g *GroupMetadata) IsAdmin(jid string) bool {
	for _, p := range g.Participants {
		if p.ID == jid && p.IsAdmin {
			return true
		}
	}
	return false
}
