package engineports

import "time"

// PersistedState is the durable slice of conversation state. Message history
// is deliberately session-scoped and never persisted.
type PersistedState struct {
	UserPreferences map[string]map[string]string `json:"user_preferences"`
	ProjectContext  map[string]string            `json:"project_context,omitempty"`
	LastSave        time.Time                    `json:"last_save"`
}

// DefaultPersistedState returns the preference set used when no state file
// exists or neither the main file nor its backup can be read.
func DefaultPersistedState() *PersistedState {
	return &PersistedState{
		UserPreferences: map[string]map[string]string{
			"code_style": {
				"style":     "clean",
				"indent":    "4 espaços",
				"doc_style": "docstrings",
			},
			"chat_preferences": {
				"format":          "conciso",
				"technical_level": "intermediário",
			},
		},
		ProjectContext: map[string]string{},
	}
}

// StateStore loads and saves the persisted state. Save must be atomic with
// respect to crashes: the previous file survives as a backup.
type StateStore interface {
	Load() (*PersistedState, error)
	Save(state *PersistedState) error
}
