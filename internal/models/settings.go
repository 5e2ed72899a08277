package models

// Settings are the user-editable runtime knobs of the sync engine.
type Settings struct {
	BaseURL         string `json:"base_url"`
	RefreshInterval int    `json:"refresh_interval"` // seconds
	MockMode        bool   `json:"mock_mode"`
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	BaseURL         *string `json:"base_url,omitempty"`
	RefreshInterval *int    `json:"refresh_interval,omitempty"`
	MockMode        *bool   `json:"mock_mode,omitempty"`
}

// Apply returns s with the non-nil fields of p applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.BaseURL != nil {
		s.BaseURL = *p.BaseURL
	}
	if p.RefreshInterval != nil {
		s.RefreshInterval = *p.RefreshInterval
	}
	if p.MockMode != nil {
		s.MockMode = *p.MockMode
	}
	return s
}
