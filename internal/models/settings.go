package models

// Settings is the flat user settings record
type Settings struct {
	FullName    string `json:"full_name" validate:"max=200"`
	Nickname    string `json:"nickname" validate:"max=100"`
	Preferences string `json:"preferences" validate:"max=4000"`
}

// IsEmpty reports whether every field is blank
func (s Settings) IsEmpty() bool {
	return s.FullName == "" && s.Nickname == "" && s.Preferences == ""
}
