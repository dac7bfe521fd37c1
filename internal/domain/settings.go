package domain

// Settings is the global settings document. It seeds new sessions (which
// snapshot it into SessionSettings) and is editable independently of any
// running session.
type Settings struct {
	Model               string `json:"model"`
	IntervalSeconds     int    `json:"intervalSeconds"`
	Prompt              string `json:"prompt"`
	EnableNotifications bool   `json:"enableNotifications"`
	AutoBackoff         bool   `json:"autoBackoff"`
	APIKey              string `json:"apiKey"`
	DebugMode           bool   `json:"debugMode"`
}
