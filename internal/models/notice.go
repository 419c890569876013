package models

// Notice icons.
const (
	IconSuccess = "success"
	IconError   = "error"
	IconInfo    = "info"
)

// Notice is the toast/alert shown to the admin after an action.
type Notice struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}
