package entities

// ConsoleMessage represents one entry of the browser console
type ConsoleMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
