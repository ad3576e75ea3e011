package schemas

import "time"

// ConsoleLog represents a single entry captured from the browser's console
// while the page is being driven. Entries are collected only in debug mode.
type ConsoleLog struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	URL       string    `json:"url,omitempty"`
	Line      int64     `json:"line,omitempty"`
}
