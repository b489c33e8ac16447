package domain

import "time"

// Session is the authenticated identity persisted across restarts.
type Session struct {
	Mobile     string    `json:"mobile"`
	Role       Role      `json:"role"`
	LoggedInAt time.Time `json:"logged_in_at"`
}
