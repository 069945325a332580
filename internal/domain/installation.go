package domain

import (
	"time"
)

// Installation is one workspace's OAuth installation record.
type Installation struct {
	TeamID      string
	TeamName    string
	BotToken    string
	BotUserID   string
	Scopes      []string
	InstalledAt time.Time
}
