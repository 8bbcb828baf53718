package domain

import (
	"strings"
	"time"
)

// User is a chat platform account known to the bot.
type User struct {
	ID         int64
	PlatformID int64
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
