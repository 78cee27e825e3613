package domain

import "time"

const (
	PresenceOnline  = "online"
	PresenceAway    = "away"
	PresenceOffline = "offline"
)

type Presence struct {
	UserID      string    `json:"userId"`
	Status      string    `json:"status"`
	LastChanged time.Time `json:"lastChanged"`
}

func ValidPresence(status string) bool {
	switch status {
	case PresenceOnline, PresenceAway, PresenceOffline:
		return true
	}
	return false
}
