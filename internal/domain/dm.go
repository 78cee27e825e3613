package domain

import (
	"sort"
	"strings"
)

const DMChannelPrefix = "dm_"

// DMChannelID derives the channel id shared by two users. The result does
// not depend on argument order.
func DMChannelID(userA, userB string) string {
	pair := SortedPair(userA, userB)
	return DMChannelPrefix + strings.Join(pair[:], "_")
}

func SortedPair(userA, userB string) [2]string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return [2]string{pair[0], pair[1]}
}

// DMChannel is a direct-message channel as listed for one of its participants.
type DMChannel struct {
	Channel
	OtherUser *User `json:"otherUser,omitempty"`
}
