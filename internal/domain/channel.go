package domain

type Channel struct {
	ChannelID    string   `json:"channelId" dynamodbav:"channelId"`
	Name         string   `json:"name" dynamodbav:"name"`
	CreatedBy    string   `json:"createdBy" dynamodbav:"createdBy"`
	CreatedAt    int64    `json:"createdAt" dynamodbav:"createdAt"`
	IsDM         bool     `json:"isDM,omitempty" dynamodbav:"isDM"`
	Participants []string `json:"participants,omitempty" dynamodbav:"participants,omitempty,stringset"`
}

// HasParticipant reports whether userID is one side of a DM channel.
func (c *Channel) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the DM participant that is not userID.
func (c *Channel) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
