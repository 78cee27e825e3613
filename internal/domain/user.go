package domain

// AIUserID identifies the assistant bot in channels, mentions and DMs.
const AIUserID = "ai-assistant"

type User struct {
	UserID       string `json:"userId" dynamodbav:"userId"`
	Email        string `json:"email" dynamodbav:"email"`
	DisplayName  string `json:"displayName" dynamodbav:"displayName"`
	PhotoURL     string `json:"photoURL,omitempty" dynamodbav:"photoURL,omitempty"`
	IsSystemUser bool   `json:"isSystemUser,omitempty" dynamodbav:"isSystemUser,omitempty"`
	CreatedAt    int64  `json:"createdAt" dynamodbav:"createdAt"`
	LastLogin    int64  `json:"lastLogin" dynamodbav:"lastLogin"`
}

// AIUser returns the synthetic user the assistant posts as.
func AIUser(now int64) User {
	return User{
		UserID:       AIUserID,
		Email:        "ai@system.local",
		DisplayName:  "AI Assistant",
		PhotoURL:     "/ai-avatar.png",
		IsSystemUser: true,
		CreatedAt:    now,
		LastLogin:    now,
	}
}
