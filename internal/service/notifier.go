package service

import "github.com/vedran77/teamchat/internal/domain"

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyMessage(msg *domain.Message)
	NotifyThreadUpdated(channelID, parentMessageID string, replies []domain.Message)
	NotifyReaction(msg *domain.Message)
	NotifyMessageDeleted(channelID, messageID string)
	NotifyChannelCreated(ch *domain.Channel)
	NotifyChannelDeleted(channelID string)
	// NotifyDMCreated delivers dm to userID only, from that user's side.
	NotifyDMCreated(userID string, dm *domain.DMChannel)
	NotifyPresence(p *domain.Presence)
}
