package ws

import (
	"github.com/vedran77/teamchat/internal/domain"
	"go.uber.org/zap"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyMessage(msg *domain.Message) {
	n.toChannel(EventTypeMessage, msg.ChannelID, msg)
}

func (n *HubNotifier) NotifyThreadUpdated(channelID, parentMessageID string, replies []domain.Message) {
	n.toChannel(EventTypeThreadUpdated, channelID, ThreadPayload{ParentMessageID: parentMessageID, Messages: replies})
}

func (n *HubNotifier) NotifyReaction(msg *domain.Message) {
	reactions := msg.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}
	n.toChannel(EventTypeReactionAdded, msg.ChannelID, ReactionsPayload{MessageID: msg.MessageID, Reactions: reactions})
}

func (n *HubNotifier) NotifyMessageDeleted(channelID, messageID string) {
	n.toChannel(EventTypeMessageDeleted, channelID, MessageDeletedPayload{MessageID: messageID})
}

func (n *HubNotifier) NotifyChannelCreated(ch *domain.Channel) {
	n.toAll(EventTypeChannelCreated, ch)
}

func (n *HubNotifier) NotifyChannelDeleted(channelID string) {
	n.toAll(EventTypeChannelDeleted, ChannelDeletedPayload{ChannelID: channelID})
}

func (n *HubNotifier) NotifyDMCreated(userID string, dm *domain.DMChannel) {
	evt, err := NewEvent(EventTypeDMChannelCreated, dm.ChannelID, dm)
	if err != nil {
		zap.L().Error("ws notifier marshal error", zap.Error(err))
		return
	}
	n.hub.BroadcastToUser(userID, evt)
}

func (n *HubNotifier) NotifyPresence(p *domain.Presence) {
	n.toAll(EventTypePresence, p)
}

func (n *HubNotifier) toChannel(eventType, channelID string, payload any) {
	evt, err := NewEvent(eventType, channelID, payload)
	if err != nil {
		zap.L().Error("ws notifier marshal error", zap.String("type", eventType), zap.Error(err))
		return
	}
	n.hub.BroadcastToChannel(channelID, evt)
}

func (n *HubNotifier) toAll(eventType string, payload any) {
	evt, err := NewEvent(eventType, "", payload)
	if err != nil {
		zap.L().Error("ws notifier marshal error", zap.String("type", eventType), zap.Error(err))
		return
	}
	n.hub.BroadcastAll(evt)
}
