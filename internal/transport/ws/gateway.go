package ws

import (
	"context"
	"errors"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/metrics"
	"github.com/vedran77/teamchat/internal/service"
	"github.com/vedran77/teamchat/pkg/validator"
	"go.uber.org/zap"
)

var errBadPayload = errors.New("invalid payload")

type validationError struct {
	fields validator.ValidationErrors
}

func (e *validationError) Error() string { return "validation failed" }

func invalid(errs validator.ValidationErrors) error {
	if errs.HasErrors() {
		return &validationError{fields: errs}
	}
	return nil
}

// Services bundles what the gateway dispatches to.
type Services struct {
	Users    *service.UserService
	Channels *service.ChannelService
	DMs      *service.DMService
	Messages *service.MessageService
	Search   *service.SearchService
	Presence *service.PresenceService
}

// Gateway translates inbound socket events into service calls and replies
// to the sender; broadcasts go out through the services' notifier.
type Gateway struct {
	svc           Services
	maxUploadSize int64
}

func NewGateway(svc Services, maxUploadSize int64) *Gateway {
	return &Gateway{svc: svc, maxUploadSize: maxUploadSize}
}

func (g *Gateway) HandleEvent(ctx context.Context, c *Client, event *Event) {
	err := g.dispatch(ctx, c, event)
	if err == nil {
		metrics.Events.WithLabelValues(event.Type, metrics.OutcomeOK).Inc()
		return
	}
	metrics.Events.WithLabelValues(metricType(event.Type), metrics.OutcomeError).Inc()
	g.sendError(c, event.Type, err)
}

func (g *Gateway) dispatch(ctx context.Context, c *Client, event *Event) error {
	uid := c.UserID()

	switch event.Type {
	case EventTypeSyncUser:
		var p service.SyncUserInput
		if err := event.decode(&p); err != nil {
			return errBadPayload
		}
		if err := invalid(validator.ValidateSyncUser(p.Email, p.DisplayName)); err != nil {
			return err
		}
		user, err := g.svc.Users.Sync(ctx, uid, p)
		if err != nil {
			return err
		}
		c.Reply(EventTypeUserSynced, "", user)

	case EventTypeGetUsers:
		users, err := g.svc.Users.List(ctx)
		if err != nil {
			return err
		}
		c.Reply(EventTypeUsers, "", users)

	case EventTypeGetMentionable:
		users, err := g.svc.Users.Mentionable(ctx)
		if err != nil {
			return err
		}
		c.Reply(EventTypeMentionableUsers, "", users)

	case EventTypeJoinChannel:
		channelID, err := requireID(event, "channelId")
		if err != nil {
			return err
		}
		if _, err := g.svc.Channels.Get(ctx, uid, channelID); err != nil {
			return err
		}
		c.Subscribe(channelID)

	case EventTypeLeaveChannel:
		channelID, err := requireID(event, "channelId")
		if err != nil {
			return err
		}
		c.Unsubscribe(channelID)

	case EventTypeGetChannels:
		channels, err := g.svc.Channels.List(ctx)
		if err != nil {
			return err
		}
		c.Reply(EventTypeChannels, "", channels)

	case EventTypeCreateChannel:
		var p CreateChannelPayload
		if err := event.decode(&p); err != nil {
			return errBadPayload
		}
		if err := invalid(validator.ValidateChannel(p.Name)); err != nil {
			return err
		}
		ch, err := g.svc.Channels.Create(ctx, uid, p.Name)
		if err != nil {
			return err
		}
		// the creator starts out in the room
		c.Subscribe(ch.ChannelID)

	case EventTypeDeleteChannel:
		channelID, err := requireID(event, "channelId")
		if err != nil {
			return err
		}
		if err := g.svc.Channels.Delete(ctx, uid, channelID); err != nil {
			return err
		}
		c.Unsubscribe(channelID)

	case EventTypeGetMessages:
		channelID, err := requireID(event, "channelId")
		if err != nil {
			return err
		}
		msgs, err := g.svc.Messages.List(ctx, uid, channelID)
		if err != nil {
			return err
		}
		c.Reply(EventTypeMessages, channelID, MessagesPayload{ChannelID: channelID, Messages: msgs})

	case EventTypeMessage, EventTypeMessageWithFile:
		var p service.SendMessageInput
		if err := event.decode(&p); err != nil {
			return errBadPayload
		}
		if p.ChannelID == "" {
			p.ChannelID = event.ChannelID
		}
		if event.Type == EventTypeMessage {
			p.FileAttachment = nil
		} else if p.FileAttachment == nil {
			return invalid(validator.ValidationErrors{"fileAttachment": "File attachment is required"})
		}
		if err := invalid(validator.ValidateMessage(p.ChannelID, p.Content, p.FileAttachment != nil)); err != nil {
			return err
		}
		if fa := p.FileAttachment; fa != nil {
			if err := invalid(validator.ValidateAttachment(fa.FileName, fa.FileType, fa.S3Key, fa.FileSize, g.maxUploadSize)); err != nil {
				return err
			}
		}
		if _, err := g.svc.Messages.Send(ctx, uid, p); err != nil {
			return err
		}

	case EventTypeAddReaction:
		var p ReactionPayload
		if err := event.decode(&p); err != nil {
			return errBadPayload
		}
		if err := invalid(validator.ValidateReaction(p.MessageID, p.Emoji)); err != nil {
			return err
		}
		if _, err := g.svc.Messages.ToggleReaction(ctx, uid, p.MessageID, p.Emoji); err != nil {
			return err
		}

	case EventTypeDeleteMessage:
		messageID, err := requireID(event, "messageId")
		if err != nil {
			return err
		}
		if err := g.svc.Messages.Delete(ctx, uid, messageID); err != nil {
			return err
		}

	case EventTypeGetThreadMessages:
		parentID, err := requireID(event, "parentMessageId")
		if err != nil {
			return err
		}
		replies, err := g.svc.Messages.Thread(ctx, uid, parentID)
		if err != nil {
			return err
		}
		c.Reply(EventTypeThreadMessages, "", ThreadPayload{ParentMessageID: parentID, Messages: replies})

	case EventTypeCreateDMChannel:
		var p CreateDMPayload
		if err := event.decode(&p); err != nil || p.OtherUserID == "" {
			return errBadPayload
		}
		dm, err := g.svc.DMs.GetOrCreate(ctx, uid, p.OtherUserID)
		if err != nil {
			return err
		}
		c.Subscribe(dm.ChannelID)

	case EventTypeGetDMChannels:
		dms, err := g.svc.DMs.List(ctx, uid)
		if err != nil {
			return err
		}
		c.Reply(EventTypeDMChannels, "", dms)

	case EventTypeSearchMessages:
		var p SearchPayload
		if err := event.decode(&p); err != nil {
			return errBadPayload
		}
		if err := invalid(validator.ValidateSearch(p.Query)); err != nil {
			return err
		}
		found, err := g.svc.Search.Search(ctx, uid, p.Query)
		if err != nil {
			return err
		}
		c.Reply(EventTypeSearchResults, "", SearchResultsPayload{Query: p.Query, Messages: found})

	case EventTypeSetPresence:
		var p SetPresencePayload
		if err := event.decode(&p); err != nil {
			return errBadPayload
		}
		if err := invalid(validator.ValidatePresence(p.Status)); err != nil {
			return err
		}
		if _, err := g.svc.Presence.Set(ctx, uid, p.Status); err != nil {
			return err
		}

	case EventTypeGetPresence:
		// with a userId the reply is that user's presence, otherwise everyone online
		target, err := event.idArg("userId")
		if err != nil {
			return errBadPayload
		}
		if target != "" {
			p, err := g.svc.Presence.Get(ctx, target)
			if err != nil {
				return err
			}
			c.Reply(EventTypePresence, "", p)
			return nil
		}
		list, err := g.svc.Presence.Online(ctx)
		if err != nil {
			return err
		}
		c.Reply(EventTypePresenceList, "", list)

	case EventTypePing:
		c.Reply(EventTypePong, "", struct{}{})

	default:
		return errUnknownEvent
	}
	return nil
}

var errUnknownEvent = errors.New("unknown event type")

func requireID(event *Event, field string) (string, error) {
	id, err := event.idArg(field)
	if err != nil {
		return "", errBadPayload
	}
	if id == "" {
		return "", invalid(validator.ValidationErrors{field: "Required"})
	}
	return id, nil
}

func (g *Gateway) sendError(c *Client, eventType string, err error) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		c.SendError(eventType, CodeValidation, "Validation failed", verr.fields)
	case errors.Is(err, errUnknownEvent):
		c.SendError(eventType, CodeUnknownEvent, "unknown event type: "+eventType, nil)
	case errors.Is(err, errBadPayload), errors.Is(err, domain.ErrInvalidMessageID):
		c.SendError(eventType, CodeInvalidPayload, "Invalid "+eventType+" payload", nil)
	case errors.Is(err, service.ErrChannelNotFound):
		c.SendError(eventType, CodeNotFound, "Channel not found", nil)
	case errors.Is(err, service.ErrMessageNotFound):
		c.SendError(eventType, CodeNotFound, "Message not found", nil)
	case errors.Is(err, service.ErrUserNotFound):
		c.SendError(eventType, CodeNotFound, "User not found", nil)
	case errors.Is(err, service.ErrNotChannelOwner),
		errors.Is(err, service.ErrNotMessageOwner),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrReservedUser):
		c.SendError(eventType, CodeForbidden, err.Error(), nil)
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrParentNotInChan),
		errors.Is(err, service.ErrCannotDMSelf),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrInvalidPresence):
		c.SendError(eventType, CodeValidation, err.Error(), nil)
	default:
		zap.L().Error("ws event failed",
			zap.String("event", eventType), zap.String("user_id", c.UserID()), zap.Error(err))
		c.SendError(eventType, CodeInternal, "Something went wrong", nil)
	}
}

// metricType keeps label cardinality bounded when clients send junk types.
func metricType(t string) string {
	switch t {
	case EventTypeSyncUser, EventTypeGetUsers, EventTypeGetMentionable, EventTypeJoinChannel,
		EventTypeLeaveChannel, EventTypeGetChannels, EventTypeCreateChannel, EventTypeDeleteChannel,
		EventTypeGetMessages, EventTypeMessage, EventTypeMessageWithFile, EventTypeAddReaction,
		EventTypeDeleteMessage, EventTypeGetThreadMessages, EventTypeCreateDMChannel,
		EventTypeGetDMChannels, EventTypeSearchMessages, EventTypeSetPresence, EventTypeGetPresence,
		EventTypePing:
		return t
	}
	return "unknown"
}
