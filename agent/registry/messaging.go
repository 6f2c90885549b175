package registry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

// broadcastMessage sets the global notice banner. Only the banner text is
// persisted; GIFT metadata is logged for the audit trail but carries no
// stored state yet.
func (r *Registry) broadcastMessage(ctx context.Context, args map[string]any) (string, error) {
	message := args["message"].(string)
	if kind, ok := args["type"].(string); ok && kind == "GIFT" {
		log.Info().Any("giftValue", args["giftValue"]).Msg("gift broadcast requested")
	}

	settings, err := r.live.GetLiveValue(ctx, pathSettings)
	if err != nil {
		return "", err
	}
	settings["notice"] = message
	if err := r.live.SetLiveValue(ctx, pathSettings, settings); err != nil {
		return "", err
	}
	return "Broadcast notice published to all users.", nil
}

func (r *Registry) sendInboxMessage(ctx context.Context, args map[string]any) (string, error) {
	userID := args["userId"].(string)
	text := args["text"].(string)

	record, err := r.live.GetLiveValue(ctx, userPath(userID))
	if err != nil {
		return "", err
	}
	var user contractx.User
	if err := contractx.FromRecord(record, &user); err != nil {
		return "", err
	}

	message := contractx.InboxMessage{
		ID:        r.newID(),
		Text:      text,
		CreatedAt: r.now().UTC(),
		Read:      false,
		Type:      contractx.MessageTypeText,
	}
	inbox := append([]contractx.InboxMessage{message}, user.Inbox...)

	encoded, err := contractx.ToRecord(struct {
		Inbox []contractx.InboxMessage `json:"inbox"`
	}{Inbox: inbox})
	if err != nil {
		return "", err
	}
	if err := r.applyUserUpdates(ctx, userID, encoded); err != nil {
		return "", err
	}
	return fmt.Sprintf("Message delivered to user %s.", userID), nil
}
