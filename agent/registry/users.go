package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/tanakrit/eduadmin-agent/agent/catalog"
	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

// userUpdatableFields is the allow-list for agent-supplied updateUser patches.
var userUpdatableFields = map[string]bool{
	"name":                true,
	"email":               true,
	"role":                true,
	"credits":             true,
	"isPremium":           true,
	"subscriptionTier":    true,
	"subscriptionLevel":   true,
	"subscriptionEndDate": true,
	"isGranted":           true,
	"isLocked":            true,
	"dailyAiCount":        true,
	"dailyAiDate":         true,
	"lastActiveTime":      true,
}

// deleteUser removes the durable record and the live record. Best effort:
// both deletions are attempted even when the first fails.
func (r *Registry) deleteUser(ctx context.Context, args map[string]any) (string, error) {
	userID := args["userId"].(string)

	docErr := r.docs.DeleteDocument(ctx, collectionUsers, userID)
	liveErr := r.live.RemoveLiveValue(ctx, userPath(userID))
	if docErr != nil || liveErr != nil {
		return "", errors.Join(docErr, liveErr)
	}
	return fmt.Sprintf("User %s deleted from both stores.", userID), nil
}

func (r *Registry) updateUser(ctx context.Context, args map[string]any) (string, error) {
	userID := args["userId"].(string)
	updates := args["updates"].(map[string]any)

	fields := make([]string, 0, len(updates))
	for field := range updates {
		if !userUpdatableFields[field] {
			return "", fmt.Errorf("%w: field %q is not updatable", contractx.ErrInvalidArguments, field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	if err := r.applyUserUpdates(ctx, userID, updates); err != nil {
		return "", err
	}
	return fmt.Sprintf("User %s updated: %s.", userID, strings.Join(fields, ", ")), nil
}

func (r *Registry) banUser(ctx context.Context, args map[string]any) (string, error) {
	userID := args["userId"].(string)
	if reason, ok := args["reason"].(string); ok && reason != "" {
		log.Info().Str("userId", userID).Str("reason", reason).Msg("banning user")
	}

	if err := r.applyUserUpdates(ctx, userID, map[string]any{"isLocked": true}); err != nil {
		return "", err
	}
	return fmt.Sprintf("User %s banned.", userID), nil
}

func (r *Registry) unbanUser(ctx context.Context, args map[string]any) (string, error) {
	userID := args["userId"].(string)

	if err := r.applyUserUpdates(ctx, userID, map[string]any{"isLocked": false}); err != nil {
		return "", err
	}
	return fmt.Sprintf("User %s unbanned.", userID), nil
}

// applyUserUpdates is the shared mutation path: shallow-merge over the live
// record and write it back whole. Callers have already validated the patch.
func (r *Registry) applyUserUpdates(ctx context.Context, userID string, updates map[string]any) error {
	return r.live.UpdateLiveValue(ctx, userPath(userID), updates)
}

func (r *Registry) scanUsers(ctx context.Context, args map[string]any) (string, error) {
	filter := contractx.ScanFilter(catalogx.StringArg(args, "filter", string(contractx.ScanAll)))

	summaries, err := r.ScanUsers(ctx, filter)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("encode summaries: %w", err)
	}
	return string(payload), nil
}

// ScanUsers reads every live user record, applies the filter predicate, and
// projects matches to the redacted summary shape. Full records never leave
// the registry on this path.
func (r *Registry) ScanUsers(ctx context.Context, filter contractx.ScanFilter) ([]contractx.UserSummary, error) {
	branch, err := r.live.GetLiveValue(ctx, pathUsers)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return []contractx.UserSummary{}, nil
		}
		return nil, err
	}

	cutoff := r.now().UTC().AddDate(0, -1, 0)
	summaries := make([]contractx.UserSummary, 0, len(branch))
	for id, raw := range branch {
		record, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var user contractx.User
		if err := contractx.FromRecord(record, &user); err != nil {
			return nil, fmt.Errorf("user %s: %w", id, err)
		}
		if user.ID == "" {
			user.ID = id
		}

		switch filter {
		case contractx.ScanPremium:
			if !user.IsPremium {
				continue
			}
		case contractx.ScanFree:
			if user.IsPremium {
				continue
			}
		case contractx.ScanInactive:
			if user.LastActiveTime != nil && !user.LastActiveTime.Before(cutoff) {
				continue
			}
		}

		summaries = append(summaries, contractx.UserSummary{
			ID:      user.ID,
			Name:    user.Name,
			Email:   user.Email,
			Role:    user.Role,
			Credits: user.Credits,
			Tier:    user.SubscriptionTier,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}
