package registry

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

// grantSubscription prepends an administrative, zero-cost history entry and
// updates the user's current subscription fields in one whole-record write.
func (r *Registry) grantSubscription(ctx context.Context, args map[string]any) (string, error) {
	userID := args["userId"].(string)
	plan := contractx.Plan(args["plan"].(string))
	level := contractx.Level(args["level"].(string))

	record, err := r.live.GetLiveValue(ctx, userPath(userID))
	if err != nil {
		return "", err
	}
	var user contractx.User
	if err := contractx.FromRecord(record, &user); err != nil {
		return "", err
	}

	now := r.now().UTC()
	endDate := planEndDate(plan, now)

	entry := contractx.SubscriptionHistoryEntry{
		ID:          r.newID(),
		Tier:        string(plan),
		Level:       string(level),
		StartDate:   now,
		EndDate:     endDate,
		Price:       0,
		PaidAmount:  0,
		IsFree:      true,
		GrantSource: contractx.GrantSourceAdmin,
		GrantedBy:   r.actor,
	}

	user.SubscriptionHistory = append([]contractx.SubscriptionHistoryEntry{entry}, user.SubscriptionHistory...)
	user.SubscriptionTier = string(plan)
	user.SubscriptionLevel = string(level)
	user.SubscriptionEndDate = endDate
	user.IsPremium = true
	user.IsGranted = true

	updated, err := contractx.ToRecord(user)
	if err != nil {
		return "", err
	}
	if err := r.live.SetLiveValue(ctx, userPath(userID), updated); err != nil {
		return "", err
	}

	if plan == contractx.PlanLifetime {
		return fmt.Sprintf("Granted lifetime %s subscription to user %s.", level, userID), nil
	}
	return fmt.Sprintf("Granted %s %s subscription to user %s until %s.",
		plan, level, userID, endDate.Format("2006-01-02")), nil
}

// planEndDate computes the subscription end relative to now. Lifetime plans
// have no end date.
func planEndDate(plan contractx.Plan, now time.Time) *time.Time {
	var days int
	switch plan {
	case contractx.PlanWeekly:
		days = 7
	case contractx.PlanMonthly:
		days = 30
	case contractx.PlanYearly:
		days = 365
	default:
		return nil
	}
	end := now.AddDate(0, 0, days)
	return &end
}
