package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	catalogx "github.com/tanakrit/eduadmin-agent/agent/catalog"
	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

// settingsUpdatableFields is the allow-list for agent-supplied settings
// patches.
var settingsUpdatableFields = map[string]bool{
	"notice":        true,
	"aiLimits":      true,
	"aiEnabled":     true,
	"weeklyTests":   true,
	"theme":         true,
	"maintenanceOn": true,
}

func (r *Registry) updateSystemSettings(ctx context.Context, args map[string]any) (string, error) {
	updates := args["updates"].(map[string]any)

	fields := make([]string, 0, len(updates))
	for field := range updates {
		if !settingsUpdatableFields[field] {
			return "", fmt.Errorf("%w: field %q is not updatable", contractx.ErrInvalidArguments, field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	settings, err := r.live.GetLiveValue(ctx, pathSettings)
	if err != nil {
		return "", err
	}
	for field, value := range updates {
		settings[field] = value
	}
	if err := r.live.SetLiveValue(ctx, pathSettings, settings); err != nil {
		return "", err
	}
	return fmt.Sprintf("System settings updated: %s.", strings.Join(fields, ", ")), nil
}

// createWeeklyTest appends an empty-bodied test to the settings singleton.
// Question population is an editor concern, not the registry's.
func (r *Registry) createWeeklyTest(ctx context.Context, args map[string]any) (string, error) {
	name := args["name"].(string)
	subject := args["subject"].(string)
	questionCount := catalogx.IntArg(args, "questionCount", 0)

	record, err := r.live.GetLiveValue(ctx, pathSettings)
	if err != nil {
		return "", err
	}
	var settings contractx.SystemSettings
	if err := contractx.FromRecord(record, &settings); err != nil {
		return "", err
	}

	test := contractx.WeeklyTest{
		ID:           r.newID(),
		Name:         name,
		Description:  fmt.Sprintf("Weekly %s test", subject),
		IsActive:     false,
		Questions:    []any{},
		TotalScore:   questionCount,
		PassingScore: questionCount / 2,
		CreatedAt:    r.now().UTC(),
		Subjects:     []string{subject},
	}
	settings.WeeklyTests = append(settings.WeeklyTests, test)

	updated, err := contractx.ToRecord(settings)
	if err != nil {
		return "", err
	}
	if err := r.live.SetLiveValue(ctx, pathSettings, updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("Weekly test %q created with %d planned questions.", name, questionCount), nil
}
