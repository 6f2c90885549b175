package registry

import (
	"context"
	"encoding/json"
	"fmt"

	catalogx "github.com/tanakrit/eduadmin-agent/agent/catalog"
	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

func (r *Registry) getRecentLogs(ctx context.Context, args map[string]any) (string, error) {
	limit := catalogx.IntArg(args, "limit", defaultLogLimit)

	entries, err := r.RecentLogs(ctx, limit)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode logs: %w", err)
	}
	return string(payload), nil
}

// RecentLogs reads the newest AI interaction records, ordered by creation
// time descending, bounded to limit.
func (r *Registry) RecentLogs(ctx context.Context, limit int) ([]contractx.AILogEntry, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}

	records, err := r.docs.QueryDocuments(ctx, collectionAILogs, "createdAt", limit)
	if err != nil {
		return nil, err
	}

	entries := make([]contractx.AILogEntry, 0, len(records))
	for _, record := range records {
		var entry contractx.AILogEntry
		if err := contractx.FromRecord(record, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
