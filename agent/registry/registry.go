// Package registry maps operation names to executable administrative
// handlers. Every handler re-reads the affected record, applies its change,
// and writes the record back whole; there is no partial-field write primitive
// and no cross-call caching.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	catalogx "github.com/tanakrit/eduadmin-agent/agent/catalog"
	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

const (
	collectionUsers  = "users"
	collectionAILogs = "ai_logs"

	pathSettings = "settings"
	pathUsers    = "users"

	defaultActor    = "ai-agent"
	defaultLogLimit = 20
)

type Registry struct {
	docs contractx.DocumentStore
	live contractx.LiveStore

	actor string
	now   func() time.Time
	newID func() string
}

var _ contractx.Dispatcher = (*Registry)(nil)

// Option customizes a Registry.
type Option func(*Registry)

// WithActor sets the identifier stamped into administrative grants.
func WithActor(actor string) Option {
	return func(r *Registry) {
		if actor != "" {
			r.actor = actor
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides the record ID source.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		if newID != nil {
			r.newID = newID
		}
	}
}

func New(docs contractx.DocumentStore, live contractx.LiveStore, opts ...Option) (*Registry, error) {
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if live == nil {
		return nil, errors.New("live store is required")
	}

	r := &Registry{
		docs:  docs,
		live:  live,
		actor: defaultActor,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Dispatch resolves name against the catalog, validates args against the
// descriptor, and runs the handler. Validation completes before any store
// access, so an invalid call never has a side effect. Handler errors come
// back wrapped with the operation name.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	desc, ok := catalogx.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", contractx.ErrUnknownOperation, name)
	}
	if err := desc.Validate(args); err != nil {
		return "", err
	}

	result, err := r.execute(ctx, name, args)
	if err != nil {
		log.Warn().Str("operation", name).Err(err).Msg("operation failed")
		return "", fmt.Errorf("%s: %w", name, err)
	}

	log.Info().Str("operation", name).Msg("operation completed")
	return result, nil
}

func (r *Registry) execute(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case catalogx.OpDeleteUser:
		return r.deleteUser(ctx, args)
	case catalogx.OpUpdateUser:
		return r.updateUser(ctx, args)
	case catalogx.OpBanUser:
		return r.banUser(ctx, args)
	case catalogx.OpUnbanUser:
		return r.unbanUser(ctx, args)
	case catalogx.OpGrantSubscription:
		return r.grantSubscription(ctx, args)
	case catalogx.OpBroadcastMessage:
		return r.broadcastMessage(ctx, args)
	case catalogx.OpSendInboxMessage:
		return r.sendInboxMessage(ctx, args)
	case catalogx.OpCreateWeeklyTest:
		return r.createWeeklyTest(ctx, args)
	case catalogx.OpScanUsers:
		return r.scanUsers(ctx, args)
	case catalogx.OpGetRecentLogs:
		return r.getRecentLogs(ctx, args)
	case catalogx.OpUpdateSystemSettings:
		return r.updateSystemSettings(ctx, args)
	default:
		return "", fmt.Errorf("%w: %s", contractx.ErrUnknownOperation, name)
	}
}

func userPath(userID string) string {
	return pathUsers + "/" + userID
}
