package contract

import "context"

// DocumentStore is the durable per-entity collection surface (users mirror,
// AI interaction logs). Records cross the boundary as JSON-shaped maps.
type DocumentStore interface {
	GetDocument(ctx context.Context, collection, id string) (map[string]any, error)
	SetDocument(ctx context.Context, collection, id string, rec map[string]any) error
	DeleteDocument(ctx context.Context, collection, id string) error
	QueryDocuments(ctx context.Context, collection, orderBy string, limit int) ([]map[string]any, error)
}

// LiveStore is the realtime key/value tree holding frequently-mutated state:
// live user snapshots under "users/<id>" and the settings singleton under
// "settings". Get on a branch path returns the assembled subtree.
type LiveStore interface {
	GetLiveValue(ctx context.Context, path string) (map[string]any, error)
	SetLiveValue(ctx context.Context, path string, value map[string]any) error
	UpdateLiveValue(ctx context.Context, path string, patch map[string]any) error
	RemoveLiveValue(ctx context.Context, path string) error
}

// Dispatcher resolves an operation name plus arguments to a handler
// invocation. The returned string is the handler's confirmation message.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (string, error)
}
