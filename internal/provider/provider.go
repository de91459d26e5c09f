// Package provider defines the narrow interface the reconciler uses to talk
// to a hosted DNS provider. It is modeled after libdns's RecordGetter /
// RecordAppender style interfaces: small, context-first, and safe for
// concurrent use by contract.
package provider

import (
	"context"

	"github.com/zonecraft/macrotine/internal/resource"
)

// Action is what the driver wants done with a Resource.
type Action string

const (
	Create Action = "CREATE"
	Upsert Action = "UPSERT"
	Delete Action = "DELETE"
)

// Change pairs an Action with the Resource it applies to.
type Change struct {
	Action   Action
	Resource resource.Resource
}

// Client lists and mutates records in a hosted DNS provider. Implementations
// must honor context cancellation and must be safe for concurrent use
// across different zone IDs; per-zone ordering within a single Apply call
// is the caller's responsibility to preserve, not the implementation's.
type Client interface {
	// List returns every record in zoneID, paginating internally until the
	// provider's truncation cursor is exhausted. Owner names are returned
	// with any trailing dot stripped and TTL defaulted to 300 when absent.
	List(ctx context.Context, zoneID string) ([]resource.Resource, error)

	// Apply submits a batch of at most 100 mixed-action changes against a
	// single zone, applied atomically where the provider permits. It
	// returns an opaque batch id on success.
	Apply(ctx context.Context, zoneID string, batch []Change) (string, error)
}

// MaxBatchSize is the largest batch Apply may be called with; callers are
// responsible for chunking larger change sets.
const MaxBatchSize = 100

// CredentialPrecheck is an optional hook a Client implementation can expose
// so the CLI can fail fast with a clear message before attempting any
// network call (e.g. verifying AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY are
// set for a Route53-backed client).
type CredentialPrecheck interface {
	PrecheckCredentials() error
}
