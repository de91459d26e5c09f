// Package reconcile implements the driver: it flattens the comparator's
// change sets into per-zone batches, submits them to a provider.Client, and
// persists the new state on overall success.
package reconcile

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zonecraft/macrotine/internal/index"
	"github.com/zonecraft/macrotine/internal/provider"
	"github.com/zonecraft/macrotine/internal/statestore"
)

// ZoneResult reports what happened submitting one zone's changes.
type ZoneResult struct {
	ZoneID    string
	Submitted int
	Err       error
}

// Plan flattens the three change sets into per-zone batches of at most
// provider.MaxBatchSize. Order is unspecified across zones; within a zone,
// batches are built and submitted in the order accumulated here.
func Plan(newRes, updated, deleted index.ResourceMap) map[string][][]provider.Change {
	byZone := make(map[string][]provider.Change)

	appendAll := func(m index.ResourceMap, action provider.Action) {
		for _, rec := range m {
			byZone[rec.ZoneID] = append(byZone[rec.ZoneID], provider.Change{Action: action, Resource: rec})
		}
	}
	appendAll(newRes, provider.Create)
	appendAll(updated, provider.Upsert)
	appendAll(deleted, provider.Delete)

	out := make(map[string][][]provider.Change, len(byZone))
	for zone, changes := range byZone {
		out[zone] = chunk(changes, provider.MaxBatchSize)
	}
	return out
}

func chunk(changes []provider.Change, size int) [][]provider.Change {
	var out [][]provider.Change
	for len(changes) > 0 {
		n := size
		if n > len(changes) {
			n = len(changes)
		}
		out = append(out, changes[:n])
		changes = changes[n:]
	}
	return out
}

// Apply submits every zone's batches concurrently (one goroutine per zone);
// within a zone, batches are submitted serially and stop at the first
// error, so a failure in one zone never blocks progress in the others. It
// returns per-zone results; overall success is the caller's job to derive
// (all ZoneResult.Err == nil).
func Apply(ctx context.Context, client provider.Client, plan map[string][][]provider.Change, log *logrus.Logger) []ZoneResult {
	results := make([]ZoneResult, len(plan))
	zones := make([]string, 0, len(plan))
	for z := range plan {
		zones = append(zones, z)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, zone := range zones {
		i, zone := i, zone
		g.Go(func() error {
			results[i] = applyZone(gctx, client, zone, plan[zone], log)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func applyZone(ctx context.Context, client provider.Client, zoneID string, batches [][]provider.Change, log *logrus.Logger) ZoneResult {
	submitted := 0
	for _, batch := range batches {
		if _, err := client.Apply(ctx, zoneID, batch); err != nil {
			if log != nil {
				log.Errorf("zone %s: batch failed after %d records submitted: %v", zoneID, submitted, err)
			}
			return ZoneResult{ZoneID: zoneID, Submitted: submitted, Err: err}
		}
		submitted += len(batch)
	}
	return ZoneResult{ZoneID: zoneID, Submitted: submitted}
}

// Succeeded reports whether every zone in results applied cleanly.
func Succeeded(results []ZoneResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// SaveState persists local verbatim as the new state: writing the desired
// map rather than patching the prior state is simpler and idempotent, since
// the post-apply remote should equal local by construction.
func SaveState(store statestore.Store, expectedVersion string, appVersion string, local index.ResourceMap, nowUnix uint64) (string, error) {
	st := statestore.State{
		Version:    statestore.FormatVersion,
		AppVersion: appVersion,
		Serial:     nowUnix,
		Records:    local,
	}
	version, err := store.Save(st, expectedVersion)
	if err != nil {
		return "", err
	}
	return version, nil
}
