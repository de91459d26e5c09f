package macrotine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zonecraft/macrotine/internal/compare"
	"github.com/zonecraft/macrotine/internal/config"
	"github.com/zonecraft/macrotine/internal/index"
	"github.com/zonecraft/macrotine/internal/provider"
	"github.com/zonecraft/macrotine/internal/reconcile"
	"github.com/zonecraft/macrotine/internal/resource"
	"github.com/zonecraft/macrotine/internal/statestore"
	"github.com/zonecraft/macrotine/internal/tinydns"
)

// AppVersion is stamped into every State this build writes.
const AppVersion = "0.1.0"

// AdoptOrphans selects the policy for records that exist in the provider but
// are absent from both state and local.
type AdoptOrphans string

const (
	// AdoptIgnore leaves out-of-band records untouched. This is the
	// historical default.
	AdoptIgnore AdoptOrphans = "ignore"
	// AdoptDelete additionally flags out-of-band records for deletion.
	AdoptDelete AdoptOrphans = "delete"
)

// Engine wires together the parser, canonicalizer, index, comparator and
// driver for a single run against one input and one configuration.
type Engine struct {
	Config       *config.Config
	Provider     provider.Client
	StateStore   statestore.Store
	AdoptOrphans AdoptOrphans
	Log          *logrus.Logger
}

// LoadLocal parses input (a file or directory of .tiny fragments) and
// canonicalizes it into a ResourceMap bound to e.Config's zone table.
func (e *Engine) LoadLocal(input string, isDir bool) (index.ResourceMap, []string, error) {
	var result *tinydns.Result
	var err error
	if isDir {
		result, err = tinydns.ParseDir(input, e.Log)
	} else {
		result, err = tinydns.ParseFile(input, e.Log)
	}
	if err != nil {
		var warnings []string
		if result != nil {
			warnings = result.Warnings
		}
		return nil, warnings, err
	}

	resources := resource.FromTinyRecords(result.Records, e.Config.ZoneTable(), e.Log)
	local, idxErr := index.Build(resources, e.Log)
	if idxErr != nil {
		return nil, result.Warnings, idxErr
	}
	return local, result.Warnings, nil
}

// LoadRemote lists every configured zone from the provider concurrently and
// merges the results into a single ResourceMap.
func (e *Engine) LoadRemote(ctx context.Context) (index.ResourceMap, error) {
	zones := e.Config.ZoneTable()
	perZone := make([][]resource.Resource, len(zones))

	g, gctx := errgroup.WithContext(ctx)
	for i, z := range zones {
		i, z := i, z
		g.Go(func() error {
			recs, err := e.Provider.List(gctx, z.ID)
			if err != nil {
				return err
			}
			perZone[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []resource.Resource
	for _, recs := range perZone {
		all = append(all, recs...)
	}
	return index.Build(all, e.Log)
}

// Diff runs the full three-way comparison: reconcile state against remote,
// then diff local against the corrected state, then absorb new-vs-remote
// collisions. It does not mutate state or touch the provider; Plan/Apply
// (package reconcile) do the actual work.
func (e *Engine) Diff(local, state, remote index.ResourceMap) (newRes, updated, deleted index.ResourceMap, warnings []string) {
	reconciled, w1 := compare.ReconcileStateWithRemote(state, remote, e.Log)
	if e.AdoptOrphans == AdoptDelete {
		reconciled = compare.AdoptOrphans(reconciled, local, remote)
	}

	n, u, d := compare.DiffLocalAgainstState(local, reconciled)
	n, u, w2 := compare.AbsorbNewAgainstRemote(n, u, remote, e.Log)

	warnings = append(warnings, w1...)
	warnings = append(warnings, w2...)
	return n, u, d, warnings
}

// Execute runs Diff, submits the resulting plan, and on overall success
// persists local as the new state.
func (e *Engine) Execute(ctx context.Context, local, state, remote index.ResourceMap, stateVersion string) ([]reconcile.ZoneResult, error) {
	newRes, updated, deleted, _ := e.Diff(local, state, remote)

	plan := reconcile.Plan(newRes, updated, deleted)
	results := reconcile.Apply(ctx, e.Provider, plan, e.Log)
	if !reconcile.Succeeded(results) {
		return results, fmt.Errorf("one or more zones failed to apply")
	}

	if _, err := reconcile.SaveState(e.StateStore, stateVersion, AppVersion, local, uint64(time.Now().Unix())); err != nil {
		return results, err
	}
	return results, nil
}
