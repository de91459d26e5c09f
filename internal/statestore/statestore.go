// Package statestore defines the durable snapshot used to reconcile a run's
// desired state against what was last pushed to the provider, plus its JSON
// wire format.
package statestore

import (
	"encoding/json"

	"github.com/zonecraft/macrotine/internal/index"
	"github.com/zonecraft/macrotine/internal/resource"
	"github.com/zonecraft/macrotine/internal/tinydns"
)

// FormatVersion is the only state file format this implementation writes.
const FormatVersion uint32 = 1

// State is a durable snapshot: the last-known set of records this tool
// installed, plus bookkeeping to detect format drift between releases.
type State struct {
	Version    uint32             `json:"version"`
	AppVersion string             `json:"appversion"`
	Serial     uint64             `json:"serial"`
	Records    index.ResourceMap  `json:"-"`
}

// wireResource is the JSON shape of a single Resource entry inside a State's
// records map: "records" (not "values") holds the rdata array, for wire
// compatibility with the tool's historical state files.
type wireResource struct {
	ZoneID  string   `json:"zone_id"`
	Name    string   `json:"name"`
	RType   string   `json:"rtype"`
	Records []string `json:"records"`
	TTL     int64    `json:"ttl"`
}

type wireState struct {
	Version    uint32                  `json:"version"`
	AppVersion string                  `json:"appversion"`
	Serial     uint64                  `json:"serial"`
	Records    map[string]wireResource `json:"records"`
}

// MarshalJSON implements the records map's wire encoding described above.
func (s State) MarshalJSON() ([]byte, error) {
	w := wireState{
		Version:    s.Version,
		AppVersion: s.AppVersion,
		Serial:     s.Serial,
		Records:    make(map[string]wireResource, len(s.Records)),
	}
	for k, r := range s.Records {
		w.Records[k] = wireResource{
			ZoneID:  r.ZoneID,
			Name:    r.Name,
			RType:   string(r.RType),
			Records: r.Values,
			TTL:     r.TTL,
		}
	}
	return json.MarshalIndent(w, "", "  ")
}

// UnmarshalJSON decodes the wire format back into a State.
func (s *State) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Version = w.Version
	s.AppVersion = w.AppVersion
	s.Serial = w.Serial
	s.Records = make(index.ResourceMap, len(w.Records))
	for k, r := range w.Records {
		s.Records[k] = resource.Resource{
			ZoneID: r.ZoneID,
			Name:   r.Name,
			RType:  tinydns.RType(r.RType),
			Values: r.Records,
			TTL:    r.TTL,
		}
	}
	return nil
}

// Empty builds a fresh State, used when StateStore.Load reports NotFound.
func Empty(appVersion string) State {
	return State{Version: FormatVersion, AppVersion: appVersion, Records: make(index.ResourceMap)}
}

// ErrNotFound is returned by Load when no state object exists yet; it is not
// treated as an error by callers, who fall back to Empty.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "state not found" }

// Store loads and saves a State, with optimistic concurrency: Save takes the
// version token observed by the most recent Load and fails with a
// *macrotine.ConflictError if the backing object has changed since.
type Store interface {
	// Load returns the current state and an opaque version token for
	// compare-and-set on Save. ErrNotFound (via errors.Is) means no state
	// exists yet; callers should treat it as Empty(...), not a failure.
	Load() (State, string, error)

	// Save persists state, succeeding only if the backing object's current
	// version token still matches expectedVersion (empty string means "must
	// not exist yet"). Returns the new version token on success.
	Save(state State, expectedVersion string) (string, error)
}
