package resource

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zonecraft/macrotine/internal/tinydns"
)

// Resource is a canonicalized DNS record bound to a provider zone.
type Resource struct {
	ZoneID string
	Name   string
	RType  tinydns.RType
	Values []string
	TTL    int64
}

// Key derives the ResourceMap key for a Resource: lower("{rtype}-{name}")
// with any trailing dot stripped and remaining dots replaced by hyphens.
func Key(rtype tinydns.RType, name string) string {
	name = strings.TrimSuffix(name, ".")
	name = strings.ReplaceAll(name, ".", "-")
	return strings.ToLower(string(rtype) + "-" + name)
}

// Key returns this Resource's ResourceMap key.
func (r Resource) Key() string { return Key(r.RType, r.Name) }

// Equal compares two Resources for value equality: zone, name, rtype, ttl
// and the sorted Values must all coincide (order-insensitive).
func (r Resource) Equal(o Resource) bool {
	if r.ZoneID != o.ZoneID || r.Name != o.Name || r.RType != o.RType || r.TTL != o.TTL {
		return false
	}
	return sortedEqual(r.Values, o.Values)
}

func sortedEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// Merge concatenates other's Values onto r's, per the merge rule: type
// must already match (enforced by the caller), duplicates are tolerated.
func (r *Resource) Merge(other Resource) bool {
	if r.RType != other.RType {
		return false
	}
	r.Values = append(append([]string(nil), r.Values...), other.Values...)
	return true
}

// FromTinyRecords canonicalizes a sequence of TinyRecords against a
// ZoneTable: each record is attached to the longest-matching zone and
// converted to a single-value Resource. Records with no matching zone are
// dropped with a warning, not a hard error.
func FromTinyRecords(recs []tinydns.TinyRecord, zones ZoneTable, log *logrus.Logger) []Resource {
	out := make([]Resource, 0, len(recs))
	for _, r := range recs {
		z, ok := zones.Match(r.FQDN)
		if !ok {
			if log != nil {
				log.Warnf("no zone match for %s (%s), dropping record", r.FQDN, r.RType)
			}
			continue
		}
		out = append(out, Resource{
			ZoneID: z.ID,
			Name:   strings.TrimSuffix(r.FQDN, "."),
			RType:  r.RType,
			Values: []string{r.Target},
			TTL:    int64(r.TTL),
		})
	}
	return out
}
