// Package tinydns decodes the tinydns flat-file dialect into canonical DNS
// resource records. Each directive prefix expands to one or more TinyRecords;
// see ParseLine for the prefix table.
package tinydns

import "strings"

// RType enumerates the record types this decoder ever emits.
type RType string

const (
	A     RType = "A"
	PTR   RType = "PTR"
	CNAME RType = "CNAME"
	TXT   RType = "TXT"
	MX    RType = "MX"
	SOA   RType = "SOA"
	NS    RType = "NS"
)

// DefaultTTL is used whenever a directive omits its trailing TTL field.
const DefaultTTL int32 = 300

// TinyRecord is the parser's unit of output: one per DNS record, not one per
// input line (several directives expand to more than one record).
type TinyRecord struct {
	RType  RType
	FQDN   string
	Target string
	TTL    int32
}

// Equal compares two records ignoring TTL, per the decoder's equality rule.
func (r TinyRecord) Equal(o TinyRecord) bool {
	return r.RType == o.RType && r.FQDN == o.FQDN && r.Target == o.Target
}

// Less orders records lexicographically by FQDN, breaking ties on rtype and
// target so sorting is deterministic for dedup.
func Less(a, b TinyRecord) bool {
	if a.FQDN != b.FQDN {
		return a.FQDN < b.FQDN
	}
	if a.RType != b.RType {
		return a.RType < b.RType
	}
	return a.Target < b.Target
}

func dupKey(r TinyRecord) string {
	var b strings.Builder
	b.WriteString(string(r.RType))
	b.WriteByte('\x00')
	b.WriteString(r.FQDN)
	b.WriteByte('\x00')
	b.WriteString(r.Target)
	return b.String()
}
