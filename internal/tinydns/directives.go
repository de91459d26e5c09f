package tinydns

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/zonecraft/macrotine/internal/macrotine"
)

// parseTTLField parses a colon-separated data field into a TTL, defaulting to
// DefaultTTL when absent or unparseable. Trailing fields beyond TTL
// (timestamp, location) are ignored if present.
func parseTTLField(parts []string) int32 {
	if len(parts) == 0 {
		return DefaultTTL
	}
	v, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return DefaultTTL
	}
	return int32(v)
}

func mustIPv4(s string) error {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("not a dotted-quad IPv4 address: %q", s)
	}
	return nil
}

// reverseArpa builds the in-addr.arpa owner name for an IPv4 address.
func reverseArpa(ip string) string {
	octets := strings.Split(ip, ".")
	for i, j := 0, len(octets)-1; i < j; i, j = i+1, j-1 {
		octets[i], octets[j] = octets[j], octets[i]
	}
	return strings.Join(octets, ".") + ".in-addr.arpa"
}

// helperFQDN implements the "if x contains a dot, use it verbatim; otherwise
// synthesize x.suffix.fqdn" rule shared by MX, '.' and '&' directives.
func helperFQDN(x, suffix, fqdn string) string {
	if strings.Contains(x, ".") {
		return x
	}
	return fmt.Sprintf("%s.%s.%s", x, suffix, fqdn)
}

// parseSimple handles the '+' (A), '^' (PTR) and 'C' (CNAME) directives,
// which all share the same "fqdn:target:ttl" shape.
func parseSimple(rtype RType, data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return nil, &macrotine.ParseError{Line: data, Reason: fmt.Sprintf("%s record requires fqdn and target", rtype)}
	}
	fqdn, target := parts[0], parts[1]
	rest := parts[2:]

	if rtype == A {
		if err := mustIPv4(target); err != nil {
			return nil, &macrotine.ParseError{Line: data, Reason: err.Error()}
		}
	}

	return []TinyRecord{{RType: rtype, FQDN: fqdn, Target: target, TTL: parseTTLField(rest)}}, nil
}

// parseTXT handles the '\'' directive. The target is quoted and may contain
// colons inside the quotes; those fragments are rejoined before unquoting.
func parseTXT(data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return nil, &macrotine.ParseError{Line: data, Reason: "TXT record requires fqdn and quoted text"}
	}
	fqdn := parts[0]
	parts = parts[1:]

	rec := parts[0]
	parts = parts[1:]
	if !strings.HasPrefix(rec, `"`) {
		return nil, &macrotine.ParseError{Line: data, Reason: "TXT record missing opening quote"}
	}
	for !strings.HasSuffix(rec, `"`) {
		if len(parts) == 0 {
			return nil, &macrotine.ParseError{Line: data, Reason: "TXT record missing closing quote"}
		}
		rec = rec + ":" + parts[0]
		parts = parts[1:]
	}
	target := strings.Trim(rec, `"`)
	if target == "" {
		return nil, &macrotine.ParseError{Line: data, Reason: "TXT record has empty rdata"}
	}

	return []TinyRecord{{RType: TXT, FQDN: fqdn, Target: target, TTL: parseTTLField(parts)}}, nil
}

// parseMX handles the '@' directive: one MX record plus one A record for the
// mail exchanger helper host.
// @fqdn:ip:x:dist:ttl
func parseMX(data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil, &macrotine.ParseError{Line: data, Reason: "MX record requires fqdn, ip and x"}
	}
	fqdn, ip, x := parts[0], parts[1], parts[2]
	rest := parts[3:]

	if err := mustIPv4(ip); err != nil {
		return nil, &macrotine.ParseError{Line: data, Reason: err.Error()}
	}

	mxFQDN := helperFQDN(x, "mx", fqdn)

	var dist int64
	var ttl int32 = DefaultTTL
	switch len(rest) {
	case 0:
	case 1:
		dist, _ = strconv.ParseInt(rest[0], 10, 32)
	default:
		dist, _ = strconv.ParseInt(rest[0], 10, 32)
		if v, err := strconv.ParseInt(rest[1], 10, 32); err == nil {
			ttl = int32(v)
		}
	}

	mx := TinyRecord{RType: MX, FQDN: fqdn, Target: fmt.Sprintf("%d %s", dist, mxFQDN), TTL: ttl}
	a := TinyRecord{RType: A, FQDN: mxFQDN, Target: ip, TTL: ttl}
	return []TinyRecord{mx, a}, nil
}

// soaDefaults fills unspecified trailing SOA fields left-to-right; fields
// beyond what was supplied take the documented defaults.
func soaDefaults(rest []string) (serial uint64, refresh, retry, expire, min uint32, ttl int32) {
	refresh, retry, expire, min, ttl = 16384, 2048, 1048576, 2560, DefaultTTL
	serial = uint64(time.Now().Unix())

	if len(rest) > 0 {
		if v, err := strconv.ParseUint(rest[0], 10, 64); err == nil {
			serial = v
		}
	}
	if len(rest) > 1 {
		if v, err := strconv.ParseUint(rest[1], 10, 32); err == nil {
			refresh = uint32(v)
		}
	}
	if len(rest) > 2 {
		if v, err := strconv.ParseUint(rest[2], 10, 32); err == nil {
			retry = uint32(v)
		}
	}
	if len(rest) > 3 {
		if v, err := strconv.ParseUint(rest[3], 10, 32); err == nil {
			expire = uint32(v)
		}
	}
	if len(rest) > 4 {
		if v, err := strconv.ParseUint(rest[4], 10, 32); err == nil {
			min = uint32(v)
		}
	}
	if len(rest) > 5 {
		if v, err := strconv.ParseInt(rest[5], 10, 32); err == nil {
			ttl = int32(v)
		}
	}
	return
}

// parseSOA handles the 'Z' directive.
// Zfqdn:ns:contact:serial:refresh:retry:expire:min:ttl
func parseSOA(data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil, &macrotine.ParseError{Line: data, Reason: "SOA record requires fqdn, ns and contact"}
	}
	fqdn, ns, contact := parts[0], parts[1], parts[2]
	serial, refresh, retry, expire, min, ttl := soaDefaults(parts[3:])

	target := fmt.Sprintf("%s %s %d %d %d %d %d", ns, contact, serial, refresh, retry, expire, min)
	return []TinyRecord{{RType: SOA, FQDN: fqdn, Target: target, TTL: ttl}}, nil
}

// parseANSSOA handles the '.' directive: NS + (A if ip present) + SOA.
// .fqdn:ip:x:ttl
func parseANSSOA(data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil, &macrotine.ParseError{Line: data, Reason: "A/NS/SOA record requires fqdn, ip and x"}
	}
	fqdn, ip, x := parts[0], parts[1], parts[2]
	rest := parts[3:]

	if ip != "" {
		if err := mustIPv4(ip); err != nil {
			return nil, &macrotine.ParseError{Line: data, Reason: err.Error()}
		}
	}
	ttl := parseTTLField(rest)
	nsFQDN := helperFQDN(x, "ns", fqdn)

	out := []TinyRecord{{RType: NS, FQDN: nsFQDN, Target: fqdn, TTL: ttl}}
	if ip != "" {
		out = append(out, TinyRecord{RType: A, FQDN: nsFQDN, Target: ip, TTL: ttl})
	}
	soaTarget := fmt.Sprintf("%s hostmaster.%s 1 1 1 1 60", nsFQDN, fqdn)
	out = append(out, TinyRecord{RType: SOA, FQDN: fqdn, Target: soaTarget, TTL: ttl})
	return out, nil
}

// parseANS handles the '&' directive: NS + A for a non-authoritative NS.
// &fqdn:ip:x:ttl
func parseANS(data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil, &macrotine.ParseError{Line: data, Reason: "A/NS record requires fqdn, ip and x"}
	}
	fqdn, ip, x := parts[0], parts[1], parts[2]
	rest := parts[3:]

	if err := mustIPv4(ip); err != nil {
		return nil, &macrotine.ParseError{Line: data, Reason: err.Error()}
	}
	ttl := parseTTLField(rest)
	nsFQDN := helperFQDN(x, "ns", fqdn)

	return []TinyRecord{
		{RType: NS, FQDN: nsFQDN, Target: fqdn, TTL: ttl},
		{RType: A, FQDN: nsFQDN, Target: ip, TTL: ttl},
	}, nil
}

// parseAPTR handles the '=' directive: A + synthesized reverse PTR.
// =fqdn:ip:ttl
func parseAPTR(data string) ([]TinyRecord, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return nil, &macrotine.ParseError{Line: data, Reason: "A/PTR record requires fqdn and ip"}
	}
	fqdn, ip := parts[0], parts[1]
	rest := parts[2:]

	if err := mustIPv4(ip); err != nil {
		return nil, &macrotine.ParseError{Line: data, Reason: err.Error()}
	}
	ttl := parseTTLField(rest)

	return []TinyRecord{
		{RType: A, FQDN: fqdn, Target: ip, TTL: ttl},
		{RType: PTR, FQDN: reverseArpa(ip), Target: fqdn, TTL: ttl},
	}, nil
}
