package tinydns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — Basic A.
func TestParseLine_A(t *testing.T) {
	recs, warn, err := ParseLine("+foo.test.com:1.2.3.4:300")
	require.NoError(t, err)
	require.Empty(t, warn)
	require.Len(t, recs, 1)
	assert.Equal(t, TinyRecord{RType: A, FQDN: "foo.test.com", Target: "1.2.3.4", TTL: 300}, recs[0])
}

func TestParseLine_A_DefaultsTTL(t *testing.T) {
	recs, _, err := ParseLine("+foo.test.com:1.2.3.4")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int32(DefaultTTL), recs[0].TTL)
}

func TestParseLine_A_BadIP(t *testing.T) {
	_, _, err := ParseLine("+foo.test.com:not-an-ip:300")
	require.Error(t, err)
}

// S3 — A/PTR reverse synthesis.
func TestParseLine_APTR_ReverseSynthesis(t *testing.T) {
	recs, _, err := ParseLine("=foo.test.com:1.2.3.4:300")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, TinyRecord{RType: A, FQDN: "foo.test.com", Target: "1.2.3.4", TTL: 300}, recs[0])
	assert.Equal(t, TinyRecord{RType: PTR, FQDN: "4.3.2.1.in-addr.arpa", Target: "foo.test.com", TTL: 300}, recs[1])
}

func TestParseLine_MX_Expansion(t *testing.T) {
	recs, _, err := ParseLine("@test.com:1.2.3.4:mail:10:600")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, TinyRecord{RType: MX, FQDN: "test.com", Target: "10 mail.mx.test.com", TTL: 600}, recs[0])
	assert.Equal(t, TinyRecord{RType: A, FQDN: "mail.mx.test.com", Target: "1.2.3.4", TTL: 600}, recs[1])
}

func TestParseLine_MX_HelperFQDNVerbatimWhenDotted(t *testing.T) {
	recs, _, err := ParseLine("@test.com:1.2.3.4:mail.elsewhere.com:10:600")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "mail.elsewhere.com", recs[1].FQDN)
}

func TestParseLine_CNAME(t *testing.T) {
	recs, _, err := ParseLine("Cwww.test.com:test.com:300")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, CNAME, recs[0].RType)
}

func TestParseLine_PTR(t *testing.T) {
	recs, _, err := ParseLine("^4.3.2.1.in-addr.arpa:foo.test.com:300")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, PTR, recs[0].RType)
}

func TestParseLine_TXT_SimpleQuoted(t *testing.T) {
	recs, _, err := ParseLine(`'foo.test.com:"hello world":300`)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "hello world", recs[0].Target)
}

func TestParseLine_TXT_ColonsInsideQuotes(t *testing.T) {
	recs, _, err := ParseLine(`'foo.test.com:"v=spf1 ip4:1.2.3.4 -all":300`)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "v=spf1 ip4:1.2.3.4 -all", recs[0].Target)
}

func TestParseLine_TXT_MissingClosingQuote(t *testing.T) {
	_, _, err := ParseLine(`'foo.test.com:"unterminated:300`)
	require.Error(t, err)
}

func TestParseLine_TXT_EmptyRdataIsParseError(t *testing.T) {
	_, _, err := ParseLine(`'foo.test.com::300`)
	require.Error(t, err)
}

func TestParseLine_SOA_Defaults(t *testing.T) {
	recs, _, err := ParseLine("Ztest.com:ns1.test.com:hostmaster.test.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, SOA, recs[0].RType)
	assert.Equal(t, int32(DefaultTTL), recs[0].TTL)
}

func TestParseLine_ANSSOA(t *testing.T) {
	recs, _, err := ParseLine(".test.com:1.2.3.4:ns1:300")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, NS, recs[0].RType)
	assert.Equal(t, A, recs[1].RType)
	assert.Equal(t, SOA, recs[2].RType)
}

func TestParseLine_ANSSOA_NoIP(t *testing.T) {
	recs, _, err := ParseLine(".test.com::ns1:300")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, NS, recs[0].RType)
	assert.Equal(t, SOA, recs[1].RType)
}

func TestParseLine_ANS(t *testing.T) {
	recs, _, err := ParseLine("&test.com:1.2.3.4:ns1:300")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, NS, recs[0].RType)
	assert.Equal(t, A, recs[1].RType)
}

func TestParseLine_DisabledAndComment(t *testing.T) {
	for _, line := range []string{"-foo.test.com:1.2.3.4:300", "#a comment"} {
		recs, warn, err := ParseLine(line)
		require.NoError(t, err)
		assert.Empty(t, warn)
		assert.Nil(t, recs)
	}
}

func TestParseLine_UnknownPrefix(t *testing.T) {
	recs, warn, err := ParseLine("?garbage")
	require.NoError(t, err)
	assert.Nil(t, recs)
	assert.NotEmpty(t, warn)
}

func TestParseLine_Empty(t *testing.T) {
	recs, warn, err := ParseLine("")
	require.NoError(t, err)
	assert.Empty(t, warn)
	assert.Nil(t, recs)
}

// Invariant 1: round-trip within a prefix family for the simple directives.
func TestInvariant_RoundTripSimpleDirectives(t *testing.T) {
	cases := []struct {
		line string
		want TinyRecord
	}{
		{"+a.test.com:1.1.1.1:300", TinyRecord{A, "a.test.com", "1.1.1.1", 300}},
		{"Cb.test.com:target.test.com:300", TinyRecord{CNAME, "b.test.com", "target.test.com", 300}},
		{"^4.3.2.1.in-addr.arpa:c.test.com:300", TinyRecord{PTR, "4.3.2.1.in-addr.arpa", "c.test.com", 300}},
	}
	for _, c := range cases {
		recs, _, err := ParseLine(c.line)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, c.want, recs[0])
	}
}
