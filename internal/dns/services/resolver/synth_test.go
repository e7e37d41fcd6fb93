package resolver

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micjavier/hsd/internal/dns/domain"
)

func mustTarget(t *testing.T, s string) domain.Target {
	t.Helper()
	target, err := domain.NewTarget(s)
	require.NoError(t, err)
	return target
}

// requireFlags checks the header bits every synthesized answer carries.
func requireFlags(t *testing.T, msg *dns.Msg, authoritative bool) {
	t.Helper()
	assert.True(t, msg.Response, "qr must be set")
	assert.True(t, msg.AuthenticatedData, "ad must be set")
	assert.Equal(t, authoritative, msg.Authoritative, "aa flag")
	opt := msg.IsEdns0()
	require.NotNil(t, opt, "EDNS0 must be present")
	assert.Equal(t, uint16(dns.DefaultMsgSize), opt.UDPSize())
	assert.True(t, opt.Do(), "DO bit must be set")
}

func TestSynthesizeEmptyRecordFallsBackToSOA(t *testing.T) {
	rec := &domain.Record{}
	msg := Synthesize(rec, "foo.", dns.TypeA, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 1)
	soa, ok := msg.Answer[0].(*dns.SOA)
	require.True(t, ok, "fallback answer must be SOA")
	assert.Equal(t, "foo.", soa.Hdr.Name)
	assert.Equal(t, uint32(0), soa.Serial)
	assert.Equal(t, uint32(1800), soa.Refresh)
	assert.Equal(t, uint32(0), soa.Retry)
	assert.Equal(t, uint32(604800), soa.Expire)
	assert.Equal(t, uint32(86400), soa.Minttl)
}

func TestSynthesizeA(t *testing.T) {
	rec := &domain.Record{
		TTL:   3600,
		Hosts: []domain.Target{mustTarget(t, "1.2.3.4")},
	}
	msg := Synthesize(rec, "alice.", dns.TypeA, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 1)
	a, ok := msg.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, "1.2.3.4", a.A.String())
	assert.Equal(t, uint32(3584), a.Hdr.Ttl)
	assert.Empty(t, msg.Ns)
}

func TestSynthesizeReferral(t *testing.T) {
	rec := &domain.Record{
		TTL:   3600,
		Hosts: []domain.Target{mustTarget(t, "1.2.3.4")},
	}
	msg := Synthesize(rec, "sub.alice.", dns.TypeA, true)

	requireFlags(t, msg, false)
	assert.Empty(t, msg.Answer)
	require.NotEmpty(t, msg.Ns)
	soa, ok := msg.Ns[0].(*dns.SOA)
	require.True(t, ok, "no ns and no delegate: authority is SOA")
	assert.Equal(t, "alice.", soa.Hdr.Name)
}

func TestSynthesizeReferralWithNS(t *testing.T) {
	rec := &domain.Record{
		NS: []domain.Target{
			mustTarget(t, "ns1.example.com."),
			mustTarget(t, "5.6.7.8"),
		},
		DS: []domain.DS{{KeyTag: 1, Algorithm: 8, DigestType: 2, Digest: []byte{1}}},
	}
	msg := Synthesize(rec, "deep.sub.alice.", dns.TypeA, true)

	requireFlags(t, msg, false)
	assert.Empty(t, msg.Answer)

	// Two NS entries plus the DS riding along.
	require.Len(t, msg.Ns, 3)
	ns1 := msg.Ns[0].(*dns.NS)
	assert.Equal(t, "alice.", ns1.Hdr.Name)
	assert.Equal(t, "ns1.example.com.", ns1.Ns)
	ns2 := msg.Ns[1].(*dns.NS)
	assert.Equal(t, "_"+base58.Encode([]byte{5, 6, 7, 8})+".alice.", ns2.Ns)
	_, isDS := msg.Ns[2].(*dns.DS)
	assert.True(t, isDS)

	// Glue for the inline IP target, plus the OPT record.
	var glueA *dns.A
	for _, rr := range msg.Extra {
		if a, ok := rr.(*dns.A); ok {
			glueA = a
		}
	}
	require.NotNil(t, glueA, "inline NS target needs glue")
	assert.Equal(t, ns2.Ns, glueA.Hdr.Name)
	assert.Equal(t, "5.6.7.8", glueA.A.String())
}

func TestSynthesizeReferralWithDelegate(t *testing.T) {
	delegate := mustTarget(t, "other.h")
	rec := &domain.Record{Delegate: &delegate}
	msg := Synthesize(rec, "sub.alice.", dns.TypeDNAME, true)

	requireFlags(t, msg, false)
	require.Len(t, msg.Answer, 1)
	dname := msg.Answer[0].(*dns.DNAME)
	assert.Equal(t, "alice.", dname.Hdr.Name)
	assert.Equal(t, "other.h.", dname.Target)
}

func TestSynthesizeCNAME(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		want      string
	}{
		{"icann name", "example.com.", "example.com."},
		{"native name", "bob.h", "bob.h."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical := mustTarget(t, tt.canonical)
			rec := &domain.Record{Canonical: &canonical}
			msg := Synthesize(rec, "alice.", dns.TypeCNAME, true)

			requireFlags(t, msg, true)
			require.Len(t, msg.Answer, 1)
			cname := msg.Answer[0].(*dns.CNAME)
			assert.Equal(t, "alice.", cname.Hdr.Name)
			assert.Equal(t, tt.want, cname.Target)
		})
	}
}

func TestSynthesizeCNAMEFallback(t *testing.T) {
	// A query, canonical set, no address hosts: the canonical answers.
	canonical := mustTarget(t, "example.com.i")
	rec := &domain.Record{Canonical: &canonical}
	msg := Synthesize(rec, "alice.", dns.TypeA, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 1)
	cname, ok := msg.Answer[0].(*dns.CNAME)
	require.True(t, ok)
	assert.Equal(t, "example.com.", cname.Target)
}

func TestSynthesizeMXWithInlineIP(t *testing.T) {
	rec := &domain.Record{
		Service: []domain.Service{{
			Service:  "smtp",
			Protocol: "tcp",
			Priority: 10,
			Weight:   0,
			Target:   mustTarget(t, "1.2.3.4"),
			Port:     25,
		}},
	}
	msg := Synthesize(rec, "alice.", dns.TypeMX, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 1)
	mx := msg.Answer[0].(*dns.MX)
	ptr := "_" + base58.Encode([]byte{1, 2, 3, 4}) + ".alice."
	assert.Equal(t, uint16(10), mx.Preference)
	assert.Equal(t, ptr, mx.Mx)

	var glueA *dns.A
	for _, rr := range msg.Extra {
		if a, ok := rr.(*dns.A); ok {
			glueA = a
		}
	}
	require.NotNil(t, glueA)
	assert.Equal(t, ptr, glueA.Hdr.Name)
	assert.Equal(t, "1.2.3.4", glueA.A.String())
}

func TestSynthesizeMXGlueRequiresSMTP(t *testing.T) {
	rec := &domain.Record{
		Service: []domain.Service{{
			Service:  "http",
			Protocol: "tcp",
			Priority: 1,
			Target:   mustTarget(t, "1.2.3.4"),
			Port:     80,
		}},
	}
	msg := Synthesize(rec, "alice.", dns.TypeMX, true)

	// Non-SMTP services contribute neither MX answers nor MX glue;
	// the response falls back to SOA.
	for _, rr := range msg.Extra {
		_, isA := rr.(*dns.A)
		assert.False(t, isA, "non-SMTP service must not produce MX glue")
	}
	require.Len(t, msg.Answer, 1)
	_, isSOA := msg.Answer[0].(*dns.SOA)
	assert.True(t, isSOA)
}

func TestSynthesizeSRV(t *testing.T) {
	rec := &domain.Record{
		Service: []domain.Service{
			{
				Service:  "http",
				Protocol: "tcp",
				Priority: 1,
				Weight:   5,
				Target:   mustTarget(t, "web.example.com."),
				Port:     8080,
			},
			{
				Service:  "xmpp",
				Protocol: "tcp",
				Priority: 2,
				Weight:   0,
				Target:   mustTarget(t, "9.9.9.9"),
				Port:     5222,
			},
		},
	}
	msg := Synthesize(rec, "alice.", dns.TypeSRV, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 2)
	srv1 := msg.Answer[0].(*dns.SRV)
	assert.Equal(t, "_http._tcp.alice.", srv1.Hdr.Name)
	assert.Equal(t, "web.example.com.", srv1.Target)
	assert.Equal(t, uint16(8080), srv1.Port)

	srv2 := msg.Answer[1].(*dns.SRV)
	assert.Equal(t, "_xmpp._tcp.alice.", srv2.Hdr.Name)
	assert.Equal(t, "_"+base58.Encode([]byte{9, 9, 9, 9})+".alice.", srv2.Target)

	// SRV glue covers all services with IP targets, SMTP or not.
	var glueCount int
	for _, rr := range msg.Extra {
		if _, ok := rr.(*dns.A); ok {
			glueCount++
		}
	}
	assert.Equal(t, 1, glueCount)
}

func TestSynthesizeTorTXT(t *testing.T) {
	rec := &domain.Record{
		Hosts: []domain.Target{mustTarget(t, "abcdefghijklmnop.onion")},
	}
	msg := Synthesize(rec, "alice.", dns.TypeA, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 1)
	txt, ok := msg.Answer[0].(*dns.TXT)
	require.True(t, ok)
	assert.Equal(t, []string{"hsk:tor", "abcdefghijklmnop.onion"}, txt.Txt)
}

func TestSynthesizeTXTSentinels(t *testing.T) {
	rec := &domain.Record{
		Text:   []string{"plain"},
		URL:    []string{"https://example.com/"},
		Email:  []string{"a@b.com"},
		Magnet: []domain.Magnet{{NID: "btih", NIN: []byte{0xde, 0xad}}},
		Addr:   []domain.Addr{{Currency: "btc", Address: "1Boat"}},
	}
	msg := Synthesize(rec, "alice.", dns.TypeTXT, true)

	require.Len(t, msg.Answer, 5)
	want := [][]string{
		{"plain"},
		{"hsk:url", "https://example.com/"},
		{"hsk:email", "a@b.com"},
		{"hsk:magnet", "magnet:?xt=urn:btih:dead"},
		{"hsk:addr", "btc:1Boat"},
	}
	for i, rr := range msg.Answer {
		txt, ok := rr.(*dns.TXT)
		require.True(t, ok)
		assert.Equal(t, want[i], txt.Txt)
	}
}

func TestSynthesizeDirectMappings(t *testing.T) {
	rec := &domain.Record{
		Location: []domain.Location{{Version: 0, Size: 0x12, Latitude: 1, Longitude: 2, Altitude: 3}},
		DS:       []domain.DS{{KeyTag: 12345, Algorithm: 8, DigestType: 2, Digest: []byte{0xab}}},
		TLS:      []domain.TLS{{Protocol: "tcp", Port: 443, Usage: 3, Selector: 1, MatchingType: 1, Certificate: []byte{0xcd}}},
		SSH:      []domain.SSH{{Algorithm: 4, Type: 2, Fingerprint: []byte{0xef}}},
		PGP:      []domain.PGP{{Algorithm: 1, Type: 1, Fingerprint: []byte{0x12}}},
	}

	msg := Synthesize(rec, "alice.", dns.TypeLOC, true)
	require.Len(t, msg.Answer, 1)
	loc := msg.Answer[0].(*dns.LOC)
	assert.Equal(t, uint8(0x12), loc.Size)

	msg = Synthesize(rec, "alice.", dns.TypeDS, true)
	require.Len(t, msg.Answer, 1)
	ds := msg.Answer[0].(*dns.DS)
	assert.Equal(t, uint16(12345), ds.KeyTag)
	assert.Equal(t, "ab", ds.Digest)

	msg = Synthesize(rec, "alice.", dns.TypeTLSA, true)
	require.Len(t, msg.Answer, 1)
	tlsa := msg.Answer[0].(*dns.TLSA)
	assert.Equal(t, "_443._tcp.alice.", tlsa.Hdr.Name)
	assert.Equal(t, "cd", tlsa.Certificate)

	msg = Synthesize(rec, "alice.", dns.TypeSSHFP, true)
	require.Len(t, msg.Answer, 1)
	sshfp := msg.Answer[0].(*dns.SSHFP)
	assert.Equal(t, "ef", sshfp.FingerPrint)

	msg = Synthesize(rec, "alice.", dns.TypeOPENPGPKEY, true)
	require.Len(t, msg.Answer, 1)
	pgp := msg.Answer[0].(*dns.OPENPGPKEY)
	assert.Equal(t, "Eg==", pgp.PublicKey)
}

func TestSynthesizeANY(t *testing.T) {
	rec := &domain.Record{
		NS: []domain.Target{mustTarget(t, "ns1.example.com.")},
	}
	msg := Synthesize(rec, "alice.", dns.TypeANY, true)

	requireFlags(t, msg, true)
	require.Len(t, msg.Answer, 2)
	soa, ok := msg.Answer[0].(*dns.SOA)
	require.True(t, ok)
	assert.Equal(t, "ns1.example.com.", soa.Ns, "first NS becomes the SOA primary")
	_, isNS := msg.Answer[1].(*dns.NS)
	assert.True(t, isNS)
}

func TestSynthesizeNotNakedSkipsInlineIPs(t *testing.T) {
	rec := &domain.Record{
		NS: []domain.Target{mustTarget(t, "5.6.7.8")},
	}
	msg := Synthesize(rec, "alice.", dns.TypeNS, true)
	require.Len(t, msg.Answer, 1)

	msg = Synthesize(rec, "alice.", dns.TypeNS, false)
	// The only NS target is an inline IP; without naked handling the
	// response falls back to SOA.
	require.Len(t, msg.Answer, 1)
	_, isSOA := msg.Answer[0].(*dns.SOA)
	assert.True(t, isSOA)
	for _, rr := range msg.Extra {
		_, isA := rr.(*dns.A)
		assert.False(t, isA)
	}
}

func TestSynthesizePanicsOnRelativeName(t *testing.T) {
	rec := &domain.Record{}
	assert.Panics(t, func() {
		Synthesize(rec, "alice", dns.TypeA, true)
	})
}
