package wire

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micjavier/hsd/internal/dns/common/log"
)

func TestDecodeQuery(t *testing.T) {
	q := new(dns.Msg)
	q.SetQuestion("alice.", dns.TypeA)
	data, err := q.Pack()
	require.NoError(t, err)

	codec := NewUDPCodec(log.NewNoopLogger())
	got, err := codec.DecodeQuery(data)
	require.NoError(t, err)
	require.Len(t, got.Question, 1)
	assert.Equal(t, "alice.", got.Question[0].Name)
	assert.Equal(t, dns.TypeA, got.Question[0].Qtype)
}

func TestDecodeQueryRejectsGarbage(t *testing.T) {
	codec := NewUDPCodec(log.NewNoopLogger())
	_, err := codec.DecodeQuery([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeQueryRejectsResponses(t *testing.T) {
	q := new(dns.Msg)
	q.SetQuestion("alice.", dns.TypeA)
	q.Response = true
	data, err := q.Pack()
	require.NoError(t, err)

	codec := NewUDPCodec(log.NewNoopLogger())
	_, err = codec.DecodeQuery(data)
	assert.Error(t, err)
}

func TestDecodeQueryRejectsZeroQuestions(t *testing.T) {
	q := new(dns.Msg)
	data, err := q.Pack()
	require.NoError(t, err)

	codec := NewUDPCodec(log.NewNoopLogger())
	_, err = codec.DecodeQuery(data)
	assert.Error(t, err)
}

func TestEncodeResponseRoundTrip(t *testing.T) {
	resp := new(dns.Msg)
	resp.SetQuestion("alice.", dns.TypeA)
	resp.Response = true
	rr, err := dns.NewRR("alice. 3600 IN A 1.2.3.4")
	require.NoError(t, err)
	resp.Answer = []dns.RR{rr}

	codec := NewUDPCodec(log.NewNoopLogger())
	data, err := codec.EncodeResponse(resp, dns.DefaultMsgSize)
	require.NoError(t, err)

	back := new(dns.Msg)
	require.NoError(t, back.Unpack(data))
	require.Len(t, back.Answer, 1)
	assert.Equal(t, "1.2.3.4", back.Answer[0].(*dns.A).A.String())
}

func TestEncodeResponseTruncates(t *testing.T) {
	resp := new(dns.Msg)
	resp.SetQuestion("alice.", dns.TypeTXT)
	resp.Response = true
	for i := 0; i < 64; i++ {
		rr, err := dns.NewRR("alice. 3600 IN TXT \"some reasonably long txt payload string\"")
		require.NoError(t, err)
		resp.Answer = append(resp.Answer, rr)
	}

	codec := NewUDPCodec(log.NewNoopLogger())
	data, err := codec.EncodeResponse(resp, dns.MinMsgSize)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), dns.MinMsgSize)

	back := new(dns.Msg)
	require.NoError(t, back.Unpack(data))
	assert.True(t, back.Truncated)
}
