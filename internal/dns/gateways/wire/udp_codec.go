package wire

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"

	"github.com/micjavier/hsd/internal/dns/common/log"
)

// udpCodec implements Codec for standard DNS over UDP.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec returns a Codec for UDP packets.
func NewUDPCodec(logger log.Logger) Codec {
	return &udpCodec{logger: logger}
}

// DecodeQuery parses a query packet and rejects anything that is not a
// single-question standard query.
func (c *udpCodec) DecodeQuery(data []byte) (*dns.Msg, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil {
		return nil, fmt.Errorf("unpack query: %w", err)
	}
	if msg.Response {
		return nil, errors.New("packet is a response, not a query")
	}
	if msg.Opcode != dns.OpcodeQuery {
		return nil, fmt.Errorf("unsupported opcode: %d", msg.Opcode)
	}
	if len(msg.Question) != 1 {
		return nil, fmt.Errorf("expected exactly one question, got %d", len(msg.Question))
	}
	return msg, nil
}

// EncodeResponse serializes a response, truncating to the client's
// advertised payload size when necessary.
func (c *udpCodec) EncodeResponse(msg *dns.Msg, size int) ([]byte, error) {
	if size < dns.MinMsgSize {
		size = dns.MinMsgSize
	}
	msg.Truncate(size)
	data, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("pack response: %w", err)
	}
	c.logger.Debug(map[string]any{
		"id":   msg.Id,
		"size": len(data),
	}, "Encoded DNS response")
	return data, nil
}

var _ Codec = (*udpCodec)(nil)
