// Package wire is the DNS wire-format boundary: it parses incoming
// query packets and serializes response messages, with the sanity
// checks the transport relies on.
package wire

import "github.com/miekg/dns"

// Codec converts between raw packets and DNS messages.
type Codec interface {
	// DecodeQuery parses and validates a query packet.
	DecodeQuery(data []byte) (*dns.Msg, error)

	// EncodeResponse serializes a response, truncating to size when the
	// packed message would not fit.
	EncodeResponse(msg *dns.Msg, size int) ([]byte, error)
}
