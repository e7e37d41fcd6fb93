package transport

import (
	"context"
	"net"

	"github.com/miekg/dns"
)

// Responder handles one decoded DNS query and produces the response
// message. Implemented by the resolver service.
type Responder interface {
	HandleQuery(ctx context.Context, query *dns.Msg, clientAddr net.Addr) (*dns.Msg, error)
}
