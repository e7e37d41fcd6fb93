package resolver

import (
	"context"
	"net"
	"strings"

	"github.com/miekg/dns"

	"github.com/micjavier/hsd/internal/dns/common/log"
	"github.com/micjavier/hsd/internal/dns/domain"
)

// Resolver answers queries for names under the native root. The
// registered name is the last label of the query name; its record set is
// fetched from the store, decoded (through the cache), and synthesized
// into a response.
type Resolver struct {
	store  RecordStore
	cache  RecordCache
	logger log.Logger
}

// Options configures a Resolver.
type Options struct {
	Store  RecordStore
	Cache  RecordCache // optional
	Logger log.Logger
}

// New constructs a Resolver.
func New(opts Options) *Resolver {
	return &Resolver{
		store:  opts.Store,
		cache:  opts.Cache,
		logger: opts.Logger,
	}
}

// HandleQuery resolves a single DNS query to a response message. It
// never returns an error response via the error value; malformed or
// unanswerable queries map to the appropriate rcode.
func (r *Resolver) HandleQuery(ctx context.Context, query *dns.Msg, clientAddr net.Addr) (*dns.Msg, error) {
	if len(query.Question) != 1 {
		m := new(dns.Msg)
		m.SetRcode(query, dns.RcodeFormatError)
		return m, nil
	}
	q := query.Question[0]
	if q.Qclass != dns.ClassINET && q.Qclass != dns.ClassANY {
		m := new(dns.Msg)
		m.SetRcode(query, dns.RcodeRefused)
		return m, nil
	}

	qname := strings.ToLower(dns.Fqdn(q.Name))
	registered := registeredName(qname)

	rec, ok := r.lookup(registered)
	if !ok {
		r.logger.Debug(map[string]any{
			"client": clientAddr.String(),
			"qname":  qname,
			"name":   registered,
		}, "Name not registered")
		m := new(dns.Msg)
		m.SetRcode(query, dns.RcodeNameError)
		return m, nil
	}

	msg := Synthesize(rec, qname, q.Qtype, true)
	msg.Id = query.Id
	msg.Question = query.Question
	return msg, nil
}

// lookup fetches and decodes the record set for a registered name,
// consulting the cache and the store's negative filter first.
func (r *Resolver) lookup(name string) (*domain.Record, bool) {
	if r.cache != nil {
		if rec, ok := r.cache.Get(name); ok {
			return rec, true
		}
	}
	if !r.store.MightContain(name) {
		return nil, false
	}
	blob, ok, err := r.store.Get(name)
	if err != nil {
		r.logger.Error(map[string]any{
			"name":  name,
			"error": err.Error(),
		}, "Record store lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	rec, err := domain.DecodeRecord(blob)
	if err != nil {
		r.logger.Error(map[string]any{
			"name":  name,
			"error": err.Error(),
		}, "Record blob failed to decode")
		return nil, false
	}
	rec.Name = name
	if r.cache != nil {
		r.cache.Set(name, rec)
	}
	return rec, true
}

// registeredName extracts the registry key from a query name: its last
// label, without the root dot.
func registeredName(qname string) string {
	labels := dns.SplitDomainName(qname)
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1]
}
