package resolver

import (
	"encoding/base64"
	"encoding/hex"
	"net"
	"strconv"

	"github.com/miekg/dns"

	"github.com/micjavier/hsd/internal/dns/domain"
)

// torSentinel and friends prefix the TXT string lists that carry
// non-DNS record data out of band.
const (
	torSentinel    = "hsk:tor"
	urlSentinel    = "hsk:url"
	emailSentinel  = "hsk:email"
	magnetSentinel = "hsk:magnet"
	addrSentinel   = "hsk:addr"
)

// SOA timer constants. Retry tracks the record TTL.
const (
	soaSerial  = 0
	soaRefresh = 1800
	soaExpire  = 604800
	soaMinTTL  = 86400
)

// Synthesize maps a record set and a query (name, qtype) onto a DNS
// message, entirely from in-memory state.
//
// A single-label name is answered authoritatively. A deeper name is a
// referral for its leaf TLD: authority delegates via NS (or the answer
// carries a DNAME, or authority falls back to SOA), DS records ride
// along for the child. name must be fully qualified.
//
// naked controls inline IP targets in name positions: when true they
// synthesize pointer names with matching glue, when false they are
// skipped. Callers in this repository always pass true.
func Synthesize(rec *domain.Record, name string, qtype uint16, naked bool) *dns.Msg {
	if !dns.IsFqdn(name) {
		panic("synthesize: name must be fully qualified")
	}

	msg := new(dns.Msg)
	msg.Response = true
	msg.AuthenticatedData = true
	ttl := rec.QuantizedTTL()

	labels := dns.SplitDomainName(name)
	if len(labels) > 1 {
		// Referral for the leaf tld.
		tld := dns.Fqdn(labels[len(labels)-1])
		switch {
		case len(rec.NS) > 0:
			msg.Ns = toNS(rec, tld, ttl, naked)
			msg.Extra = toNSIP(rec, tld, ttl, naked)
		case rec.Delegate != nil:
			msg.Answer = toDNAME(rec, tld, ttl)
		default:
			msg.Ns = toSOA(rec, tld, ttl, naked)
		}
		msg.Ns = append(msg.Ns, toDS(rec, tld, ttl)...)
		msg.SetEdns0(dns.DefaultMsgSize, true)
		return msg
	}

	msg.Authoritative = true
	switch qtype {
	case dns.TypeANY:
		msg.Answer = append(toSOA(rec, name, ttl, naked), toNS(rec, name, ttl, naked)...)
		msg.Extra = toNSIP(rec, name, ttl, naked)
	case dns.TypeA:
		msg.Answer = append(toA(rec, name, ttl), toTorTXT(rec, name, ttl)...)
	case dns.TypeAAAA:
		msg.Answer = append(toAAAA(rec, name, ttl), toTorTXT(rec, name, ttl)...)
	case dns.TypeCNAME:
		msg.Answer = toCNAME(rec, name, ttl)
	case dns.TypeDNAME:
		msg.Answer = toDNAME(rec, name, ttl)
	case dns.TypeNS:
		msg.Answer = toNS(rec, name, ttl, naked)
		msg.Extra = toNSIP(rec, name, ttl, naked)
	case dns.TypeMX:
		msg.Answer = toMX(rec, name, ttl, naked)
		msg.Extra = toSRVIP(rec, name, ttl, naked, true)
	case dns.TypeSRV:
		msg.Answer = toSRV(rec, name, ttl, naked)
		msg.Extra = toSRVIP(rec, name, ttl, naked, false)
	case dns.TypeTXT:
		msg.Answer = toTXT(rec, name, ttl)
	case dns.TypeLOC:
		msg.Answer = toLOC(rec, name, ttl)
	case dns.TypeDS:
		msg.Answer = toDS(rec, name, ttl)
	case dns.TypeTLSA:
		msg.Answer = toTLSA(rec, name, ttl)
	case dns.TypeSSHFP:
		msg.Answer = toSSHFP(rec, name, ttl)
	case dns.TypeOPENPGPKEY:
		msg.Answer = toOPENPGPKEY(rec, name, ttl)
	}

	// Fallbacks keep the response well formed: a canonical name answers
	// for any type it could alias, otherwise the zone SOA does.
	if len(msg.Answer) == 0 && len(msg.Ns) == 0 {
		if rec.Canonical != nil {
			msg.Answer = toCNAME(rec, name, ttl)
		} else {
			msg.Answer = toSOA(rec, name, ttl, naked)
		}
	}
	msg.SetEdns0(dns.DefaultMsgSize, true)
	return msg
}

func header(name string, rrtype uint16, ttl uint32) dns.RR_Header {
	return dns.RR_Header{
		Name:   name,
		Rrtype: rrtype,
		Class:  dns.ClassINET,
		Ttl:    ttl,
	}
}

// toA maps IPv4 hosts to A records.
func toA(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, t := range rec.Hosts {
		if t.Kind != domain.KindINET4 {
			continue
		}
		out = append(out, &dns.A{
			Hdr: header(name, dns.TypeA, ttl),
			A:   net.ParseIP(t.Value).To4(),
		})
	}
	return out
}

// toAAAA maps IPv6 hosts to AAAA records.
func toAAAA(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, t := range rec.Hosts {
		if t.Kind != domain.KindINET6 {
			continue
		}
		out = append(out, &dns.AAAA{
			Hdr:  header(name, dns.TypeAAAA, ttl),
			AAAA: net.ParseIP(t.Value).To16(),
		})
	}
	return out
}

// toTorTXT carries onion hosts in a sentinel-prefixed TXT record, since
// they have no address record type.
func toTorTXT(rec *domain.Record, name string, ttl uint32) []dns.RR {
	strs := []string{torSentinel}
	for _, t := range rec.Hosts {
		if t.IsTor() {
			strs = append(strs, t.Value)
		}
	}
	if len(strs) == 1 {
		return nil
	}
	return []dns.RR{&dns.TXT{
		Hdr: header(name, dns.TypeTXT, ttl),
		Txt: strs,
	}}
}

// toCNAME maps the canonical target, when set.
func toCNAME(rec *domain.Record, name string, ttl uint32) []dns.RR {
	if rec.Canonical == nil {
		return nil
	}
	return []dns.RR{&dns.CNAME{
		Hdr:    header(name, dns.TypeCNAME, ttl),
		Target: rec.Canonical.ToDNS(),
	}}
}

// toDNAME maps the delegate target, when set.
func toDNAME(rec *domain.Record, name string, ttl uint32) []dns.RR {
	if rec.Delegate == nil {
		return nil
	}
	return []dns.RR{&dns.DNAME{
		Hdr:    header(name, dns.TypeDNAME, ttl),
		Target: rec.Delegate.ToDNS(),
	}}
}

// toNS maps the ns targets. Name targets map directly; inline IP
// targets synthesize pointer names when naked is set, and onion targets
// cannot serve as name servers.
func toNS(rec *domain.Record, name string, ttl uint32, naked bool) []dns.RR {
	var out []dns.RR
	for _, t := range rec.NS {
		var ns string
		switch {
		case t.IsName():
			ns = t.ToDNS()
		case t.IsINET() && naked:
			ns = t.ToPointer(name)
		default:
			continue
		}
		out = append(out, &dns.NS{
			Hdr: header(name, dns.TypeNS, ttl),
			Ns:  ns,
		})
	}
	return out
}

// toNSIP emits glue records for inline IP ns targets.
func toNSIP(rec *domain.Record, name string, ttl uint32, naked bool) []dns.RR {
	if !naked {
		return nil
	}
	var out []dns.RR
	for _, t := range rec.NS {
		if t.IsINET() {
			out = append(out, glue(t, name, ttl))
		}
	}
	return out
}

// toMX maps SMTP services to MX records.
func toMX(rec *domain.Record, name string, ttl uint32, naked bool) []dns.RR {
	var out []dns.RR
	for _, s := range rec.Service {
		if !s.IsSMTP() {
			continue
		}
		var mx string
		switch {
		case s.Target.IsName():
			mx = s.Target.ToDNS()
		case s.Target.IsINET() && naked:
			mx = s.Target.ToPointer(name)
		default:
			continue
		}
		out = append(out, &dns.MX{
			Hdr:        header(name, dns.TypeMX, ttl),
			Preference: uint16(s.Priority),
			Mx:         mx,
		})
	}
	return out
}

// toSRV maps every service to an SRV record under its service/protocol
// labels.
func toSRV(rec *domain.Record, name string, ttl uint32, naked bool) []dns.RR {
	var out []dns.RR
	for _, s := range rec.Service {
		var target string
		switch {
		case s.Target.IsName():
			target = s.Target.ToDNS()
		case s.Target.IsINET() && naked:
			target = s.Target.ToPointer(name)
		default:
			continue
		}
		out = append(out, &dns.SRV{
			Hdr:      header(srvName(s, name), dns.TypeSRV, ttl),
			Priority: uint16(s.Priority),
			Weight:   uint16(s.Weight),
			Port:     s.Port,
			Target:   target,
		})
	}
	return out
}

// toSRVIP emits glue for services with inline IP targets. With mx set
// only SMTP services qualify (MX glue), otherwise every service does.
func toSRVIP(rec *domain.Record, name string, ttl uint32, naked bool, mx bool) []dns.RR {
	if !naked {
		return nil
	}
	var out []dns.RR
	for _, s := range rec.Service {
		if mx && !s.IsSMTP() {
			continue
		}
		if s.Target.IsINET() {
			out = append(out, glue(s.Target, name, ttl))
		}
	}
	return out
}

// glue builds the additional-section record for an inline IP target
// under its synthetic pointer name.
func glue(t domain.Target, name string, ttl uint32) dns.RR {
	ptr := t.ToPointer(name)
	if t.Kind == domain.KindINET4 {
		return &dns.A{
			Hdr: header(ptr, dns.TypeA, ttl),
			A:   net.ParseIP(t.Value).To4(),
		}
	}
	return &dns.AAAA{
		Hdr:  header(ptr, dns.TypeAAAA, ttl),
		AAAA: net.ParseIP(t.Value).To16(),
	}
}

// toTXT concatenates the raw text TXT with the sentinel-prefixed
// carriers for urls, emails, magnets, and addresses.
func toTXT(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	txt := func(strs []string) {
		out = append(out, &dns.TXT{
			Hdr: header(name, dns.TypeTXT, ttl),
			Txt: strs,
		})
	}
	if len(rec.Text) > 0 {
		txt(rec.Text)
	}
	if len(rec.URL) > 0 {
		txt(append([]string{urlSentinel}, rec.URL...))
	}
	if len(rec.Email) > 0 {
		txt(append([]string{emailSentinel}, rec.Email...))
	}
	if len(rec.Magnet) > 0 {
		strs := []string{magnetSentinel}
		for _, m := range rec.Magnet {
			strs = append(strs, m.String())
		}
		txt(strs)
	}
	if len(rec.Addr) > 0 {
		strs := []string{addrSentinel}
		for _, a := range rec.Addr {
			strs = append(strs, a.Currency+":"+a.Address)
		}
		txt(strs)
	}
	return out
}

// toLOC maps locations directly.
func toLOC(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, l := range rec.Location {
		out = append(out, &dns.LOC{
			Hdr:       header(name, dns.TypeLOC, ttl),
			Version:   l.Version,
			Size:      l.Size,
			HorizPre:  l.HorizPre,
			VertPre:   l.VertPre,
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Altitude:  l.Altitude,
		})
	}
	return out
}

// toDS maps delegation signers directly.
func toDS(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, d := range rec.DS {
		out = append(out, &dns.DS{
			Hdr:        header(name, dns.TypeDS, ttl),
			KeyTag:     d.KeyTag,
			Algorithm:  d.Algorithm,
			DigestType: d.DigestType,
			Digest:     hex.EncodeToString(d.Digest),
		})
	}
	return out
}

// toTLSA maps certificate associations under their port/protocol labels.
func toTLSA(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, t := range rec.TLS {
		owner := "_" + strconv.Itoa(int(t.Port)) + "._" + t.Protocol + "." + name
		out = append(out, &dns.TLSA{
			Hdr:          header(owner, dns.TypeTLSA, ttl),
			Usage:        t.Usage,
			Selector:     t.Selector,
			MatchingType: t.MatchingType,
			Certificate:  hex.EncodeToString(t.Certificate),
		})
	}
	return out
}

// toSSHFP maps SSH fingerprints directly.
func toSSHFP(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, s := range rec.SSH {
		out = append(out, &dns.SSHFP{
			Hdr:         header(name, dns.TypeSSHFP, ttl),
			Algorithm:   s.Algorithm,
			Type:        s.Type,
			FingerPrint: hex.EncodeToString(s.Fingerprint),
		})
	}
	return out
}

// toOPENPGPKEY maps PGP keys directly.
func toOPENPGPKEY(rec *domain.Record, name string, ttl uint32) []dns.RR {
	var out []dns.RR
	for _, p := range rec.PGP {
		out = append(out, &dns.OPENPGPKEY{
			Hdr:       header(name, dns.TypeOPENPGPKEY, ttl),
			PublicKey: base64.StdEncoding.EncodeToString(p.Fingerprint),
		})
	}
	return out
}

// toSOA synthesizes the zone SOA. The primary NS follows the first NS
// record and the mbox follows the first MX when present.
func toSOA(rec *domain.Record, name string, ttl uint32, naked bool) []dns.RR {
	primary := name
	if ns := toNS(rec, name, ttl, naked); len(ns) > 0 {
		primary = ns[0].(*dns.NS).Ns
	}
	mbox := name
	if mx := toMX(rec, name, ttl, naked); len(mx) > 0 {
		mbox = mx[0].(*dns.MX).Mx
	}
	return []dns.RR{&dns.SOA{
		Hdr:     header(name, dns.TypeSOA, ttl),
		Ns:      primary,
		Mbox:    mbox,
		Serial:  soaSerial,
		Refresh: soaRefresh,
		Retry:   ttl,
		Expire:  soaExpire,
		Minttl:  soaMinTTL,
	}}
}

// srvName builds the "_service._protocol.zone" owner.
func srvName(s domain.Service, name string) string {
	return "_" + s.Service + "._" + s.Protocol + "." + name
}
