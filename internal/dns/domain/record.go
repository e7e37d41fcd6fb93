package domain

import (
	"fmt"

	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

// ttlShift quantizes TTLs to 64-second granularity: the wire stores
// ttl >> 6 in a u16.
const ttlShift = 6

// Record is the full record set registered under one name. Records are
// immutable value objects: encode and DNS synthesis take a read-only
// view, and decoding always builds a fresh Record.
type Record struct {
	// Name is the registry key the record set belongs to. It is carried
	// in JSON but never on the wire.
	Name string

	Version uint8
	TTL     uint32

	// Hosts holds IP and onion targets only; a name-kind target in the
	// top-level stream belongs to Canonical.
	Hosts     []Target
	Canonical *Target
	Delegate  *Target
	NS        []Target
	Service   []Service
	URL       []string
	Email     []string
	Text      []string
	Location  []Location
	Magnet    []Magnet
	DS        []DS
	TLS       []TLS
	SSH       []SSH
	PGP       []PGP
	Addr      []Addr
	Extra     []Extra
}

// QuantizedTTL returns the TTL as it survives the wire: truncated to
// 64-second granularity.
func (rec *Record) QuantizedTTL() uint32 {
	return rec.TTL &^ ((1 << ttlShift) - 1)
}

// learn registers every compressible string with the encoder, in field
// order, before any sizing happens.
func (rec *Record) learn(enc *compress.Encoder) {
	for _, t := range rec.Hosts {
		t.learn(enc)
	}
	if rec.Canonical != nil {
		rec.Canonical.learn(enc)
	}
	if rec.Delegate != nil {
		rec.Delegate.learn(enc)
	}
	for _, t := range rec.NS {
		t.learn(enc)
	}
	for _, s := range rec.Service {
		s.learn(enc)
	}
	for _, s := range rec.URL {
		enc.Add(s)
	}
	for _, s := range rec.Email {
		enc.Add(s)
	}
	for _, s := range rec.Text {
		enc.Add(s)
	}
	for _, m := range rec.Magnet {
		m.learn(enc)
	}
	for _, t := range rec.TLS {
		t.learn(enc)
	}
	for _, a := range rec.Addr {
		a.learn(enc)
	}
}

// size returns the total encoded size, table included.
func (rec *Record) size(enc *compress.Encoder) int {
	n := 1 + 2 + enc.TableSize()
	for _, t := range rec.Hosts {
		n += t.Size(enc)
	}
	if rec.Canonical != nil {
		// Short form: the name kind byte doubles as the tag.
		n += rec.Canonical.Size(enc)
	}
	if rec.Delegate != nil {
		n += 1 + rec.Delegate.Size(enc)
	}
	for _, t := range rec.NS {
		n += 1 + t.Size(enc)
	}
	for _, s := range rec.Service {
		n += 1 + s.Size(enc)
	}
	for _, s := range rec.URL {
		n += 1 + enc.Size(s)
	}
	for _, s := range rec.Email {
		n += 1 + enc.Size(s)
	}
	for _, s := range rec.Text {
		n += 1 + enc.Size(s)
	}
	for _, l := range rec.Location {
		n += 1 + l.WireSize()
	}
	for _, m := range rec.Magnet {
		n += 1 + m.Size(enc)
	}
	for _, d := range rec.DS {
		n += 1 + d.Size()
	}
	for _, t := range rec.TLS {
		n += 1 + t.Size(enc)
	}
	for _, s := range rec.SSH {
		n += 1 + s.Size()
	}
	for _, p := range rec.PGP {
		n += 1 + p.Size()
	}
	for _, a := range rec.Addr {
		n += 1 + a.Size(enc)
	}
	for _, e := range rec.Extra {
		n += 1 + e.Size()
	}
	return n
}

// Encode serializes the record into its compressed wire form.
func (rec *Record) Encode() ([]byte, error) {
	if rec.Version != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, rec.Version)
	}

	enc := compress.NewEncoder()
	rec.learn(enc)

	w := bio.NewWriter(rec.size(enc))
	w.WriteU8(rec.Version)
	w.WriteU16(uint16(rec.TTL >> ttlShift))
	enc.WriteTable(w)

	// Hosts carry no tag byte: the target's kind byte is the tag.
	for _, t := range rec.Hosts {
		if err := t.Write(w, enc); err != nil {
			return nil, err
		}
	}
	// Canonical uses the short form: its kind byte (INAME/HNAME) is the
	// tag. The full CANONICAL form is accepted on decode only.
	if rec.Canonical != nil {
		if err := rec.Canonical.Write(w, enc); err != nil {
			return nil, err
		}
	}
	if rec.Delegate != nil {
		w.WriteU8(TagDELEGATE)
		if err := rec.Delegate.Write(w, enc); err != nil {
			return nil, err
		}
	}
	for _, t := range rec.NS {
		w.WriteU8(TagNS)
		if err := t.Write(w, enc); err != nil {
			return nil, err
		}
	}
	for _, s := range rec.Service {
		w.WriteU8(TagSERVICE)
		if err := s.Write(w, enc); err != nil {
			return nil, err
		}
	}
	for _, s := range rec.URL {
		w.WriteU8(TagURL)
		if err := enc.WriteString(w, s); err != nil {
			return nil, err
		}
	}
	for _, s := range rec.Email {
		w.WriteU8(TagEMAIL)
		if err := enc.WriteString(w, s); err != nil {
			return nil, err
		}
	}
	for _, s := range rec.Text {
		w.WriteU8(TagTEXT)
		if err := enc.WriteString(w, s); err != nil {
			return nil, err
		}
	}
	for _, l := range rec.Location {
		w.WriteU8(TagLOCATION)
		l.Write(w)
	}
	for _, m := range rec.Magnet {
		w.WriteU8(TagMAGNET)
		if err := m.Write(w, enc); err != nil {
			return nil, err
		}
	}
	for _, d := range rec.DS {
		w.WriteU8(TagDS)
		if err := d.Write(w); err != nil {
			return nil, err
		}
	}
	for _, t := range rec.TLS {
		w.WriteU8(TagTLS)
		if err := t.Write(w, enc); err != nil {
			return nil, err
		}
	}
	for _, s := range rec.SSH {
		w.WriteU8(TagSSH)
		if err := s.Write(w); err != nil {
			return nil, err
		}
	}
	for _, p := range rec.PGP {
		w.WriteU8(TagPGP)
		if err := p.Write(w); err != nil {
			return nil, err
		}
	}
	for _, a := range rec.Addr {
		w.WriteU8(TagADDR)
		if err := a.Write(w, enc); err != nil {
			return nil, err
		}
	}
	for _, e := range rec.Extra {
		w.WriteU8(e.Type)
		if err := e.Write(w); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DecodeRecord parses a record blob. List order is encounter order; a
// second canonical or delegate is a hard error; any unrecognized tag is
// preserved as an Extra.
func DecodeRecord(data []byte) (*Record, error) {
	r := bio.NewReader(data)

	version, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}

	ttl, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	dec, err := compress.ReadTable(r)
	if err != nil {
		return nil, err
	}

	rec := &Record{Version: version, TTL: uint32(ttl) << ttlShift}
	for r.Remaining() > 0 {
		tag, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagINET4, TagINET6, TagONION, TagONIONNG:
			t, err := readTarget(TargetKind(tag), r, dec)
			if err != nil {
				return nil, err
			}
			rec.Hosts = append(rec.Hosts, t)
		case TagINAME, TagHNAME:
			t, err := readTarget(TargetKind(tag), r, dec)
			if err != nil {
				return nil, err
			}
			if rec.Canonical != nil {
				return nil, ErrDuplicateCanonical
			}
			rec.Canonical = &t
		case TagCANONICAL:
			t, err := readFullTarget(r, dec)
			if err != nil {
				return nil, err
			}
			if !t.IsName() {
				return nil, fmt.Errorf("%w: canonical kind %s", ErrInvalidTarget, t.Kind)
			}
			if rec.Canonical != nil {
				return nil, ErrDuplicateCanonical
			}
			rec.Canonical = &t
		case TagDELEGATE:
			t, err := readFullTarget(r, dec)
			if err != nil {
				return nil, err
			}
			if !t.IsName() {
				return nil, fmt.Errorf("%w: delegate kind %s", ErrInvalidTarget, t.Kind)
			}
			if rec.Delegate != nil {
				return nil, ErrDuplicateDelegate
			}
			rec.Delegate = &t
		case TagNS:
			t, err := readFullTarget(r, dec)
			if err != nil {
				return nil, err
			}
			rec.NS = append(rec.NS, t)
		case TagSERVICE:
			s, err := readService(r, dec)
			if err != nil {
				return nil, err
			}
			rec.Service = append(rec.Service, s)
		case TagURL:
			s, err := dec.ReadString(r)
			if err != nil {
				return nil, err
			}
			rec.URL = append(rec.URL, s)
		case TagEMAIL:
			s, err := dec.ReadString(r)
			if err != nil {
				return nil, err
			}
			rec.Email = append(rec.Email, s)
		case TagTEXT:
			s, err := dec.ReadString(r)
			if err != nil {
				return nil, err
			}
			rec.Text = append(rec.Text, s)
		case TagLOCATION:
			l, err := readLocation(r)
			if err != nil {
				return nil, err
			}
			rec.Location = append(rec.Location, l)
		case TagMAGNET:
			m, err := readMagnet(r, dec)
			if err != nil {
				return nil, err
			}
			rec.Magnet = append(rec.Magnet, m)
		case TagDS:
			d, err := readDS(r)
			if err != nil {
				return nil, err
			}
			rec.DS = append(rec.DS, d)
		case TagTLS:
			t, err := readTLS(r, dec)
			if err != nil {
				return nil, err
			}
			rec.TLS = append(rec.TLS, t)
		case TagSSH:
			s, err := readSSH(r)
			if err != nil {
				return nil, err
			}
			rec.SSH = append(rec.SSH, s)
		case TagPGP:
			p, err := readSSH(r)
			if err != nil {
				return nil, err
			}
			rec.PGP = append(rec.PGP, p)
		case TagADDR:
			a, err := readAddr(r, dec)
			if err != nil {
				return nil, err
			}
			rec.Addr = append(rec.Addr, a)
		default:
			e, err := readExtra(tag, r)
			if err != nil {
				return nil, err
			}
			rec.Extra = append(rec.Extra, e)
		}
	}
	return rec, nil
}
