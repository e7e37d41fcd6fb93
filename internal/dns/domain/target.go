package domain

import (
	"fmt"
	"net"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/net/idna"

	"github.com/micjavier/hsd/internal/dns/common/addrutil"
	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

// TargetKind discriminates the Target union. The kind values are the
// wire tag values, so a host Target's kind byte is also its record tag.
type TargetKind uint8

const (
	KindINET4   TargetKind = TargetKind(TagINET4)
	KindINET6   TargetKind = TargetKind(TagINET6)
	KindONION   TargetKind = TargetKind(TagONION)
	KindONIONNG TargetKind = TargetKind(TagONIONNG)
	KindINAME   TargetKind = TargetKind(TagINAME)
	KindHNAME   TargetKind = TargetKind(TagHNAME)
)

// String returns the textual name of the kind.
func (k TargetKind) String() string {
	switch k {
	case KindINET4:
		return "INET4"
	case KindINET6:
		return "INET6"
	case KindONION:
		return "ONION"
	case KindONIONNG:
		return "ONIONNG"
	case KindINAME:
		return "INAME"
	case KindHNAME:
		return "HNAME"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// Target is a polymorphic host or name value: an IPv4/IPv6 literal, a
// Tor onion service, or a name resolving through the ICANN or native
// root. Value always holds the normalized human string.
type Target struct {
	Kind  TargetKind
	Value string
}

// NewTarget classifies a human string into a Target.
//
// Dispatch order: IPv4 literal, IPv6 literal, onion v2, the ".i"/".h"
// suffix forms, onion v3, then any other DNS name (which resolves through
// the ICANN root and gets the ".i" suffix appended).
func NewTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if v, _, ok := addrutil.ParseIPv4(s); ok {
		return Target{Kind: KindINET4, Value: v}, nil
	}
	if v, _, ok := addrutil.ParseIPv6(s); ok {
		return Target{Kind: KindINET6, Value: v}, nil
	}
	if v, _, ok := addrutil.ParseOnionV2(s); ok {
		return Target{Kind: KindONION, Value: v}, nil
	}

	name, err := normalizeName(s)
	if err != nil {
		return Target{}, err
	}
	if strings.HasSuffix(name, ICANNP) {
		return Target{Kind: KindINAME, Value: name}, nil
	}
	if strings.HasSuffix(name, HSKP) {
		return Target{Kind: KindHNAME, Value: name}, nil
	}
	if v, _, ok := addrutil.ParseOnionV3(name); ok {
		return Target{Kind: KindONIONNG, Value: v}, nil
	}
	if !validName(name) {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return Target{Kind: KindINAME, Value: name + ICANNP}, nil
}

// normalizeName lowercases, trims the root dot, and punycodes any
// unicode labels.
func normalizeName(s string) (string, error) {
	name := strings.TrimSuffix(strings.ToLower(s), ".")
	if isASCII(name) {
		return name, nil
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTarget, s, err)
	}
	return ascii, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// validName checks basic DNS shape: dot-separated labels of 1..63 bytes,
// total length within 255.
func validName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
	}
	return true
}

// IsINET reports whether the target is an IP literal.
func (t Target) IsINET() bool {
	return t.Kind == KindINET4 || t.Kind == KindINET6
}

// IsName reports whether the target is a suffix-marked name.
func (t Target) IsName() bool {
	return t.Kind == KindINAME || t.Kind == KindHNAME
}

// IsTor reports whether the target is an onion service.
func (t Target) IsTor() bool {
	return t.Kind == KindONION || t.Kind == KindONIONNG
}

// ToDNS renders the target for a DNS message. Native names become FQDNs
// under the native root; ICANN names lose their suffix marker and become
// plain FQDNs. IP and onion targets render as their literal.
func (t Target) ToDNS() string {
	switch t.Kind {
	case KindHNAME:
		return t.Value + "."
	case KindINAME:
		return strings.TrimSuffix(t.Value, ICANNP) + "."
	default:
		return t.Value
	}
}

// ToPointer synthesizes the glue name for an inline IP target: an
// underscore label carrying the base58-encoded raw address, below name.
// name must be fully qualified. Only valid for INET kinds.
func (t Target) ToPointer(name string) string {
	raw := t.rawIP()
	return "_" + base58.Encode(raw) + "." + name
}

// rawIP returns the raw address bytes of an INET target.
func (t Target) rawIP() []byte {
	ip := net.ParseIP(t.Value)
	if t.Kind == KindINET4 {
		return ip.To4()
	}
	return ip.To16()
}

// learn registers the target's compressible strings with the encoder.
func (t Target) learn(enc *compress.Encoder) {
	if t.IsName() {
		enc.Add(t.wireName())
	}
}

// wireName strips the suffix marker for wire compression.
func (t Target) wireName() string {
	switch t.Kind {
	case KindINAME:
		return strings.TrimSuffix(t.Value, ICANNP)
	case KindHNAME:
		return strings.TrimSuffix(t.Value, HSKP)
	default:
		return t.Value
	}
}

// bodySize returns the wire size of the target body, without the kind byte.
func (t Target) bodySize(enc *compress.Encoder) int {
	switch t.Kind {
	case KindINET4:
		return 4
	case KindINET6:
		return addrutil.SizeIPv6(t.rawIP())
	case KindONION:
		return addrutil.OnionV2Size
	case KindONIONNG:
		return addrutil.OnionV3Size
	default:
		return enc.Size(t.wireName())
	}
}

// Size returns the full wire size of the target: kind byte plus body.
func (t Target) Size(enc *compress.Encoder) int {
	return 1 + t.bodySize(enc)
}

// Write emits the full target, kind byte first.
func (t Target) Write(w *bio.Writer, enc *compress.Encoder) error {
	w.WriteU8(uint8(t.Kind))
	return t.writeBody(w, enc)
}

// writeBody emits the kind-specific body.
func (t Target) writeBody(w *bio.Writer, enc *compress.Encoder) error {
	switch t.Kind {
	case KindINET4:
		w.WriteBytes(t.rawIP())
		return nil
	case KindINET6:
		addrutil.WriteIPv6(w, t.rawIP())
		return nil
	case KindONION:
		_, raw, ok := addrutil.ParseOnionV2(t.Value)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, t.Value)
		}
		w.WriteBytes(raw)
		return nil
	case KindONIONNG:
		_, raw, ok := addrutil.ParseOnionV3(t.Value)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, t.Value)
		}
		w.WriteBytes(raw)
		return nil
	case KindINAME, KindHNAME:
		return enc.WriteString(w, t.wireName())
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidTarget, t.Kind)
	}
}

// readTarget parses a target body for the given kind byte.
func readTarget(kind TargetKind, r *bio.Reader, dec *compress.Decoder) (Target, error) {
	switch kind {
	case KindINET4:
		raw, err := r.ReadBytes(4)
		if err != nil {
			return Target{}, err
		}
		v, err := addrutil.FormatIPv4(raw)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindINET4, Value: v}, nil
	case KindINET6:
		raw, err := addrutil.ReadIPv6(r)
		if err != nil {
			return Target{}, err
		}
		v, err := addrutil.FormatIPv6(raw)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindINET6, Value: v}, nil
	case KindONION:
		raw, err := r.ReadBytes(addrutil.OnionV2Size)
		if err != nil {
			return Target{}, err
		}
		v, err := addrutil.FormatOnionV2(raw)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindONION, Value: v}, nil
	case KindONIONNG:
		raw, err := r.ReadBytes(addrutil.OnionV3Size)
		if err != nil {
			return Target{}, err
		}
		v, err := addrutil.FormatOnionV3(raw)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindONIONNG, Value: v}, nil
	case KindINAME:
		name, err := dec.ReadString(r)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindINAME, Value: name + ICANNP}, nil
	case KindHNAME:
		name, err := dec.ReadString(r)
		if err != nil {
			return Target{}, err
		}
		return Target{Kind: KindHNAME, Value: name + HSKP}, nil
	default:
		return Target{}, fmt.Errorf("%w: kind %d", ErrInvalidTarget, kind)
	}
}

// readFullTarget parses a kind byte followed by its body.
func readFullTarget(r *bio.Reader, dec *compress.Decoder) (Target, error) {
	kind, err := r.ReadU8()
	if err != nil {
		return Target{}, err
	}
	return readTarget(TargetKind(kind), r, dec)
}
