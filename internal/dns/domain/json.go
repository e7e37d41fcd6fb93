package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// recordJSON is the external JSON shape of a Record. Empty lists are
// omitted; canonical and delegate are omitted when unset.
type recordJSON struct {
	Version   uint8          `json:"version"`
	Name      string         `json:"name,omitempty"`
	TTL       uint32         `json:"ttl"`
	Hosts     []string       `json:"hosts,omitempty"`
	Canonical string         `json:"canonical,omitempty"`
	Delegate  string         `json:"delegate,omitempty"`
	NS        []string       `json:"ns,omitempty"`
	Service   []serviceJSON  `json:"service,omitempty"`
	URL       []string       `json:"url,omitempty"`
	Email     []string       `json:"email,omitempty"`
	Text      []string       `json:"text,omitempty"`
	Location  []locationJSON `json:"location,omitempty"`
	Magnet    []string       `json:"magnet,omitempty"`
	DS        []dsJSON       `json:"ds,omitempty"`
	TLS       []tlsJSON      `json:"tls,omitempty"`
	SSH       []sshJSON      `json:"ssh,omitempty"`
	PGP       []sshJSON      `json:"pgp,omitempty"`
	Addr      []string       `json:"addr,omitempty"`
	Extra     []extraJSON    `json:"extra,omitempty"`
}

type serviceJSON struct {
	Service  string `json:"service"`
	Protocol string `json:"protocol"`
	Priority uint8  `json:"priority"`
	Weight   uint8  `json:"weight"`
	Target   string `json:"target"`
	Port     uint16 `json:"port"`
}

type locationJSON struct {
	Version   uint8  `json:"version"`
	Size      uint8  `json:"size"`
	HorizPre  uint8  `json:"horizPre"`
	VertPre   uint8  `json:"vertPre"`
	Latitude  uint32 `json:"latitude"`
	Longitude uint32 `json:"longitude"`
	Altitude  uint32 `json:"altitude"`
}

type dsJSON struct {
	KeyTag     uint16 `json:"keyTag"`
	Algorithm  uint8  `json:"algorithm"`
	DigestType uint8  `json:"digestType"`
	Digest     string `json:"digest"`
}

type tlsJSON struct {
	Protocol     string `json:"protocol"`
	Port         uint16 `json:"port"`
	Usage        uint8  `json:"usage"`
	Selector     uint8  `json:"selector"`
	MatchingType uint8  `json:"matchingType"`
	Certificate  string `json:"certificate"`
}

type sshJSON struct {
	Algorithm   uint8  `json:"algorithm"`
	Type        uint8  `json:"type"`
	Fingerprint string `json:"fingerprint"`
}

type extraJSON struct {
	Type uint8  `json:"type"`
	Data string `json:"data"`
}

// MarshalJSON renders the record in its external JSON shape.
func (rec *Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Version: rec.Version,
		Name:    rec.Name,
		TTL:     rec.TTL,
		URL:     rec.URL,
		Email:   rec.Email,
		Text:    rec.Text,
	}
	for _, t := range rec.Hosts {
		out.Hosts = append(out.Hosts, t.Value)
	}
	if rec.Canonical != nil {
		out.Canonical = rec.Canonical.Value
	}
	if rec.Delegate != nil {
		out.Delegate = rec.Delegate.Value
	}
	for _, t := range rec.NS {
		out.NS = append(out.NS, t.Value)
	}
	for _, s := range rec.Service {
		out.Service = append(out.Service, serviceJSON{
			Service:  s.Service,
			Protocol: s.Protocol,
			Priority: s.Priority,
			Weight:   s.Weight,
			Target:   s.Target.Value,
			Port:     s.Port,
		})
	}
	for _, l := range rec.Location {
		out.Location = append(out.Location, locationJSON(l))
	}
	for _, m := range rec.Magnet {
		out.Magnet = append(out.Magnet, m.String())
	}
	for _, d := range rec.DS {
		out.DS = append(out.DS, dsJSON{
			KeyTag:     d.KeyTag,
			Algorithm:  d.Algorithm,
			DigestType: d.DigestType,
			Digest:     hex.EncodeToString(d.Digest),
		})
	}
	for _, t := range rec.TLS {
		out.TLS = append(out.TLS, tlsJSON{
			Protocol:     t.Protocol,
			Port:         t.Port,
			Usage:        t.Usage,
			Selector:     t.Selector,
			MatchingType: t.MatchingType,
			Certificate:  hex.EncodeToString(t.Certificate),
		})
	}
	for _, s := range rec.SSH {
		out.SSH = append(out.SSH, sshJSON{
			Algorithm:   s.Algorithm,
			Type:        s.Type,
			Fingerprint: hex.EncodeToString(s.Fingerprint),
		})
	}
	for _, p := range rec.PGP {
		out.PGP = append(out.PGP, sshJSON{
			Algorithm:   p.Algorithm,
			Type:        p.Type,
			Fingerprint: hex.EncodeToString(p.Fingerprint),
		})
	}
	for _, a := range rec.Addr {
		out.Addr = append(out.Addr, a.Currency+":"+a.Address)
	}
	for _, e := range rec.Extra {
		out.Extra = append(out.Extra, extraJSON{
			Type: e.Type,
			Data: hex.EncodeToString(e.Data),
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a record from its external JSON shape. Lists
// keep their order and duplicates; nothing is deduplicated.
func (rec *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Record{
		Version: in.Version,
		Name:    in.Name,
		TTL:     in.TTL,
		URL:     in.URL,
		Email:   in.Email,
		Text:    in.Text,
	}
	for _, s := range out.URL {
		if len(s) > 255 {
			return fmt.Errorf("%w: url", ErrValueTooLong)
		}
	}
	for _, s := range out.Email {
		if len(s) > 255 {
			return fmt.Errorf("%w: email", ErrValueTooLong)
		}
	}
	for _, s := range out.Text {
		if len(s) > 255 {
			return fmt.Errorf("%w: text", ErrValueTooLong)
		}
	}
	for _, v := range in.Hosts {
		t, err := NewTarget(v)
		if err != nil {
			return err
		}
		if !t.IsINET() && !t.IsTor() {
			return fmt.Errorf("%w: host %q is not an address", ErrInvalidTarget, v)
		}
		out.Hosts = append(out.Hosts, t)
	}
	if in.Canonical != "" {
		t, err := NewTarget(in.Canonical)
		if err != nil {
			return err
		}
		if !t.IsName() {
			return fmt.Errorf("%w: canonical %q is not a name", ErrInvalidTarget, in.Canonical)
		}
		out.Canonical = &t
	}
	if in.Delegate != "" {
		t, err := NewTarget(in.Delegate)
		if err != nil {
			return err
		}
		if !t.IsName() {
			return fmt.Errorf("%w: delegate %q is not a name", ErrInvalidTarget, in.Delegate)
		}
		out.Delegate = &t
	}
	for _, v := range in.NS {
		t, err := NewTarget(v)
		if err != nil {
			return err
		}
		out.NS = append(out.NS, t)
	}
	for _, s := range in.Service {
		t, err := NewTarget(s.Target)
		if err != nil {
			return err
		}
		out.Service = append(out.Service, Service{
			Service:  s.Service,
			Protocol: s.Protocol,
			Priority: s.Priority,
			Weight:   s.Weight,
			Target:   t,
			Port:     s.Port,
		})
	}
	for _, l := range in.Location {
		out.Location = append(out.Location, Location(l))
	}
	for _, uri := range in.Magnet {
		m, err := ParseMagnet(uri)
		if err != nil {
			return err
		}
		out.Magnet = append(out.Magnet, m)
	}
	for _, d := range in.DS {
		digest, err := hex.DecodeString(d.Digest)
		if err != nil {
			return fmt.Errorf("invalid ds digest: %w", err)
		}
		out.DS = append(out.DS, DS{
			KeyTag:     d.KeyTag,
			Algorithm:  d.Algorithm,
			DigestType: d.DigestType,
			Digest:     digest,
		})
	}
	for _, t := range in.TLS {
		cert, err := hex.DecodeString(t.Certificate)
		if err != nil {
			return fmt.Errorf("invalid tls certificate: %w", err)
		}
		out.TLS = append(out.TLS, TLS{
			Protocol:     t.Protocol,
			Port:         t.Port,
			Usage:        t.Usage,
			Selector:     t.Selector,
			MatchingType: t.MatchingType,
			Certificate:  cert,
		})
	}
	var err error
	if out.SSH, err = sshFromJSON(in.SSH); err != nil {
		return err
	}
	if out.PGP, err = sshFromJSON(in.PGP); err != nil {
		return err
	}
	for _, v := range in.Addr {
		currency, address, ok := strings.Cut(v, ":")
		if !ok || currency == "" {
			return fmt.Errorf("invalid addr %q", v)
		}
		out.Addr = append(out.Addr, Addr{Currency: currency, Address: address})
	}
	for _, e := range in.Extra {
		raw, err := hex.DecodeString(e.Data)
		if err != nil {
			return fmt.Errorf("invalid extra data: %w", err)
		}
		out.Extra = append(out.Extra, Extra{Type: e.Type, Data: raw})
	}
	*rec = out
	return nil
}

func sshFromJSON(in []sshJSON) ([]SSH, error) {
	var out []SSH
	for _, s := range in {
		fp, err := hex.DecodeString(s.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("invalid fingerprint: %w", err)
		}
		if len(fp) > 255 {
			return nil, fmt.Errorf("%w: fingerprint", ErrValueTooLong)
		}
		out = append(out, SSH{Algorithm: s.Algorithm, Type: s.Type, Fingerprint: fp})
	}
	return out, nil
}
