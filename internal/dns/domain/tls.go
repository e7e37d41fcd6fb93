package domain

import (
	"fmt"

	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

// TLS is a certificate association (TLSA-shaped) scoped to a protocol
// and port.
type TLS struct {
	Protocol     string
	Port         uint16
	Usage        uint8
	Selector     uint8
	MatchingType uint8
	Certificate  []byte
}

func (t TLS) learn(enc *compress.Encoder) {
	enc.Add(t.Protocol)
}

// Size returns the wire size of the association body.
func (t TLS) Size(enc *compress.Encoder) int {
	return enc.Size(t.Protocol) + 2 + 3 + 1 + len(t.Certificate)
}

// Write emits the association body.
func (t TLS) Write(w *bio.Writer, enc *compress.Encoder) error {
	if len(t.Certificate) > 255 {
		return fmt.Errorf("%w: certificate %d bytes", ErrValueTooLong, len(t.Certificate))
	}
	if err := enc.WriteString(w, t.Protocol); err != nil {
		return err
	}
	w.WriteU16(t.Port)
	w.WriteU8(t.Usage)
	w.WriteU8(t.Selector)
	w.WriteU8(t.MatchingType)
	w.WriteU8(uint8(len(t.Certificate)))
	w.WriteBytes(t.Certificate)
	return nil
}

// readTLS parses an association body.
func readTLS(r *bio.Reader, dec *compress.Decoder) (TLS, error) {
	var t TLS
	var err error
	if t.Protocol, err = dec.ReadString(r); err != nil {
		return TLS{}, err
	}
	if t.Port, err = r.ReadU16(); err != nil {
		return TLS{}, err
	}
	if t.Usage, err = r.ReadU8(); err != nil {
		return TLS{}, err
	}
	if t.Selector, err = r.ReadU8(); err != nil {
		return TLS{}, err
	}
	if t.MatchingType, err = r.ReadU8(); err != nil {
		return TLS{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return TLS{}, err
	}
	if t.Certificate, err = r.ReadBytes(int(n)); err != nil {
		return TLS{}, err
	}
	return t, nil
}
