package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

const magnetPrefix = "magnet:?xt=urn:"

// Magnet is a content link: a namespace identifier and its hash,
// round-tripped through the magnet URI form.
type Magnet struct {
	NID string
	NIN []byte
}

// String renders the magnet URI.
func (m Magnet) String() string {
	return magnetPrefix + m.NID + ":" + hex.EncodeToString(m.NIN)
}

// ParseMagnet parses a magnet URI of the form magnet:?xt=urn:<nid>:<hex>.
func ParseMagnet(uri string) (Magnet, error) {
	rest, ok := strings.CutPrefix(uri, magnetPrefix)
	if !ok {
		return Magnet{}, fmt.Errorf("invalid magnet URI: %q", uri)
	}
	nid, hexNIN, ok := strings.Cut(rest, ":")
	if !ok || nid == "" {
		return Magnet{}, fmt.Errorf("invalid magnet URI: %q", uri)
	}
	nin, err := hex.DecodeString(hexNIN)
	if err != nil {
		return Magnet{}, fmt.Errorf("invalid magnet hash in %q: %w", uri, err)
	}
	return Magnet{NID: nid, NIN: nin}, nil
}

func (m Magnet) learn(enc *compress.Encoder) {
	enc.Add(m.NID)
}

// Size returns the wire size of the magnet body.
func (m Magnet) Size(enc *compress.Encoder) int {
	return enc.Size(m.NID) + 1 + len(m.NIN)
}

// Write emits the magnet body. The hash is stored raw, at half its hex
// length.
func (m Magnet) Write(w *bio.Writer, enc *compress.Encoder) error {
	if len(m.NIN) > 255 {
		return fmt.Errorf("%w: hash %d bytes", ErrValueTooLong, len(m.NIN))
	}
	if err := enc.WriteString(w, m.NID); err != nil {
		return err
	}
	w.WriteU8(uint8(len(m.NIN)))
	w.WriteBytes(m.NIN)
	return nil
}

// readMagnet parses a magnet body.
func readMagnet(r *bio.Reader, dec *compress.Decoder) (Magnet, error) {
	var m Magnet
	var err error
	if m.NID, err = dec.ReadString(r); err != nil {
		return Magnet{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return Magnet{}, err
	}
	if m.NIN, err = r.ReadBytes(int(n)); err != nil {
		return Magnet{}, err
	}
	return m, nil
}
