package domain

import (
	"fmt"

	"github.com/micjavier/hsd/internal/dns/common/bio"
)

// DS is a delegation signer digest. These are the only DNSSEC records
// the record set carries; answers themselves are never signed here.
type DS struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
}

// Size returns the wire size of the digest body.
func (d DS) Size() int {
	return 5 + len(d.Digest)
}

// Write emits the digest body.
func (d DS) Write(w *bio.Writer) error {
	if len(d.Digest) > 255 {
		return fmt.Errorf("%w: digest %d bytes", ErrValueTooLong, len(d.Digest))
	}
	w.WriteU16(d.KeyTag)
	w.WriteU8(d.Algorithm)
	w.WriteU8(d.DigestType)
	w.WriteU8(uint8(len(d.Digest)))
	w.WriteBytes(d.Digest)
	return nil
}

// readDS parses a digest body.
func readDS(r *bio.Reader) (DS, error) {
	var d DS
	var err error
	if d.KeyTag, err = r.ReadU16(); err != nil {
		return DS{}, err
	}
	if d.Algorithm, err = r.ReadU8(); err != nil {
		return DS{}, err
	}
	if d.DigestType, err = r.ReadU8(); err != nil {
		return DS{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return DS{}, err
	}
	if d.Digest, err = r.ReadBytes(int(n)); err != nil {
		return DS{}, err
	}
	return d, nil
}
