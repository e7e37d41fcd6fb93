package domain

import (
	"fmt"

	"github.com/micjavier/hsd/internal/dns/common/bio"
)

// SSH is an SSH host key fingerprint (SSHFP-shaped).
type SSH struct {
	Algorithm   uint8
	Type        uint8
	Fingerprint []byte
}

// PGP carries an OpenPGP key fingerprint. It is wire-identical to SSH
// and differs only by record tag.
type PGP = SSH

// Size returns the wire size of the fingerprint body.
func (s SSH) Size() int {
	return 3 + len(s.Fingerprint)
}

// Write emits the fingerprint body.
func (s SSH) Write(w *bio.Writer) error {
	if len(s.Fingerprint) > 255 {
		return fmt.Errorf("%w: fingerprint %d bytes", ErrValueTooLong, len(s.Fingerprint))
	}
	w.WriteU8(s.Algorithm)
	w.WriteU8(s.Type)
	w.WriteU8(uint8(len(s.Fingerprint)))
	w.WriteBytes(s.Fingerprint)
	return nil
}

// readSSH parses a fingerprint body.
func readSSH(r *bio.Reader) (SSH, error) {
	var s SSH
	var err error
	if s.Algorithm, err = r.ReadU8(); err != nil {
		return SSH{}, err
	}
	if s.Type, err = r.ReadU8(); err != nil {
		return SSH{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return SSH{}, err
	}
	if s.Fingerprint, err = r.ReadBytes(int(n)); err != nil {
		return SSH{}, err
	}
	return s, nil
}
