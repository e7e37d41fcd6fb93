package domain

import (
	"fmt"

	"github.com/micjavier/hsd/internal/dns/common/bio"
)

// Extra preserves a record with an unrecognized tag: the tag byte and
// one length-prefixed blob, carried verbatim so unknown extensions
// survive a decode/encode round-trip.
type Extra struct {
	Type uint8
	Data []byte
}

// Size returns the wire size of the opaque body.
func (e Extra) Size() int {
	return 1 + len(e.Data)
}

// Write emits the opaque body. The type byte is the record tag and is
// written by the record loop.
func (e Extra) Write(w *bio.Writer) error {
	if len(e.Data) > 255 {
		return fmt.Errorf("%w: extra %d bytes", ErrValueTooLong, len(e.Data))
	}
	w.WriteU8(uint8(len(e.Data)))
	w.WriteBytes(e.Data)
	return nil
}

// readExtra parses an opaque body for the given unrecognized tag.
func readExtra(tag uint8, r *bio.Reader) (Extra, error) {
	n, err := r.ReadU8()
	if err != nil {
		return Extra{}, err
	}
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return Extra{}, err
	}
	return Extra{Type: tag, Data: data}, nil
}
