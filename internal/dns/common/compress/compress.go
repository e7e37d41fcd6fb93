// Package compress implements the per-record string dictionary.
//
// Every string a record will serialize is added to an Encoder before any
// sizing or writing happens. The Encoder emits its table once, at the head
// of the record body, and thereafter writes each string as a short
// reference into the table. The Decoder reads the table back and resolves
// references (or inline literals) while the record body is parsed.
package compress

import (
	"errors"
	"fmt"

	"github.com/micjavier/hsd/internal/dns/common/bio"
)

const (
	// refMarker introduces a table reference. Literal length bytes stop
	// below it, and neither form ever sets the high bit: contexts that
	// overload the leading byte (the Addr native flag) stay unambiguous.
	refMarker = 0x7f

	// maxLiteral is the longest string that can be written inline.
	maxLiteral = refMarker - 1

	// maxEntries is the number of table slots addressable by a
	// one-byte reference index.
	maxEntries = 128

	// maxEntry is the longest string a table slot can hold.
	maxEntry = 255
)

// ErrStringTooLong is returned when a string can neither be referenced
// nor written as an inline literal.
var ErrStringTooLong = errors.New("string too long to compress")

// Encoder is the learn/emit side of the dictionary.
type Encoder struct {
	words []string
	index map[string]int
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{index: make(map[string]int)}
}

// Add registers s in the table. Duplicates are ignored; strings past the
// table capacity or over the entry size are left for inline encoding.
func (e *Encoder) Add(s string) {
	if len(s) > maxEntry {
		return
	}
	if _, ok := e.index[s]; ok {
		return
	}
	if len(e.words) >= maxEntries {
		return
	}
	e.index[s] = len(e.words)
	e.words = append(e.words, s)
}

// Size returns the number of bytes WriteString will emit for s.
func (e *Encoder) Size(s string) int {
	if _, ok := e.index[s]; ok {
		return 2
	}
	return 1 + len(s)
}

// TableSize returns the byte size of the emitted table.
func (e *Encoder) TableSize() int {
	n := 1
	for _, w := range e.words {
		n += 1 + len(w)
	}
	return n
}

// WriteTable emits the symbol table.
func (e *Encoder) WriteTable(w *bio.Writer) {
	w.WriteU8(uint8(len(e.words)))
	for _, word := range e.words {
		w.WriteU8(uint8(len(word)))
		w.WriteString(word)
	}
}

// WriteString emits s as a table reference when possible, otherwise as an
// inline literal.
func (e *Encoder) WriteString(w *bio.Writer, s string) error {
	if i, ok := e.index[s]; ok {
		w.WriteU8(refMarker)
		w.WriteU8(uint8(i))
		return nil
	}
	if len(s) > maxLiteral {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	w.WriteU8(uint8(len(s)))
	w.WriteString(s)
	return nil
}

// Decoder is the read side of the dictionary.
type Decoder struct {
	words []string
}

// ReadTable parses the symbol table from the head of a record body.
func ReadTable(r *bio.Reader) (*Decoder, error) {
	count, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	d := &Decoder{words: make([]string, 0, count)}
	for i := 0; i < int(count); i++ {
		n, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		word, err := r.ReadString(int(n))
		if err != nil {
			return nil, err
		}
		d.words = append(d.words, word)
	}
	return d, nil
}

// ReadString resolves one compressed string: a reference into the table,
// or an inline literal.
func (d *Decoder) ReadString(r *bio.Reader) (string, error) {
	b, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	if b == refMarker {
		i, err := r.ReadU8()
		if err != nil {
			return "", err
		}
		if int(i) >= len(d.words) {
			return "", fmt.Errorf("string table reference out of range: %d", i)
		}
		return d.words[int(i)], nil
	}
	if b > maxLiteral {
		return "", fmt.Errorf("invalid string discriminator: 0x%02x", b)
	}
	return r.ReadString(int(b))
}
