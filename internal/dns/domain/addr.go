package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

// Native currency and its bech32 prefixes.
const (
	addrNativeCurrency = "hsk"
	addrMainnetHRP     = "hs"
	addrTestnetHRP     = "ts"
)

// Flag bits of the native-form length byte: the high bit marks native
// form, the next bit selects testnet, the low six bits carry the hash
// length.
const (
	addrNativeFlag  = 0x80
	addrTestnetFlag = 0x40
	addrLenMask     = 0x3f
)

// Addr is a payment address for some currency. The native currency is
// carried as a versioned hash with a network flag; everything else is an
// opaque ASCII address.
type Addr struct {
	Currency string
	Address  string
}

// native parses the bech32 form of a native address into its version
// byte, hash program, and network flag.
func (a Addr) native() (version uint8, hash []byte, testnet bool, err error) {
	hrp, data, err := bech32.Decode(a.Address)
	if err != nil {
		return 0, nil, false, fmt.Errorf("invalid native address %q: %w", a.Address, err)
	}
	switch hrp {
	case addrMainnetHRP:
	case addrTestnetHRP:
		testnet = true
	default:
		return 0, nil, false, fmt.Errorf("invalid native address prefix %q", hrp)
	}
	if len(data) < 1 {
		return 0, nil, false, fmt.Errorf("invalid native address %q: empty data", a.Address)
	}
	hash, err = bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return 0, nil, false, fmt.Errorf("invalid native address %q: %w", a.Address, err)
	}
	if len(hash) > addrLenMask {
		return 0, nil, false, fmt.Errorf("%w: native hash %d bytes", ErrValueTooLong, len(hash))
	}
	return data[0], hash, testnet, nil
}

// formatNative renders a version+hash pair back into a bech32 address.
func formatNative(version uint8, hash []byte, testnet bool) (string, error) {
	conv, err := bech32.ConvertBits(hash, 8, 5, true)
	if err != nil {
		return "", err
	}
	hrp := addrMainnetHRP
	if testnet {
		hrp = addrTestnetHRP
	}
	return bech32.Encode(hrp, append([]byte{version}, conv...))
}

func (a Addr) learn(enc *compress.Encoder) {
	enc.Add(a.Currency)
}

// Size returns the wire size of the address body.
func (a Addr) Size(enc *compress.Encoder) int {
	if a.Currency == addrNativeCurrency {
		if _, hash, _, err := a.native(); err == nil {
			return 2 + len(hash)
		}
	}
	return enc.Size(a.Currency) + 1 + len(a.Address)
}

// Write emits the address body.
func (a Addr) Write(w *bio.Writer, enc *compress.Encoder) error {
	if a.Currency == addrNativeCurrency {
		version, hash, testnet, err := a.native()
		if err != nil {
			return err
		}
		flags := uint8(addrNativeFlag | len(hash))
		if testnet {
			flags |= addrTestnetFlag
		}
		w.WriteU8(flags)
		w.WriteU8(version)
		w.WriteBytes(hash)
		return nil
	}
	if err := enc.WriteString(w, a.Currency); err != nil {
		return err
	}
	if len(a.Address) > 255 {
		return fmt.Errorf("%w: address %d bytes", ErrValueTooLong, len(a.Address))
	}
	w.WriteU8(uint8(len(a.Address)))
	w.WriteString(a.Address)
	return nil
}

// readAddr parses an address body. The leading byte discriminates: the
// high bit marks the native form, and a compressed currency string never
// sets it.
func readAddr(r *bio.Reader, dec *compress.Decoder) (Addr, error) {
	b, err := r.PeekU8()
	if err != nil {
		return Addr{}, err
	}
	if b&addrNativeFlag != 0 {
		flags, _ := r.ReadU8()
		testnet := flags&addrTestnetFlag != 0
		size := int(flags & addrLenMask)
		version, err := r.ReadU8()
		if err != nil {
			return Addr{}, err
		}
		hash, err := r.ReadBytes(size)
		if err != nil {
			return Addr{}, err
		}
		address, err := formatNative(version, hash, testnet)
		if err != nil {
			return Addr{}, err
		}
		return Addr{Currency: addrNativeCurrency, Address: address}, nil
	}
	currency, err := dec.ReadString(r)
	if err != nil {
		return Addr{}, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return Addr{}, err
	}
	address, err := r.ReadString(int(n))
	if err != nil {
		return Addr{}, err
	}
	return Addr{Currency: currency, Address: address}, nil
}
