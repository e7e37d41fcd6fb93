// Package addrutil normalizes host address literals and implements the
// compact wire encodings for IPv6 addresses and Tor onion services.
package addrutil

import (
	"fmt"
	"math/bits"
	"net"

	"github.com/micjavier/hsd/internal/dns/common/bio"
)

// ParseIPv4 reports whether s is an IPv4 literal, returning its
// normalized dotted-quad text and raw 4 bytes.
func ParseIPv4(s string) (string, []byte, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return "", nil, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return "", nil, false
	}
	return v4.String(), []byte(v4), true
}

// ParseIPv6 reports whether s is an IPv6 literal (and not a mapped IPv4
// address), returning its normalized compressed text and raw 16 bytes.
func ParseIPv6(s string) (string, []byte, bool) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() != nil {
		return "", nil, false
	}
	v6 := ip.To16()
	if v6 == nil {
		return "", nil, false
	}
	return v6.String(), []byte(v6), true
}

// ipv6Bitmap returns a 16-bit map of which byte positions of ip are
// nonzero, most significant bit = byte 0.
func ipv6Bitmap(ip []byte) uint16 {
	var m uint16
	for i, b := range ip {
		if b != 0 {
			m |= 1 << (15 - i)
		}
	}
	return m
}

// SizeIPv6 returns the wire size of the compressed form of a 16-byte
// IPv6 address: a position bitmap plus the nonzero bytes.
func SizeIPv6(ip []byte) int {
	return 2 + bits.OnesCount16(ipv6Bitmap(ip))
}

// WriteIPv6 emits the compressed form of a 16-byte IPv6 address.
func WriteIPv6(w *bio.Writer, ip []byte) {
	m := ipv6Bitmap(ip)
	w.WriteU16(m)
	for _, b := range ip {
		if b != 0 {
			w.WriteU8(b)
		}
	}
}

// ReadIPv6 parses the compressed form back into 16 raw bytes.
func ReadIPv6(r *bio.Reader) ([]byte, error) {
	m, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	ip := make([]byte, 16)
	for i := 0; i < 16; i++ {
		if m&(1<<(15-i)) != 0 {
			b, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			ip[i] = b
		}
	}
	return ip, nil
}

// FormatIPv6 renders 16 raw bytes as normalized compressed text.
func FormatIPv6(ip []byte) (string, error) {
	if len(ip) != 16 {
		return "", fmt.Errorf("invalid IPv6 length: %d", len(ip))
	}
	return net.IP(ip).String(), nil
}

// FormatIPv4 renders 4 raw bytes as dotted-quad text.
func FormatIPv4(ip []byte) (string, error) {
	if len(ip) != 4 {
		return "", fmt.Errorf("invalid IPv4 length: %d", len(ip))
	}
	return net.IP(ip).String(), nil
}
