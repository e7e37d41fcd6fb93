package addrutil

import (
	"bytes"
	"encoding/base32"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// onion service addresses use lowercase RFC 4648 base32 without padding.
var onionBase32 = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

const (
	onionSuffix = ".onion"

	// v2 addresses are 16 base32 chars (10 bytes of RSA key digest).
	onionV2Chars = 16
	OnionV2Size  = 10

	// v3 addresses are 56 base32 chars: key (32) + checksum (2) + version (1).
	onionV3Chars = 56

	// OnionV3Size is the wire size: the key and version byte. The
	// checksum is recomputed on decode.
	OnionV3Size = 33
)

// ParseOnionV2 reports whether s is a v2 onion address, returning the
// normalized string form and the 10 raw bytes.
func ParseOnionV2(s string) (string, []byte, bool) {
	label, ok := onionLabel(s)
	if !ok || len(label) != onionV2Chars {
		return "", nil, false
	}
	raw, err := onionBase32.DecodeString(label)
	if err != nil || len(raw) != OnionV2Size {
		return "", nil, false
	}
	return label + onionSuffix, raw, true
}

// FormatOnionV2 renders 10 raw bytes as a v2 onion address.
func FormatOnionV2(raw []byte) (string, error) {
	if len(raw) != OnionV2Size {
		return "", fmt.Errorf("invalid onion v2 length: %d", len(raw))
	}
	return onionBase32.EncodeToString(raw) + onionSuffix, nil
}

// ParseOnionV3 reports whether s is a v3 onion address with a valid
// checksum, returning the normalized string form and the 33 wire bytes
// (ed25519 key followed by the version byte).
func ParseOnionV3(s string) (string, []byte, bool) {
	label, ok := onionLabel(s)
	if !ok || len(label) != onionV3Chars {
		return "", nil, false
	}
	raw, err := onionBase32.DecodeString(label)
	if err != nil || len(raw) != 35 {
		return "", nil, false
	}
	key, sum, version := raw[:32], raw[32:34], raw[34]
	if !bytes.Equal(sum, onionChecksum(key, version)) {
		return "", nil, false
	}
	wire := make([]byte, 0, OnionV3Size)
	wire = append(wire, key...)
	wire = append(wire, version)
	return label + onionSuffix, wire, true
}

// FormatOnionV3 renders the 33 wire bytes back into a v3 onion address,
// reinserting the checksum.
func FormatOnionV3(wire []byte) (string, error) {
	if len(wire) != OnionV3Size {
		return "", fmt.Errorf("invalid onion v3 length: %d", len(wire))
	}
	key, version := wire[:32], wire[32]
	full := make([]byte, 0, 35)
	full = append(full, key...)
	full = append(full, onionChecksum(key, version)...)
	full = append(full, version)
	return onionBase32.EncodeToString(full) + onionSuffix, nil
}

// onionChecksum derives the 2-byte v3 address checksum.
func onionChecksum(key []byte, version byte) []byte {
	h := sha3.New256()
	h.Write([]byte(".onion checksum"))
	h.Write(key)
	h.Write([]byte{version})
	return h.Sum(nil)[:2]
}

// onionLabel extracts the single label of an onion address, lowercased.
// Returns false unless s is exactly "<label>.onion".
func onionLabel(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if !strings.HasSuffix(s, onionSuffix) {
		return "", false
	}
	label := strings.TrimSuffix(s, onionSuffix)
	if label == "" || strings.Contains(label, ".") {
		return "", false
	}
	return label, true
}
