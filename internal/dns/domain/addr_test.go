package domain

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

// nativeAddr builds a bech32 native address from a version and hash.
func nativeAddr(t *testing.T, hrp string, version uint8, hash []byte) string {
	t.Helper()
	conv, err := bech32.ConvertBits(hash, 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.Encode(hrp, append([]byte{version}, conv...))
	require.NoError(t, err)
	return addr
}

func addrRoundTrip(t *testing.T, a Addr) Addr {
	t.Helper()
	enc := compress.NewEncoder()
	a.learn(enc)

	w := bio.NewWriter(0)
	enc.WriteTable(w)
	require.NoError(t, a.Write(w, enc))
	assert.Equal(t, enc.TableSize()+a.Size(enc), w.Len(), "size mismatch")

	r := bio.NewReader(w.Bytes())
	dec, err := compress.ReadTable(r)
	require.NoError(t, err)
	back, err := readAddr(r, dec)
	require.NoError(t, err)
	assert.Zero(t, r.Remaining())
	return back
}

func TestAddrNativeRoundTrip(t *testing.T) {
	hash := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	a := Addr{Currency: "hsk", Address: nativeAddr(t, "hs", 0, hash)}
	back := addrRoundTrip(t, a)
	assert.Equal(t, a, back)
}

func TestAddrNativeTestnet(t *testing.T) {
	hash := []byte{0xff, 0xee, 0xdd}
	a := Addr{Currency: "hsk", Address: nativeAddr(t, "ts", 1, hash)}
	back := addrRoundTrip(t, a)
	assert.Equal(t, a, back)
}

func TestAddrNativeWireLayout(t *testing.T) {
	hash := []byte{0xab, 0xcd}
	a := Addr{Currency: "hsk", Address: nativeAddr(t, "ts", 5, hash)}

	enc := compress.NewEncoder()
	w := bio.NewWriter(0)
	require.NoError(t, a.Write(w, enc))

	// {0x80 | testnet | len}{version}{hash}
	require.Equal(t, 4, w.Len())
	assert.Equal(t, uint8(0x80|0x40|2), w.Bytes()[0])
	assert.Equal(t, uint8(5), w.Bytes()[1])
	assert.Equal(t, []byte{0xab, 0xcd}, w.Bytes()[2:])
}

func TestAddrForeignRoundTrip(t *testing.T) {
	a := Addr{Currency: "btc", Address: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"}
	back := addrRoundTrip(t, a)
	assert.Equal(t, a, back)
}

func TestAddrRejectsBadNative(t *testing.T) {
	a := Addr{Currency: "hsk", Address: "definitely-not-bech32"}
	enc := compress.NewEncoder()
	a.learn(enc)
	w := bio.NewWriter(0)
	assert.Error(t, a.Write(w, enc))
}
