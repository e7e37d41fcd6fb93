// Package domain defines the name-record data model: the tag registry,
// the polymorphic Target, the leaf record types, and the Record aggregate
// with its wire and JSON codecs.
package domain

// Record tags. Single-byte, fixed values; part of the wire format.
// Tags 1-7 double as Target kinds: a host tag at the top level is the
// kind byte of the Target that follows.
const (
	TagINET4     uint8 = 1
	TagINET6     uint8 = 2
	TagONION     uint8 = 3
	TagONIONNG   uint8 = 5
	TagINAME     uint8 = 6
	TagHNAME     uint8 = 7
	TagCANONICAL uint8 = 8
	TagDELEGATE  uint8 = 9
	TagNS        uint8 = 10
	TagSERVICE   uint8 = 11
	TagURL       uint8 = 12
	TagEMAIL     uint8 = 13
	TagTEXT      uint8 = 14
	TagLOCATION  uint8 = 15
	TagMAGNET    uint8 = 16
	TagDS        uint8 = 17
	TagTLS       uint8 = 18
	TagSSH       uint8 = 19
	TagPGP       uint8 = 20
	TagADDR      uint8 = 21
)

// TLD suffix markers. Name targets carry one of two single-character
// top-level domains selecting their resolution root; the suffix is
// stripped before wire compression and re-appended on decode.
const (
	ICANN  = "i"  // the ICANN root
	HSK    = "h"  // the native root
	ICANNP = ".i" // suffix form
	HSKP   = ".h"
	ICANNS = "i." // fqdn form
	HSKS   = "h."
)
