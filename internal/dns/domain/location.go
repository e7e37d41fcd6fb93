package domain

import (
	"github.com/micjavier/hsd/internal/dns/common/bio"
)

// locationSize is the fixed wire size of a Location; the fields are raw
// LOC rdata and never compressed.
const locationSize = 16

// Location is a geographic position in LOC record form.
type Location struct {
	Version   uint8
	Size      uint8
	HorizPre  uint8
	VertPre   uint8
	Latitude  uint32
	Longitude uint32
	Altitude  uint32
}

// WireSize returns the fixed wire size of the location body.
func (l Location) WireSize() int {
	return locationSize
}

// Write emits the location body.
func (l Location) Write(w *bio.Writer) {
	w.WriteU8(l.Version)
	w.WriteU8(l.Size)
	w.WriteU8(l.HorizPre)
	w.WriteU8(l.VertPre)
	w.WriteU32(l.Latitude)
	w.WriteU32(l.Longitude)
	w.WriteU32(l.Altitude)
}

// readLocation parses a location body.
func readLocation(r *bio.Reader) (Location, error) {
	var l Location
	var err error
	if l.Version, err = r.ReadU8(); err != nil {
		return Location{}, err
	}
	if l.Size, err = r.ReadU8(); err != nil {
		return Location{}, err
	}
	if l.HorizPre, err = r.ReadU8(); err != nil {
		return Location{}, err
	}
	if l.VertPre, err = r.ReadU8(); err != nil {
		return Location{}, err
	}
	if l.Latitude, err = r.ReadU32(); err != nil {
		return Location{}, err
	}
	if l.Longitude, err = r.ReadU32(); err != nil {
		return Location{}, err
	}
	if l.Altitude, err = r.ReadU32(); err != nil {
		return Location{}, err
	}
	return l, nil
}
