package domain

import (
	"github.com/micjavier/hsd/internal/dns/common/bio"
	"github.com/micjavier/hsd/internal/dns/common/compress"
)

// Service describes one service endpoint: an SRV-shaped tuple whose
// target may be a name or an inline IP.
type Service struct {
	Service  string
	Protocol string
	Priority uint8
	Weight   uint8
	Target   Target
	Port     uint16
}

// IsSMTP reports whether the service is a mail exchanger.
func (s Service) IsSMTP() bool {
	return s.Service == "smtp" && s.Protocol == "tcp"
}

func (s Service) learn(enc *compress.Encoder) {
	enc.Add(s.Service)
	enc.Add(s.Protocol)
	s.Target.learn(enc)
}

// Size returns the wire size of the service body.
func (s Service) Size(enc *compress.Encoder) int {
	return enc.Size(s.Service) + enc.Size(s.Protocol) + 2 + s.Target.Size(enc) + 2
}

// Write emits the service body.
func (s Service) Write(w *bio.Writer, enc *compress.Encoder) error {
	if err := enc.WriteString(w, s.Service); err != nil {
		return err
	}
	if err := enc.WriteString(w, s.Protocol); err != nil {
		return err
	}
	w.WriteU8(s.Priority)
	w.WriteU8(s.Weight)
	if err := s.Target.Write(w, enc); err != nil {
		return err
	}
	w.WriteU16(s.Port)
	return nil
}

// readService parses a service body.
func readService(r *bio.Reader, dec *compress.Decoder) (Service, error) {
	var s Service
	var err error
	if s.Service, err = dec.ReadString(r); err != nil {
		return Service{}, err
	}
	if s.Protocol, err = dec.ReadString(r); err != nil {
		return Service{}, err
	}
	if s.Priority, err = r.ReadU8(); err != nil {
		return Service{}, err
	}
	if s.Weight, err = r.ReadU8(); err != nil {
		return Service{}, err
	}
	if s.Target, err = readFullTarget(r, dec); err != nil {
		return Service{}, err
	}
	if s.Port, err = r.ReadU16(); err != nil {
		return Service{}, err
	}
	return s, nil
}
