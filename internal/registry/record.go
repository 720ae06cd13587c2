// Package registry holds the device registry: the keyed, mutable inventory
// of BLE peers discovered across ticks.
package registry

import (
	"bytes"
	"time"
)

// DiscoveryMode is a tagged union: a record
// either always auto-probes for a decoder, or is pinned to one explicit
// decoder name. The config-boundary string "auto" is folded into Auto
// before it ever reaches a Record — see sensor.Resolver.InitialDiscoveryMode.
type DiscoveryMode struct {
	explicit string
	isAuto   bool
}

// Auto is the discovery mode that probes every registered decoder. The zero
// DiscoveryMode is not Auto: it is Explicit("").
var Auto = DiscoveryMode{isAuto: true}

// Explicit pins discovery to a single named decoder.
func Explicit(name string) DiscoveryMode {
	return DiscoveryMode{explicit: name}
}

func (d DiscoveryMode) IsAuto() bool { return d.isAuto }

// Name returns the pinned decoder name and true, or ("", false) for Auto.
func (d DiscoveryMode) Name() (string, bool) {
	if d.isAuto {
		return "", false
	}
	return d.explicit, true
}

// Record is one device entity, keyed by its BlueZ object path.
// It never holds a pointer back to a decoder instance — decoders are
// stateless strategies invoked against whatever
// record the registry currently holds; the record only remembers which
// decoder name, if any, is currently resolved.
type Record struct {
	ObjectPath string
	Address    string
	Tag        string

	MfrData map[uint16][]byte
	SvcData map[string][]byte

	MeasurementTimestampMS int64
	LastSeen               time.Time
	LastSeenForget         time.Duration

	Mode        DiscoveryMode
	DecoderName string // empty when no decoder is currently attached
}

// IsFresh reports whether now - last_seen < last_seen_forget.
func (r *Record) IsFresh(now time.Time) bool {
	return now.Sub(r.LastSeen) < r.LastSeenForget
}

// HasDecoder reports whether a decoder is currently resolved for this
// record.
func (r *Record) HasDecoder() bool {
	return r.DecoderName != ""
}

// setMfrData reports whether the stored manufacturer-data map differs from
// the supplied one, replacing it if so. A nil map and an empty map are
// distinct.
func (r *Record) setMfrData(m map[uint16][]byte) bool {
	if mfrDataEqual(r.MfrData, m) {
		return false
	}
	r.MfrData = m
	return true
}

func (r *Record) setSvcData(m map[string][]byte) bool {
	if svcDataEqual(r.SvcData, m) {
		return false
	}
	r.SvcData = m
	return true
}

func mfrDataEqual(a, b map[uint16][]byte) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !bytes.Equal(av, bv) {
			return false
		}
	}
	return true
}

func svcDataEqual(a, b map[string][]byte) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !bytes.Equal(av, bv) {
			return false
		}
	}
	return true
}
