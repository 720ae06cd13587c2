// Package sensor holds the decoder capability, the name-keyed decoder
// registry, and the resolver that attaches a decoder to a device record.
package sensor

import (
	"ruuvicollector/internal/config"
	"ruuvicollector/internal/model"
	"ruuvicollector/internal/registry"
)

// Decoder is the capability set every sensor type implements. It is a
// stateless strategy value: a decoder never holds a reference to the
// device it decodes — every method takes the record explicitly, looked up
// fresh from the registry on each call, which avoids a device/decoder
// reference cycle.
type Decoder interface {
	// Name is the stable registry key, also the devicemap's "sensor_if"
	// value and the --devicemap "auto" sentinel's complement.
	Name() string

	// IsValid is a pure predicate over the record's current payload bytes
	// — no side effects, safe to call every tick.
	IsValid(rec *registry.Record) bool

	// Measurements returns the untagged scalar map used by the influxdb
	// and prometheus consumers, present iff every required field decoded.
	Measurements(rec *registry.Record) (map[string]model.Value, bool)

	// MeasurementsText and MeasurementsJSON render the same underlying
	// measurement for the stdout and stdoutjson consumers respectively.
	MeasurementsText(rec *registry.Record) (string, bool)
	MeasurementsJSON(rec *registry.Record) (string, bool)
}

// Registry is the name-keyed decoder capability set, distinct from the
// device registry in package registry.
type Registry struct {
	decoders map[string]Decoder
}

func NewRegistry(decoders ...Decoder) *Registry {
	r := &Registry{decoders: make(map[string]Decoder, len(decoders))}
	for _, d := range decoders {
		r.decoders[d.Name()] = d
	}
	return r
}

func (r *Registry) Get(name string) (Decoder, bool) {
	d, ok := r.decoders[name]
	return d, ok
}

// Names returns the registered decoder names in unspecified order: the
// auto-probe order across decoders is undefined, and this module
// deliberately does not impose one.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		out = append(out, name)
	}
	return out
}

// Resolver binds a decoder to a device record and keeps that binding
// stable across ticks until the record's payload stops matching it.
type Resolver struct {
	decoders *Registry
}

func NewResolver(decoders *Registry) *Resolver {
	return &Resolver{decoders: decoders}
}

// InitialDiscoveryMode resolves a freshly-seen address's discovery mode:
// Explicit(name) iff the config maps this MAC to a decoder name other than
// "auto", else Auto — unless --manual disabled auto-discovery globally, in
// which case an unmapped or "auto"-mapped address is pinned to Explicit("")
// so it never resolves a decoder and the record is dropped rather than
// silently auto-probed.
func (res *Resolver) InitialDiscoveryMode(cfg config.SensorConf, address string) registry.DiscoveryMode {
	name, ok := cfg.SensorIf(address)
	if !ok {
		if !cfg.Auto {
			return registry.Explicit("")
		}
		return registry.Auto
	}
	if name == "auto" {
		if !cfg.Auto {
			return registry.Explicit("")
		}
		return registry.Auto
	}
	return registry.Explicit(name)
}

// Attach resolves, re-resolves, or detaches a decoder for rec in place.
func (res *Resolver) Attach(rec *registry.Record) {
	if !rec.Mode.IsAuto() {
		res.attachConfigured(rec)
		return
	}
	res.attachAuto(rec)
}

func (res *Resolver) attachConfigured(rec *registry.Record) {
	if rec.HasDecoder() {
		// Configured records are bound once; they are not re-probed on
		// every tick.
		return
	}
	name, _ := rec.Mode.Name()
	if name == "auto" {
		res.autoFind(rec)
		return
	}
	d, ok := res.decoders.Get(name)
	if ok && d.IsValid(rec) {
		rec.DecoderName = name
		return
	}
	rec.DecoderName = ""
}

func (res *Resolver) attachAuto(rec *registry.Record) {
	if rec.HasDecoder() {
		if d, ok := res.decoders.Get(rec.DecoderName); ok && d.IsValid(rec) {
			return // hysteresis: don't rebuild a still-valid decoder.
		}
	}
	res.autoFind(rec)
}

func (res *Resolver) autoFind(rec *registry.Record) {
	for _, name := range res.decoders.Names() {
		d, _ := res.decoders.Get(name)
		if d.IsValid(rec) {
			rec.DecoderName = name
			return
		}
	}
	rec.DecoderName = ""
}
