package registry

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Registry is the keyed device inventory. It is backed by patrickmn/go-cache
// used purely as a concurrent-safe keyed container: a device's lifecycle
// forbids the core from ever deleting a record (freshness filtering hides
// stale records from consumers but retains their state for re-activation),
// so the cache is built with cache.NoExpiration and no janitor goroutine —
// nothing in this registry ever expires an entry automatically.
type Registry struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func New() *Registry {
	return &Registry{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// NewRecordFunc constructs the initial state for a record that does not yet
// exist in the registry: the tag and discovery mode come from configuration,
// and the freshness threshold from the collector's configured interval.
type NewRecordFunc func(address string) (tag string, mode DiscoveryMode, forget time.Duration)

// AttachFunc resolves (or re-resolves, or detaches) a decoder for the given
// record in place. It runs once per Upsert call, on both new
// and existing records, after any payload mutation has been applied.
type AttachFunc func(*Record)

// Upsert applies one tick's observation of a device at path.
//
// If a record exists at path: address is always overwritten; mfr/svc data
// are replaced only when their bytes differ from what's stored, and only a
// change to either one advances measurement_timestamp and resets last_seen.
//
// If no record exists: newRecord supplies the tag/discovery-mode/freshness
// to seed it with, attach is invoked, and the record is kept only if attach
// left it with a decoder — otherwise Upsert is a no-op (the registry must
// not accumulate devices nobody can decode).
func (r *Registry) Upsert(
	path, address string,
	mfrData map[uint16][]byte,
	svcData map[string][]byte,
	tickTimestampMS int64,
	now time.Time,
	newRecord NewRecordFunc,
	attach AttachFunc,
) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.cache.Get(path); ok {
		rec := existing.(*Record)
		rec.Address = address
		changed := rec.setMfrData(mfrData)
		changed = rec.setSvcData(svcData) || changed
		if changed {
			rec.MeasurementTimestampMS = tickTimestampMS
			rec.LastSeen = now
		}
		attach(rec)
		return
	}

	tag, mode, forget := newRecord(address)
	rec := &Record{
		ObjectPath:             path,
		Address:                address,
		Tag:                    tag,
		MfrData:                mfrData,
		SvcData:                svcData,
		MeasurementTimestampMS: tickTimestampMS,
		LastSeen:               now,
		LastSeenForget:         forget,
		Mode:                   mode,
	}
	attach(rec)
	if !rec.HasDecoder() {
		// Nothing could decode this device yet: don't let the registry
		// accumulate unrelated BLE traffic.
		return
	}
	r.cache.SetDefault(path, rec)
}

// Get returns the record at path, if any.
func (r *Registry) Get(path string) (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*Record), true
}

// Fresh returns every record that currently bears a decoder AND is fresh,
// for a read-only view of currently-decodable devices.
func (r *Registry) Fresh(now time.Time) []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.cache.Items()
	out := make([]*Record, 0, len(items))
	for _, item := range items {
		rec := item.Object.(*Record)
		if rec.HasDecoder() && rec.IsFresh(now) {
			out = append(out, rec)
		}
	}
	return out
}

// Snapshot returns every known record regardless of freshness or decoder
// state, for diagnostics. The collection loop does not call it: its status
// line uses Count and its consumer dispatch uses Fresh.
func (r *Registry) Snapshot() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.cache.Items()
	out := make([]*Record, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*Record))
	}
	return out
}

// Count returns the number of known records.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.ItemCount()
}
