// Package collector is the orchestrator tying the adapter client, the
// device registry, the decoder resolver, and a consumer into the tick loop.
package collector

import (
	"context"
	"time"

	"ruuvicollector/internal/bluez"
	"ruuvicollector/internal/companyid"
	"ruuvicollector/internal/config"
	"ruuvicollector/internal/consumer"
	"ruuvicollector/internal/registry"
	"ruuvicollector/internal/sensor"
	"ruuvicollector/internal/util"
)

// Loop is the collection cycle: poll, upsert, resolve, filter for
// freshness, forward to the consumer, sleep.
type Loop struct {
	bt       *bluez.Client
	reg      *registry.Registry
	resolver *sensor.Resolver
	decoders *sensor.Registry
	cfg      config.SensorConf
	sink     consumer.Consumer
	interval time.Duration
	vendors  *companyid.Directory
}

func New(
	bt *bluez.Client,
	reg *registry.Registry,
	resolver *sensor.Resolver,
	decoders *sensor.Registry,
	cfg config.SensorConf,
	sink consumer.Consumer,
	interval time.Duration,
	vendors *companyid.Directory,
) *Loop {
	return &Loop{
		bt:       bt,
		reg:      reg,
		resolver: resolver,
		decoders: decoders,
		cfg:      cfg,
		sink:     sink,
		interval: interval,
		vendors:  vendors,
	}
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single poll/upsert/attach/consume cycle ("list and
// exit" one-shot mode) and returns.
func (l *Loop) RunOnce(ctx context.Context) error {
	return l.tick(ctx)
}

func (l *Loop) tick(ctx context.Context) error {
	now := time.Now()

	snap, err := l.bt.Poll(ctx)
	if err != nil {
		// A transient poll error skips this tick's update step; the
		// previous registry state (and hence fresh set) is reused, and
		// the next tick retries.
		util.Linef("[COLLECTOR]", util.ColorYellow, "poll failed, skipping update: %v", err)
	} else {
		for _, d := range snap.Devices {
			l.reg.Upsert(
				d.ObjectPath, d.Address, d.MfrData, d.SvcData,
				snap.TimestampMS, now,
				func(address string) (string, registry.DiscoveryMode, time.Duration) {
					return l.cfg.Tag(address), l.resolver.InitialDiscoveryMode(l.cfg, address), l.cfg.LastSeenForget
				},
				l.attachAndDiagnose,
			)
		}
	}

	fresh := l.reg.Fresh(now)
	sensors := make([]consumer.Sensor, 0, len(fresh))
	for _, rec := range fresh {
		d, ok := l.decoders.Get(rec.DecoderName)
		if !ok {
			continue
		}
		values, _ := d.Measurements(rec)
		text, _ := d.MeasurementsText(rec)
		js, _ := d.MeasurementsJSON(rec)
		sensors = append(sensors, consumer.Sensor{
			Address:     rec.Address,
			Tag:         rec.Tag,
			DecoderName: rec.DecoderName,
			LastSeen:    rec.LastSeen,
			Values:      values,
			Text:        text,
			JSON:        js,
		})
	}

	util.Linef("[COLLECTOR]", util.ColorGray, "registry=%d fresh=%d", l.reg.Count(), len(sensors))

	return l.sink.Consume(now, sensors)
}

// attachAndDiagnose wraps the resolver's attach step so an unrecognized
// device (one that carries manufacturer data but matched no registered
// decoder) is logged with a vendor name instead of silently dropped.
func (l *Loop) attachAndDiagnose(rec *registry.Record) {
	l.resolver.Attach(rec)
	if rec.HasDecoder() || len(rec.MfrData) == 0 {
		return
	}
	for id, data := range rec.MfrData {
		util.Linef("[COLLECTOR]", util.ColorGray, "%s: no decoder for %s (%s)", rec.Address, l.vendors.Name(id), util.BytesToHex(data))
	}
}
