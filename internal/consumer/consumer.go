// Package consumer holds the consumer capability and its
// stdout, NDJSON, InfluxDB, and Prometheus implementations.
package consumer

import (
	"time"

	"ruuvicollector/internal/model"
)

// Sensor bundles one fresh device's identity with its already-decoded
// measurement, materialized once per tick by the collector and handed down
// to whichever consumer is active.
type Sensor struct {
	Address     string
	Tag         string
	DecoderName string
	LastSeen    time.Time

	Values map[string]model.Value
	Text   string
	JSON   string
}

// Consumer is the sink every tick's fresh set is forwarded to. Exactly one
// Consume call happens per tick, even for an empty set.
type Consumer interface {
	Consume(now time.Time, sensors []Sensor) error
}
