package consumer

import (
	"fmt"
	"time"
)

// StdoutJSON is the newline-delimited JSON consumer: one
// JSON object per fresh sensor per line, already rendered by the decoder's
// MeasurementsJSON.
type StdoutJSON struct{}

func (StdoutJSON) Consume(now time.Time, sensors []Sensor) error {
	for _, s := range sensors {
		fmt.Println(s.JSON)
	}
	return nil
}
