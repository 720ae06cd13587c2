package consumer

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Stdout is the text consumer: for each fresh sensor, print
// "Address: <MAC>" followed by the decoder's human-readable measurement
// block.
type Stdout struct{}

func (Stdout) Consume(now time.Time, sensors []Sensor) error {
	for _, s := range sensors {
		fmt.Printf("Address: %s (%s, last seen %s)\n%s\n\n", s.Address, s.Tag, humanize.Time(s.LastSeen), s.Text)
	}
	return nil
}
