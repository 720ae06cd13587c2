package consumer

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"ruuvicollector/internal/util"
)

// maxRetainedPoints bounds the influxdb consumer's retained-points buffer.
// Oldest points are dropped first when the cap is exceeded.
const maxRetainedPoints = 5000

// InfluxDB batches measurements into InfluxDB line-protocol HTTP writes. No
// InfluxDB client library is available anywhere in the reference corpus,
// so this writer talks the line protocol directly over net/http, matching
// the wire format of the original collector's time-series consumer.
type InfluxDB struct {
	writeURL string
	client   *http.Client
	buffer   []string
}

// NewInfluxDB reads its endpoint from the environment:
// INFLUXDB_URL (default http://127.0.0.1:8086), INFLUXDB_DB (default
// ruuvitag), INFLUXDB_USER, INFLUXDB_PASSWORD.
func NewInfluxDB() *InfluxDB {
	base := strings.TrimSpace(os.Getenv("INFLUXDB_URL"))
	if base == "" {
		base = "http://127.0.0.1:8086"
	}
	db := strings.TrimSpace(os.Getenv("INFLUXDB_DB"))
	if db == "" {
		db = "ruuvitag"
	}

	q := url.Values{}
	q.Set("db", db)
	q.Set("precision", "ms")
	if user := os.Getenv("INFLUXDB_USER"); user != "" {
		q.Set("u", user)
	}
	if pass := os.Getenv("INFLUXDB_PASSWORD"); pass != "" {
		q.Set("p", pass)
	}

	return &InfluxDB{
		writeURL: strings.TrimRight(base, "/") + "/write?" + q.Encode(),
		client:   &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *InfluxDB) Consume(now time.Time, sensors []Sensor) error {
	for _, s := range sensors {
		if s.Values == nil {
			continue
		}
		c.buffer = append(c.buffer, lineProtocol(s, now))
	}
	if len(c.buffer) > maxRetainedPoints {
		dropped := len(c.buffer) - maxRetainedPoints
		c.buffer = c.buffer[dropped:]
		util.Linef("[INFLUXDB]", util.ColorYellow, "dropped %d retained points over cap", dropped)
	}
	if len(c.buffer) == 0 {
		return nil
	}

	body := strings.Join(c.buffer, "\n")
	req, err := http.NewRequest(http.MethodPost, c.writeURL, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("influxdb: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		util.Linef("[INFLUXDB]", util.ColorYellow, "write failed, retaining %d points: %v", len(c.buffer), err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		util.Linef("[INFLUXDB]", util.ColorYellow, "write rejected (status %d), retaining %d points", resp.StatusCode, len(c.buffer))
		return nil
	}

	c.buffer = c.buffer[:0]
	return nil
}

// lineProtocol renders one sensor's measurement map as a single
// ruuvitag,tag=...,address=... field=val,... timestamp line.
func lineProtocol(s Sensor, now time.Time) string {
	var b strings.Builder
	b.WriteString("ruuvitag,tag=")
	b.WriteString(escapeTag(s.Tag))
	b.WriteString(",address=")
	b.WriteString(escapeTag(s.Address))
	b.WriteByte(' ')

	first := true
	for field, v := range s.Values {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(field)
		b.WriteByte('=')
		b.WriteString(v.LineProtocolField())
	}

	fmt.Fprintf(&b, " %d", now.UnixMilli())
	return b.String()
}

func escapeTag(s string) string {
	r := strings.NewReplacer(" ", "\\ ", ",", "\\,", "=", "\\=")
	return r.Replace(s)
}
