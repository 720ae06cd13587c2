package consumer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ruuvicollector/internal/model"
)

func TestEscapeTag(t *testing.T) {
	if got := escapeTag("living room"); got != "living\\ room" {
		t.Errorf("escapeTag(space) = %q", got)
	}
	if got := escapeTag("a,b=c"); got != "a\\,b\\=c" {
		t.Errorf("escapeTag(comma/equals) = %q", got)
	}
}

func TestLineProtocolSingleField(t *testing.T) {
	s := Sensor{
		Address: "AA:BB",
		Tag:     "office",
		Values:  map[string]model.Value{"temperature": model.Float(21.5)},
	}
	now := time.UnixMilli(1700000000000)

	got := lineProtocol(s, now)
	want := "ruuvitag,tag=office,address=AA:BB temperature=21.5 1700000000000"
	if got != want {
		t.Errorf("lineProtocol() = %q, want %q", got, want)
	}
}

func TestLineProtocolEscapesTagValues(t *testing.T) {
	s := Sensor{Address: "AA:BB", Tag: "back yard", Values: map[string]model.Value{"battery": model.Integer(3000)}}
	got := lineProtocol(s, time.UnixMilli(0))
	if !strings.Contains(got, "tag=back\\ yard") {
		t.Errorf("expected escaped tag in %q", got)
	}
	if !strings.Contains(got, "battery=3000i") {
		t.Errorf("expected integer field suffixed with i in %q", got)
	}
}

func TestInfluxDBConsumeSkipsSensorsWithNilValues(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := &InfluxDB{writeURL: srv.URL + "/write", client: srv.Client()}
	err := c.Consume(time.Now(), []Sensor{
		{Address: "AA:BB", Tag: "t1", Values: nil},
		{Address: "CC:DD", Tag: "t2", Values: map[string]model.Value{"temperature": model.Float(20)}},
	})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if strings.Count(gotBody, "ruuvitag,") != 1 {
		t.Errorf("expected exactly one line written, got body %q", gotBody)
	}
	if len(c.buffer) != 0 {
		t.Errorf("buffer should be cleared after a successful write, len=%d", len(c.buffer))
	}
}

func TestInfluxDBConsumeRetainsBufferOnFailedWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &InfluxDB{writeURL: srv.URL + "/write", client: srv.Client()}
	err := c.Consume(time.Now(), []Sensor{
		{Address: "AA:BB", Tag: "t1", Values: map[string]model.Value{"temperature": model.Float(20)}},
	})
	if err != nil {
		t.Fatalf("Consume should log and swallow write errors, got: %v", err)
	}
	if len(c.buffer) != 1 {
		t.Errorf("expected the point to be retained after a rejected write, buffer len=%d", len(c.buffer))
	}

	// The next tick appends to the still-retained buffer rather than losing it.
	if err := c.Consume(time.Now(), []Sensor{
		{Address: "EE:FF", Tag: "t2", Values: map[string]model.Value{"humidity": model.Float(50)}},
	}); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(c.buffer) != 2 {
		t.Errorf("expected 2 retained points after a second failed write, got %d", len(c.buffer))
	}
}

func TestInfluxDBConsumeCapsRetainedBuffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &InfluxDB{writeURL: srv.URL + "/write", client: srv.Client()}
	c.buffer = make([]string, maxRetainedPoints)
	for i := range c.buffer {
		c.buffer[i] = "old"
	}

	if err := c.Consume(time.Now(), []Sensor{
		{Address: "AA:BB", Tag: "t1", Values: map[string]model.Value{"temperature": model.Float(20)}},
	}); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(c.buffer) != maxRetainedPoints {
		t.Errorf("buffer len = %d, want capped at %d", len(c.buffer), maxRetainedPoints)
	}
}
