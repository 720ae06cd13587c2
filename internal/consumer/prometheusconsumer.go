package consumer

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ruuvicollector/internal/util"
)

// Prometheus is a consumer added alongside stdout/stdoutjson/influxdb
// (--consumer=prometheus): it serves per-device gauges over /metrics
// instead of pushing to a time-series database.
type Prometheus struct {
	srv *http.Server

	temperature  *prometheus.GaugeVec
	humidity     *prometheus.GaugeVec
	pressure     *prometheus.GaugeVec
	battery      *prometheus.GaugeVec
	acceleration *prometheus.GaugeVec
}

// NewPrometheus registers the gauge vectors and starts the /metrics HTTP
// server listening on addr (e.g. ":9519"). Callers that hold a *Prometheus
// past the collection loop's lifetime should call Shutdown to stop the
// server cleanly.
func NewPrometheus(addr string) *Prometheus {
	p := &Prometheus{
		temperature: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ruuvitag_temperature_celsius",
			Help: "RuuviTag temperature in degrees Celsius",
		}, []string{"address", "tag"}),
		humidity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ruuvitag_humidity_percent",
			Help: "RuuviTag relative humidity percentage",
		}, []string{"address", "tag"}),
		pressure: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ruuvitag_pressure_pascal",
			Help: "RuuviTag air pressure in pascals",
		}, []string{"address", "tag"}),
		battery: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ruuvitag_battery_millivolts",
			Help: "RuuviTag battery voltage in millivolts",
		}, []string{"address", "tag"}),
		acceleration: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ruuvitag_acceleration_g",
			Help: "RuuviTag acceleration per axis",
		}, []string{"address", "tag", "axis"}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	p.srv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := p.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Linef("[PROMETHEUS]", util.ColorYellow, "metrics server stopped: %v", err)
		}
	}()

	return p
}

func (p *Prometheus) Consume(now time.Time, sensors []Sensor) error {
	for _, s := range sensors {
		if s.Values == nil {
			continue
		}
		if v, ok := s.Values["temperature"]; ok {
			p.temperature.WithLabelValues(s.Address, s.Tag).Set(v.Float64())
		}
		if v, ok := s.Values["humidity_float"]; ok {
			p.humidity.WithLabelValues(s.Address, s.Tag).Set(v.Float64())
		} else if v, ok := s.Values["humidity"]; ok {
			p.humidity.WithLabelValues(s.Address, s.Tag).Set(v.Float64())
		}
		if v, ok := s.Values["pressure"]; ok {
			p.pressure.WithLabelValues(s.Address, s.Tag).Set(v.Float64())
		}
		if v, ok := s.Values["battery"]; ok {
			p.battery.WithLabelValues(s.Address, s.Tag).Set(v.Float64())
		}
		// Decoded acceleration is in milli-g; the gauge is in g.
		if v, ok := s.Values["acceleration_x"]; ok {
			p.acceleration.WithLabelValues(s.Address, s.Tag, "x").Set(v.Float64() / 1000)
		}
		if v, ok := s.Values["acceleration_y"]; ok {
			p.acceleration.WithLabelValues(s.Address, s.Tag, "y").Set(v.Float64() / 1000)
		}
		if v, ok := s.Values["acceleration_z"]; ok {
			p.acceleration.WithLabelValues(s.Address, s.Tag, "z").Set(v.Float64() / 1000)
		}
	}
	return nil
}

// Shutdown stops the /metrics HTTP server, waiting for in-flight requests
// to drain or ctx to expire, whichever comes first.
func (p *Prometheus) Shutdown(ctx context.Context) error {
	return p.srv.Shutdown(ctx)
}
