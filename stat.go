package sntp

import (
	"errors"
	"net"
	"net/http"
	"time"

	geoip2 "github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics records query outcomes. A nil *Metrics records nothing.
type Metrics struct {
	reqCounter  *prometheus.CounterVec
	ccCounter   *prometheus.CounterVec
	offsetGauge *prometheus.GaugeVec
	rttGauge    *prometheus.GaugeVec
	delayGauge  *prometheus.GaugeVec
	dispGauge   *prometheus.GaugeVec
	rttHist     prometheus.Histogram
	gatherer    prometheus.Gatherer
	geoDB       *geoip2.Reader
}

// NewMetrics registers the collectors with reg, or with a private registry
// when reg is nil. geoDB optionally names a GeoIP2 country database used to
// label queries by the server's country.
func NewMetrics(reg prometheus.Registerer, geoDB string) (s *Metrics, err error) {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	s = &Metrics{gatherer: gatherer}
	if geoDB != "" {
		if s.geoDB, err = geoip2.Open(geoDB); err != nil {
			return nil, err
		}
	}

	s.reqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ntp",
		Subsystem: "client",
		Name:      "queries_total",
		Help:      "The total number of sntp queries by result",
	}, []string{"server", "result"})

	s.ccCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ntp",
		Subsystem: "client",
		Name:      "queries_by_country_total",
		Help:      "The total number of sntp queries by server country",
	}, []string{"cc"})

	s.offsetGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "offset_sec",
		Help:      "The clock offset to server",
	}, []string{"server"})

	s.rttGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "rtt_sec",
		Help:      "The round trip time to server",
	}, []string{"server"})

	s.delayGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "delay_sec",
		Help:      "The root delay reported by server",
	}, []string{"server"})

	s.dispGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ntp",
		Subsystem: "stat",
		Name:      "dispersion_sec",
		Help:      "The root dispersion reported by server",
	}, []string{"server"})

	s.rttHist = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ntp",
		Subsystem: "client",
		Name:      "query_duration_sec",
		Help:      "The wall time spent in a query",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	for _, c := range []prometheus.Collector{
		s.reqCounter, s.ccCounter, s.offsetGauge, s.rttGauge,
		s.delayGauge, s.dispGauge, s.rttHist,
	} {
		if err = reg.Register(c); err != nil {
			s.Close()
			return nil, err
		}
	}
	return
}

// Handler serves the collected metrics.
func (s *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

func (s *Metrics) Close() error {
	if s == nil || s.geoDB == nil {
		return nil
	}
	return s.geoDB.Close()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBadServerReply):
		return "bad_reply"
	case errors.Is(err, ErrInputTooShort):
		return "short"
	case IsTimeout(err):
		return "timeout"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	}
	return "error"
}

func (s *Metrics) observe(server string, conn net.Conn, resp *Response, err error, d time.Duration) {
	if s == nil {
		return
	}
	s.reqCounter.WithLabelValues(server, resultLabel(err)).Inc()
	s.rttHist.Observe(d.Seconds())
	if conn != nil {
		if ua, ok := conn.RemoteAddr().(*net.UDPAddr); ok {
			s.logIP(ua.IP)
		}
	}
	if resp == nil {
		return
	}
	s.offsetGauge.WithLabelValues(server).Set(resp.Timing.ClockOffset.Seconds())
	s.rttGauge.WithLabelValues(server).Set(resp.Timing.RTT.Seconds())
	s.delayGauge.WithLabelValues(server).Set(resp.Server.RootDelay.Seconds())
	s.dispGauge.WithLabelValues(server).Set(resp.Server.RootDispersion.Seconds())
}

func (s *Metrics) logIP(ip net.IP) {
	if s.geoDB == nil {
		return
	}
	country, err := s.geoDB.Country(ip)
	if err != nil {
		logger().Debug("geoip lookup", zap.Stringer("ip", ip), zap.Error(err))
		return
	}
	s.ccCounter.WithLabelValues(country.Country.IsoCode).Inc()
}
