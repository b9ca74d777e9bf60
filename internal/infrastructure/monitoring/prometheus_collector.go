package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	peersOnline prometheus.Gauge
	roomsActive prometheus.Gauge

	negotiationsTotal *prometheus.CounterVec

	filesRelayedTotal  prometheus.Counter
	fileBytesRelayed   prometheus.Counter
	chunksRelayedTotal prometheus.Counter
	chunkBytesRelayed  prometheus.Counter
	fileSizeBytes      prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		peersOnline: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fileshare_peers_online",
			Help: "Number of currently connected peers",
		}),

		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fileshare_rooms_active",
			Help: "Number of currently active rooms",
		}),

		negotiationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fileshare_negotiations_total",
			Help: "Connection negotiations by outcome",
		}, []string{"outcome"}),

		filesRelayedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fileshare_files_relayed_total",
			Help: "Total number of files relayed between peers",
		}),

		fileBytesRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fileshare_file_bytes_relayed_total",
			Help: "Total encoded bytes of whole files relayed",
		}),

		chunksRelayedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fileshare_chunks_relayed_total",
			Help: "Total number of file chunks relayed",
		}),

		chunkBytesRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fileshare_chunk_bytes_relayed_total",
			Help: "Total encoded bytes of file chunks relayed",
		}),

		fileSizeBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fileshare_file_size_bytes",
			Help:    "Declared size of relayed files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 12),
		}),
	}
}

func (p *PrometheusCollector) SetPeersOnline(n int) {
	p.peersOnline.Set(float64(n))
}

func (p *PrometheusCollector) SetRoomsActive(n int) {
	p.roomsActive.Set(float64(n))
}

func (p *PrometheusCollector) ObserveNegotiation(outcome string) {
	p.negotiationsTotal.WithLabelValues(outcome).Inc()
}

func (p *PrometheusCollector) ObserveFileRelayed(bytes int64) {
	p.filesRelayedTotal.Inc()
	p.fileBytesRelayed.Add(float64(bytes))
	p.fileSizeBytes.Observe(float64(bytes))
}

func (p *PrometheusCollector) ObserveChunkRelayed(bytes int64) {
	p.chunksRelayedTotal.Inc()
	p.chunkBytesRelayed.Add(float64(bytes))
}

// NopCollector discards all observations. Tests use it where metrics
// are irrelevant.
type NopCollector struct{}

func (NopCollector) SetPeersOnline(int)        {}
func (NopCollector) SetRoomsActive(int)        {}
func (NopCollector) ObserveNegotiation(string) {}
func (NopCollector) ObserveFileRelayed(int64)  {}
func (NopCollector) ObserveChunkRelayed(int64) {}
