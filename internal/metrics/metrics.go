package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rebalance_cycles_total", Help: "Rebalance cycles run, by result"},
		[]string{"result"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Order instructions submitted"},
		[]string{"symbol", "action"},
	)
	OrderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_errors_total", Help: "Order submissions that failed"},
		[]string{"symbol", "action"},
	)
	CycleErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rebalance_errors_total", Help: "Cycle failures by stage"},
		[]string{"stage"},
	)
	MomentumScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "momentum_score", Help: "Latest trailing return per symbol"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, OrdersTotal, OrderErrors, CycleErrors, MomentumScore)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
