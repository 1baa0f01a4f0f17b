package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/imu_dashboard/internal/config"
	"github.com/relabs-tech/imu_dashboard/internal/dashboard"
	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/metrics"
	"github.com/relabs-tech/imu_dashboard/internal/mirror"
	"github.com/relabs-tech/imu_dashboard/internal/view"
)

const pageTitle = "Excavator IMU Data"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// viewMessage is what /api/view returns and /ws pushes.
type viewMessage struct {
	Session string    `json:"session"`
	Version uint64    `json:"version"`
	View    view.View `json:"view"`
}

// Web serves one display session over HTTP.
type Web struct {
	Session     *dashboard.Session
	ChartWidth  int
	ChartHeight int
	Registry    *prometheus.Registry
}

// NewRouter wires the dashboard routes.
func (wb *Web) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", wb.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/view", wb.handleView).Methods(http.MethodGet)
	r.HandleFunc("/api/snapshot", wb.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/charts/accel.png", wb.handleAccelChart).Methods(http.MethodGet)
	r.HandleFunc("/charts/gyro.png", wb.handleGyroChart).Methods(http.MethodGet)
	r.HandleFunc("/ws", wb.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if wb.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(wb.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

func (wb *Web) current() viewMessage {
	return viewMessage{
		Session: wb.Session.ID,
		Version: wb.Session.Version(),
		View:    view.Build(wb.Session.Snapshot()),
	}
}

func (wb *Web) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := view.RenderPage(w, view.PageData{
		Title:       pageTitle,
		ChartWidth:  wb.ChartWidth,
		ChartHeight: wb.ChartHeight,
		View:        view.Build(wb.Session.Snapshot()),
	})
	if err != nil {
		log.Printf("web: page render error: %v", err)
	}
}

func (wb *Web) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, wb.current())
}

func (wb *Web) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, wb.Session.Snapshot())
}

func (wb *Web) handleAccelChart(w http.ResponseWriter, _ *http.Request) {
	v := view.Build(wb.Session.Snapshot())
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := view.RenderAccelPNG(w, v.Accel, wb.ChartWidth, wb.ChartHeight); err != nil {
		log.Printf("web: accel chart render error: %v", err)
	}
}

func (wb *Web) handleGyroChart(w http.ResponseWriter, _ *http.Request) {
	v := view.Build(wb.Session.Snapshot())
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := view.RenderGyroPNG(w, v.Gyro, wb.ChartWidth, wb.ChartHeight); err != nil {
		log.Printf("web: gyro chart render error: %v", err)
	}
}

// handleWS pushes the view on connect and after every applied snapshot.
func (wb *Web) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The page never sends anything; reading only detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	dashboard.Follow(ctx, wb.Session, func(imu.Snapshot) {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(wb.current()); err != nil {
			log.Printf("web: websocket write error: %v", err)
			cancel()
		}
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// newPoller builds the poll cycle for cfg on session.
func newPoller(cfg *config.Config, session *dashboard.Session, m *metrics.Metrics) *dashboard.Poller {
	p := dashboard.NewPoller(cfg.IMUEndpoint, session)
	p.Interval = config.Interval(cfg.PollInterval)
	p.Client = &http.Client{Timeout: config.Interval(cfg.HTTPTimeout)}
	p.Metrics = m
	return p
}

// startMirror connects the MQTT mirror when a broker is configured. It
// returns a no-op stop function otherwise.
func startMirror(ctx context.Context, cfg *config.Config, session *dashboard.Session) func() {
	if cfg.MQTTBroker == "" {
		return func() {}
	}
	m, err := mirror.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDashboard, cfg.TopicIMUSnapshot)
	if err != nil {
		log.Printf("mirror: disabled: %v", err)
		return func() {}
	}
	go m.Run(ctx, session)
	log.Printf("mirror: publishing snapshots to %s", cfg.TopicIMUSnapshot)
	return m.Close
}

// RunWeb polls the telemetry endpoint and serves the dashboard until
// SIGINT or SIGTERM.
func RunWeb() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	session := dashboard.NewSession(imu.Placeholder(cfg.PlaceholderUnits))
	poller := newPoller(cfg, session, metrics.New(reg))

	stopMirror := startMirror(ctx, cfg, session)
	defer stopMirror()

	wb := &Web{
		Session:     session,
		ChartWidth:  cfg.ChartWidth,
		ChartHeight: cfg.ChartHeight,
		Registry:    reg,
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, wb.NewRouter())),
	}

	go poller.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stop()
		return err
	case <-ctx.Done():
	}

	log.Println("web: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
