package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/imu_dashboard/internal/dashboard"
	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/metrics"
)

func newTestWeb(t *testing.T, initial imu.Snapshot) (*Web, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	wb := &Web{
		Session:     dashboard.NewSession(initial),
		ChartWidth:  400,
		ChartHeight: 240,
		Registry:    reg,
	}
	srv := httptest.NewServer(wb.NewRouter())
	t.Cleanup(func() {
		wb.Session.Close()
		srv.Close()
	})
	return wb, srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, body
}

func TestIndexRendersCards(t *testing.T) {
	wb, srv := newTestWeb(t, imu.Placeholder(2))
	wb.Session.Apply(imu.Snapshot{imu.NewReading("IMU_0", 1, 2, 3, 0.1, 0.2, 0.3)}, 1)

	res, body := get(t, srv.URL+"/")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	page := string(body)
	for _, want := range []string{pageTitle, "IMU_0", "X: 1.000", "Y: 0.200"} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
	if strings.Contains(page, "IMU_1") {
		t.Fatalf("expected placeholder units to be replaced")
	}
}

func TestViewEndpoint(t *testing.T) {
	wb, srv := newTestWeb(t, nil)
	wb.Session.Apply(imu.Snapshot{imu.NewReading("IMU_0", 1.5, 2, 3, 0.1, 0.2, 0.3)}, 1)

	res, body := get(t, srv.URL+"/api/view")
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	var msg viewMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Session != wb.Session.ID || msg.Version != 1 {
		t.Fatalf("unexpected session/version %s/%d", msg.Session, msg.Version)
	}
	if len(msg.View.Cards) != 1 || msg.View.Cards[0].Accel[0].Text != "1.500" {
		t.Fatalf("unexpected view %+v", msg.View)
	}
	if len(msg.View.Gyro.Series) != 3 || len(msg.View.Gyro.Series[0].Points) != 1 {
		t.Fatalf("expected one point per gyro axis, got %+v", msg.View.Gyro)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	_, srv := newTestWeb(t, imu.Placeholder(3))
	_, body := get(t, srv.URL+"/api/snapshot")

	snap, err := imu.Decode(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("expected 3 placeholder units, got %d", len(snap))
	}
}

func TestChartEndpoints(t *testing.T) {
	wb, srv := newTestWeb(t, nil)
	for _, path := range []string{"/charts/accel.png", "/charts/gyro.png"} {
		res, body := get(t, srv.URL+path)
		if res.Header.Get("Content-Type") != "image/png" || !strings.HasPrefix(string(body), "\x89PNG") {
			t.Fatalf("%s: expected PNG for empty snapshot", path)
		}
	}

	wb.Session.Apply(imu.Placeholder(3), 1)
	for _, path := range []string{"/charts/accel.png", "/charts/gyro.png"} {
		_, body := get(t, srv.URL+path)
		if !strings.HasPrefix(string(body), "\x89PNG") {
			t.Fatalf("%s: expected PNG", path)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestWeb(t, nil)

	if _, body := get(t, srv.URL+"/health"); string(body) != "ok" {
		t.Fatalf("expected ok, got %q", body)
	}
	res, body := get(t, srv.URL+"/metrics")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(string(body), "imu_dashboard_units") {
		t.Fatalf("expected dashboard metrics, got %s", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, srv := newTestWeb(t, nil)
	res, err := http.Post(srv.URL+"/api/view", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.StatusCode)
	}
}

func TestWebsocketPushesViews(t *testing.T) {
	wb, srv := newTestWeb(t, imu.Placeholder(3))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first viewMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial view: %v", err)
	}
	if len(first.View.Cards) != 3 {
		t.Fatalf("expected placeholder view, got %d cards", len(first.View.Cards))
	}

	wb.Session.Apply(imu.Snapshot{}, 1)

	var next viewMessage
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if next.Version != 1 || len(next.View.Cards) != 0 {
		t.Fatalf("expected empty view at version 1, got %d cards at version %d", len(next.View.Cards), next.Version)
	}
}
