package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/imu_dashboard/internal/imu"
	"github.com/relabs-tech/imu_dashboard/internal/metrics"
)

// Default poll contract of the telemetry backend.
const (
	DefaultEndpoint = "http://localhost:8080/api/imu"
	DefaultInterval = 200 * time.Millisecond
)

var (
	// ErrTransport wraps network level failures of a poll.
	ErrTransport = errors.New("imu transport error")
	// ErrSessionClosed is returned when a poll finished after teardown.
	ErrSessionClosed = errors.New("display session closed")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("imu endpoint returned status %d", e.Code)
}

// Classify maps a poll error to its metrics result label.
func Classify(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrSessionClosed):
		return metrics.ResultClosed
	case errors.As(err, &se):
		return metrics.ResultStatus
	case errors.Is(err, imu.ErrMalformed):
		return metrics.ResultDecode
	default:
		return metrics.ResultTransport
	}
}

// Poller fetches the snapshot from Endpoint every Interval and applies it
// to Session.
type Poller struct {
	Endpoint string
	Interval time.Duration
	Client   *http.Client
	Session  *Session
	Metrics  *metrics.Metrics

	tick atomic.Uint64
}

// NewPoller returns a Poller with the default interval and client.
func NewPoller(endpoint string, session *Session) *Poller {
	return &Poller{
		Endpoint: endpoint,
		Interval: DefaultInterval,
		Client:   http.DefaultClient,
		Session:  session,
	}
}

// Run polls until ctx is done, then stops the timer and closes the
// session. Each tick polls in its own goroutine, so a slow response may
// overlap the next tick; whichever finishes last is what stays displayed.
// Run does not wait for in-flight polls, their results are dropped by the
// closed session.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	defer p.Session.Close()

	log.Printf("dashboard: session %s polling %s every %s", p.Session.ID, p.Endpoint, p.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("dashboard: session %s stopped", p.Session.ID)
			return
		case <-ticker.C:
			tick := p.tick.Add(1)
			go func() {
				switch err := p.poll(ctx, tick); {
				case errors.Is(err, ErrSessionClosed):
					log.Printf("dashboard: poll %d dropped after teardown", tick)
				case err != nil:
					log.Printf("dashboard: poll %d failed: %v", tick, err)
				}
			}()
		}
	}
}

// PollOnce performs one fetch and apply and returns its error, if any.
// A failed poll leaves the held snapshot unchanged.
func (p *Poller) PollOnce(ctx context.Context) error {
	return p.poll(ctx, p.tick.Add(1))
}

func (p *Poller) poll(ctx context.Context, tick uint64) error {
	start := time.Now()
	snap, err := p.fetch(ctx)
	if err == nil {
		applied, stale := p.Session.Apply(snap, tick)
		switch {
		case !applied:
			err = ErrSessionClosed
		case stale:
			p.Metrics.IncStaleApply()
			log.Printf("dashboard: poll %d applied after a later tick", tick)
		}
		if applied {
			p.Metrics.SetUnits(len(snap))
		}
	}
	p.Metrics.ObservePoll(Classify(err), time.Since(start))
	return err
}

func (p *Poller) fetch(ctx context.Context) (imu.Snapshot, error) {
	// Teardown must not abort a request already on the wire; the closed
	// session drops its result instead.
	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, p.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return imu.Decode(body)
}

// Follow calls render with the current snapshot once, then again after
// every applied snapshot, until the session closes or ctx is done.
func Follow(ctx context.Context, s *Session, render func(imu.Snapshot)) {
	updates, cancel := s.Subscribe()
	defer cancel()

	render(s.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			render(s.Snapshot())
		}
	}
}
