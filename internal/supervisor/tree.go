// Package supervisor runs the long-lived servers of the backend under a
// suture tree so a crashed listener is restarted without taking down the rest.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// TreeConfig holds supervisor tree configuration. Zero values select the
// suture defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Tree is the root supervisor with two layers: background workers and
// network servers.
type Tree struct {
	root    *suture.Supervisor
	workers *suture.Supervisor
	servers *suture.Supervisor
}

// NewTree creates the supervisor tree. Events are logged through logger.
func NewTree(logger zerolog.Logger, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	childSpec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := childSpec
	rootSpec.EventHook = EventHook(logger)

	root := suture.New("douban-recommend", rootSpec)
	workers := suture.New("workers", childSpec)
	servers := suture.New("servers", childSpec)
	root.Add(workers)
	root.Add(servers)

	return &Tree{root: root, workers: workers, servers: servers}
}

// AddWorker adds a background service such as the health watcher.
func (t *Tree) AddWorker(svc suture.Service) suture.ServiceToken {
	return t.workers.Add(svc)
}

// AddServer adds a network server.
func (t *Tree) AddServer(svc suture.Service) suture.ServiceToken {
	return t.servers.Add(svc)
}

// Serve blocks until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree and returns a channel receiving its result.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// EventHook logs suture events with zerolog.
func EventHook(logger zerolog.Logger) suture.EventHook {
	return func(ev suture.Event) {
		var event *zerolog.Event
		switch ev.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeStopTimeout:
			event = logger.Error()
		case suture.EventTypeServiceTerminate, suture.EventTypeBackoff:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.Fields(ev.Map()).Msg(ev.String())
	}
}
