// Package worker runs a pool of simulation workers that receive job
// requests over NATS request-reply and reply with the completed report.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/pacslab/faas-sim/sim"
)

// Config controls how many worker goroutines subscribe to Subject and which
// NATS server they connect to.
type Config struct {
	NATSUrl string
	Subject string
	Count   int
}

// DefaultConfig returns a single worker subscribed to the default job
// subject against a local NATS server.
func DefaultConfig() Config {
	return Config{
		NATSUrl: nats.DefaultURL,
		Subject: "faas-sim.jobs",
		Count:   1,
	}
}

// Worker runs Config.Count goroutines, each handling one job at a time from
// a shared NATS queue subscription so jobs are load-balanced across them.
type Worker struct {
	cfg  Config
	conn *nats.Conn
	log  *logrus.Logger
}

// New connects to NATS and returns a Worker ready to Run.
func New(cfg Config, log *logrus.Logger) (*Worker, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	conn, err := nats.Connect(cfg.NATSUrl)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.NATSUrl, err)
	}
	return &Worker{cfg: cfg, conn: conn, log: log}, nil
}

// Close releases the underlying NATS connection.
func (w *Worker) Close() {
	w.conn.Close()
}

// jobRequest is the JSON payload published to Config.Subject: an engine
// configuration plus which engine variant to run it with.
type jobRequest struct {
	Config     sim.EngineConfig `json:"config"`
	Concurrent bool             `json:"concurrent"`
}

type jobResponse struct {
	Report map[string]any `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Run spawns Config.Count goroutines, each pulling jobs from a shared queue
// group so a job is delivered to exactly one worker. Run blocks until ctx is
// canceled, then waits for in-flight jobs to finish before returning.
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	subs := make([]*nats.Subscription, 0, w.cfg.Count)

	for i := 0; i < w.cfg.Count; i++ {
		workerID := fmt.Sprintf("worker-%d", i)
		sub, err := w.conn.QueueSubscribe(w.cfg.Subject, "faas-sim-workers", func(msg *nats.Msg) {
			wg.Add(1)
			defer wg.Done()
			w.handle(context.WithoutCancel(ctx), workerID, msg)
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return fmt.Errorf("subscribing worker %s: %w", workerID, err)
		}
		subs = append(subs, sub)
	}

	w.log.Infof("%d workers listening on %q", w.cfg.Count, w.cfg.Subject)
	<-ctx.Done()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	wg.Wait()
	return nil
}

func (w *Worker) handle(ctx context.Context, workerID string, msg *nats.Msg) {
	var req jobRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		w.reply(msg, jobResponse{Error: fmt.Sprintf("decoding job: %v", err)})
		return
	}

	report, err := w.runJob(ctx, req)
	if err != nil {
		w.log.Warnf("%s: job failed: %v", workerID, err)
		w.reply(msg, jobResponse{Error: err.Error()})
		return
	}
	w.reply(msg, jobResponse{Report: report})
}

func (w *Worker) runJob(ctx context.Context, req jobRequest) (map[string]any, error) {
	if req.Concurrent {
		engine, err := sim.NewConcurrentEngine(req.Config)
		if err != nil {
			return nil, err
		}
		result, err := engine.Run(ctx, nil)
		if err != nil {
			return nil, err
		}
		return result.Report.ToMap(), nil
	}

	engine, err := sim.NewEngine(req.Config)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(ctx, nil)
	if err != nil {
		return nil, err
	}
	return result.Report.ToMap(), nil
}

func (w *Worker) reply(msg *nats.Msg, resp jobResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		w.log.Errorf("encoding job response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		w.log.Warnf("replying to job: %v", err)
	}
}
