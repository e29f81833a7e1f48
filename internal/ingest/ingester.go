// Package ingest watches a drop directory for HL7 files and converts
// them through the engine. Each file is processed once: the inbox
// keys on the file name and content, so a re-dropped file is a no-op.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fhirhub/fhirhub/internal/conversion"
	"github.com/fhirhub/fhirhub/internal/infrastructure/postgres"
	"github.com/fhirhub/fhirhub/internal/infrastructure/redpanda"
	"github.com/fhirhub/fhirhub/internal/observability/metrics"
	"github.com/fhirhub/fhirhub/pkg/idempotency"
	"github.com/fhirhub/fhirhub/pkg/workerpool"
)

// Config holds ingester configuration.
type Config struct {
	// InputDir is the watched drop directory.
	InputDir string
	// OutputDir receives one bundle JSON file per converted message.
	OutputDir string
	// PollInterval is how often the input directory is scanned.
	PollInterval time.Duration
	// Workers is the conversion concurrency.
	Workers int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		InputDir:     "data/in",
		OutputDir:    "data/out",
		PollInterval: 2 * time.Second,
		Workers:      8,
	}
}

// Ingester polls the input directory and runs conversions on a
// bounded worker pool.
type Ingester struct {
	config  Config
	engine  *conversion.Engine
	store   *postgres.ConversionStore
	inbox   *idempotency.Inbox
	pool    *workerpool.Pool
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// inFlight keeps a file from being resubmitted while a worker
	// still owns it.
	inFlight map[string]struct{}
	flightCh chan flightUpdate
}

type flightUpdate struct {
	path string
	add  bool
}

// New creates an ingester.
func New(cfg Config, engine *conversion.Engine, store *postgres.ConversionStore, inbox *idempotency.Inbox, m *metrics.Metrics, logger *zap.Logger) (*Ingester, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &Ingester{
		config:   cfg,
		engine:   engine,
		store:    store,
		inbox:    inbox,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("file-ingester"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		inFlight: make(map[string]struct{}),
		flightCh: make(chan flightUpdate, 256),
	}

	poolCfg := workerpool.DefaultConfig()
	poolCfg.Workers = cfg.Workers
	if poolCfg.Workers <= 0 {
		poolCfg.Workers = DefaultConfig().Workers
	}

	pool, err := workerpool.New(poolCfg, ing.processFile, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	ing.pool = pool

	return ing, nil
}

// Start launches the workers and the directory scan loop.
func (ing *Ingester) Start() error {
	if err := os.MkdirAll(ing.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ing.pool.Start()
	go ing.scanLoop()

	ing.logger.Info("file ingester started",
		zap.String("input_dir", ing.config.InputDir),
		zap.String("output_dir", ing.config.OutputDir),
		zap.Duration("poll_interval", ing.config.PollInterval))
	return nil
}

// Stop drains the scan loop and the worker pool.
func (ing *Ingester) Stop() {
	ing.cancel()
	<-ing.done
	ing.pool.Stop()
	ing.logger.Info("file ingester stopped")
}

func (ing *Ingester) scanLoop() {
	defer close(ing.done)

	ticker := time.NewTicker(ing.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ing.ctx.Done():
			return
		case update := <-ing.flightCh:
			ing.applyFlight(update)
		case <-ticker.C:
			ing.drainFlight()
			ing.scan()
		}
	}
}

func (ing *Ingester) applyFlight(update flightUpdate) {
	if update.add {
		ing.inFlight[update.path] = struct{}{}
	} else {
		delete(ing.inFlight, update.path)
	}
}

func (ing *Ingester) drainFlight() {
	for {
		select {
		case update := <-ing.flightCh:
			ing.applyFlight(update)
		default:
			return
		}
	}
}

// scan submits every pending HL7 file in the input directory.
func (ing *Ingester) scan() {
	entries, err := os.ReadDir(ing.config.InputDir)
	if err != nil {
		ing.logger.Error("failed to read input directory",
			zap.String("dir", ing.config.InputDir),
			zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isHL7File(entry.Name()) {
			continue
		}
		path := filepath.Join(ing.config.InputDir, entry.Name())
		if _, busy := ing.inFlight[path]; busy {
			continue
		}

		task := &workerpool.Task{
			ID:      entry.Name(),
			Payload: path,
			Context: ing.ctx,
		}
		if err := ing.pool.Submit(task); err != nil {
			ing.logger.Warn("failed to submit file",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		ing.inFlight[path] = struct{}{}
	}
}

func isHL7File(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hl7", ".txt":
		return true
	default:
		return false
	}
}

// processFile converts one file. The inbox guards against duplicate
// content; the input file is removed only after the conversion record
// was committed and the bundle written out.
func (ing *Ingester) processFile(ctx context.Context, task *workerpool.Task) *workerpool.Result {
	path := task.Payload.(string)
	defer func() { ing.flightCh <- flightUpdate{path: path} }()

	ctx, span := ing.tracer.Start(ctx, "ingest_file",
		trace.WithAttributes(attribute.String("file", task.ID)))
	defer span.End()

	raw, err := os.ReadFile(path)
	if err != nil {
		return &workerpool.Result{TaskID: task.ID, Success: false, Error: err}
	}
	ing.metrics.FilesIngested.Inc()

	// The inbox persists its payload as JSON, so the raw message goes
	// in as a JSON string.
	payload, err := json.Marshal(string(raw))
	if err != nil {
		return &workerpool.Result{TaskID: task.ID, Success: false, Error: err}
	}

	key := idempotency.GenerateKey("file-ingester", task.ID, raw)
	_, err = ing.inbox.Process(ctx, key, "file-ingester", payload, func(ctx context.Context, p json.RawMessage) (json.RawMessage, error) {
		var text string
		if err := json.Unmarshal(p, &text); err != nil {
			return nil, fmt.Errorf("invalid inbox payload for %s: %w", task.ID, err)
		}
		return ing.convert(ctx, task.ID, []byte(text))
	})
	if err != nil {
		span.RecordError(err)
		return &workerpool.Result{TaskID: task.ID, Success: false, Error: err}
	}

	if err := os.Remove(path); err != nil {
		ing.logger.Warn("failed to remove input file",
			zap.String("file", task.ID),
			zap.Error(err))
	}

	return &workerpool.Result{TaskID: task.ID, Success: true}
}

// convert runs the engine, persists the record with its outbox events
// and writes the bundle next to the output directory.
func (ing *Ingester) convert(ctx context.Context, name string, raw []byte) (json.RawMessage, error) {
	res, err := ing.engine.Convert(string(raw))
	if err != nil {
		// Unmappable input is terminal, not retryable.
		ing.metrics.ConversionsFailed.Inc()
		return nil, fmt.Errorf("invalid message %s: %w", name, err)
	}
	ing.metrics.MessagesConverted.WithLabelValues(res.MessageType).Inc()
	ing.metrics.MappingWarnings.Add(float64(len(res.Warnings)))

	bundle, err := json.Marshal(res.Bundle)
	if err != nil {
		return nil, err
	}

	conversionID, _ := res.Bundle["id"].(string)
	rec := &postgres.ConversionRecord{
		ID:            conversionID,
		MessageType:   res.MessageType,
		ControlID:     res.ControlID,
		Status:        postgres.StatusCompleted,
		ResourceCount: res.ResourceCount,
		Warnings:      res.Warnings,
		Bundle:        bundle,
	}
	audit, _ := json.Marshal(map[string]any{
		"conversionId":  conversionID,
		"messageType":   res.MessageType,
		"controlId":     res.ControlID,
		"status":        postgres.StatusCompleted,
		"resourceCount": res.ResourceCount,
		"source":        name,
	})
	events := []*postgres.OutboxEntry{
		{EventType: "bundle.converted", Topic: redpanda.TopicBundles, Key: res.ControlID, Payload: bundle},
		{EventType: "conversion.completed", Topic: redpanda.TopicAudit, Key: res.ControlID, Payload: audit},
	}
	if err := ing.store.Save(ctx, rec, events); err != nil {
		return nil, err
	}

	outPath := filepath.Join(ing.config.OutputDir, outputName(name, conversionID))
	if err := os.WriteFile(outPath, bundle, 0o644); err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}

	ing.logger.Info("file converted",
		zap.String("file", name),
		zap.String("conversion_id", conversionID),
		zap.Int("resources", res.ResourceCount))

	return json.RawMessage(fmt.Sprintf("%q", conversionID)), nil
}

// outputName derives the bundle file name as <input>_<conversion id>:
// re-drops of a renamed file then land next to the original instead of
// overwriting it.
func outputName(input, conversionID string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if base == "" {
		return conversionID + ".json"
	}
	return base + "_" + conversionID + ".json"
}
