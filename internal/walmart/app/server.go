package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gowalmart_seller/config"
	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/models/dto/request"
	"gowalmart_seller/internal/walmart/business/services"
	"gowalmart_seller/internal/walmart/business/services/get"
	"gowalmart_seller/internal/walmart/pkg/clients"
	"gowalmart_seller/internal/walmart/protocol"
	"gowalmart_seller/metrics"
	"gowalmart_seller/pkg/logger"
	"gowalmart_seller/pkg/middleware"
)

const DefaultWorkers = 2

type ServerOptions struct {
	HTTPClient *http.Client
	Workers    int

	ReportPollInterval time.Duration
	ReportMaxPolls     uint

	Now func() time.Time
}

// WalmartServer runs the connector commands against one configuration.
type WalmartServer struct {
	config.AppConfig
	opts ServerOptions

	log   logger.Logger
	out   *protocol.Writer
	stats *metrics.SyncMetrics
}

func NewWalmartServer(cfg config.AppConfig, out io.Writer, log logger.Logger, opts ServerOptions) *WalmartServer {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 100 * time.Second}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &WalmartServer{
		AppConfig: cfg,
		opts:      opts,
		log:       log,
		out:       protocol.NewWriter(out),
		stats:     &metrics.SyncMetrics{},
	}
}

// Stats returns the counters of the last read or sync.
func (s *WalmartServer) Stats() *metrics.SyncMetrics {
	return s.stats
}

func (s *WalmartServer) Spec() error {
	return s.out.Write(protocol.Message{Type: protocol.TypeSpec, Spec: &protocol.Spec{
		DocumentationURL:        config.DocumentationURL,
		ConnectionSpecification: config.ConnectionSpecification(),
	}})
}

// Check reports whether the credentials can read orders. Connection
// problems are written as a FAILED status, not returned.
func (s *WalmartServer) Check(ctx context.Context) error {
	if err := s.Walmart.Validate(); err != nil {
		return s.out.ConnectionStatus(protocol.StatusFailed, err.Error())
	}
	deps := s.dependencies()
	if err := get.NewPingEngine(deps.Client, deps.Window).Ping(ctx); err != nil {
		s.log.Warn("connection check failed: %s", err)
		return s.out.ConnectionStatus(protocol.StatusFailed, fmt.Sprintf("Unable to connect to Walmart API with the provided credentials - %s", err))
	}
	return s.out.ConnectionStatus(protocol.StatusSucceeded, "")
}

func (s *WalmartServer) Discover() error {
	if err := s.Walmart.Validate(); err != nil {
		return err
	}
	catalog := &protocol.Catalog{}
	for _, stream := range get.All(s.dependencies()) {
		catalog.Streams = append(catalog.Streams, protocol.NewCatalogStream(stream.Name(), stream.PrimaryKey()))
	}
	return s.out.Write(protocol.Message{Type: protocol.TypeCatalog, Catalog: catalog})
}

// Read emits the records of every stream in catalog. A failing stream does
// not stop the others; all failures are returned together.
func (s *WalmartServer) Read(ctx context.Context, catalog *protocol.ConfiguredCatalog) error {
	if err := s.Walmart.Validate(); err != nil {
		_ = s.out.Error(protocol.FailureConfig, err)
		return err
	}
	s.stats = &metrics.SyncMetrics{}

	var errs []error
	for _, stream := range get.All(s.dependencies()) {
		configured, ok := catalog.Lookup(stream.Name())
		if !ok {
			s.log.Debug("stream %s is not in the catalog, skipping", stream.Name())
			continue
		}
		if configured.SyncMode == protocol.Incremental {
			s.log.Warn("stream %s only supports full refresh", stream.Name())
			if err := s.out.Log("WARN", "Stream %s does not support incremental sync, reading it as full refresh", stream.Name()); err != nil {
				return err
			}
		}
		if err := s.readStream(ctx, stream); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}

	s.log.Log("read finished: %d records, %d streams succeeded, %d failed",
		s.stats.RecordsRead.Load(), s.stats.StreamsSucceeded.Load(), s.stats.StreamsFailed.Load())
	return errors.Join(errs...)
}

func (s *WalmartServer) readStream(ctx context.Context, stream get.Stream) error {
	name := stream.Name()
	if err := s.out.StreamStatus(name, protocol.StreamStarted); err != nil {
		return err
	}

	var count int
	err := stream.Read(ctx, func(record models.Record) error {
		count++
		s.stats.RecordsRead.Add(1)
		if count == 1 {
			if err := s.out.StreamStatus(name, protocol.StreamRunning); err != nil {
				return err
			}
		}
		return s.out.Record(name, record)
	})
	metrics.RecordRecords(name, count)

	if err != nil {
		s.stats.StreamsFailed.Add(1)
		metrics.RecordStreamError(name)
		s.log.Error("stream %s failed after %d records: %s", name, count, err)
		_ = s.out.StreamStatus(name, protocol.StreamIncomplete)
		_ = s.out.Error(failureType(err), fmt.Errorf("stream %s: %w", name, err))
		return fmt.Errorf("reading stream %s: %w", name, err)
	}

	s.stats.StreamsSucceeded.Add(1)
	s.log.Log("stream %s: %d records", name, count)
	return s.out.StreamStatus(name, protocol.StreamComplete)
}

func failureType(err error) string {
	if errors.Is(err, services.ErrUnauthorized) || errors.Is(err, config.ErrInvalidConfig) {
		return protocol.FailureConfig
	}
	return protocol.FailureSystem
}

func (s *WalmartServer) dependencies() get.Dependencies {
	cfg := s.Walmart
	auth := services.NewTokenAuth(cfg.BaseURL(), cfg.ClientID, cfg.ClientSecret, s.opts.HTTPClient)
	client := clients.NewBaseClient(cfg.BaseURL(), auth, s.log,
		clients.WithHTTPClient(s.opts.HTTPClient),
		clients.WithRateLimiter(clients.NewRateLimiter(cfg.RateLimit())),
		clients.WithMiddleware(middleware.Metrics()),
	)

	window := request.Window{Start: cfg.Start()}
	if end, ok := cfg.End(); ok {
		window.End = end
	}
	return get.Dependencies{
		Client:             client,
		Window:             window,
		PageSize:           cfg.PageSize,
		Log:                s.log,
		ReportPollInterval: s.opts.ReportPollInterval,
		ReportMaxPolls:     s.opts.ReportMaxPolls,
		Now:                s.opts.Now,
	}
}
