package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"gowalmart_seller/internal/walmart/business/models"
	"gowalmart_seller/internal/walmart/business/services/get"
	"gowalmart_seller/internal/walmart/storage"
	"gowalmart_seller/metrics"
	"gowalmart_seller/migrations/infrastructure"
	"gowalmart_seller/migrations/marketplaces/walmart"
	"gowalmart_seller/pkg/dbconnect"
	"gowalmart_seller/pkg/dbconnect/migration"
)

// Sync loads the selected streams (all when names is empty) into Postgres.
// Repeated names select a stream once.
// Streams run on a bounded pool of workers; the run fails if any stream fails.
func (s *WalmartServer) Sync(ctx context.Context, database dbconnect.Database, names []string) error {
	if err := s.Walmart.Validate(); err != nil {
		return err
	}
	streams, err := selectStreams(get.All(s.dependencies()), names)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := s.migrate(db, streams); err != nil {
		return err
	}

	return s.syncStreams(ctx, storage.NewRecordRepository(db), streams)
}

func (s *WalmartServer) migrate(db *sql.DB, streams []get.Stream) error {
	tables := make([]string, 0, len(streams))
	for _, stream := range streams {
		tables = append(tables, stream.Name())
	}
	migrationApply := append([]migration.MigrationInterface{&infrastructure.MigrationsSchema{}}, walmart.Migrations(s.log, tables)...)
	for _, m := range migrationApply {
		if err := m.UpMigration(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	s.log.Log("Walmart migrations applied successfully!")
	return nil
}

func (s *WalmartServer) syncStreams(ctx context.Context, repo *storage.RecordRepository, streams []get.Stream) error {
	s.stats = &metrics.SyncMetrics{}
	runID := uuid.New()
	s.log.Log("sync run %s: %d streams, %d workers", runID, len(streams), s.opts.Workers)

	jobs := make(chan get.Stream)
	errChan := make(chan error, len(streams))
	var wg sync.WaitGroup

	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stream := range jobs {
				if err := s.syncStream(ctx, repo, runID, stream); err != nil {
					errChan <- err
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, stream := range streams {
			select {
			case jobs <- stream:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}

	s.log.Log("sync run %s finished: read %d, written %d, skipped %d records; %d streams succeeded, %d failed",
		runID, s.stats.RecordsRead.Load(), s.stats.RecordsWritten.Load(), s.stats.RecordsSkipped.Load(),
		s.stats.StreamsSucceeded.Load(), s.stats.StreamsFailed.Load())
	return errors.Join(errs...)
}

func (s *WalmartServer) syncStream(ctx context.Context, repo *storage.RecordRepository, runID uuid.UUID, stream get.Stream) error {
	name := stream.Name()
	log := s.log
	startedAt := s.opts.Now().UTC()

	if err := repo.StartRun(ctx, runID, name, startedAt); err != nil {
		return err
	}

	batcher := storage.NewBatcher(repo, name, stream.PrimaryKey(), startedAt, storage.DefaultBatchSize)
	var read int
	err := stream.Read(ctx, func(record models.Record) error {
		read++
		s.stats.RecordsRead.Add(1)
		err := batcher.Add(ctx, record)
		if errors.Is(err, models.ErrMissingKey) {
			s.stats.RecordsSkipped.Add(1)
			log.Warn("stream %s: skipping record: %s", name, err)
			return nil
		}
		return err
	})
	if err == nil {
		err = batcher.Flush(ctx)
	}
	s.stats.RecordsWritten.Add(batcher.Written())
	metrics.RecordRecords(name, read)

	if err == nil {
		var deleted int64
		deleted, err = repo.DeleteStale(ctx, name, startedAt)
		if deleted > 0 {
			log.Log("stream %s: removed %d rows no longer returned by the API", name, deleted)
		}
	}

	if finishErr := repo.FinishRun(context.WithoutCancel(ctx), runID, name, s.opts.Now().UTC(), batcher.Written(), err); finishErr != nil {
		log.Warn("stream %s: %s", name, finishErr)
	}

	if err != nil {
		s.stats.StreamsFailed.Add(1)
		metrics.RecordStreamError(name)
		log.Error("stream %s failed: %s", name, err)
		return fmt.Errorf("syncing stream %s: %w", name, err)
	}
	s.stats.StreamsSucceeded.Add(1)
	log.Log("stream %s: %d records written", name, batcher.Written())
	return nil
}

func selectStreams(all []get.Stream, names []string) ([]get.Stream, error) {
	if len(names) == 0 {
		return all, nil
	}
	selected := make([]get.Stream, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		stream, err := get.Find(all, name)
		if err != nil {
			return nil, err
		}
		// one table must never be synced by two workers at once
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, stream)
	}
	return selected, nil
}
