package imports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/importer"
	"github.com/noah-isme/backend-pos/internal/jobs"
	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// Catalog is where imported rows land. *catalog.Service satisfies it.
type Catalog interface {
	Snapshot(ctx context.Context, ownerID string) ([]importer.CategoryRef, error)
	Importer(ownerID string) importer.Sink
}

// Enqueuer hands an import to the background worker. *jobs.Client satisfies it.
type Enqueuer interface {
	EnqueueImport(ctx context.Context, p jobs.ImportPayload) error
}

// Service starts imports and runs them, inline or from the worker.
type Service struct {
	Catalog    Catalog
	Statuses   StatusStore
	Locker     lock.Locker
	LockTTL    time.Duration
	Queue      Enqueuer
	OnComplete func(ctx context.Context, ownerID string)
	// ErrorLimit caps the row errors kept on the final status.
	ErrorLimit int
	Log        zerolog.Logger
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start validates the file, takes the owner's import lock and runs the import.
// With async the run is queued and the queued status is returned at once.
func (s *Service) Start(ctx context.Context, ownerID string, kind importer.Kind, csv string, async bool) (Status, error) {
	if strings.TrimSpace(strings.TrimPrefix(csv, "\ufeff")) == "" {
		return Status{}, common.NewAppError("EMPTY_FILE", "file is empty", http.StatusBadRequest, nil)
	}
	rows, err := importer.Parse(csv)
	if err != nil {
		return Status{}, common.BadRequest("file", "file is not valid CSV", err)
	}
	if len(rows) == 0 {
		return Status{}, common.NewAppError("EMPTY_FILE", "file is empty", http.StatusBadRequest, nil)
	}
	if async && s.Queue == nil {
		return Status{}, errors.New("imports: background queue not configured")
	}

	token, err := s.Locker.Acquire(ctx, lock.ImportKey(ownerID), s.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return Status{}, common.Conflict("IMPORT_IN_PROGRESS", "another import is already running", err)
	}
	if err != nil {
		return Status{}, fmt.Errorf("acquire import lock: %w", err)
	}

	now := s.now().UTC()
	st := Status{ID: uuid.NewString(), Kind: string(kind), State: StateQueued, Total: len(rows), Errors: []string{}, CreatedAt: now, UpdatedAt: now}
	if err := s.Statuses.Save(ctx, ownerID, st); err != nil {
		s.release(ownerID, token)
		return Status{}, err
	}
	payload := jobs.ImportPayload{ID: st.ID, OwnerID: ownerID, Kind: string(kind), LockToken: token, CSV: csv}
	if !async {
		return s.Execute(ctx, payload)
	}
	if err := s.Queue.EnqueueImport(ctx, payload); err != nil {
		s.release(ownerID, token)
		st.State, st.Message, st.UpdatedAt = StateFailed, "could not queue import", s.now().UTC()
		_ = s.Statuses.Save(context.WithoutCancel(ctx), ownerID, st)
		return Status{}, fmt.Errorf("enqueue import: %w", err)
	}
	s.Log.Info().Str("import_id", st.ID).Str("kind", st.Kind).Int("rows", st.Total).Msg("import queued")
	return st, nil
}

// Execute runs a started import and releases its lock.
func (s *Service) Execute(ctx context.Context, p jobs.ImportPayload) (Status, error) {
	defer s.release(p.OwnerID, p.LockToken)

	log := s.Log.With().Str("import_id", p.ID).Str("owner_id", p.OwnerID).Str("kind", p.Kind).Logger()
	st, err := s.Statuses.Load(ctx, p.OwnerID, p.ID)
	if err != nil {
		st = Status{ID: p.ID, Kind: p.Kind, CreatedAt: s.now().UTC()}
	}
	// a detached context keeps the final status write alive after cancellation
	saveCtx := context.WithoutCancel(ctx)
	fail := func(msg string, cause error) (Status, error) {
		st.State, st.Message, st.UpdatedAt = StateFailed, msg, s.now().UTC()
		_ = s.Statuses.Save(saveCtx, p.OwnerID, st)
		log.Error().Err(cause).Msg("import failed")
		return st, cause
	}

	kind, err := importer.ParseKind(p.Kind)
	if err != nil {
		return fail("unknown import kind", err)
	}
	rows, err := importer.Parse(p.CSV)
	if err != nil {
		return fail("file is not valid CSV", err)
	}
	var snapshot []importer.CategoryRef
	if kind == importer.KindItems {
		if snapshot, err = s.Catalog.Snapshot(ctx, p.OwnerID); err != nil {
			return fail("could not load categories", err)
		}
	}

	st.State, st.Total, st.UpdatedAt = StateRunning, len(rows), s.now().UTC()
	_ = s.Statuses.Save(ctx, p.OwnerID, st)
	log.Info().Int("rows", len(rows)).Msg("import started")

	started := time.Now()
	sink := &countingSink{Sink: s.Catalog.Importer(p.OwnerID)}
	res, err := importer.Run(ctx, kind, rows, snapshot, sink, func(current, total int) {
		st.Current, st.Total = current, total
		st.Success, st.Failed = sink.ok, current-sink.ok
		st.UpdatedAt = s.now().UTC()
		if err := s.Statuses.Save(ctx, p.OwnerID, st); err != nil {
			log.Warn().Err(err).Msg("import progress not saved")
		}
	})
	obs.ImportDuration.WithLabelValues(p.Kind).Observe(float64(time.Since(started).Milliseconds()))
	obs.ImportRowsTotal.WithLabelValues(p.Kind, "success").Add(float64(res.Success))
	obs.ImportRowsTotal.WithLabelValues(p.Kind, "failed").Add(float64(res.Failed))
	if res.Success > 0 && s.OnComplete != nil {
		s.OnComplete(saveCtx, p.OwnerID)
	}

	st.Success, st.Failed, st.Total = res.Success, res.Failed, res.Total
	st.Errors = res.FirstErrors(s.ErrorLimit)
	if err != nil {
		return fail("import interrupted", err)
	}
	st.State, st.Current, st.UpdatedAt = StateCompleted, res.Total, s.now().UTC()
	if err := s.Statuses.Save(saveCtx, p.OwnerID, st); err != nil {
		log.Warn().Err(err).Msg("final import status not saved")
	}
	log.Info().Int("success", res.Success).Int("failed", res.Failed).Dur("took", time.Since(started)).Msg("import completed")
	return st, nil
}

// HandleTask is the asynq handler for jobs.TaskImportCSV.
func (s *Service) HandleTask(ctx context.Context, t *asynq.Task) error {
	p, err := jobs.DecodeImport(t)
	if err != nil {
		return err
	}
	_, err = s.Execute(ctx, p)
	return err
}

// Status returns an import's progress for its owner.
func (s *Service) Status(ctx context.Context, ownerID, id string) (Status, error) {
	st, err := s.Statuses.Load(ctx, ownerID, id)
	if errors.Is(err, errStatusNotFound) {
		return Status{}, common.NotFound("import", err)
	}
	return st, err
}

func (s *Service) release(ownerID, token string) {
	if err := s.Locker.Release(context.Background(), lock.ImportKey(ownerID), token); err != nil {
		s.Log.Warn().Err(err).Str("owner_id", ownerID).Msg("import lock not released")
	}
}

// countingSink counts rows the catalog accepted so progress can report them mid-run.
type countingSink struct {
	importer.Sink
	ok int
}

func (c *countingSink) CreateCategory(ctx context.Context, in importer.NewCategory) error {
	err := c.Sink.CreateCategory(ctx, in)
	if err == nil {
		c.ok++
	}
	return err
}

func (c *countingSink) CreateItem(ctx context.Context, in importer.NewItem) error {
	err := c.Sink.CreateItem(ctx, in)
	if err == nil {
		c.ok++
	}
	return err
}
