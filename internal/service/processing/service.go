// Package processing runs the nightly translation and embedding pipeline:
// pending tips are fetched from the database, sent to the worker node in
// parallel sub-batches, and the results persisted in one transaction.
package processing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/travelbuddy/backend/internal/adapter/worker"
	"github.com/travelbuddy/backend/internal/domain"
)

// ErrWorkerUnavailable is returned when the worker node does not answer its
// health endpoint and no processing can happen.
var ErrWorkerUnavailable = errors.New("worker node unavailable")

// Stats summarizes one pipeline run.
type Stats struct {
	Processed  int
	Translated int
	Embedded   int
	Errors     int
}

type tipRepo interface {
	ListPending(ctx context.Context, limit int) ([]domain.Tip, error)
	MarkProcessed(ctx context.Context, tipID int64, translatedText, lang *string, processedAt time.Time) error
	MarkError(ctx context.Context, tipID int64) error
}

type embeddingRepo interface {
	Upsert(ctx context.Context, tipID int64, vector []float32) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type healthClient interface {
	Health(ctx context.Context) bool
}

type waker interface {
	Wake(ctx context.Context) error
}

// Service is the pending-work processor.
type Service struct {
	log        *slog.Logger
	tips       tipRepo
	embeddings embeddingRepo
	tx         txManager
	health     healthClient
	waker      waker // nil disables waking
	dispatcher *Dispatcher

	batchSize  int
	targetLang string
	now        func() time.Time
}

// NewService creates the pending-work processor. waker may be nil when the
// run should not try to power the node on.
func NewService(
	log *slog.Logger,
	tips tipRepo,
	embeddings embeddingRepo,
	tx txManager,
	health healthClient,
	waker waker,
	dispatcher *Dispatcher,
	batchSize int,
	targetLang string,
) *Service {
	return &Service{
		log:        log.With("service", "processing"),
		tips:       tips,
		embeddings: embeddings,
		tx:         tx,
		health:     health,
		waker:      waker,
		dispatcher: dispatcher,
		batchSize:  batchSize,
		targetLang: targetLang,
		now:        time.Now,
	}
}

// Run executes one pipeline pass over up to batchSize pending tips.
//
// An empty queue returns zero stats and no error. A wake failure is only a
// warning; the health gate afterwards decides whether the run proceeds. An
// unhealthy worker aborts with ErrWorkerUnavailable before any database
// write, leaving every tip pending for the next run.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	tips, err := s.tips.ListPending(ctx, s.batchSize)
	if err != nil {
		return Stats{}, err
	}
	if len(tips) == 0 {
		s.log.InfoContext(ctx, "no pending tips")
		return Stats{}, nil
	}
	s.log.InfoContext(ctx, "fetched pending tips", slog.Int("count", len(tips)))

	if s.waker != nil {
		if err := s.waker.Wake(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Stats{}, err
			}
			s.log.WarnContext(ctx, "wake failed, continuing to health check",
				slog.String("error", err.Error()))
		}
	}

	if !s.health.Health(ctx) {
		return Stats{}, ErrWorkerUnavailable
	}

	results, dispatchErr := s.dispatcher.Dispatch(ctx, tips)
	if dispatchErr != nil {
		s.log.WarnContext(ctx, "some sub-batches failed",
			slog.String("error", dispatchErr.Error()))
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	stats, err := s.persist(ctx, tips, results)
	if err != nil {
		return Stats{}, err
	}

	s.log.InfoContext(ctx, "pipeline run finished",
		slog.Int("processed", stats.Processed),
		slog.Int("translated", stats.Translated),
		slog.Int("embedded", stats.Embedded),
		slog.Int("errors", stats.Errors),
	)
	return stats, nil
}

// persist writes all outcomes in a single transaction so a crash mid-write
// leaves every tip of the batch pending rather than half-marked.
func (s *Service) persist(ctx context.Context, tips []domain.Tip, results []*worker.Result) (Stats, error) {
	var stats Stats
	processedAt := s.now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for i, tip := range tips {
			res := results[i]
			if res == nil {
				if err := s.tips.MarkError(ctx, tip.ID); err != nil {
					if !errors.Is(err, domain.ErrNotFound) {
						return err
					}
					s.log.WarnContext(ctx, "tip vanished during run", slog.Int64("tip_id", tip.ID))
				}
				stats.Errors++
				continue
			}

			lang := normalizeLanguage(res.Language)
			if err := s.tips.MarkProcessed(ctx, tip.ID, &res.TranslatedText, lang, processedAt); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					s.log.WarnContext(ctx, "tip vanished during run", slog.Int64("tip_id", tip.ID))
					stats.Errors++
					continue
				}
				return err
			}

			// a worker may translate a text it could not embed
			if len(res.Embedding) > 0 {
				if err := s.embeddings.Upsert(ctx, tip.ID, res.Embedding); err != nil {
					return err
				}
				stats.Embedded++
			}

			stats.Processed++
			if lang != nil && *lang != s.targetLang {
				stats.Translated++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// normalizeLanguage canonicalizes a detected language code to its ISO-639-1
// base form ("en-US" becomes "en"). A code x/text cannot parse is kept as the
// worker reported it.
func normalizeLanguage(code string) *string {
	if code == "" {
		return nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return &code
	}
	base, conf := tag.Base()
	if conf == language.No {
		return &code
	}
	normalized := base.String()
	return &normalized
}
