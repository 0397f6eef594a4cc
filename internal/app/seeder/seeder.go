package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/codeduel-vn/codeduel/internal/codeforces"
	"github.com/codeduel-vn/codeduel/internal/domains/entities"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ProblemLister fetches the public problemset from the judge.
type ProblemLister interface {
	ListProblems(ctx context.Context) ([]codeforces.Problem, error)
}

// CatalogWriter upserts catalog entries.
type CatalogWriter interface {
	PutProblem(ctx context.Context, problem entities.Problem) error
}

// Seeder keeps the problem catalog in sync with the judge's public
// problemset. Unrated and untagged problems are skipped; duels need a
// difficulty rating to filter on.
type Seeder struct {
	lister   ProblemLister
	writer   CatalogWriter
	interval time.Duration

	sched gocron.Scheduler
}

func New(lister ProblemLister, writer CatalogWriter, interval time.Duration) *Seeder {
	return &Seeder{
		lister:   lister,
		writer:   writer,
		interval: interval,
	}
}

// Start runs one sync immediately, then on the configured interval.
func (s *Seeder) Start(ctx context.Context) error {
	go func() {
		if _, err := s.SyncOnce(ctx); err != nil {
			logging.Error("initial problem sync failed", zap.Error(err))
		}
	}()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.sched = sched
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if _, err := s.SyncOnce(ctx); err != nil {
				logging.Error("problem sync failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule problem sync: %w", err)
	}
	sched.Start()
	return nil
}

func (s *Seeder) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}

// SyncOnce fetches the problemset and upserts every rated, tagged problem.
// Returns the number of catalog entries written.
func (s *Seeder) SyncOnce(ctx context.Context) (int, error) {
	problems, err := s.lister.ListProblems(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list problems: %w", err)
	}

	seeded := 0
	for _, p := range problems {
		if p.Rating == 0 || len(p.Tags) == 0 {
			continue
		}
		err := s.writer.PutProblem(ctx, entities.Problem{
			ContestId: p.ContestId,
			Index:     p.Index,
			Name:      p.Name,
			Rating:    p.Rating,
			Tags:      p.Tags,
			Url:       codeforces.ProblemUrl(p.ContestId, p.Index),
		})
		if err != nil {
			return seeded, fmt.Errorf("failed to upsert problem %d%s: %w", p.ContestId, p.Index, err)
		}
		seeded++
	}
	logging.Info("problem catalog synced", zap.Int("count", seeded))
	return seeded, nil
}
