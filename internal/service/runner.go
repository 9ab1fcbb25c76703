package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/avelume/tutorialcast/internal/media"
	"github.com/avelume/tutorialcast/internal/pipeline"
	"github.com/avelume/tutorialcast/internal/script"
	"github.com/avelume/tutorialcast/pkg/icron"
	"github.com/avelume/tutorialcast/pkg/log"
)

// Producer runs one video request end to end.
type Producer interface {
	Run(ctx context.Context, req pipeline.Request) (media.VideoOutput, error)
}

// Sweeper removes stale cache entries after a batch.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Runner executes the topics batch, either once or on a cron schedule.
type Runner struct {
	producer   Producer
	sweeper    Sweeper
	topicsPath string
	cronExpr   string
	cron       *cron.Cron
}

func NewRunner(producer Producer, sweeper Sweeper, topicsPath, cronExpr string, c *cron.Cron) *Runner {
	return &Runner{
		producer:   producer,
		sweeper:    sweeper,
		topicsPath: topicsPath,
		cronExpr:   cronExpr,
		cron:       c,
	}
}

var singleflightGroup singleflight.Group

// Schedule registers the batch on the runner's cron expression. Overlapping
// triggers collapse into the in-flight run.
func (r *Runner) Schedule(ctx context.Context) error {
	if info, err := icron.GetTriggerInfo(r.cronExpr, time.Now()); err == nil {
		log.Info("batch scheduled, next trigger at %s (in %s)", info.Next.Format(time.RFC3339), info.TimeUntilNext)
	}

	runFunc := func() {
		_, _, _ = singleflightGroup.Do("batch", func() (any, error) {
			if err := r.RunOnce(ctx); err != nil {
				log.Error("scheduled batch failed: %v", err)
			}
			return nil, nil
		})
	}
	_, err := r.cron.AddFunc(r.cronExpr, runFunc)
	return err
}

// RunOnce loads the topics file and produces every entry. A failing entry is
// logged and skipped; the batch keeps going.
func (r *Runner) RunOnce(ctx context.Context) error {
	entries, err := LoadTopics(r.topicsPath)
	if err != nil {
		return err
	}
	log.Info("running batch of %d topics", len(entries))

	failures := 0
	for _, entry := range entries {
		req := pipeline.Request{
			Topic:      entry.Topic,
			Style:      script.ParseStyle(entry.Style),
			Duration:   entry.Duration,
			OutputName: entry.Output,
		}
		out, err := r.producer.Run(ctx, req)
		if err != nil {
			failures++
			log.Error("topic %q failed: %v", entry.Topic, err)
			continue
		}
		log.Info("topic %q produced %s", entry.Topic, out.Path)
	}

	r.sweep(ctx)
	log.Info("batch finished: %d produced, %d failed", len(entries)-failures, failures)
	return nil
}

func (r *Runner) sweep(ctx context.Context) {
	if r.sweeper == nil {
		return
	}
	removed, err := r.sweeper.Sweep(ctx, time.Now())
	if err != nil {
		log.Warn("cache sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Info("cache sweep removed %d stale entries", removed)
	}
}
