package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelume/tutorialcast/internal/fault"
	"github.com/avelume/tutorialcast/internal/media"
	"github.com/avelume/tutorialcast/internal/pipeline"
	"github.com/avelume/tutorialcast/internal/script"
)

type stubProducer struct {
	requests []pipeline.Request
	failFor  string
}

func (p *stubProducer) Run(ctx context.Context, req pipeline.Request) (media.VideoOutput, error) {
	p.requests = append(p.requests, req)
	if req.Topic == p.failFor {
		return media.VideoOutput{}, fault.New(fault.ErrSynthesis, "image service down")
	}
	return media.VideoOutput{Path: "/videos/" + req.OutputName + "_tutorial.mp4"}, nil
}

type stubSweeper struct {
	calls   int
	removed int
}

func (s *stubSweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.calls++
	return s.removed, nil
}

func writeTopicsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleTopics = `topics:
  - topic: "Cómo hacer una empanada de atún"
    style: educational
    duration: 30
    output: empanada
  - topic: "Introducción a Go"
    style: professional
    duration: 60
    output: go_intro
`

func TestLoadTopics(t *testing.T) {
	path := writeTopicsFile(t, sampleTopics)

	entries, err := LoadTopics(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Cómo hacer una empanada de atún", entries[0].Topic)
	assert.Equal(t, "educational", entries[0].Style)
	assert.Equal(t, 30, entries[0].Duration)
	assert.Equal(t, "empanada", entries[0].Output)
	assert.Equal(t, 60, entries[1].Duration)
}

func TestLoadTopicsDefaults(t *testing.T) {
	path := writeTopicsFile(t, "topics:\n  - topic: Solo el tema\n")

	entries, err := LoadTopics(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, 30, entries[0].Duration)
	assert.Equal(t, string(script.StyleEducational), entries[0].Style)
	assert.Empty(t, entries[0].Output)
}

func TestLoadTopicsErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		errPart string
	}{
		{
			name:    "missing file",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			errPart: "read topics file",
		},
		{
			name:    "invalid yaml",
			setup:   func(t *testing.T) string { return writeTopicsFile(t, "topics: [not: closed") },
			errPart: "parse topics file",
		},
		{
			name:    "no entries",
			setup:   func(t *testing.T) string { return writeTopicsFile(t, "topics: []\n") },
			errPart: "no entries",
		},
		{
			name:    "blank topic",
			setup:   func(t *testing.T) string { return writeTopicsFile(t, "topics:\n  - topic: '  '\n") },
			errPart: "has no topic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTopics(tt.setup(t))
			require.Error(t, err)
			assert.True(t, fault.IsKind(err, fault.ErrConfig))
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestRunOnceProducesAllEntries(t *testing.T) {
	producer := &stubProducer{}
	sweeper := &stubSweeper{removed: 2}
	runner := NewRunner(producer, sweeper, writeTopicsFile(t, sampleTopics), "", nil)

	require.NoError(t, runner.RunOnce(context.Background()))

	require.Len(t, producer.requests, 2)
	assert.Equal(t, script.StyleEducational, producer.requests[0].Style)
	assert.Equal(t, script.StyleProfessional, producer.requests[1].Style)
	assert.Equal(t, "go_intro", producer.requests[1].OutputName)
	assert.Equal(t, 1, sweeper.calls)
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	producer := &stubProducer{failFor: "Cómo hacer una empanada de atún"}
	sweeper := &stubSweeper{}
	runner := NewRunner(producer, sweeper, writeTopicsFile(t, sampleTopics), "", nil)

	require.NoError(t, runner.RunOnce(context.Background()))

	// Both entries ran and the sweep still happened.
	assert.Len(t, producer.requests, 2)
	assert.Equal(t, 1, sweeper.calls)
}

func TestRunOnceMissingTopicsFileFails(t *testing.T) {
	runner := NewRunner(&stubProducer{}, nil, filepath.Join(t.TempDir(), "nope.yaml"), "", nil)

	err := runner.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ErrConfig))
}

func TestScheduleRegistersCronEntry(t *testing.T) {
	c := cron.New()
	runner := NewRunner(&stubProducer{}, nil, writeTopicsFile(t, sampleTopics), "0 9 * * *", c)

	require.NoError(t, runner.Schedule(context.Background()))
	assert.Len(t, c.Entries(), 1)
}

func TestScheduleInvalidExpression(t *testing.T) {
	c := cron.New()
	runner := NewRunner(&stubProducer{}, nil, writeTopicsFile(t, sampleTopics), "bogus", c)

	assert.Error(t, runner.Schedule(context.Background()))
}
