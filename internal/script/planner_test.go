package script

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelume/tutorialcast/internal/fault"
)

const empanadaTopic = "Cómo hacer una empanada de atún"

type stubGenerator struct {
	calls int32
	fn    func(instruction string) (string, error)
}

func (g *stubGenerator) Generate(_ context.Context, instruction string, _ int) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.fn != nil {
		return g.fn(instruction)
	}
	return "Texto generado sobre el tema con suficientes palabras para la sección.", nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Script
	puts    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]Script)}
}

func (c *memoryCache) Get(_ context.Context, fingerprint string, _ time.Time) (Script, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[fingerprint]
	return s, ok, nil
}

func (c *memoryCache) Put(_ context.Context, fingerprint string, _ time.Time, s Script) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = s
	c.puts++
	return nil
}

func TestFingerprintDeterminism(t *testing.T) {
	a := Fingerprint(empanadaTopic, StyleEducational, 30)
	b := Fingerprint(empanadaTopic, StyleEducational, 30)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	// Any input change produces a different key.
	assert.NotEqual(t, a, Fingerprint("Cómo hacer pan", StyleEducational, 30))
	assert.NotEqual(t, a, Fingerprint(empanadaTopic, StyleCasual, 30))
	assert.NotEqual(t, a, Fingerprint(empanadaTopic, StyleEducational, 60))
}

func TestPlanEmpanadaScenario(t *testing.T) {
	p := NewPlanner(newMemoryCache(), &stubGenerator{}, nil, time.Second)

	s, err := p.Plan(context.Background(), empanadaTopic, StyleEducational, 30)
	require.NoError(t, err)

	require.Len(t, s.Sections, 6)
	assert.Equal(t, empanadaTopic, s.Topic)
	assert.Equal(t, StyleEducational, s.Style)
	assert.Equal(t, 30, s.TargetDuration)
	assert.NotEmpty(t, s.Narration)
	assert.Equal(t, "general", s.Category)
	assert.Equal(t, "educational", s.Metadata.Template)
	assert.Greater(t, s.Metadata.WordCount, 0)

	total := 0
	for _, sec := range s.Sections {
		assert.GreaterOrEqual(t, sec.Duration, MinSectionSeconds)
		assert.NotEmpty(t, sec.Text)
		assert.NotEmpty(t, sec.Visual)
		total += sec.Duration
	}
	// Truncating rescale lands one second under the 30s target.
	assert.Equal(t, 29, total)

	// Narration is the in-order concatenation of section texts.
	texts := make([]string, len(s.Sections))
	for i, sec := range s.Sections {
		texts[i] = sec.Text
	}
	assert.Equal(t, strings.Join(texts, " "), s.Narration)
}

func TestPlanCacheHitSkipsGeneration(t *testing.T) {
	gen := &stubGenerator{}
	store := newMemoryCache()
	p := NewPlanner(store, gen, nil, time.Second)
	ctx := context.Background()

	first, err := p.Plan(ctx, empanadaTopic, StyleEducational, 30)
	require.NoError(t, err)
	callsAfterFirst := atomic.LoadInt32(&gen.calls)
	require.Equal(t, int32(6), callsAfterFirst, "one collaborator call per section")

	second, err := p.Plan(ctx, empanadaTopic, StyleEducational, 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, atomic.LoadInt32(&gen.calls), "cache hit must not re-generate")
	assert.Equal(t, 1, store.puts)
}

func TestPlanAllFailuresFallBack(t *testing.T) {
	gen := &stubGenerator{fn: func(string) (string, error) {
		return "", errors.New("collaborator down")
	}}
	p := NewPlanner(nil, gen, nil, time.Second)

	s, err := p.Plan(context.Background(), empanadaTopic, StyleEducational, 30)
	require.NoError(t, err, "an unreachable collaborator must not fail the plan")

	require.Len(t, s.Sections, 6)
	for _, sec := range s.Sections {
		assert.Contains(t, sec.Text, empanadaTopic, "fallback text names the topic verbatim")
	}

	// Fallback sentences keep their full length even in the shortest
	// sections; the word-budget truncation only applies to generated text.
	assert.Contains(t, s.Sections[0].Text, "Quédate para descubrirlo")
	assert.Contains(t, s.Sections[5].Text, "para más tips como este")
}

func TestPlanNilGeneratorUsesFallbacks(t *testing.T) {
	p := NewPlanner(nil, nil, nil, 0)

	s, err := p.Plan(context.Background(), empanadaTopic, StyleCasual, 40)
	require.NoError(t, err)
	require.Len(t, s.Sections, 5)
	for _, sec := range s.Sections {
		assert.Contains(t, sec.Text, empanadaTopic)
	}
}

func TestPlanUnknownStyleUsesEducationalTemplate(t *testing.T) {
	p := NewPlanner(nil, nil, nil, 0)

	s, err := p.Plan(context.Background(), empanadaTopic, Style("dramatic"), 30)
	require.NoError(t, err)
	assert.Equal(t, "educational", s.Metadata.Template)
	assert.Len(t, s.Sections, 6)
	// The requested style is preserved for cache keying.
	assert.Equal(t, Style("dramatic"), s.Style)
}

func TestPlanCategoryDetection(t *testing.T) {
	p := NewPlanner(nil, nil, nil, 0)

	s, err := p.Plan(context.Background(), "Introducción a la programación en Go", StyleEducational, 30)
	require.NoError(t, err)
	assert.Equal(t, "programming", s.Category)
	for _, sec := range s.Sections {
		assert.Contains(t, sec.Visual, "código y tecnología")
	}
}

func TestPlanInvalidInputs(t *testing.T) {
	p := NewPlanner(nil, nil, nil, 0)
	ctx := context.Background()

	_, err := p.Plan(ctx, "   ", StyleEducational, 30)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ErrValidation))

	_, err = p.Plan(ctx, empanadaTopic, StyleEducational, 1)
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ErrValidation))
}

func TestPlanConcurrentIdenticalRequestsGenerateOnce(t *testing.T) {
	release := make(chan struct{})
	gen := &stubGenerator{fn: func(string) (string, error) {
		<-release
		return "Texto generado para la sección del guion.", nil
	}}
	store := newMemoryCache()
	p := NewPlanner(store, gen, nil, time.Minute)

	const callers = 4
	var wg sync.WaitGroup
	results := make([]Script, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Plan(context.Background(), empanadaTopic, StyleEducational, 30)
		}(i)
	}

	// Let the callers pile up on the singleflight key before releasing the
	// collaborator.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&gen.calls), "identical concurrent plans share one generation pass")
	assert.Equal(t, 1, store.puts)
}
