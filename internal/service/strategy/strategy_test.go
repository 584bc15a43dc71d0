package strategy

import (
	"context"
	"sync"
	"testing"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name     string
	priority int
}

func (s stubProvider) Name() string   { return s.name }
func (s stubProvider) Priority() int  { return s.priority }
func (s stubProvider) RateLimit() int { return 60 }
func (s stubProvider) GetQuote(context.Context, models.Symbol) (models.MarketTick, bool) {
	return models.MarketTick{}, false
}
func (s stubProvider) GetCandles(context.Context, models.Symbol, models.KlinePeriod, int) []models.OHLCV {
	return nil
}
func (s stubProvider) HealthCheck(context.Context) bool { return true }

type fixedHealth map[string]float64

func (f fixedHealth) SuccessRate(name string) (float64, bool) {
	v, ok := f[name]
	return v, ok
}

func providers(specs ...stubProvider) []repository.Provider {
	out := make([]repository.Provider, len(specs))
	for i := range specs {
		out[i] = specs[i]
	}
	return out
}

func names(ps []repository.Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name()
	}
	return out
}

func TestFailoverOrdersByPriorityStable(t *testing.T) {
	t.Parallel()

	// Arrange: equal priorities must keep registration order.
	in := providers(
		stubProvider{"c", 3},
		stubProvider{"a1", 1},
		stubProvider{"b", 2},
		stubProvider{"a2", 1},
		stubProvider{"a3", 1},
	)
	before := names(in)

	// Act
	out := NewFailover().Select(models.CategoryRealtimeQuote, in)

	// Assert
	require.Equal(t, []string{"a1", "a2", "a3", "b", "c"}, names(out))
	require.Equal(t, before, names(in), "input must not be reordered")
	for i := 1; i < len(out); i++ {
		require.LessOrEqual(t, out[i-1].Priority(), out[i].Priority())
	}
}

func TestStrategiesTolerateEmptyInput(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{NewFailover(), NewRoundRobin(), NewWeightedRandom(WithSeed(1))} {
		require.Empty(t, s.Select(models.CategoryKlineData, nil), s.Name())
	}
}

func TestRoundRobinCycles(t *testing.T) {
	t.Parallel()

	rr := NewRoundRobin()
	in := providers(stubProvider{"X", 1}, stubProvider{"Y", 1}, stubProvider{"Z", 1})

	var got []string
	for i := 0; i < 4; i++ {
		out := rr.Select(models.CategoryKlineData, in)
		require.Len(t, out, 1)
		got = append(got, out[0].Name())
	}
	require.Equal(t, []string{"X", "Y", "Z", "X"}, got)

	// Assert: another category starts from its own cursor.
	out := rr.Select(models.CategoryRealtimeQuote, in)
	require.Equal(t, "X", out[0].Name())
}

func TestRoundRobinWrapsStaleCursor(t *testing.T) {
	t.Parallel()

	rr := NewRoundRobin()
	three := providers(stubProvider{"X", 1}, stubProvider{"Y", 1}, stubProvider{"Z", 1})
	rr.Select(models.CategoryKlineData, three)
	rr.Select(models.CategoryKlineData, three)

	// Act: the registry shrank below the cursor.
	one := providers(stubProvider{"X", 1})
	out := rr.Select(models.CategoryKlineData, one)

	require.Equal(t, "X", out[0].Name())
}

func TestRoundRobinConcurrentCallsSeeDistinctIndexes(t *testing.T) {
	t.Parallel()

	rr := NewRoundRobin()
	const n = 8
	specs := make([]stubProvider, n)
	for i := range specs {
		specs[i] = stubProvider{name: string(rune('a' + i)), priority: 1}
	}
	in := providers(specs...)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := rr.Select(models.CategoryTradeDetail, in)
			mu.Lock()
			seen[out[0].Name()]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for name, c := range seen {
		require.Equalf(t, 1, c, "provider %s picked twice", name)
	}
}

func TestWeightedRandomFavoursHealthyProviders(t *testing.T) {
	t.Parallel()

	health := fixedHealth{"good": 1.0, "bad": 0.0}
	w := NewWeightedRandom(WithSeed(42), WithHealthSource(health))
	in := providers(stubProvider{"good", 1}, stubProvider{"bad", 2})

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		out := w.Select(models.CategoryRealtimeQuote, in)
		require.Len(t, out, 1)
		counts[out[0].Name()]++
	}

	// good weighs 1.0 and bad is floored at 0.05, roughly 95/5.
	require.Greater(t, counts["good"], 1700)
	require.Greater(t, counts["bad"], 0)
}

func TestWeightedRandomUnknownHealthIsUniform(t *testing.T) {
	t.Parallel()

	w := NewWeightedRandom(WithSeed(7), WithHealthSource(fixedHealth{}))
	in := providers(stubProvider{"a", 1}, stubProvider{"b", 1})

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		counts[w.Select(models.CategoryRealtimeQuote, in)[0].Name()]++
	}
	require.InDelta(t, 1000, counts["a"], 150)
	require.InDelta(t, 1000, counts["b"], 150)
}

func TestNewByName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{NameFailover, NameRoundRobin, NameWeightedRandom} {
		s, err := New(name, nil)
		require.NoError(t, err)
		require.Equal(t, name, s.Name())
	}

	_, err := New("Fastest", nil)
	require.Error(t, err)
}
