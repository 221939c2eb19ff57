package enrich

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	results map[string]*domain.GeoResult
	delays  map[string]time.Duration
	// ignoreCtx 为 true 时模拟不响应取消的实现
	ignoreCtx bool
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	// unnormalized 统计收到的未规范化邮编数量
	unnormalized atomic.Int32
}

func (g *fakeGeocoder) Lookup(ctx context.Context, postcode string) *domain.GeoResult {
	g.calls.Add(1)
	if postcode != domain.NormalizePostcode(postcode) {
		g.unnormalized.Add(1)
		return nil
	}
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		m := g.maxFlight.Load()
		if n <= m || g.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if d, ok := g.delays[postcode]; ok {
		if g.ignoreCtx {
			time.Sleep(d)
		} else {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil
			}
		}
	}
	return g.results[postcode]
}

func candidates(n int) ([]domain.UnifiedCandidate, map[string]string, map[string]*domain.GeoResult) {
	list := make([]domain.UnifiedCandidate, n)
	postcodes := make(map[string]string, n)
	results := make(map[string]*domain.GeoResult, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("C%02d", i)
		pc := fmt.Sprintf("AB%d 1XY", i)
		list[i] = domain.UnifiedCandidate{CandidateID: id, TenantType: domain.TenantSewing}
		postcodes[id] = pc
		results[domain.NormalizePostcode(pc)] = &domain.GeoResult{Latitude: float64(i), Longitude: -float64(i), DistrictCode: fmt.Sprintf("AB%d", i)}
	}
	return list, postcodes, results
}

func TestEnrichOneFailureKeepsBatch(t *testing.T) {
	list, postcodes, results := candidates(10)
	delete(results, domain.NormalizePostcode(postcodes["C04"]))

	p := NewPipeline(&fakeGeocoder{results: results}, Config{})
	out := p.Enrich(context.Background(), list, postcodes)

	require.Len(t, out, 10)
	withCoords := 0
	for i, c := range out {
		assert.Equal(t, fmt.Sprintf("C%02d", i), c.CandidateID)
		if c.Coordinates != nil {
			withCoords++
			assert.Equal(t, float64(i), c.Coordinates.Latitude)
			require.NotNil(t, c.PostcodeDistrict)
			assert.Equal(t, fmt.Sprintf("AB%d", i), *c.PostcodeDistrict)
		}
	}
	assert.Equal(t, 9, withCoords)
	assert.Nil(t, out[4].Coordinates)
	assert.Nil(t, out[4].PostcodeDistrict)
}

func TestEnrichSlowLookupDoesNotStallBatch(t *testing.T) {
	list, postcodes, results := candidates(10)
	g := &fakeGeocoder{
		results:   results,
		delays:    map[string]time.Duration{domain.NormalizePostcode(postcodes["C07"]): 5 * time.Second},
		ignoreCtx: true,
	}

	p := NewPipeline(g, Config{CallTimeout: 50 * time.Millisecond, BatchTimeout: time.Second})

	start := time.Now()
	out := p.Enrich(context.Background(), list, postcodes)
	assert.Less(t, time.Since(start), time.Second)

	require.Len(t, out, 10)
	assert.Nil(t, out[7].Coordinates)
	for i, c := range out {
		if i != 7 {
			assert.NotNil(t, c.Coordinates, c.CandidateID)
		}
	}
}

func TestEnrichBatchTimeoutBoundsWholeFanOut(t *testing.T) {
	list, postcodes, results := candidates(6)
	delays := map[string]time.Duration{}
	for _, pc := range postcodes {
		delays[domain.NormalizePostcode(pc)] = time.Second
	}
	g := &fakeGeocoder{results: results, delays: delays}

	p := NewPipeline(g, Config{CallTimeout: 2 * time.Second, BatchTimeout: 100 * time.Millisecond, Concurrency: 2})

	start := time.Now()
	out := p.Enrich(context.Background(), list, postcodes)
	assert.Less(t, time.Since(start), 900*time.Millisecond)

	require.Len(t, out, 6)
	for _, c := range out {
		assert.Nil(t, c.Coordinates)
	}
}

func TestEnrichSkipsCandidatesWithoutPostcode(t *testing.T) {
	list, postcodes, results := candidates(3)
	delete(postcodes, "C01")
	g := &fakeGeocoder{results: results}

	out := NewPipeline(g, Config{}).Enrich(context.Background(), list, postcodes)
	assert.Equal(t, int32(2), g.calls.Load())
	assert.Nil(t, out[1].Coordinates)
	assert.NotNil(t, out[0].Coordinates)
	assert.NotNil(t, out[2].Coordinates)
}

func TestEnrichRespectsConcurrencyLimit(t *testing.T) {
	list, postcodes, results := candidates(12)
	delays := map[string]time.Duration{}
	for _, pc := range postcodes {
		delays[domain.NormalizePostcode(pc)] = 20 * time.Millisecond
	}
	g := &fakeGeocoder{results: results, delays: delays}

	NewPipeline(g, Config{Concurrency: 3}).Enrich(context.Background(), list, postcodes)
	assert.LessOrEqual(t, g.maxFlight.Load(), int32(3))
	assert.Equal(t, int32(12), g.calls.Load())
}

func TestEnrichIsIdempotentAndDoesNotMutateInput(t *testing.T) {
	list, postcodes, results := candidates(4)
	p := NewPipeline(&fakeGeocoder{results: results}, Config{})

	once := p.Enrich(context.Background(), list, postcodes)
	twice := p.Enrich(context.Background(), once, postcodes)
	assert.Equal(t, once, twice)

	for _, c := range list {
		assert.Nil(t, c.Coordinates)
	}
}

func TestEnrichNormalizesPostcodeBeforeLookup(t *testing.T) {
	list := []domain.UnifiedCandidate{{CandidateID: "C00"}, {CandidateID: "C01"}}
	postcodes := map[string]string{"C00": " le1 5ww ", "C01": "  "}
	g := &fakeGeocoder{results: map[string]*domain.GeoResult{
		"LE15WW": {Latitude: 52.63, Longitude: -1.13, DistrictCode: "LE1"},
	}}

	out := NewPipeline(g, Config{}).Enrich(context.Background(), list, postcodes)

	assert.Zero(t, g.unnormalized.Load())
	assert.Equal(t, int32(1), g.calls.Load())
	require.NotNil(t, out[0].Coordinates)
	assert.Equal(t, 52.63, out[0].Coordinates.Latitude)
	assert.Nil(t, out[1].Coordinates)
}

func TestEnrichAtMatchesPostcodesByPosition(t *testing.T) {
	// 两个 tenant 的候选人编号相同，但邮编不同
	list := []domain.UnifiedCandidate{
		{CandidateID: "C1", TenantType: domain.TenantSewing},
		{CandidateID: "C1", TenantType: domain.TenantUpholstery},
		{CandidateID: "C2", TenantType: domain.TenantUpholstery},
	}
	g := &fakeGeocoder{results: map[string]*domain.GeoResult{
		"LE15WW": {Latitude: 1, DistrictCode: "LE1"},
		"M11AE":  {Latitude: 2, DistrictCode: "M1"},
	}}

	out := NewPipeline(g, Config{}).EnrichAt(context.Background(), list, []string{"LE1 5WW", "m1 1ae"})

	require.Len(t, out, 3)
	require.NotNil(t, out[0].PostcodeDistrict)
	assert.Equal(t, "LE1", *out[0].PostcodeDistrict)
	require.NotNil(t, out[1].PostcodeDistrict)
	assert.Equal(t, "M1", *out[1].PostcodeDistrict)
	assert.Nil(t, out[2].Coordinates)
}
