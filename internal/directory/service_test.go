package directory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/directory"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
	"github.com/stitchhire/candidate-directory/backend/internal/enrich"
	"github.com/stitchhire/candidate-directory/backend/internal/repository"
	"github.com/stitchhire/candidate-directory/backend/internal/repository/repofake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapGeocoder 只接受已经规范化的邮编
type mapGeocoder map[string]*domain.GeoResult

func (g mapGeocoder) Lookup(_ context.Context, postcode string) *domain.GeoResult {
	return g[postcode]
}

// blockingGeocoder 一直阻塞到 ctx 结束
type blockingGeocoder struct{}

func (blockingGeocoder) Lookup(ctx context.Context, _ string) *domain.GeoResult {
	<-ctx.Done()
	return nil
}

func setupService(t *testing.T) (*directory.Service, *repofake.FakeTenantStore, *repofake.FakeTenantStore) {
	t.Helper()

	sewing := repofake.NewFakeTenantStore(domain.TenantSewing)
	upholstery := repofake.NewFakeTenantStore(domain.TenantUpholstery)

	sewing.AddCandidate(domain.RawCandidate{
		"id": float64(1), "candidate_id": "SEW-1", "job_title": "Machinist",
		"machines_used": "Walking foot, None selected,  Overlock ", "postcode": "LE1 5WW",
	}, "le1 5ww")
	sewing.AddCandidate(domain.RawCandidate{
		"id": float64(2), "candidate_id": "SEW-2", "job_title": "Sample machinist",
	}, "")
	upholstery.AddCandidate(domain.RawCandidate{
		"id": float64(9), "candidate_ref": "UPH-9", "role": "Upholsterer",
		"materials": []any{"Leather"},
	}, "M1 1AE")

	geo := mapGeocoder{
		"LE15WW": {Latitude: 52.63, Longitude: -1.13, DistrictCode: "LE1"},
		"M11AE":  {Latitude: 53.48, Longitude: -2.24, DistrictCode: "M1"},
	}

	svc := directory.NewService(
		[]repository.TenantStore{sewing, upholstery},
		enrich.NewPipeline(geo, enrich.Config{}),
	)
	return svc, sewing, upholstery
}

func TestListEnrichesAndHidesPostcode(t *testing.T) {
	svc, _, _ := setupService(t)

	list, err := svc.List(context.Background(), domain.TenantSewing)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "SEW-1", list[0].CandidateID)
	require.NotNil(t, list[0].Coordinates)
	assert.Equal(t, "LE1", *list[0].PostcodeDistrict)
	assert.Equal(t, []string{"Walking foot", "Overlock"}, list[0].Machines)

	assert.Equal(t, "SEW-2", list[1].CandidateID)
	assert.Nil(t, list[1].Coordinates)

	data, err := json.Marshal(list)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "LE1 5WW")
	assert.NotContains(t, string(data), "le1 5ww")
}

func TestListAllKeepsTenantOrder(t *testing.T) {
	svc, _, _ := setupService(t)

	list, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.TenantSewing, list[0].TenantType)
	assert.Equal(t, domain.TenantSewing, list[1].TenantType)
	assert.Equal(t, domain.TenantUpholstery, list[2].TenantType)
	assert.Equal(t, "M1", *list[2].PostcodeDistrict)
}

func TestGet(t *testing.T) {
	svc, _, _ := setupService(t)

	c, err := svc.Get(context.Background(), domain.TenantUpholstery, "UPH-9")
	require.NoError(t, err)
	assert.Equal(t, "Upholsterer", c.Role)
	assert.Equal(t, []string{"Leather"}, c.Materials)
	require.NotNil(t, c.Coordinates)

	_, err = svc.Get(context.Background(), domain.TenantUpholstery, "UPH-404")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = svc.Get(context.Background(), domain.TenantID("knitting"), "K-1")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestListSurfacesStoreOutage(t *testing.T) {
	svc, sewing, _ := setupService(t)
	sewing.Unavailable = true

	_, err := svc.List(context.Background(), domain.TenantSewing)
	assert.Equal(t, apperr.CodeUpstreamUnavailable, apperr.CodeOf(err))
}

func TestListAllSharesOneEnrichmentBudget(t *testing.T) {
	sewing := repofake.NewFakeTenantStore(domain.TenantSewing)
	upholstery := repofake.NewFakeTenantStore(domain.TenantUpholstery)
	sewing.AddCandidate(domain.RawCandidate{"id": float64(1), "candidate_id": "SEW-1"}, "LE1 5WW")
	upholstery.AddCandidate(domain.RawCandidate{"id": float64(2), "candidate_ref": "UPH-2"}, "M1 1AE")

	budget := 300 * time.Millisecond
	svc := directory.NewService(
		[]repository.TenantStore{sewing, upholstery},
		enrich.NewPipeline(blockingGeocoder{}, enrich.Config{CallTimeout: 5 * time.Second, BatchTimeout: budget}),
	)

	start := time.Now()
	list, err := svc.ListAll(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].Coordinates)
	assert.Nil(t, list[1].Coordinates)
	assert.Less(t, elapsed, budget+budget/2)
}

func TestListAllMatchesPostcodesPerTenant(t *testing.T) {
	sewing := repofake.NewFakeTenantStore(domain.TenantSewing)
	upholstery := repofake.NewFakeTenantStore(domain.TenantUpholstery)
	// 两个 tenant 使用相同的候选人编号
	sewing.AddCandidate(domain.RawCandidate{"id": float64(1), "candidate_id": "C-1"}, "LE1 5WW")
	upholstery.AddCandidate(domain.RawCandidate{"id": float64(1), "candidate_ref": "C-1"}, "M1 1AE")

	svc := directory.NewService(
		[]repository.TenantStore{sewing, upholstery},
		enrich.NewPipeline(mapGeocoder{
			"LE15WW": {Latitude: 52.63, Longitude: -1.13, DistrictCode: "LE1"},
			"M11AE":  {Latitude: 53.48, Longitude: -2.24, DistrictCode: "M1"},
		}, enrich.Config{}),
	)

	list, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].PostcodeDistrict)
	require.NotNil(t, list[1].PostcodeDistrict)
	assert.Equal(t, "LE1", *list[0].PostcodeDistrict)
	assert.Equal(t, "M1", *list[1].PostcodeDistrict)
}
