package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"anoa.com/gemcert/internal/entity"
	"anoa.com/gemcert/internal/testutil"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCertificate(reportNumber string, reportDate time.Time) *entity.Certificate {
	return &entity.Certificate{
		ReportNumber:   reportNumber,
		ReportDate:     reportDate,
		Shape:          "Round",
		Measurements:   "6.5 x 6.5 x 4.0",
		CaratWeight:    1.0,
		ColorGrade:     "G",
		ClarityGrade:   "VS1",
		CutGrade:       "Excellent",
		Polish:         "Excellent",
		Symmetry:       "Excellent",
		Fluorescence:   "None",
		GemologistName: "A. Smith",
		IsActive:       true,
	}
}

func setup(t *testing.T) (CertificateRepository, *gorm.DB, *cache.MemoryStore) {
	t.Helper()
	db := testutil.DB(t)
	store := cache.NewMemoryStore()
	repo := NewCertificateRepository(db, Options{
		Cache:   store,
		Metrics: cache.NewMetrics(prometheus.NewRegistry()),
	})
	return repo, db, store
}

func TestCreateThenFindRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setup(t)

	cert := newCertificate("G1234567890", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, cert))
	assert.NotZero(t, cert.ID)
	assert.NotEmpty(t, cert.ContentHash)
	assert.False(t, cert.IssueDate.IsZero())

	got, err := repo.FindByReportNumber(ctx, "G1234567890")
	require.NoError(t, err)
	assert.Equal(t, cert.ID, got.ID)
	assert.Equal(t, "Round", got.Shape)
	assert.Equal(t, 1.0, got.CaratWeight)
	assert.Equal(t, "VS1", got.ClarityGrade)
	assert.Equal(t, cert.ContentHash, got.ContentHash)
	assert.True(t, got.ReportDate.Equal(cert.ReportDate))
}

func TestCreateDuplicateReportNumberConflicts(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setup(t)

	require.NoError(t, repo.Create(ctx, newCertificate("G1234567890", time.Now())))

	err := repo.Create(ctx, newCertificate("G1234567890", time.Now()))
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUniqueIndexRejectsDuplicates(t *testing.T) {
	db := testutil.DB(t)

	require.NoError(t, db.Create(newCertificate("G5555555555", time.Now())).Error)
	err := db.Create(newCertificate("G5555555555", time.Now())).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestConcurrentCreatesYieldOneWinner(t *testing.T) {
	ctx := context.Background()
	repo, db, _ := setup(t)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newCertificate("G7777777777", time.Now()))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&entity.Certificate{}).Where("report_number = ?", "G7777777777").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindByReportNumberNotFound(t *testing.T) {
	repo, _, _ := setup(t)

	_, err := repo.FindByReportNumber(context.Background(), "G0000000000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFindByReportNumberServesFromCache(t *testing.T) {
	ctx := context.Background()
	repo, db, store := setup(t)

	require.NoError(t, repo.Create(ctx, newCertificate("G1111111111", time.Now())))
	_, err := repo.FindByReportNumber(ctx, "G1111111111")
	require.NoError(t, err)

	_, ok, _ := store.Get(ctx, certificateCacheKey("G1111111111"))
	require.True(t, ok)

	// Change the row underneath the cache; the cached copy is still served.
	require.NoError(t, db.Model(&entity.Certificate{}).
		Where("report_number = ?", "G1111111111").
		Update("shape", "Pear").Error)

	got, err := repo.FindByReportNumber(ctx, "G1111111111")
	require.NoError(t, err)
	assert.Equal(t, "Round", got.Shape)
}

func TestDeleteInvalidatesCaches(t *testing.T) {
	ctx := context.Background()
	repo, _, store := setup(t)

	cert := newCertificate("G2222222222", time.Now())
	require.NoError(t, repo.Create(ctx, cert))
	_, err := repo.FindByReportNumber(ctx, cert.ReportNumber)
	require.NoError(t, err)
	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	ok, err := repo.Delete(ctx, cert.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, _ := store.Get(ctx, listCacheKey)
	assert.False(t, found)

	_, err = repo.FindByReportNumber(ctx, cert.ReportNumber)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	list, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteUnknownID(t *testing.T) {
	repo, _, _ := setup(t)

	ok, err := repo.Delete(context.Background(), 4242)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetActiveInvalidatesCaches(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setup(t)

	cert := newCertificate("G3333333333", time.Now())
	require.NoError(t, repo.Create(ctx, cert))
	_, err := repo.FindByReportNumber(ctx, cert.ReportNumber)
	require.NoError(t, err)
	_, err = repo.FindAll(ctx)
	require.NoError(t, err)

	ok, err := repo.SetActive(ctx, cert.ID, false)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByReportNumber(ctx, cert.ReportNumber)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)

	ok, err = repo.SetActive(ctx, 9999, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateInvalidatesListCache(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setup(t)

	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Create(ctx, newCertificate("G4444444444", time.Now())))

	list, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFindAllOrderedAndBounded(t *testing.T) {
	ctx := context.Background()
	repo, db, _ := setup(t)

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	total := ListLimit + 25
	batch := make([]*entity.Certificate, 0, total)
	for i := 0; i < total; i++ {
		batch = append(batch, newCertificate(fmt.Sprintf("G%010d", i), base.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, db.CreateInBatches(batch, 200).Error)

	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, ListLimit)

	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].ReportDate.After(list[i-1].ReportDate), "list not in descending reportDate order at %d", i)
	}
	assert.Equal(t, fmt.Sprintf("G%010d", total-1), list[0].ReportNumber)
}

func TestListCacheExpires(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	now := time.Now()
	clock := func() time.Time { return now }
	store := cache.NewMemoryStore().WithClock(func() time.Time { return clock() })
	repo := NewCertificateRepository(db, Options{Cache: store, ListTTL: 5 * time.Minute})

	_, err := repo.FindAll(ctx)
	require.NoError(t, err)

	// Written directly, so no invalidation happens.
	require.NoError(t, db.Create(newCertificate("G6666666666", now)).Error)

	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	later := now.Add(5 * time.Minute)
	clock = func() time.Time { return later }

	list, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
