package jobs_test

import (
	"context"
	"testing"

	"github.com/intellibotic/bot-api/internal/domain"
	"github.com/intellibotic/bot-api/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	err := s.AddJob("test_job", "@every 1h", func() {})
	require.NoError(t, err)
	assert.Contains(t, s.GetJobNames(), "test_job")

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := s.AddJob("test_job", "@every 1h", func() {})
		assert.Error(t, err)
	})

	t.Run("invalid cron expression rejected", func(t *testing.T) {
		err := s.AddJob("bad_cron", "not a cron expr", func() {})
		assert.Error(t, err)
	})
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("test_job", "@every 1h", func() {}))
	require.NoError(t, s.RemoveJob("test_job"))
	assert.Empty(t, s.GetJobNames())

	assert.Error(t, s.RemoveJob("test_job"))
}

type fakeReconciler struct {
	calls  int
	result *domain.ReconcileResultDTO
	err    error
}

func (f *fakeReconciler) ReconcileMirrors(ctx context.Context) (*domain.ReconcileResultDTO, error) {
	f.calls++
	return f.result, f.err
}

func TestReconcileJob_Run(t *testing.T) {
	rec := &fakeReconciler{result: &domain.ReconcileResultDTO{Rewritten: 3, Removed: 1}}
	job := jobs.NewReconcileJob(rec, zap.NewNop(), jobs.DefaultReconcileTimeout)

	job.Run()
	assert.Equal(t, 1, rec.calls)
}

func TestReconcileJob_Run_Error(t *testing.T) {
	rec := &fakeReconciler{err: assert.AnError}
	job := jobs.NewReconcileJob(rec, zap.NewNop(), jobs.DefaultReconcileTimeout)

	// An error run must not panic; the next scheduled run retries
	job.Run()
	assert.Equal(t, 1, rec.calls)
}

func TestRegisterReconcileJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	rec := &fakeReconciler{result: &domain.ReconcileResultDTO{}}

	err := jobs.RegisterReconcileJob(s, rec, zap.NewNop(), "@every 1h", false)
	require.NoError(t, err)
	assert.Contains(t, s.GetJobNames(), jobs.ReconcileJobName)
}
