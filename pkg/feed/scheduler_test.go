package feed

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfeedsync/pkg/logger"
)

func TestNewSchedulerRejectsNonPositiveInterval(t *testing.T) {
	cfg := testConfig(t)
	syncer := newTestSyncer(t, newMockClient(), cfg)

	_, err := NewScheduler(syncer, 0, logger.NewTestLogger())
	assert.Error(t, err)
	_, err = NewScheduler(syncer, -time.Minute, logger.NewTestLogger())
	assert.Error(t, err)
}

func TestSchedulerRunsImmediately(t *testing.T) {
	cfg := testConfig(t)
	client := newMockClient()
	client.profile = profileWithPosts("12345", "SchedA", "SchedB")
	syncer := newTestSyncer(t, client, cfg)

	scheduler, err := NewScheduler(syncer, time.Hour, logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	// The first sync fires on start, not after the first interval
	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.Output.ManifestPath())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, client.profileCalls, 1)
}

func TestSchedulerSurvivesFailingRuns(t *testing.T) {
	cfg := testConfig(t)
	client := newMockClient()
	client.profileErr = assert.AnError
	syncer := newTestSyncer(t, client, cfg)

	scheduler, err := NewScheduler(syncer, 30*time.Millisecond, logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, scheduler.Run(ctx))
	// The schedule kept ticking despite every run failing
	assert.GreaterOrEqual(t, client.profileCalls, 2)
}
