package archive

import (
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanridge/ordinator/internal/snapshot"
)

func testOptions() Options {
	return Options{PollInterval: 10 * time.Millisecond, RetainCount: 3}
}

func TestOpenCreatesBucketAndLatestIsEmpty(t *testing.T) {
	dir := t.TempDir()
	pub := snapshot.NewPublisher()

	a, err := Open(dir, "PLATFORM-7", pub, testOptions())
	require.NoError(t, err)
	defer a.Close()

	_, found, err := a.Latest()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRunArchivesOnVersionAdvance(t *testing.T) {
	dir := t.TempDir()
	pub := snapshot.NewPublisher()

	a, err := Open(dir, "PLATFORM-7", pub, testOptions())
	require.NoError(t, err)
	defer a.Close()

	go a.Run()

	pub.SwapTier(snapshot.TierStrategic, "strategic-v1")

	require.Eventually(t, func() bool {
		_, found, err := a.Latest()
		return err == nil && found
	}, time.Second, 5*time.Millisecond)

	record, found, err := a.Latest()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "strategic-v1", record.Strategic)
	assert.Equal(t, uint64(1), record.Version)
	assert.False(t, record.CapturedAt.IsZero())
}

func TestRunSkipsUnchangedVersion(t *testing.T) {
	dir := t.TempDir()
	pub := snapshot.NewPublisher()

	a, err := Open(dir, "PLATFORM-7", pub, testOptions())
	require.NoError(t, err)
	defer a.Close()

	go a.Run()

	pub.SwapTier(snapshot.TierStrategic, "v1")
	require.Eventually(t, func() bool {
		_, found, _ := a.Latest()
		return found
	}, time.Second, 5*time.Millisecond)

	// No further swaps: the version stays put, so polling must not error
	// or produce a second write that changes the captured value.
	time.Sleep(50 * time.Millisecond)
	record, found, err := a.Latest()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(1), record.Version)
}

func TestPruneRetainsOnlyRetainCountNewestVersions(t *testing.T) {
	dir := t.TempDir()
	pub := snapshot.NewPublisher()

	opts := testOptions()
	a, err := Open(dir, "PLATFORM-7", pub, opts)
	require.NoError(t, err)
	defer a.Close()

	go a.Run()

	for i := 0; i < 6; i++ {
		pub.SwapTier(snapshot.TierStrategic, i)
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		record, found, err := a.Latest()
		return err == nil && found && record.Version == 6
	}, time.Second, 10*time.Millisecond)

	record, found, err := a.Latest()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(5), record.Strategic)

	var keyCount int
	err = a.db.View(func(tx *bolt.Tx) error {
		keyCount = tx.Bucket(bucketName(a.asset)).Stats().KeyN
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, keyCount, opts.RetainCount)
}
