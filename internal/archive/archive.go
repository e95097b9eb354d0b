// Package archive persists periodic snapshots of the published solution
// composite to disk, the one durable record the scheduler keeps on disk.
// It polls
// internal/snapshot.Publisher the way the teacher's pkg/reconciler polls
// cluster state on a ticker, and stores composites the way the teacher's
// pkg/storage.BoltStore stores cluster objects: one bbolt bucket per
// asset, JSON-encoded values, monotonically increasing keys.
package archive

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/oceanridge/ordinator/internal/snapshot"
	"github.com/oceanridge/ordinator/pkg/log"
	"github.com/oceanridge/ordinator/pkg/metrics"
)

// Record is one archived composite, tagged with the wall-clock time it
// was captured.
type Record struct {
	CapturedAt time.Time          `json:"captured_at"`
	Version    uint64             `json:"version"`
	Strategic  interface{}        `json:"strategic"`
	Tactical   interface{}        `json:"tactical"`
	Supervisor interface{}        `json:"supervisor"`
	Operational map[string]interface{} `json:"operational"`
}

// Archiver polls one asset's Publisher and writes a Record to bbolt every
// time the published Version advances, retaining the most recent
// RetainCount records.
type Archiver struct {
	asset       string
	publisher   *snapshot.Publisher
	db          *bolt.DB
	interval    time.Duration
	retainCount int
	stopCh      chan struct{}
}

// Options configures an Archiver.
type Options struct {
	PollInterval time.Duration
	RetainCount  int
}

// DefaultOptions returns the teacher corpus's customary reconcile cadence
// (pkg/reconciler polls every 30s) and a retention depth deep enough for
// post-mortem debugging without unbounded growth.
func DefaultOptions() Options {
	return Options{PollInterval: 30 * time.Second, RetainCount: 500}
}

// Open opens (creating if needed) the bbolt database under dataDir and
// returns an Archiver watching publisher for asset.
func Open(dataDir, asset string, publisher *snapshot.Publisher, opts Options) (*Archiver, error) {
	dbPath := filepath.Join(dataDir, "ordinator-archive.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", dbPath, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName(asset))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create bucket for %s: %w", asset, err)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if opts.RetainCount <= 0 {
		opts.RetainCount = DefaultOptions().RetainCount
	}

	return &Archiver{
		asset:       asset,
		publisher:   publisher,
		db:          db,
		interval:    opts.PollInterval,
		retainCount: opts.RetainCount,
		stopCh:      make(chan struct{}),
	}, nil
}

// Run polls the publisher until Close is called, archiving
// every version advance.
func (a *Archiver) Run() {
	logger := log.WithAsset(a.asset)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	var lastVersion uint64
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			composite := a.publisher.Load()
			if composite.Version == lastVersion {
				continue
			}
			lastVersion = composite.Version
			if err := a.write(composite); err != nil {
				logger.Error().Err(err).Msg("archive write failed")
				continue
			}
			metrics.ArchiveWritesTotal.WithLabelValues(a.asset).Inc()
		}
	}
}

// Close stops the poll loop and releases the database handle.
func (a *Archiver) Close() error {
	close(a.stopCh)
	return a.db.Close()
}

func (a *Archiver) write(composite *snapshot.Composite) error {
	record := Record{
		CapturedAt:  time.Now(),
		Version:     composite.Version,
		Strategic:   composite.Strategic,
		Tactical:    composite.Tactical,
		Supervisor:  composite.Supervisor,
		Operational: composite.Operational,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	return a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(a.asset))
		key := versionKey(record.Version)
		if err := b.Put(key, data); err != nil {
			return err
		}
		return a.prune(b)
	})
}

// prune drops the oldest records once the bucket exceeds retainCount,
// relying on versionKey's big-endian encoding to keep bbolt's cursor
// order equal to capture order.
func (a *Archiver) prune(b *bolt.Bucket) error {
	count := b.Stats().KeyN
	excess := count - a.retainCount
	if excess <= 0 {
		return nil
	}
	c := b.Cursor()
	k, _ := c.First()
	for i := 0; i < excess && k != nil; i++ {
		if err := b.Delete(k); err != nil {
			return err
		}
		k, _ = c.Next()
	}
	return nil
}

// Latest returns the most recently archived record for the asset, or
// false if none has been written yet.
func (a *Archiver) Latest() (Record, bool, error) {
	var record Record
	found := false
	err := a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName(a.asset))
		c := b.Cursor()
		k, v := c.Last()
		if k == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &record)
	})
	return record, found, err
}

func bucketName(asset string) []byte {
	return []byte("asset:" + asset)
}

func versionKey(version uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, version)
	return key
}
