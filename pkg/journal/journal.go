// Package journal persists an audit record of past cutover runs in a local
// BoltDB file. The journal is history only: baseline snapshots are never
// read back to influence a later run.
package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/cutover/pkg/types"
)

var bucketRuns = []byte("runs")

// Journal is a BoltDB-backed record of cutover runs
type Journal struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the journal database under dataDir
func Open(dataDir string) (*Journal, error) {
	dbPath := filepath.Join(dataDir, "cutover.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRuns, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends a run result. Keys sort chronologically so List returns
// runs in execution order.
func (j *Journal) Record(result types.Result) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal run %s: %w", result.RunID, err)
		}
		key := fmt.Sprintf("%s/%s", result.StartedAt.UTC().Format(time.RFC3339Nano), result.RunID)
		return b.Put([]byte(key), data)
	})
}

// List returns all recorded runs in chronological order
func (j *Journal) List() ([]types.Result, error) {
	var results []types.Result
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var result types.Result
			if err := json.Unmarshal(v, &result); err != nil {
				return fmt.Errorf("failed to unmarshal run %s: %w", k, err)
			}
			results = append(results, result)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
