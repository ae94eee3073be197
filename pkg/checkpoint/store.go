package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/shipwright/pkg/clustererr"
	"github.com/cuemby/shipwright/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var bucketMachines = []byte("machines")

// Record is one machine's last-known lifecycle position.
type Record struct {
	State     types.MachineState `json:"state"`
	Attempts  int                `json:"attempts"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store is the bbolt-backed checkpoint file at "<R>.mch/state.db".
type Store struct {
	db *bolt.DB
}

// Open creates or opens the checkpoint database under dir for descriptor
// root root (spec §6: "<R>.mch/" is owned by the core, no external writer).
func Open(dir, root string) (*Store, error) {
	path := filepath.Join(dir, "."+root+".mch", "state.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, clustererr.WrapConfig(err, "create checkpoint dir %s", filepath.Dir(path))
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, clustererr.WrapConfig(err, "open checkpoint db %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMachines)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, clustererr.WrapConfig(err, "init checkpoint buckets")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the last checkpointed record for machine, ok=false if none
// exists (the machine has never been touched this run or before).
func (s *Store) Get(machine string) (Record, bool, error) {
	var rec Record
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMachines).Get([]byte(machine))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return Record{}, false, clustererr.Internal("read checkpoint for %s: %v", machine, err)
	}
	return rec, found, nil
}

// Set records machine's current state and attempt count, overwriting any
// prior record.
func (s *Store) Set(machine string, state types.MachineState, attempts int) error {
	rec := Record{State: state, Attempts: attempts, UpdatedAt: time.Now()}
	data, err := json.Marshal(rec)
	if err != nil {
		return clustererr.Internal("marshal checkpoint for %s: %v", machine, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMachines).Put([]byte(machine), data)
	})
	if err != nil {
		return clustererr.Internal("write checkpoint for %s: %v", machine, err)
	}
	return nil
}

// All returns every checkpointed machine's record, for resume-on-restart
// reporting.
func (s *Store) All() (map[string]Record, error) {
	out := map[string]Record{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMachines).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out[string(k)] = rec
			return nil
		})
	})
	if err != nil {
		return nil, clustererr.Internal("scan checkpoints: %v", err)
	}
	return out, nil
}
