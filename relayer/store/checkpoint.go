package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errorsmod "cosmossdk.io/errors"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/eth2near/relayer/types"
)

var (
	// mapping checkpoint name -> Checkpoint
	checkpointBucketName = []byte("checkpoints")
)

const checkpointFileExt = ".json"

type CheckpointKind uint8

const (
	KindHeaders CheckpointKind = iota + 1
	KindUpdate
)

func (k CheckpointKind) String() string {
	switch k {
	case KindHeaders:
		return "headers"
	case KindUpdate:
		return "light_client_update"
	default:
		return "unknown"
	}
}

type CheckpointStatus uint8

const (
	// StatusPending the payload was persisted but its submission was not
	// confirmed by the ledger
	StatusPending CheckpointStatus = iota + 1
	// StatusCommitted the ledger confirmed the transaction carrying it
	StatusCommitted
)

func (s CheckpointStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusCommitted:
		return "COMMITTED"
	default:
		return "UNKNOWN"
	}
}

// Checkpoint is the index record of a persisted submission payload. The
// payload itself lives in a JSON file named after the checkpoint.
type Checkpoint struct {
	Name   string           `json:"name"`
	Kind   CheckpointKind   `json:"kind"`
	Status CheckpointStatus `json:"status"`
	// StartSlot and EndSlot are set for header batches
	StartSlot uint64 `json:"start_slot,omitempty"`
	EndSlot   uint64 `json:"end_slot,omitempty"`
	// Period and AttestedSlot are set for light client updates
	Period       uint64 `json:"period,omitempty"`
	AttestedSlot uint64 `json:"attested_slot,omitempty"`
}

func HeadersCheckpointName(startSlot, endSlot uint64) string {
	return fmt.Sprintf("headers_slots_%d_%d", startSlot, endSlot)
}

func UpdateCheckpointName(period, attestedSlot uint64) string {
	return fmt.Sprintf("light_client_update_period_%d_attested_slot_%d", period, attestedSlot)
}

// CheckpointStore writes submission payloads to durable storage before they
// are sent and keeps an index of which ones the ledger confirmed.
type CheckpointStore struct {
	dir string
	db  kvdb.Backend
}

// NewCheckpointStore returns a new store writing files under dir and
// indexing them in db
func NewCheckpointStore(dir string, db kvdb.Backend) (*CheckpointStore, error) {
	s := &CheckpointStore{dir: dir, db: db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *CheckpointStore) initBuckets() error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(checkpointBucketName)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint bucket: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("failed to initialize checkpoint buckets: %w", err)
	}

	return nil
}

// Dir returns the directory checkpoint files are written to.
func (s *CheckpointStore) Dir() string {
	return s.dir
}

// Path returns the file path of the named checkpoint.
func (s *CheckpointStore) Path(name string) string {
	return filepath.Join(s.dir, name+checkpointFileExt)
}

// PersistHeaders durably writes a header batch covering [startSlot, endSlot].
func (s *CheckpointStore) PersistHeaders(startSlot, endSlot uint64, headers []*types.ExecutionHeader) (*Checkpoint, error) {
	cp := &Checkpoint{
		Name:      HeadersCheckpointName(startSlot, endSlot),
		Kind:      KindHeaders,
		Status:    StatusPending,
		StartSlot: startSlot,
		EndSlot:   endSlot,
	}

	return s.persist(cp, headers)
}

// PersistUpdate durably writes a light client update for period.
func (s *CheckpointStore) PersistUpdate(period, attestedSlot uint64, update *types.LightClientUpdate) (*Checkpoint, error) {
	cp := &Checkpoint{
		Name:         UpdateCheckpointName(period, attestedSlot),
		Kind:         KindUpdate,
		Status:       StatusPending,
		Period:       period,
		AttestedSlot: attestedSlot,
	}

	return s.persist(cp, update)
}

func (s *CheckpointStore) persist(cp *Checkpoint, payload interface{}) (*Checkpoint, error) {
	bz, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrPersistence, "failed to encode checkpoint %s: %v", cp.Name, err)
	}

	if err := writeFileDurable(s.dir, cp.Name+checkpointFileExt, bz); err != nil {
		return nil, errorsmod.Wrapf(types.ErrPersistence, "checkpoint %s: %v", cp.Name, err)
	}

	var stored *Checkpoint
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(checkpointBucketName)
		if bucket == nil {
			return ErrCorruptedRelayerDB
		}

		// identical content was already indexed, keep its status
		existing, err := getCheckpoint(bucket, cp.Name)
		switch {
		case err == nil:
			stored = existing

			return nil
		case err != ErrCheckpointNotFound:
			return err
		}

		stored = cp

		return saveCheckpoint(bucket, cp)
	}); err != nil {
		return nil, errorsmod.Wrapf(types.ErrPersistence, "failed to index checkpoint %s: %v", cp.Name, err)
	}

	return stored, nil
}

// MarkCommitted records that the ledger confirmed the named checkpoint.
func (s *CheckpointStore) MarkCommitted(name string) error {
	if err := kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(checkpointBucketName)
		if bucket == nil {
			return ErrCorruptedRelayerDB
		}

		cp, err := getCheckpoint(bucket, name)
		if err != nil {
			return err
		}
		cp.Status = StatusCommitted

		return saveCheckpoint(bucket, cp)
	}); err != nil {
		return fmt.Errorf("failed to mark checkpoint %s committed: %w", name, err)
	}

	return nil
}

func (s *CheckpointStore) GetCheckpoint(name string) (*Checkpoint, error) {
	var cp *Checkpoint
	if err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(checkpointBucketName)
		if bucket == nil {
			return ErrCorruptedRelayerDB
		}

		var err error
		cp, err = getCheckpoint(bucket, name)

		return err
	}, func() {}); err != nil {
		return nil, fmt.Errorf("failed to get checkpoint %s: %w", name, err)
	}

	return cp, nil
}

// PendingCheckpoints lists the checkpoints whose submission was never
// confirmed, ordered by name. They are the evidence an operator inspects
// after a crash; nothing replays them automatically.
func (s *CheckpointStore) PendingCheckpoints() ([]*Checkpoint, error) {
	var pending []*Checkpoint
	if err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(checkpointBucketName)
		if bucket == nil {
			return ErrCorruptedRelayerDB
		}

		return bucket.ForEach(func(_, v []byte) error {
			var cp Checkpoint
			if err := json.Unmarshal(v, &cp); err != nil {
				return ErrCorruptedRelayerDB
			}
			if cp.Status == StatusPending {
				pending = append(pending, &cp)
			}

			return nil
		})
	}, func() {
		pending = nil
	}); err != nil {
		return nil, fmt.Errorf("failed to list pending checkpoints: %w", err)
	}

	return pending, nil
}

// LoadHeaders reads a header batch checkpoint back from its file.
func (s *CheckpointStore) LoadHeaders(name string) ([]*types.ExecutionHeader, error) {
	var headers []*types.ExecutionHeader
	if err := s.load(name, KindHeaders, &headers); err != nil {
		return nil, err
	}

	return headers, nil
}

// LoadUpdate reads a light client update checkpoint back from its file.
func (s *CheckpointStore) LoadUpdate(name string) (*types.LightClientUpdate, error) {
	var update types.LightClientUpdate
	if err := s.load(name, KindUpdate, &update); err != nil {
		return nil, err
	}

	return &update, nil
}

func (s *CheckpointStore) load(name string, kind CheckpointKind, v interface{}) error {
	cp, err := s.GetCheckpoint(name)
	if err != nil {
		return err
	}
	if cp.Kind != kind {
		return fmt.Errorf("%w: %s is a %s checkpoint", ErrCheckpointKindMismatch, name, cp.Kind)
	}

	bz, err := os.ReadFile(s.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read checkpoint %s: %w", name, err)
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return fmt.Errorf("failed to decode checkpoint %s: %w", name, err)
	}

	return nil
}

func getCheckpoint(bucket walletdb.ReadBucket, name string) (*Checkpoint, error) {
	v := bucket.Get([]byte(name))
	if v == nil {
		return nil, ErrCheckpointNotFound
	}

	var cp Checkpoint
	if err := json.Unmarshal(v, &cp); err != nil {
		return nil, ErrCorruptedRelayerDB
	}

	return &cp, nil
}

func saveCheckpoint(bucket walletdb.ReadWriteBucket, cp *Checkpoint) error {
	bz, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := bucket.Put([]byte(cp.Name), bz); err != nil {
		return fmt.Errorf("failed to store checkpoint: %w", err)
	}

	return nil
}
