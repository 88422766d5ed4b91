package store

import "errors"

var (
	// ErrCorruptedRelayerDB For some reason, db on disk representation have changed
	ErrCorruptedRelayerDB = errors.New("relayer db is corrupted")

	// ErrCheckpointNotFound The checkpoint we try to load or update is not in the index
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrCheckpointKindMismatch The checkpoint exists but holds another payload type
	ErrCheckpointKindMismatch = errors.New("checkpoint holds a different payload type")
)
