// Package progress defines the events emitted when supplication progress changes.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the kind of mutation represented by an Event.
type Stage string

// Supported progress stages.
const (
	StagePartitionLoaded Stage = "PARTITION_LOADED"
	StageCompleted       Stage = "SUPPLICATION_COMPLETED"
	StageReset           Stage = "COMPLETIONS_RESET"
	StageCustomAdded     Stage = "CUSTOM_ADDED"
	StageCustomRemoved   Stage = "CUSTOM_REMOVED"
	StagePersistError    Stage = "PERSIST_ERROR"
)

// Event captures one change to a language partition.
type Event struct {
	// ID uniquely identifies the event using the 16-byte UUID form.
	ID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which mutation occurred.
	Stage Stage
	// Lang is the partition the mutation applied to.
	Lang string
	// SupplicationID is set for completion and custom add/remove events.
	SupplicationID string
	// Scope is the reset scope (morning, evening, all).
	Scope string
	// Count carries the number of completed ids in the partition after the event.
	Count int
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// NewEvent stamps a fresh ID on an event for the given stage and language.
func NewEvent(ts time.Time, stage Stage, lang string) Event {
	return Event{ID: UUIDToBytes(uuid.New()), TS: ts, Stage: stage, Lang: lang}
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Lang == "" {
		return errors.New("language is required")
	}
	switch e.Stage {
	case StagePartitionLoaded, StagePersistError:
	case StageCompleted, StageCustomAdded, StageCustomRemoved:
		if e.SupplicationID == "" {
			return fmt.Errorf("%s requires supplication id", e.Stage)
		}
	case StageReset:
		if e.Scope == "" {
			return errors.New("reset requires scope")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Count < 0 {
		return errors.New("count must be >= 0")
	}
	return nil
}

// EventUUID converts the binary event ID to uuid.UUID.
func (e Event) EventUUID() uuid.UUID {
	return uuid.UUID(e.ID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
