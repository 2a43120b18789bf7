package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType classifies game events for the log and the API.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeJump
	EventTypeStomp
	EventTypeDamage
	EventTypePlayerReset
	EventTypePlatformSpawn
	EventTypeEnemySpawn
	EventTypeDespawn
	EventTypeRunRecord

	eventTypeCount // sentinel for per-type limiter tables, keep last
)

// EventVersion for backwards compatibility in log readers.
const EventVersion uint8 = 1

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case EventTypeJump:
		return "jump"
	case EventTypeStomp:
		return "stomp"
	case EventTypeDamage:
		return "damage"
	case EventTypePlayerReset:
		return "player_reset"
	case EventTypePlatformSpawn:
		return "platform_spawn"
	case EventTypeEnemySpawn:
		return "enemy_spawn"
	case EventTypeDespawn:
		return "despawn"
	case EventTypeRunRecord:
		return "run_record"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the type as its wire name so NDJSON lines and API
// responses read without a lookup table.
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the wire name.
func (t *EventType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for c := EventTypeUnknown; c < eventTypeCount; c++ {
		if c.String() == name {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", name)
}

// Event is one game occurrence as stored in the ring and the NDJSON
// log. Payload holds the type-specific JSON object.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Assigned on admission
	Tick      uint64          `json:"tick"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Typed payloads.

// JumpPayload records a jump impulse.
type JumpPayload struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VY float64 `json:"vy"`
}

// StompPayload records an enemy killed from above.
type StompPayload struct {
	EnemyX float64 `json:"enemyX"`
	EnemyY float64 `json:"enemyY"`
}

// DamagePayload records a hit on the player. HP is the value after the
// hit.
type DamagePayload struct {
	EnemyX float64 `json:"enemyX"`
	EnemyY float64 `json:"enemyY"`
	HP     int     `json:"hp"`
}

// PlayerResetPayload records the player returning to the start
// position. Reason is "death" or "admin".
type PlayerResetPayload struct {
	Reason string  `json:"reason"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	HP     int     `json:"hp"`
}

// PlatformSpawnPayload records a generated platform.
type PlatformSpawnPayload struct {
	ID PlatformID `json:"id"`
	X  int        `json:"x"`
	Y  int        `json:"y"`
	W  int        `json:"w"`
	H  int        `json:"h"`
}

// EnemySpawnPayload records an enemy attached to a platform.
type EnemySpawnPayload struct {
	Platform PlatformID `json:"platform"`
	X        float64    `json:"x"`
	Dir      int        `json:"dir"`
}

// DespawnPayload summarizes one despawn pass.
type DespawnPayload struct {
	Platforms int     `json:"platforms"`
	Enemies   int     `json:"enemies"`
	Cutoff    float64 `json:"cutoff"`
}

// RunRecordPayload records a finished run. Rank is the position in the
// best-runs list, or 0 when the run did not place.
type RunRecordPayload struct {
	Run  RunRecord `json:"run"`
	Rank int       `json:"rank"`
}

// EncodePayload marshals a payload to raw JSON. Payload types are
// plain structs, so a marshal failure is a programming error; it
// degrades to an empty payload rather than panicking mid-step.
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates an event stamped with the current wall time. The
// sequence number is assigned when the log admits it.
func NewEvent(eventType EventType, tick uint64, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		Payload:   EncodePayload(payload),
	}
}
