package streaming

import (
	"sync/atomic"

	"retro-platformer/internal/game"
	"retro-platformer/internal/ipc"
)

// SnapshotSource hands the render loop its world state. An in-process
// engine and a socket subscriber both satisfy it, so the combined
// binary and the standalone streamer share one pipeline. Snapshot may
// return nil while the world is not available yet; the renderer draws
// an empty sky until it is.
type SnapshotSource interface {
	Snapshot() *game.GameSnapshot
}

// LocalEngineSource reads straight from an in-process engine.
type LocalEngineSource struct {
	Engine *game.Engine
}

func (s *LocalEngineSource) Snapshot() *game.GameSnapshot {
	return s.Engine.Snapshot()
}

// IPCSource adapts a socket subscriber. Conversion from the wire form
// is cached by sequence number, so polling faster than the server
// pushes costs nothing between frames.
type IPCSource struct {
	Sub    *ipc.Subscriber
	cached atomic.Pointer[game.GameSnapshot]
}

// NewIPCSource wraps an already-started subscriber.
func NewIPCSource(sub *ipc.Subscriber) *IPCSource {
	return &IPCSource{Sub: sub}
}

func (s *IPCSource) Snapshot() *game.GameSnapshot {
	msg := s.Sub.Latest()
	if msg == nil {
		return nil
	}
	if c := s.cached.Load(); c != nil && c.Sequence == msg.Sequence {
		return c
	}
	snap := msg.ToGameSnapshot()
	s.cached.Store(snap)
	return snap
}
