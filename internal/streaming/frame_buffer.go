package streaming

import "sync/atomic"

// RingSlots is the number of frame slots between the render loop and
// the encoder writer. At 30fps eight slots absorb about a quarter
// second of encoder stall before frames start shedding.
const RingSlots = 8

// FrameRing is a single-producer single-consumer frame queue. Writes
// never block: when the consumer lags, TryWrite refuses the new frame
// and the caller counts the drop. That keeps render pacing steady
// while FFmpeg stalls on a slow upload.
type FrameRing struct {
	slots     [RingSlots][]byte
	frameSize int
	readIdx   atomic.Uint32
	writeIdx  atomic.Uint32
}

// NewFrameRing pre-allocates all slots at the given frame size.
func NewFrameRing(frameSize int) *FrameRing {
	r := &FrameRing{frameSize: frameSize}
	for i := range r.slots {
		r.slots[i] = make([]byte, frameSize)
	}
	return r
}

// TryWrite copies frame into the ring; reports false when the ring is
// full or the frame is the wrong size. Producer side only.
func (r *FrameRing) TryWrite(frame []byte) bool {
	if len(frame) != r.frameSize {
		return false
	}
	w := r.writeIdx.Load()
	next := (w + 1) % RingSlots
	if next == r.readIdx.Load() {
		return false
	}
	copy(r.slots[w], frame)
	r.writeIdx.Store(next)
	return true
}

// TryRead copies the oldest frame into dst; reports false when the
// ring is empty. Consumer side only; dst must be frameSize bytes.
func (r *FrameRing) TryRead(dst []byte) bool {
	rd := r.readIdx.Load()
	if rd == r.writeIdx.Load() {
		return false
	}
	copy(dst, r.slots[rd])
	r.readIdx.Store((rd + 1) % RingSlots)
	return true
}

// Len returns the number of frames waiting to be read.
func (r *FrameRing) Len() int {
	rd := r.readIdx.Load()
	w := r.writeIdx.Load()
	if w >= rd {
		return int(w - rd)
	}
	return int(RingSlots - rd + w)
}
