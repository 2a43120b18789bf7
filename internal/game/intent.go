package game

import "sync"

// Intent is one frame's input snapshot from the input collaborator.
// Jump is edge-triggered: true only on the frame the key was pressed,
// never while held.
type Intent struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Jump  bool `json:"jump"`
}

// MoveDir returns -1, 0 or 1 from the held movement keys.
func (in Intent) MoveDir() float64 {
	d := 0.0
	if in.Right {
		d++
	}
	if in.Left {
		d--
	}
	return d
}

// intentBox is the mailbox between input goroutines and the engine
// goroutine. Movement state is latest-wins; a jump press latches until
// the next step consumes it, so a press landing between ticks is not
// lost.
type intentBox struct {
	mu   sync.Mutex
	cur  Intent
	jump bool
}

func (b *intentBox) Submit(in Intent) {
	b.mu.Lock()
	if in.Jump {
		b.jump = true
	}
	in.Jump = false
	b.cur = in
	b.mu.Unlock()
}

// Take returns the current intent with the jump latch folded in and
// cleared.
func (b *intentBox) Take() Intent {
	b.mu.Lock()
	in := b.cur
	in.Jump = b.jump
	b.jump = false
	b.mu.Unlock()
	return in
}
