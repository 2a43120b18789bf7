package ipc

import (
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"retro-platformer/internal/config"
	"retro-platformer/internal/game"
)

// Publisher serves engine snapshots to connected renderer processes.
// The engine hands it snapshots with Publish, which is a single atomic
// store and never blocks. Each subscriber gets its own pump goroutine
// paced at PublishFPS, so one stalled consumer cannot slow another or
// the engine; a consumer whose socket backs up past WriteTimeout is
// dropped.
type Publisher struct {
	socketPath string
	publishFPS int
	listener   net.Listener

	// Latest published snapshot, read by every pump
	latest atomic.Pointer[game.GameSnapshot]

	// Handshake sent to each new subscriber
	hello   HelloMessage
	helloMu sync.RWMutex

	subs   map[net.Conn]struct{}
	subsMu sync.Mutex

	// Stats
	subscriberCount atomic.Int32
	snapshotsSent   atomic.Int64
	droppedFrames   atomic.Int64

	running  atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPublisher creates a publisher for the given IPC configuration.
func NewPublisher(cfg config.IPCConfig) *Publisher {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	publishFPS := cfg.PublishFPS
	if publishFPS <= 0 {
		publishFPS = 30
	}

	return &Publisher{
		socketPath: socketPath,
		publishFPS: publishFPS,
		subs:       make(map[net.Conn]struct{}),
		stopChan:   make(chan struct{}),
		hello: HelloMessage{
			Version:    ProtocolVersion,
			PublishFPS: publishFPS,
		},
	}
}

// SetHello fills the handshake details sent to new subscribers. The
// version and publish rate are always the publisher's own.
func (p *Publisher) SetHello(appName string, tickRate, width, height int) {
	p.helloMu.Lock()
	p.hello.AppName = appName
	p.hello.TickRate = tickRate
	p.hello.Width = width
	p.hello.Height = height
	p.helloMu.Unlock()
}

// Start opens the socket and begins accepting subscribers.
func (p *Publisher) Start() error {
	if !p.running.CompareAndSwap(false, true) {
		return nil // Already running
	}

	listener, err := CreatePlatformListener(p.socketPath)
	if err != nil {
		p.running.Store(false)
		return err
	}
	p.listener = listener

	p.wg.Add(1)
	go p.acceptLoop()

	log.Printf("📡 IPC publisher started on %s", GetPlatformAddress(p.socketPath))
	return nil
}

// Stop closes the listener and all subscriber connections.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return // Not running
	}

	close(p.stopChan)

	if p.listener != nil {
		p.listener.Close()
	}

	p.wg.Wait()

	CleanupSocket(p.socketPath)
	log.Println("📡 IPC publisher stopped")
}

// Publish makes a snapshot available to all subscriber pumps. The
// snapshot must not be mutated afterwards.
func (p *Publisher) Publish(snapshot *game.GameSnapshot) {
	if !p.running.Load() {
		return
	}
	p.latest.Store(snapshot)
}

// GetStats returns subscriber count, snapshots sent and frames dropped.
func (p *Publisher) GetStats() (subscribers int, sent int64, dropped int64) {
	return int(p.subscriberCount.Load()),
		p.snapshotsSent.Load(),
		p.droppedFrames.Load()
}

// acceptLoop accepts new subscriber connections
func (p *Publisher) acceptLoop() {
	defer p.wg.Done()

	for p.running.Load() {
		conn, err := p.listener.Accept()
		if err != nil {
			if !p.running.Load() {
				return // Expected during shutdown
			}
			log.Printf("⚠️ IPC accept error: %v", err)
			continue
		}

		p.subsMu.Lock()
		p.subs[conn] = struct{}{}
		p.subsMu.Unlock()

		count := p.subscriberCount.Add(1)
		log.Printf("✅ Renderer connected: %s (total: %d)", conn.RemoteAddr(), count)

		p.wg.Add(1)
		go p.pump(conn)
	}
}

// removeSubscriber drops a connection from the set. Idempotent.
func (p *Publisher) removeSubscriber(conn net.Conn) {
	p.subsMu.Lock()
	_, ok := p.subs[conn]
	if ok {
		delete(p.subs, conn)
	}
	p.subsMu.Unlock()

	if ok {
		conn.Close()
		count := p.subscriberCount.Add(-1)
		log.Printf("🔌 Renderer disconnected (remaining: %d)", count)
	}
}

// pump feeds one subscriber: hello first, then the latest snapshot at
// the publish rate, skipping ticks where nothing new was published.
func (p *Publisher) pump(conn net.Conn) {
	defer p.wg.Done()
	defer p.removeSubscriber(conn)

	p.helloMu.RLock()
	hello := p.hello
	p.helloMu.RUnlock()

	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := WriteMessage(conn, MsgTypeHello, hello); err != nil {
		log.Printf("⚠️ IPC hello failed: %v", err)
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(p.publishFPS))
	defer ticker.Stop()

	var lastSent uint64
	for {
		select {
		case <-p.stopChan:
			// Best-effort goodbye so the subscriber can tell a clean
			// shutdown from a crash
			conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			WriteMessage(conn, MsgTypeBye, nil)
			return

		case <-ticker.C:
			snapshot := p.latest.Load()
			if snapshot == nil || snapshot.Sequence == lastSent {
				continue
			}

			msg := snapshotToMessage(snapshot)
			conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := WriteMessage(conn, MsgTypeSnapshot, msg); err != nil {
				p.droppedFrames.Add(1)
				return
			}

			lastSent = snapshot.Sequence
			p.snapshotsSent.Add(1)
		}
	}
}

// snapshotToMessage converts an engine snapshot to its wire form
func snapshotToMessage(s *game.GameSnapshot) *SnapshotMessage {
	msg := &SnapshotMessage{
		Sequence:  s.Sequence,
		Timestamp: s.Timestamp.UnixNano(),
		Tick:      s.Tick,
		CameraX:   s.CameraX,
		GroundTop: s.GroundTop,
		Player: PlayerData{
			X:        s.Player.X,
			Y:        s.Player.Y,
			VX:       s.Player.VX,
			VY:       s.Player.VY,
			W:        s.Player.W,
			H:        s.Player.H,
			HP:       s.Player.HP,
			Facing:   s.Player.Facing,
			Invuln:   s.Player.Invuln,
			OnGround: s.Player.OnGround,
		},
		RunDistance:    s.Run.Distance,
		RunStomps:      s.Run.Stomps,
		RunDamageTaken: s.Run.DamageTaken,
		RunTicks:       s.Run.Ticks,
		PlatformCount:  s.PlatformCount,
		EnemyCount:     s.EnemyCount,
	}

	msg.Platforms = make([]PlatformData, len(s.Platforms))
	for i, pl := range s.Platforms {
		msg.Platforms[i] = PlatformData{
			ID:     uint64(pl.ID),
			X:      pl.Rect.X,
			Y:      pl.Rect.Y,
			W:      pl.Rect.W,
			H:      pl.Rect.H,
			Ground: pl.Ground,
		}
	}

	msg.Enemies = make([]EnemyData, len(s.Enemies))
	for i, e := range s.Enemies {
		msg.Enemies[i] = EnemyData{
			X:        e.X,
			Y:        e.Y,
			VX:       e.VX,
			W:        e.W,
			H:        e.H,
			Platform: uint64(e.Platform),
		}
	}

	msg.Effects = make([]EffectData, len(s.Effects))
	for i, ef := range s.Effects {
		msg.Effects[i] = EffectData{
			Kind: ef.Kind,
			X:    ef.X,
			Y:    ef.Y,
			Age:  ef.Age,
			TTL:  ef.TTL,
		}
	}

	return msg
}
