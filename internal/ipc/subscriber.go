package ipc

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Subscriber receives engine snapshots from the server socket. It
// dials with exponential backoff, expects a hello on every fresh
// connection, and keeps reconnecting until stopped. Decoded snapshots
// are available two ways: Latest for pull-style consumers and
// Snapshots for a channel-driven frame loop. The channel is
// latest-wins; a consumer that falls behind loses old frames, never
// the current one.
type Subscriber struct {
	socketPath string
	conn       net.Conn
	connMu     sync.Mutex

	latest    atomic.Pointer[SnapshotMessage]
	snapshots chan *SnapshotMessage

	hello   HelloMessage
	helloMu sync.RWMutex
	helloCh chan HelloMessage

	// Stats
	snapshotsReceived atomic.Int64
	reconnects        atomic.Int64
	errors            atomic.Int64

	running  atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	onConnect    func()
	onDisconnect func()
}

// NewSubscriber creates a subscriber for the given socket path. An
// empty path selects the platform default.
func NewSubscriber(socketPath string) *Subscriber {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	return &Subscriber{
		socketPath: socketPath,
		snapshots:  make(chan *SnapshotMessage, 4),
		helloCh:    make(chan HelloMessage, 1),
		stopChan:   make(chan struct{}),
	}
}

// OnConnect sets a callback for when a connection is established
func (s *Subscriber) OnConnect(fn func()) {
	s.onConnect = fn
}

// OnDisconnect sets a callback for when the connection is lost
func (s *Subscriber) OnDisconnect(fn func()) {
	s.onDisconnect = fn
}

// Start begins connecting to the server.
func (s *Subscriber) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil // Already running
	}

	s.wg.Add(1)
	go s.connectionLoop()

	log.Printf("📡 IPC subscriber started, connecting to %s", GetPlatformAddress(s.socketPath))
	return nil
}

// Stop disconnects and stops reconnecting.
func (s *Subscriber) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return // Not running
	}

	close(s.stopChan)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	log.Println("📡 IPC subscriber stopped")
}

// Latest returns the most recent snapshot, or nil before the first one.
func (s *Subscriber) Latest() *SnapshotMessage {
	return s.latest.Load()
}

// Snapshots returns the channel of decoded snapshots.
func (s *Subscriber) Snapshots() <-chan *SnapshotMessage {
	return s.snapshots
}

// Hello returns the handshake received from the server.
func (s *Subscriber) Hello() HelloMessage {
	s.helloMu.RLock()
	defer s.helloMu.RUnlock()
	return s.hello
}

// WaitForHello blocks until a handshake arrives or the timeout passes.
func (s *Subscriber) WaitForHello(timeout time.Duration) *HelloMessage {
	select {
	case hello := <-s.helloCh:
		return &hello
	case <-time.After(timeout):
		return nil
	case <-s.stopChan:
		return nil
	}
}

// GetStats returns snapshots received, reconnects and errors.
func (s *Subscriber) GetStats() (received int64, reconnects int64, errors int64) {
	return s.snapshotsReceived.Load(),
		s.reconnects.Load(),
		s.errors.Load()
}

// IsConnected reports whether a connection is currently up.
func (s *Subscriber) IsConnected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn != nil
}

// connectionLoop maintains the connection, backing off between
// attempts and resetting the backoff after each successful dial.
func (s *Subscriber) connectionLoop() {
	defer s.wg.Done()

	delay := ReconnectDelayMin
	for s.running.Load() {
		conn, err := ConnectPlatform(s.socketPath)
		if err != nil {
			select {
			case <-s.stopChan:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > ReconnectDelayMax {
				delay = ReconnectDelayMax
			}
			continue
		}

		delay = ReconnectDelayMin
		log.Printf("✅ Connected to server at %s", GetPlatformAddress(s.socketPath))

		s.connMu.Lock()
		s.conn = conn
		s.connMu.Unlock()

		if s.onConnect != nil {
			s.onConnect()
		}

		s.readLoop(conn)

		s.connMu.Lock()
		s.conn = nil
		s.connMu.Unlock()
		conn.Close()

		if s.onDisconnect != nil {
			s.onDisconnect()
		}

		s.reconnects.Add(1)

		select {
		case <-s.stopChan:
			return
		case <-time.After(delay):
			// Reconnect and re-handshake
		}
	}
}

// readLoop reads messages until the connection drops
func (s *Subscriber) readLoop(conn net.Conn) {
	for s.running.Load() {
		conn.SetReadDeadline(time.Now().Add(ReadTimeout))

		msgType, data, err := ReadMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Println("🔌 Server closed connection")
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Idle between frames, keep waiting
				continue
			}
			log.Printf("⚠️ IPC read error: %v", err)
			s.errors.Add(1)
			return
		}

		switch msgType {
		case MsgTypeHello:
			if !s.handleHello(data) {
				return
			}

		case MsgTypeSnapshot:
			s.handleSnapshot(data)

		case MsgTypeBye:
			log.Println("👋 Server said goodbye")
			return
		}
	}
}

// handleHello processes the handshake. A version the subscriber does
// not speak ends the connection; reconnecting will not help, but the
// backoff keeps the retry cost negligible.
func (s *Subscriber) handleHello(data []byte) bool {
	hello, err := DecodeHello(data)
	if err != nil {
		log.Printf("⚠️ Failed to decode hello: %v", err)
		s.errors.Add(1)
		return false
	}

	if hello.Version != ProtocolVersion {
		log.Printf("⚠️ Server speaks protocol v%d, this client speaks v%d", hello.Version, ProtocolVersion)
		s.errors.Add(1)
		return false
	}

	s.helloMu.Lock()
	s.hello = *hello
	s.helloMu.Unlock()

	log.Printf("📺 Handshake: %s, %dx%d world, %d tick/s, %d push/s",
		hello.AppName, hello.Width, hello.Height, hello.TickRate, hello.PublishFPS)

	select {
	case s.helloCh <- *hello:
	default:
	}

	return true
}

// handleSnapshot decodes and stores a snapshot
func (s *Subscriber) handleSnapshot(data []byte) {
	snapshot, err := DecodeSnapshot(data)
	if err != nil {
		log.Printf("⚠️ Failed to decode snapshot: %v", err)
		s.errors.Add(1)
		return
	}

	s.latest.Store(snapshot)
	s.snapshotsReceived.Add(1)

	// Latest-wins delivery: drop the oldest buffered frame rather
	// than block the read loop
	select {
	case s.snapshots <- snapshot:
	default:
		select {
		case <-s.snapshots:
		default:
		}
		select {
		case s.snapshots <- snapshot:
		default:
		}
	}
}
