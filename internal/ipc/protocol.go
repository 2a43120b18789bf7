// Package ipc carries engine snapshots from the server to external
// renderer processes over a local socket, using framed gob messages.
package ipc

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	// DefaultSocketPath is the Unix socket path for IPC
	DefaultSocketPath = "/tmp/retro-platformer.sock"

	// ProtocolMagic marks the start of every frame; a reader that sees
	// anything else is talking to the wrong socket.
	ProtocolMagic uint16 = 0x5250 // "RP"

	// ProtocolVersion is bumped whenever the message schema changes
	ProtocolVersion uint16 = 1

	// Message types
	MsgTypeHello    byte = 0x01
	MsgTypeSnapshot byte = 0x02
	MsgTypeBye      byte = 0x03

	// Connection settings
	MaxMessageSize = 1024 * 1024 // 1MB max message
	WriteTimeout   = 50 * time.Millisecond
	ReadTimeout    = 100 * time.Millisecond

	// Reconnect backoff bounds for subscribers
	ReconnectDelayMin = 250 * time.Millisecond
	ReconnectDelayMax = 4 * time.Second
)

// HelloMessage opens every connection. The publisher sends it before
// the first snapshot so the subscriber can verify compatibility and
// size its buffers.
type HelloMessage struct {
	Version    uint16
	AppName    string
	TickRate   int
	PublishFPS int
	Width      int
	Height     int
}

// SnapshotMessage is the wire form of one engine snapshot. Fields are
// flattened relative to the in-process snapshot so the schema stays
// stable even when internal types move.
type SnapshotMessage struct {
	Sequence  uint64
	Timestamp int64 // Unix nano
	Tick      uint64

	CameraX   float64
	GroundTop int

	Player    PlayerData
	Platforms []PlatformData
	Enemies   []EnemyData
	Effects   []EffectData

	// Current run stats
	RunDistance    float64
	RunStomps      int
	RunDamageTaken int
	RunTicks       uint64

	// World totals before snapshot caps
	PlatformCount int
	EnemyCount    int
}

// PlayerData is the IPC representation of the player
type PlayerData struct {
	X, Y     float64
	VX, VY   float64
	W, H     int
	HP       int
	Facing   string
	Invuln   float64
	OnGround bool
}

// PlatformData is the IPC representation of a platform
type PlatformData struct {
	ID         uint64
	X, Y, W, H int
	Ground     bool
}

// EnemyData is the IPC representation of an enemy
type EnemyData struct {
	X, Y     float64
	VX       float64
	W, H     int
	Platform uint64
}

// EffectData is the IPC representation of a transient visual effect
type EffectData struct {
	Kind string
	X, Y float64
	Age  float64
	TTL  float64
}

// Header is the message header for framing
type Header struct {
	Magic    uint16
	Version  uint16
	Type     byte
	Reserved byte
	Length   uint32
}

const HeaderSize = 10 // 2 + 2 + 1 + 1 + 4

// WriteMessage writes a framed message to the connection. A nil data
// produces a header-only frame, used for bye.
func WriteMessage(w io.Writer, msgType byte, data interface{}) error {
	var buf []byte
	if data != nil {
		var gobBuf = getBuffer()
		defer putBuffer(gobBuf)

		enc := gob.NewEncoder(gobBuf)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("gob encode: %w", err)
		}
		buf = gobBuf.Bytes()
	}

	if len(buf) > MaxMessageSize {
		return fmt.Errorf("message too large: %d > %d", len(buf), MaxMessageSize)
	}

	headerBuf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(headerBuf[0:2], ProtocolMagic)
	binary.LittleEndian.PutUint16(headerBuf[2:4], ProtocolVersion)
	headerBuf[4] = msgType
	headerBuf[5] = 0
	binary.LittleEndian.PutUint32(headerBuf[6:10], uint32(len(buf)))

	if _, err := w.Write(headerBuf); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(buf) > 0 {
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write body: %w", err)
		}
	}

	return nil
}

// ReadMessage reads a framed message from the connection. It refuses
// frames with the wrong magic or version before touching the body.
func ReadMessage(r io.Reader) (byte, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}

	header := Header{
		Magic:   binary.LittleEndian.Uint16(headerBuf[0:2]),
		Version: binary.LittleEndian.Uint16(headerBuf[2:4]),
		Type:    headerBuf[4],
		Length:  binary.LittleEndian.Uint32(headerBuf[6:10]),
	}

	if header.Magic != ProtocolMagic {
		return 0, nil, fmt.Errorf("bad magic: got %#04x, want %#04x", header.Magic, ProtocolMagic)
	}

	if header.Version != ProtocolVersion {
		return 0, nil, fmt.Errorf("version mismatch: got %d, want %d", header.Version, ProtocolVersion)
	}

	if header.Length > MaxMessageSize {
		return 0, nil, fmt.Errorf("message too large: %d > %d", header.Length, MaxMessageSize)
	}

	var body []byte
	if header.Length > 0 {
		body = make([]byte, header.Length)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, nil, fmt.Errorf("read body: %w", err)
		}
	}

	return header.Type, body, nil
}

// DecodeSnapshot decodes a snapshot from gob bytes
func DecodeSnapshot(data []byte) (*SnapshotMessage, error) {
	var buf = getBytesBuffer(data)
	defer putBytesBuffer(buf)

	dec := gob.NewDecoder(buf)
	var msg SnapshotMessage
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("gob decode snapshot: %w", err)
	}
	return &msg, nil
}

// DecodeHello decodes a hello from gob bytes
func DecodeHello(data []byte) (*HelloMessage, error) {
	var buf = getBytesBuffer(data)
	defer putBytesBuffer(buf)

	dec := gob.NewDecoder(buf)
	var msg HelloMessage
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("gob decode hello: %w", err)
	}
	return &msg, nil
}

// CleanupSocket removes the socket file if it exists
func CleanupSocket(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	}
	return nil
}

// Buffer pool for encoding
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(gobBuffer)
	},
}

type gobBuffer struct {
	buf []byte
}

func (b *gobBuffer) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *gobBuffer) Bytes() []byte {
	return b.buf
}

func (b *gobBuffer) Reset() {
	b.buf = b.buf[:0]
}

func getBuffer() *gobBuffer {
	buf := bufferPool.Get().(*gobBuffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *gobBuffer) {
	bufferPool.Put(buf)
}

// Bytes buffer pool for decoding
var bytesBufferPool = sync.Pool{
	New: func() interface{} {
		return &bytesReader{}
	},
}

type bytesReader struct {
	data []byte
	pos  int
}

func (b *bytesReader) Read(p []byte) (n int, err error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n = copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *bytesReader) Reset(data []byte) {
	b.data = data
	b.pos = 0
}

func getBytesBuffer(data []byte) *bytesReader {
	buf := bytesBufferPool.Get().(*bytesReader)
	buf.Reset(data)
	return buf
}

func putBytesBuffer(buf *bytesReader) {
	bytesBufferPool.Put(buf)
}
