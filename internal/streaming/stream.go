package streaming

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"retro-platformer/internal/config"
)

// StreamManager renders engine snapshots into video frames and feeds
// them to an FFmpeg encoder over stdin. With no output URL configured
// it still renders at full rate, so the whole pipeline stays testable
// on machines without FFmpeg.
//
// Two goroutines run while active: the render loop paces frames on a
// ticker and pushes them into the frame ring; the write loop drains
// the ring into the encoder pipe. The ring keeps an encoder stall from
// skewing render pacing; sustained stalls shed frames instead.
type StreamManager struct {
	cfg    config.StreamConfig
	source SnapshotSource

	renderer *FrameRenderer
	sprites  *SpriteSet
	hud      *HUD
	ring     *FrameRing

	ffmpeg  *exec.Cmd
	videoIn io.WriteCloser

	running   atomic.Bool
	encoderOn atomic.Bool
	stopChan  chan struct{}
	wg        sync.WaitGroup

	frameReady chan struct{}
	startTime  time.Time

	framesRendered atomic.Int64
	framesSent     atomic.Int64
	framesDropped  atomic.Int64
	lateFrames     atomic.Int64
	encoderErrors  atomic.Int64
}

// NewStreamManager builds the full render pipeline for cfg. The
// snapshot source decides where world state comes from; pass a local
// engine source in the combined binary or an IPC source in the
// standalone streamer.
func NewStreamManager(source SnapshotSource, cfg config.StreamConfig) *StreamManager {
	r := NewFrameRenderer(cfg.Width, cfg.Height)
	return &StreamManager{
		cfg:        cfg,
		source:     source,
		renderer:   r,
		sprites:    LoadSprites(cfg),
		hud:        NewHUD(r.Image()),
		ring:       NewFrameRing(cfg.Width * cfg.Height * 4),
		frameReady: make(chan struct{}, 1),
	}
}

// Start launches the encoder when an output URL is configured, then
// the render loop. Safe to call once per manager lifecycle.
func (s *StreamManager) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("stream already running")
	}
	s.stopChan = make(chan struct{})
	s.startTime = time.Now()

	if s.cfg.OutputURL != "" {
		if err := s.startFFmpeg(); err != nil {
			s.running.Store(false)
			return fmt.Errorf("starting ffmpeg: %w", err)
		}
		s.encoderOn.Store(true)
		s.wg.Add(1)
		go s.writeLoop()
		log.Printf("🎥 Streaming %dx%d@%dfps to %s", s.cfg.Width, s.cfg.Height, s.cfg.FPS, s.cfg.OutputURL)
	} else {
		log.Printf("🎥 Render-only mode, %dx%d@%dfps (no output URL)", s.cfg.Width, s.cfg.Height, s.cfg.FPS)
	}

	s.wg.Add(1)
	go s.renderLoop()
	return nil
}

// Stop halts both loops, closes the encoder pipe so FFmpeg finalizes
// the output, and reaps the process.
func (s *StreamManager) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	log.Println("🛑 Stopping stream...")
	s.encoderOn.Store(false)
	close(s.stopChan)
	s.wg.Wait()

	if s.videoIn != nil {
		s.videoIn.Close()
		s.videoIn = nil
	}
	if s.ffmpeg != nil {
		done := make(chan error, 1)
		go func() { done <- s.ffmpeg.Wait() }()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			log.Println("⚠️ FFmpeg did not exit, killing it")
			killEncoderProcess(s.ffmpeg)
			<-done
		}
		s.ffmpeg = nil
	}
	log.Printf("✅ Stream stopped after %s", time.Since(s.startTime).Round(time.Second))
}

// IsStreaming reports whether frames are flowing to an encoder.
func (s *StreamManager) IsStreaming() bool {
	return s.running.Load() && s.encoderOn.Load()
}

// GetStats reports pipeline counters for the debug endpoint.
func (s *StreamManager) GetStats() map[string]interface{} {
	uptime := time.Duration(0)
	actualFPS := 0.0
	rendered := s.framesRendered.Load()
	if s.running.Load() && !s.startTime.IsZero() {
		uptime = time.Since(s.startTime)
		if secs := uptime.Seconds(); secs > 0 {
			actualFPS = float64(rendered) / secs
		}
	}
	return map[string]interface{}{
		"streaming":      s.IsStreaming(),
		"framesRendered": rendered,
		"framesSent":     s.framesSent.Load(),
		"framesDropped":  s.framesDropped.Load(),
		"lateFrames":     s.lateFrames.Load(),
		"encoderErrors":  s.encoderErrors.Load(),
		"uptime":         uptime.String(),
		"actualFps":      actualFPS,
		"resolution":     fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"fps":            s.cfg.FPS,
		"bitrate":        s.cfg.Bitrate,
		"fallbackSprite": s.sprites.UsingFallback(),
	}
}

// startFFmpeg spawns the encoder reading raw RGBA frames on stdin.
func (s *StreamManager) startFFmpeg() error {
	args := []string{
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"-r", strconv.Itoa(s.cfg.FPS),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-b:v", fmt.Sprintf("%dk", s.cfg.Bitrate),
		"-maxrate", fmt.Sprintf("%dk", s.cfg.Bitrate),
		"-bufsize", fmt.Sprintf("%dk", s.cfg.Bitrate*2),
		"-pix_fmt", "yuv420p",
		"-g", strconv.Itoa(s.cfg.FPS * 2),
		"-keyint_min", strconv.Itoa(s.cfg.FPS),
		"-sc_threshold", "0",
		"-profile:v", "main",
	}
	if strings.HasPrefix(s.cfg.OutputURL, "rtmp") {
		args = append(args, "-f", "flv")
	}
	args = append(args, s.cfg.OutputURL)

	cmd := exec.Command(s.cfg.FFmpegPath, args...)
	setEncoderProcessGroup(cmd)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("creating video pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return err
	}
	s.ffmpeg = cmd
	s.videoIn = stdin
	return nil
}

// renderLoop paces frame rendering on a ticker at the configured FPS.
func (s *StreamManager) renderLoop() {
	defer s.wg.Done()
	interval := time.Second / time.Duration(s.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			s.renderFrame(start)
			if time.Since(start) > interval {
				s.lateFrames.Add(1)
			}
		}
	}
}

// renderFrame draws one frame and hands it to the encoder ring. A nil
// snapshot (engine booting, socket not connected yet) renders as an
// empty sky rather than a stale frame.
func (s *StreamManager) renderFrame(now time.Time) {
	snap := s.source.Snapshot()
	if snap == nil {
		s.renderer.Clear(colSkyLow)
	} else {
		s.renderer.RenderScene(snap, s.sprites, now)
		s.hud.Draw(snap)
	}
	s.framesRendered.Add(1)

	if !s.encoderOn.Load() {
		return
	}
	if !s.ring.TryWrite(s.renderer.Image().Pix) {
		s.framesDropped.Add(1)
		return
	}
	select {
	case s.frameReady <- struct{}{}:
	default:
	}
}

// writeLoop drains the ring into FFmpeg stdin. A pipe error ends the
// stream side only; rendering continues so stats and tests still see
// frames.
func (s *StreamManager) writeLoop() {
	defer s.wg.Done()
	buf := make([]byte, s.cfg.Width*s.cfg.Height*4)

	for {
		select {
		case <-s.stopChan:
			return
		case <-s.frameReady:
			for s.ring.TryRead(buf) {
				if _, err := s.videoIn.Write(buf); err != nil {
					s.encoderErrors.Add(1)
					s.encoderOn.Store(false)
					log.Printf("⚠️ Encoder pipe write failed: %v", err)
					return
				}
				s.framesSent.Add(1)
			}
		}
	}
}

// setEncoderProcessGroup prepares cmd so the encoder can be torn down
// with its children. Unix process groups need per-platform syscall
// flags; killing the process directly covers the single-process FFmpeg
// case everywhere, so this stays a logging hook.
func setEncoderProcessGroup(cmd *exec.Cmd) {
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		log.Println("📦 Encoder process group setup (Unix)")
	}
}

// killEncoderProcess force-kills a stuck encoder, taking the process
// tree with it on Windows.
func killEncoderProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	if runtime.GOOS == "windows" {
		killCmd := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := killCmd.Run(); err != nil {
			cmd.Process.Kill()
		}
		return
	}
	cmd.Process.Kill()
}
