package streaming

import (
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"retro-platformer/internal/config"
)

// MusicPlayer loops background tracks through the system speaker in
// shuffled order, reshuffling each time the playlist wraps. Decoding
// streams from disk, so a long track never sits fully in memory. A
// missing music directory or an unavailable audio device disables the
// player without failing the stream.
type MusicPlayer struct {
	cfg    config.AudioConfig
	tracks []string

	running  atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMusicPlayer scans the music directory for .wav and .ogg tracks.
func NewMusicPlayer(cfg config.AudioConfig) *MusicPlayer {
	p := &MusicPlayer{cfg: cfg}
	if !cfg.Enabled {
		return p
	}

	entries, err := os.ReadDir(cfg.MusicDir)
	if err != nil {
		log.Printf("🎵 No music directory at %s, music disabled", cfg.MusicDir)
		return p
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".wav", ".ogg":
			p.tracks = append(p.tracks, filepath.Join(cfg.MusicDir, e.Name()))
		}
	}
	if len(p.tracks) == 0 {
		log.Printf("🎵 No .wav or .ogg tracks in %s, music disabled", cfg.MusicDir)
	}
	return p
}

// Enabled reports whether the player has tracks to play.
func (p *MusicPlayer) Enabled() bool {
	return p.cfg.Enabled && len(p.tracks) > 0
}

// Start initializes the speaker and begins the shuffled loop. An
// unavailable audio device logs a warning and leaves the player off.
func (p *MusicPlayer) Start() {
	if !p.Enabled() {
		return
	}
	if !p.running.CompareAndSwap(false, true) {
		return
	}

	sr := beep.SampleRate(p.cfg.SampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		p.running.Store(false)
		log.Printf("⚠️ Audio device unavailable, music disabled: %v", err)
		return
	}

	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.playLoop(sr)
	log.Printf("🎵 Music on, %d tracks from %s", len(p.tracks), p.cfg.MusicDir)
}

// Stop ends playback and waits for the loop to exit.
func (p *MusicPlayer) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
}

func (p *MusicPlayer) playLoop(sr beep.SampleRate) {
	defer p.wg.Done()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		for _, idx := range rng.Perm(len(p.tracks)) {
			if !p.playTrack(p.tracks[idx], sr) {
				return
			}
		}
	}
}

// playTrack plays one file to completion; reports false when the
// player was stopped mid-track. Unreadable files are skipped after a
// short pause so a bad playlist cannot spin the loop hot.
func (p *MusicPlayer) playTrack(path string, sr beep.SampleRate) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("⚠️ Skipping track %s: %v", path, err)
		return p.waitOrStop(time.Second)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	if strings.EqualFold(filepath.Ext(path), ".ogg") {
		streamer, format, err = vorbis.Decode(f)
	} else {
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		log.Printf("⚠️ Skipping undecodable track %s: %v", path, err)
		return p.waitOrStop(time.Second)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != sr {
		s = beep.Resample(4, format.SampleRate, sr, s)
	}
	vol := &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(math.Max(p.cfg.Volume, 0.001)),
		Silent:   p.cfg.Volume <= 0,
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return true
	case <-p.stopChan:
		speaker.Clear()
		return false
	}
}

func (p *MusicPlayer) waitOrStop(d time.Duration) bool {
	select {
	case <-p.stopChan:
		return false
	case <-time.After(d):
		return true
	}
}
