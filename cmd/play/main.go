// =============================================================================
// RETRO PLATFORMER - TERMINAL PLAYER
// =============================================================================
// This standalone process handles ONLY input and a character-cell view:
// - Polls the keyboard via tcell
// - Sends per-frame intent snapshots to the game server over WebSocket
// - Draws the latest received game snapshot as a terminal scene
//
// The simulation runs entirely on the server; this client can disconnect
// and reconnect at any time without touching the game state.
//
// USAGE:
//   1. Start the game server first: go run ./cmd/server
//   2. Then play: go run ./cmd/play
//
// CONTROLS:
//   a / left arrow   run left
//   d / right arrow  run right
//   w / s            face away / toward the camera
//   space            jump
//   q / ESC          quit
// =============================================================================
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"retro-platformer/internal/config"
	"retro-platformer/internal/game"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

const (
	// clientFPS is the intent send and redraw rate.
	clientFPS = 30

	// keyHoldWindow is how long a key counts as held after its last
	// repeat event. Terminals report key-down only, so a key is
	// "released" once its repeats stop arriving.
	keyHoldWindow = 150 * time.Millisecond

	reconnectMin = 250 * time.Millisecond
	reconnectMax = 4 * time.Second
)

// heldKey names one of the hold-tracked inputs.
type heldKey int

const (
	holdLeft heldKey = iota
	holdRight
	holdUp
	holdDown
)

// intentMsg is the wire format the server's /ws endpoint accepts.
type intentMsg struct {
	Type  string `json:"type"`
	Left  bool   `json:"left"`
	Right bool   `json:"right"`
	Up    bool   `json:"up"`
	Down  bool   `json:"down"`
	Jump  bool   `json:"jump"`
}

// wsEnvelope is the server's broadcast wrapper.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type playClient struct {
	screen    tcell.Screen
	serverURL string
	viewW     int

	// Latest snapshot from the server; nil until the first one lands.
	latest atomic.Pointer[game.GameSnapshot]

	connMu    sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool

	running  atomic.Bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Key state, touched only from the run loop goroutine.
	keys        map[heldKey]time.Time
	pendingJump bool
}

func newPlayClient(cfg config.AppConfig, serverURL string) (*playClient, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	return &playClient{
		screen:    screen,
		serverURL: serverURL,
		viewW:     cfg.World.Width,
		stopChan:  make(chan struct{}),
		keys:      make(map[heldKey]time.Time),
	}, nil
}

// startNet launches the reconnecting WebSocket reader. It never logs;
// connection state is surfaced on the HUD instead, since stray log
// lines would corrupt the tcell screen.
func (c *playClient) startNet() {
	c.running.Store(true)
	c.wg.Add(1)
	go c.connectLoop()
}

func (c *playClient) connectLoop() {
	defer c.wg.Done()

	delay := reconnectMin
	for c.running.Load() {
		conn, _, err := websocket.DefaultDialer.Dial(c.serverURL, nil)
		if err != nil {
			select {
			case <-c.stopChan:
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMax)
			continue
		}
		delay = reconnectMin

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()
		c.connected.Store(true)

		c.readLoop(conn)

		c.connected.Store(false)
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		conn.Close()
	}
}

// readLoop decodes snapshot broadcasts until the connection drops.
func (c *playClient) readLoop(conn *websocket.Conn) {
	for c.running.Load() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Event != "snapshot" {
			continue
		}

		var snap game.GameSnapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			continue
		}
		c.latest.Store(&snap)
	}
}

// sendIntent writes one intent frame. A write error closes the
// connection so the connect loop redials.
func (c *playClient) sendIntent(msg intentMsg) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return
	}

	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		conn.Close()
	}
}

func (c *playClient) stopNet() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.stopChan)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
}

// held reports whether a key's repeats are still arriving.
func (c *playClient) held(k heldKey, now time.Time) bool {
	last, ok := c.keys[k]
	return ok && now.Sub(last) < keyHoldWindow
}

// buildIntent converts key state into one intent frame. The jump flag
// fires once per press; the engine jumps on any frame where it is set
// and the player is grounded, so it must not stay latched.
func (c *playClient) buildIntent(now time.Time) intentMsg {
	msg := intentMsg{
		Type:  "intent",
		Left:  c.held(holdLeft, now),
		Right: c.held(holdRight, now),
		Up:    c.held(holdUp, now),
		Down:  c.held(holdDown, now),
		Jump:  c.pendingJump,
	}
	c.pendingJump = false
	return msg
}

// handleInput updates key state. Returns false to quit.
func (c *playClient) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			c.keys[holdLeft] = time.Now()
		case tcell.KeyRight:
			c.keys[holdRight] = time.Now()
		case tcell.KeyUp:
			c.keys[holdUp] = time.Now()
		case tcell.KeyDown:
			c.keys[holdDown] = time.Now()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return false
			case 'a', 'A':
				c.keys[holdLeft] = time.Now()
			case 'd', 'D':
				c.keys[holdRight] = time.Now()
			case 'w', 'W':
				c.keys[holdUp] = time.Now()
			case 's', 'S':
				c.keys[holdDown] = time.Now()
			case ' ':
				c.pendingJump = true
			}
		}

	case *tcell.EventResize:
		c.screen.Sync()
	}

	return true
}

func (c *playClient) run() {
	ticker := time.NewTicker(time.Second / clientFPS)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !c.handleInput(ev) {
				return
			}

		case <-ticker.C:
			c.sendIntent(c.buildIntent(time.Now()))
			c.draw()
		}
	}
}

func (c *playClient) cleanup() {
	c.screen.Fini()
	c.stopNet()
}

var (
	styleGround   = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	stylePlatform = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleEnemy    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePlayer   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleEffect   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleOffline  = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// draw renders the latest snapshot. World coordinates map to cells at
// colScale units per column and rowScale per row; both grow on small
// terminals so the whole camera view and platform band stay visible,
// and rowScale keeps twice colScale to roughly match cell aspect.
func (c *playClient) draw() {
	c.screen.Clear()
	screenW, screenH := c.screen.Size()
	if screenW < 10 || screenH < 8 {
		c.screen.Show()
		return
	}

	snap := c.latest.Load()
	if snap == nil {
		drawText(c.screen, 2, screenH/2, styleHUD, "Connecting to "+c.serverURL+" ...")
		drawText(c.screen, 2, screenH-1, styleHelp, "q quit")
		c.screen.Show()
		return
	}

	colScale := max(2, ceilDiv(c.viewW, screenW))
	availRows := max(screenH-4, 1)
	rowScale := max(4, max(2*colScale, ceilDiv(snap.GroundTop, availRows)))
	groundRow := screenH - 3

	// row/col map world units to cells. Feet and platform tops land on
	// a surface row; bodies occupy the rows above it.
	row := func(wy float64) int {
		return groundRow + int(math.Floor((wy-float64(snap.GroundTop))/float64(rowScale)))
	}
	col := func(wx float64) int {
		return int(math.Floor((wx - snap.CameraX) / float64(colScale)))
	}

	// Platforms first so entities overdraw them.
	for _, p := range snap.Platforms {
		c0 := col(float64(p.Rect.X))
		c1 := col(float64(p.Rect.Right()))
		if c1 < 0 || c0 >= screenW {
			continue
		}
		c0 = max(c0, 0)
		c1 = min(c1, screenW-1)

		if p.Ground {
			for y := groundRow; y < screenH; y++ {
				for x := c0; x <= c1; x++ {
					c.screen.SetContent(x, y, '▒', nil, styleGround)
				}
			}
			continue
		}

		r := row(float64(p.Rect.Y))
		for x := c0; x <= c1; x++ {
			c.screen.SetContent(x, r, '▀', nil, stylePlatform)
		}
	}

	for _, e := range snap.Enemies {
		wCells := max(1, e.W/colScale)
		c0 := col(e.X) - wCells/2
		r := row(e.Y) - 1
		for x := c0; x < c0+wCells; x++ {
			c.screen.SetContent(x, r, 'ω', nil, styleEnemy)
		}
	}

	for _, fx := range snap.Effects {
		var r rune
		switch fx.Kind {
		case game.EffectStomp:
			r = '*'
		case game.EffectDamage:
			r = '!'
		default:
			r = '·'
		}
		c.screen.SetContent(col(fx.X), row(fx.Y)-1, r, nil, styleEffect)
	}

	c.drawPlayer(snap, col, row, colScale, rowScale)
	c.drawHUD(snap, screenW, screenH)

	c.screen.Show()
}

func (c *playClient) drawPlayer(snap *game.GameSnapshot, col, row func(float64) int, colScale, rowScale int) {
	p := &snap.Player

	// Same blink phase as the pixel renderer: hidden on even 80ms
	// slices while invulnerable.
	if p.Invuln > 0 && (time.Now().UnixMilli()/80)%2 == 0 {
		return
	}

	head := '@'
	switch p.Facing {
	case "left":
		head = '<'
	case "right":
		head = '>'
	}

	wCells := max(1, p.W/colScale)
	hCells := max(2, p.H/rowScale)
	c0 := col(p.X) - wCells/2
	feet := row(p.Y) - 1

	for i := 0; i < hCells; i++ {
		y := feet - i
		r := '█'
		if i == hCells-1 {
			r = head
		}
		for x := c0; x < c0+wCells; x++ {
			c.screen.SetContent(x, y, r, nil, stylePlayer)
		}
	}
}

func (c *playClient) drawHUD(snap *game.GameSnapshot, screenW, screenH int) {
	hearts := min(snap.Player.HP, 10)
	status := "HP "
	for i := 0; i < hearts; i++ {
		status += "♥"
	}
	if hearts == 0 {
		status += "-"
	}
	status += fmt.Sprintf("  DIST %d  STOMPS %d", int(snap.Run.Distance), snap.Run.Stomps)
	drawText(c.screen, 1, 0, styleHUD, status)

	if !c.connected.Load() {
		drawText(c.screen, 1, 1, styleOffline, "RECONNECTING...")
	}

	drawText(c.screen, 1, screenH-1, styleHelp, "a/d move  w/s face  space jump  q quit")
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func main() {
	// Load environment before the screen takes over the terminal.
	if err := godotenv.Load("../.env"); err != nil {
		godotenv.Load(".env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	serverURL := os.Getenv("PLAY_SERVER_URL")
	if serverURL == "" {
		serverURL = fmt.Sprintf("ws://localhost:%d/ws", cfg.API.Port)
	}

	client, err := newPlayClient(cfg, serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer client.cleanup()

	client.startNet()
	client.run()
}
