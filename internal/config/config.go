// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all world, physics and server
// tunables.
//
// IMPORTANT: When changing values, only modify this file (or provide a
// preset file / environment overrides). All other parts of the codebase
// should reference these values.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig holds the static world geometry shared by the engine and
// every renderer: view size, tile metrics and the player's footprint.
type WorldConfig struct {
	Width        int // View width in world units (1 unit = 1 pixel at scale 1)
	Height       int // View height in world units
	Tile         int // Base tile size; platform widths are multiples of this
	GroundRows   int // Ground strip thickness in tiles
	WorldRight   int // Initial right edge of the ground strip
	PlayerStartX int // Player spawn x (feet center); spawn y is the ground top
	PlayerW      int // Player hitbox width (slimmer than the sprite)
	PlayerH      int // Player hitbox height
}

// GroundTop returns the y of the ground strip's top edge.
func (w WorldConfig) GroundTop() int {
	return w.Height - w.GroundRows*w.Tile
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:        960,
		Height:       540,
		Tile:         48,
		GroundRows:   3,
		WorldRight:   3000,
		PlayerStartX: 120,
		PlayerW:      26,
		PlayerH:      53,
	}
}

// WorldFromEnv returns world configuration with environment overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if v := getEnvInt("WORLD_WIDTH", 0); v > 0 {
		cfg.Width = v
	}
	if v := getEnvInt("WORLD_HEIGHT", 0); v > 0 {
		cfg.Height = v
	}
	if v := getEnvInt("WORLD_TILE", 0); v > 0 {
		cfg.Tile = v
	}
	if v := getEnvInt("WORLD_GROUND_ROWS", 0); v > 0 {
		cfg.GroundRows = v
	}
	if v := getEnvInt("WORLD_RIGHT", 0); v > 0 {
		cfg.WorldRight = v
	}
	if v := getEnvInt("PLAYER_START_X", 0); v > 0 {
		cfg.PlayerStartX = v
	}
	if v := getEnvInt("PLAYER_WIDTH", 0); v > 0 {
		cfg.PlayerW = v
	}
	if v := getEnvInt("PLAYER_HEIGHT", 0); v > 0 {
		cfg.PlayerH = v
	}

	return cfg
}

// =============================================================================
// PHYSICS CONFIGURATION
// =============================================================================

// PhysicsConfig holds the player movement feel. Units are world
// units/second (speeds) and units/second^2 (accelerations); y grows
// downward, so jumps are negative.
type PhysicsConfig struct {
	MoveSpeed      float64 // Target horizontal speed while a move key is held
	AccelGround    float64 // Acceleration toward target speed on the ground
	AccelAir       float64 // Acceleration toward target speed while airborne
	FrictionGround float64 // Deceleration toward zero when idle on the ground
	Gravity        float64 // Downward acceleration, applied every step
	JumpVelocity   float64 // Instant vertical velocity on jump (negative = up)
	MaxFallSpeed   float64 // Terminal fall speed clamp
	MaxStep        float64 // dt clamp in seconds; bounds displacement per step
	StopSpeed      float64 // |vx| below this snaps to zero during friction
}

// DefaultPhysics returns the default physics configuration.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		MoveSpeed:      260.0,
		AccelGround:    2600.0,
		AccelAir:       1500.0,
		FrictionGround: 4200.0,
		Gravity:        2200.0,
		JumpVelocity:   -760.0,
		MaxFallSpeed:   1600.0,
		MaxStep:        1.0 / 30.0,
		StopSpeed:      5.0,
	}
}

// PhysicsFromEnv returns physics configuration with environment overrides.
func PhysicsFromEnv() PhysicsConfig {
	cfg := DefaultPhysics()

	if v := getEnvFloat("PHYS_MOVE_SPEED", 0); v > 0 {
		cfg.MoveSpeed = v
	}
	if v := getEnvFloat("PHYS_ACCEL_GROUND", 0); v > 0 {
		cfg.AccelGround = v
	}
	if v := getEnvFloat("PHYS_ACCEL_AIR", 0); v > 0 {
		cfg.AccelAir = v
	}
	if v := getEnvFloat("PHYS_FRICTION_GROUND", 0); v > 0 {
		cfg.FrictionGround = v
	}
	if v := getEnvFloat("PHYS_GRAVITY", 0); v > 0 {
		cfg.Gravity = v
	}
	if v := getEnvFloat("PHYS_JUMP_VELOCITY", 0); v < 0 {
		cfg.JumpVelocity = v
	}
	if v := getEnvFloat("PHYS_MAX_FALL_SPEED", 0); v > 0 {
		cfg.MaxFallSpeed = v
	}
	if v := getEnvFloat("PHYS_MAX_STEP", 0); v > 0 {
		cfg.MaxStep = v
	}
	if v := getEnvFloat("PHYS_STOP_SPEED", 0); v > 0 {
		cfg.StopSpeed = v
	}

	return cfg
}

// =============================================================================
// CAMERA CONFIGURATION
// =============================================================================

// CameraConfig holds the dead-zone dimensions. The dead-zone rectangle
// is centered in the view; the camera only scrolls when the tracked
// target leaves it horizontally. The camera never follows vertically;
// the height only shapes the dead-zone rectangle.
type CameraConfig struct {
	DeadzoneW int
	DeadzoneH int
}

// DefaultCamera returns the default camera configuration.
func DefaultCamera() CameraConfig {
	return CameraConfig{
		DeadzoneW: 240,
		DeadzoneH: 140,
	}
}

// CameraFromEnv returns camera configuration with environment overrides.
func CameraFromEnv() CameraConfig {
	cfg := DefaultCamera()

	if v := getEnvInt("CAMERA_DEADZONE_W", 0); v > 0 {
		cfg.DeadzoneW = v
	}
	if v := getEnvInt("CAMERA_DEADZONE_H", 0); v > 0 {
		cfg.DeadzoneH = v
	}

	return cfg
}

// =============================================================================
// LEVEL STREAMING CONFIGURATION
// =============================================================================

// LevelConfig controls procedural generation and despawn streaming.
// Distances are world units measured from the camera origin.
type LevelConfig struct {
	SpawnAhead    int     // Keep platforms generated this far ahead of the camera
	DespawnBehind int     // Remove content this far behind the camera
	MinGap        int     // Minimum horizontal gap between platforms
	MaxGap        int     // Maximum horizontal gap between platforms
	MinWidth      int     // Minimum platform width (3 tiles by default)
	MaxWidth      int     // Maximum platform width (8 tiles by default)
	PlatformH     int     // Floating platform thickness
	MinY          int     // Highest allowed platform top
	MaxY          int     // Lowest allowed platform top (before ground clamp)
	GroundMargin  int     // Platforms stay at least this far above the ground top
	EnemyChance   float64 // Probability of attaching an enemy to a new platform
	EnemyMinWidth int     // Platforms narrower than this never get an enemy
	EnemyInset    int     // Enemy spawn x is inset this far from platform edges
}

// DefaultLevel returns the default level streaming configuration.
func DefaultLevel() LevelConfig {
	return LevelConfig{
		SpawnAhead:    1400,
		DespawnBehind: 500,
		MinGap:        170,
		MaxGap:        380,
		MinWidth:      144, // 3 * tile
		MaxWidth:      384, // 8 * tile
		PlatformH:     18,
		MinY:          180,
		MaxY:          380,
		GroundMargin:  30,
		EnemyChance:   0.6,
		EnemyMinWidth: 192, // 4 * tile
		EnemyInset:    30,
	}
}

// LevelFromEnv returns level configuration with environment overrides.
func LevelFromEnv() LevelConfig {
	cfg := DefaultLevel()

	if v := getEnvInt("LEVEL_SPAWN_AHEAD", 0); v > 0 {
		cfg.SpawnAhead = v
	}
	if v := getEnvInt("LEVEL_DESPAWN_BEHIND", 0); v > 0 {
		cfg.DespawnBehind = v
	}
	if v := getEnvInt("LEVEL_MIN_GAP", 0); v > 0 {
		cfg.MinGap = v
	}
	if v := getEnvInt("LEVEL_MAX_GAP", 0); v > 0 {
		cfg.MaxGap = v
	}
	if v := getEnvInt("LEVEL_MIN_WIDTH", 0); v > 0 {
		cfg.MinWidth = v
	}
	if v := getEnvInt("LEVEL_MAX_WIDTH", 0); v > 0 {
		cfg.MaxWidth = v
	}
	if v := getEnvInt("LEVEL_PLATFORM_H", 0); v > 0 {
		cfg.PlatformH = v
	}
	if v := getEnvInt("LEVEL_MIN_Y", 0); v > 0 {
		cfg.MinY = v
	}
	if v := getEnvInt("LEVEL_MAX_Y", 0); v > 0 {
		cfg.MaxY = v
	}
	if v := getEnvInt("LEVEL_GROUND_MARGIN", 0); v > 0 {
		cfg.GroundMargin = v
	}
	if v := getEnvFloat("LEVEL_ENEMY_CHANCE", -1); v >= 0 && v <= 1 {
		cfg.EnemyChance = v
	}
	if v := getEnvInt("LEVEL_ENEMY_MIN_WIDTH", 0); v > 0 {
		cfg.EnemyMinWidth = v
	}
	if v := getEnvInt("LEVEL_ENEMY_INSET", 0); v > 0 {
		cfg.EnemyInset = v
	}

	return cfg
}

// =============================================================================
// ENEMY CONFIGURATION
// =============================================================================

// Patrol policy names accepted by EnemyConfig.Policy.
const (
	PatrolBounded = "bounded" // Clamp to the home platform span, flip on clamp
	PatrolPhysics = "physics" // Full collision + gravity with edge detection
)

// EnemyConfig selects the patrol policy and its tuning. The two
// policies ship with different native footprints and speeds; defaults
// follow the selected policy and can still be overridden individually.
type EnemyConfig struct {
	Policy     string  // PatrolBounded or PatrolPhysics
	Width      int     // Enemy hitbox width
	Height     int     // Enemy hitbox height
	Speed      float64 // Constant patrol speed (units/s), direction flips only
	EdgeMargin int     // physics policy: flip within this distance of an edge
}

// DefaultEnemy returns the default enemy configuration (bounded policy).
func DefaultEnemy() EnemyConfig {
	return EnemyConfig{
		Policy:     PatrolBounded,
		Width:      28,
		Height:     36,
		Speed:      60.0,
		EdgeMargin: 8,
	}
}

// EnemyFromEnv returns enemy configuration with environment overrides.
// The policy is read first so size/speed defaults can follow it.
func EnemyFromEnv() EnemyConfig {
	cfg := DefaultEnemy()

	if p := os.Getenv("ENEMY_PATROL"); p == PatrolPhysics {
		cfg.Policy = PatrolPhysics
		cfg.Width = 40
		cfg.Height = 28
		cfg.Speed = 120.0
	}
	if v := getEnvInt("ENEMY_WIDTH", 0); v > 0 {
		cfg.Width = v
	}
	if v := getEnvInt("ENEMY_HEIGHT", 0); v > 0 {
		cfg.Height = v
	}
	if v := getEnvFloat("ENEMY_SPEED", 0); v > 0 {
		cfg.Speed = v
	}
	if v := getEnvInt("ENEMY_EDGE_MARGIN", 0); v > 0 {
		cfg.EdgeMargin = v
	}

	return cfg
}

// =============================================================================
// COMBAT CONFIGURATION
// =============================================================================

// CombatConfig holds stomp/damage thresholds and responses.
type CombatConfig struct {
	StompVYThreshold float64 // Player must fall at least this fast to stomp
	StompMargin      int     // Max depth of player bottom past enemy top for a stomp
	StompBounce      float64 // Player vy after a stomp (negative = up)
	KnockbackVX      float64 // Horizontal knockback magnitude on damage
	KnockbackVY      float64 // Vertical knockback on damage (negative = up)
	InvulnTime       float64 // Seconds of invulnerability after damage
	StartHP          int     // Player health at spawn and after reset
}

// DefaultCombat returns the default combat configuration.
func DefaultCombat() CombatConfig {
	return CombatConfig{
		StompVYThreshold: 120.0,
		StompMargin:      14,
		StompBounce:      -520.0,
		KnockbackVX:      320.0,
		KnockbackVY:      -420.0,
		InvulnTime:       0.9,
		StartHP:          3,
	}
}

// CombatFromEnv returns combat configuration with environment overrides.
func CombatFromEnv() CombatConfig {
	cfg := DefaultCombat()

	if v := getEnvFloat("COMBAT_STOMP_THRESHOLD", 0); v > 0 {
		cfg.StompVYThreshold = v
	}
	if v := getEnvInt("COMBAT_STOMP_MARGIN", 0); v > 0 {
		cfg.StompMargin = v
	}
	if v := getEnvFloat("COMBAT_STOMP_BOUNCE", 0); v < 0 {
		cfg.StompBounce = v
	}
	if v := getEnvFloat("COMBAT_KNOCKBACK_VX", 0); v > 0 {
		cfg.KnockbackVX = v
	}
	if v := getEnvFloat("COMBAT_KNOCKBACK_VY", 0); v < 0 {
		cfg.KnockbackVY = v
	}
	if v := getEnvFloat("COMBAT_INVULN_TIME", 0); v > 0 {
		cfg.InvulnTime = v
	}
	if v := getEnvInt("COMBAT_START_HP", 0); v > 0 {
		cfg.StartHP = v
	}

	return cfg
}

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds tick loop settings.
type EngineConfig struct {
	TickRate int   // Simulation steps per second
	Seed     int64 // Level generation seed; 0 derives one from the clock
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TickRate: 60,
		Seed:     0,
	}
}

// EngineFromEnv returns engine configuration with environment overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if v := getEnvInt("TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := os.Getenv("WORLD_SEED"); v != "" {
		if s, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = s
		}
	}

	return cfg
}

// =============================================================================
// API CONFIGURATION
// =============================================================================

// APIConfig holds HTTP/WebSocket server settings.
type APIConfig struct {
	Port           int
	AllowedOrigins []string // CORS allowlist; ["*"] allows any origin
	RateLimitRPS   float64  // Per-IP sustained request rate
	RateLimitBurst int      // Per-IP burst size
	BroadcastHz    int      // WebSocket snapshot broadcast frequency
	AdminToken     string   // Bearer token for admin endpoints; empty disables them
	DebugAddr      string   // pprof listen address (loopback only by default)
	DebugEnabled   bool     // Whether to start the pprof debug server
}

// DefaultAPI returns the default API configuration.
func DefaultAPI() APIConfig {
	return APIConfig{
		Port:           3000,
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		BroadcastHz:    20,
		AdminToken:     "",
		DebugAddr:      "127.0.0.1:6060",
		DebugEnabled:   false,
	}
}

// APIFromEnv returns API configuration with environment overrides.
func APIFromEnv() APIConfig {
	cfg := DefaultAPI()

	if v := getEnvInt("PORT", 0); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.AllowedOrigins = []string{v}
	}
	if v := getEnvFloat("RATE_LIMIT_RPS", 0); v > 0 {
		cfg.RateLimitRPS = v
	}
	if v := getEnvInt("RATE_LIMIT_BURST", 0); v > 0 {
		cfg.RateLimitBurst = v
	}
	if v := getEnvInt("WS_BROADCAST_HZ", 0); v > 0 {
		cfg.BroadcastHz = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
	if os.Getenv("DEBUG_ENABLED") == "true" {
		cfg.DebugEnabled = true
	}

	return cfg
}

// =============================================================================
// IPC CONFIGURATION
// =============================================================================

// IPCConfig holds snapshot publishing settings for out-of-process
// renderers.
type IPCConfig struct {
	Enabled    bool
	SocketPath string // Empty selects the platform default
	PublishFPS int    // Snapshot push rate per subscriber
}

// DefaultIPC returns the default IPC configuration.
func DefaultIPC() IPCConfig {
	return IPCConfig{
		Enabled:    true,
		SocketPath: "",
		PublishFPS: 30,
	}
}

// IPCFromEnv returns IPC configuration with environment overrides.
func IPCFromEnv() IPCConfig {
	cfg := DefaultIPC()

	if os.Getenv("IPC_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if v := os.Getenv("IPC_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := getEnvInt("IPC_PUBLISH_FPS", 0); v > 0 {
		cfg.PublishFPS = v
	}

	return cfg
}

// =============================================================================
// STREAM CONFIGURATION
// =============================================================================

// StreamConfig holds frame rendering and FFmpeg settings for the
// streamer binary.
type StreamConfig struct {
	FPS          int    // Rendered frames per second
	Width        int    // Frame width; defaults to the world view size
	Height       int    // Frame height
	Bitrate      int    // Encoder bitrate in kbps
	FFmpegPath   string // FFmpeg binary
	OutputURL    string // rtmp:// target or file path; empty disables encoding
	SpriteDir    string // Player sprite directory (front/back/side .png)
	SpriteHeight int    // Sprites are scaled to this height
	SideFaces    string // Which way side.png faces: "left" or "right"
}

// DefaultStream returns the default stream configuration.
func DefaultStream() StreamConfig {
	return StreamConfig{
		FPS:          30,
		Width:        960,
		Height:       540,
		Bitrate:      2500,
		FFmpegPath:   "ffmpeg",
		OutputURL:    "",
		SpriteDir:    "assets/sprites/player",
		SpriteHeight: 56,
		SideFaces:    "left",
	}
}

// StreamFromEnv returns stream configuration with environment overrides.
func StreamFromEnv() StreamConfig {
	cfg := DefaultStream()

	if v := getEnvInt("STREAM_FPS", 0); v > 0 {
		cfg.FPS = v
	}
	if v := getEnvInt("STREAM_WIDTH", 0); v > 0 {
		cfg.Width = v
	}
	if v := getEnvInt("STREAM_HEIGHT", 0); v > 0 {
		cfg.Height = v
	}
	if v := getEnvInt("STREAM_BITRATE", 0); v > 0 {
		cfg.Bitrate = v
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("STREAM_URL"); v != "" {
		cfg.OutputURL = v
	}
	if v := os.Getenv("SPRITE_DIR"); v != "" {
		cfg.SpriteDir = v
	}
	if v := getEnvInt("SPRITE_HEIGHT", 0); v > 0 {
		cfg.SpriteHeight = v
	}
	if v := os.Getenv("SIDE_SPRITE_FACES"); v == "left" || v == "right" {
		cfg.SideFaces = v
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds background music settings for the streamer.
type AudioConfig struct {
	MusicDir   string  // Directory of .wav/.ogg tracks; missing dir disables music
	SampleRate int     // Speaker sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		MusicDir:   "assets/music",
		SampleRate: 44100,
		Volume:     0.15,
		Enabled:    true,
	}
}

// AudioFromEnv returns audio configuration with environment overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := os.Getenv("MUSIC_DIR"); v != "" {
		cfg.MusicDir = v
	}
	if v := getEnvInt("MUSIC_SAMPLE_RATE", 0); v > 0 {
		cfg.SampleRate = v
	}
	if v := getEnvFloat("MUSIC_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("MUSIC_ENABLED") == "false" {
		cfg.Enabled = false
	}

	return cfg
}

// =============================================================================
// EVENT LOG CONFIGURATION
// =============================================================================

// EventsConfig holds event pipeline settings.
type EventsConfig struct {
	Path          string  // NDJSON output file; empty disables the file sink
	RingSize      int     // In-memory ring capacity served by the API
	GlobalPerSec  float64 // Global event admission rate
	GlobalBurst   int     // Global admission burst
	PerTypePerSec float64 // Per-event-type admission rate
	PerTypeBurst  int
	FlushInterval float64 // Seconds between forced NDJSON flushes
}

// DefaultEvents returns the default event pipeline configuration.
func DefaultEvents() EventsConfig {
	return EventsConfig{
		Path:          "logs/events.ndjson",
		RingSize:      256,
		GlobalPerSec:  120,
		GlobalBurst:   240,
		PerTypePerSec: 30,
		PerTypeBurst:  60,
		FlushInterval: 2.0,
	}
}

// EventsFromEnv returns event configuration with environment overrides.
func EventsFromEnv() EventsConfig {
	cfg := DefaultEvents()

	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.Path = v
	}
	if v := getEnvInt("EVENT_RING_SIZE", 0); v > 0 {
		cfg.RingSize = v
	}
	if v := getEnvFloat("EVENT_GLOBAL_PER_SEC", 0); v > 0 {
		cfg.GlobalPerSec = v
	}
	if v := getEnvInt("EVENT_GLOBAL_BURST", 0); v > 0 {
		cfg.GlobalBurst = v
	}
	if v := getEnvFloat("EVENT_PER_TYPE_PER_SEC", 0); v > 0 {
		cfg.PerTypePerSec = v
	}
	if v := getEnvInt("EVENT_PER_TYPE_BURST", 0); v > 0 {
		cfg.PerTypeBurst = v
	}
	if v := getEnvFloat("EVENT_FLUSH_INTERVAL", 0); v > 0 {
		cfg.FlushInterval = v
	}

	return cfg
}

// =============================================================================
// LEADERBOARD CONFIGURATION
// =============================================================================

// LeaderboardConfig holds run tracking settings.
type LeaderboardConfig struct {
	TopSize int    // Number of best runs retained
	AppName string // gdata application name; empty disables persistence
}

// DefaultLeaderboard returns the default leaderboard configuration.
func DefaultLeaderboard() LeaderboardConfig {
	return LeaderboardConfig{
		TopSize: 10,
		AppName: "retro-platformer",
	}
}

// LeaderboardFromEnv returns leaderboard configuration with environment
// overrides.
func LeaderboardFromEnv() LeaderboardConfig {
	cfg := DefaultLeaderboard()

	if v := getEnvInt("LEADERBOARD_TOP", 0); v > 0 {
		cfg.TopSize = v
	}
	if v, ok := os.LookupEnv("LEADERBOARD_APP"); ok {
		cfg.AppName = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World       WorldConfig
	Physics     PhysicsConfig
	Camera      CameraConfig
	Level       LevelConfig
	Enemy       EnemyConfig
	Combat      CombatConfig
	Engine      EngineConfig
	API         APIConfig
	IPC         IPCConfig
	Stream      StreamConfig
	Audio       AudioConfig
	Events      EventsConfig
	Leaderboard LeaderboardConfig
}

// Load returns the complete configuration: defaults, then the optional
// PRESET_FILE overlay, then environment overrides, validated. Returns
// an error on a degenerate configuration; startup should fail fast.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		World:       WorldFromEnv(),
		Physics:     PhysicsFromEnv(),
		Camera:      CameraFromEnv(),
		Level:       LevelFromEnv(),
		Enemy:       EnemyFromEnv(),
		Combat:      CombatFromEnv(),
		Engine:      EngineFromEnv(),
		API:         APIFromEnv(),
		IPC:         IPCFromEnv(),
		Stream:      StreamFromEnv(),
		Audio:       AudioFromEnv(),
		Events:      EventsFromEnv(),
		Leaderboard: LeaderboardFromEnv(),
	}

	if path := os.Getenv("PRESET_FILE"); path != "" {
		if err := cfg.ApplyPresetFile(path); err != nil {
			return cfg, fmt.Errorf("preset %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects degenerate configurations. Zero or negative sizes,
// inverted ranges and non-positive clamps are programming errors, not
// runtime conditions, so they abort startup.
func (c AppConfig) Validate() error {
	w := c.World
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("world: view %dx%d must be positive", w.Width, w.Height)
	}
	if w.Tile <= 0 || w.GroundRows <= 0 {
		return fmt.Errorf("world: tile %d / ground rows %d must be positive", w.Tile, w.GroundRows)
	}
	if w.GroundRows*w.Tile >= w.Height {
		return fmt.Errorf("world: ground strip %d fills the whole view height %d", w.GroundRows*w.Tile, w.Height)
	}
	if w.PlayerW <= 0 || w.PlayerH <= 0 {
		return fmt.Errorf("world: player footprint %dx%d must be positive", w.PlayerW, w.PlayerH)
	}

	p := c.Physics
	if p.MoveSpeed <= 0 || p.Gravity <= 0 {
		return fmt.Errorf("physics: move speed %.1f and gravity %.1f must be positive", p.MoveSpeed, p.Gravity)
	}
	if p.MaxFallSpeed <= 0 {
		return fmt.Errorf("physics: max fall speed %.1f must be positive", p.MaxFallSpeed)
	}
	if p.JumpVelocity >= 0 {
		return fmt.Errorf("physics: jump velocity %.1f must be negative (up)", p.JumpVelocity)
	}
	if p.MaxStep <= 0 {
		return fmt.Errorf("physics: max step %.4f must be positive", p.MaxStep)
	}

	cam := c.Camera
	if cam.DeadzoneW <= 0 || cam.DeadzoneH <= 0 {
		return fmt.Errorf("camera: dead-zone %dx%d must be positive", cam.DeadzoneW, cam.DeadzoneH)
	}
	if cam.DeadzoneW > w.Width || cam.DeadzoneH > w.Height {
		return fmt.Errorf("camera: dead-zone %dx%d exceeds view %dx%d", cam.DeadzoneW, cam.DeadzoneH, w.Width, w.Height)
	}

	l := c.Level
	if l.MinGap > l.MaxGap {
		return fmt.Errorf("level: gap range [%d, %d] is inverted", l.MinGap, l.MaxGap)
	}
	if l.MinWidth > l.MaxWidth || l.MinWidth <= 0 {
		return fmt.Errorf("level: width range [%d, %d] is invalid", l.MinWidth, l.MaxWidth)
	}
	if l.MinY > l.MaxY {
		return fmt.Errorf("level: y range [%d, %d] is inverted", l.MinY, l.MaxY)
	}
	if l.SpawnAhead <= 0 || l.DespawnBehind <= 0 {
		return fmt.Errorf("level: spawn ahead %d / despawn behind %d must be positive", l.SpawnAhead, l.DespawnBehind)
	}
	if l.EnemyChance < 0 || l.EnemyChance > 1 {
		return fmt.Errorf("level: enemy chance %.2f outside [0, 1]", l.EnemyChance)
	}

	e := c.Enemy
	if e.Policy != PatrolBounded && e.Policy != PatrolPhysics {
		return fmt.Errorf("enemy: unknown patrol policy %q", e.Policy)
	}
	if e.Width <= 0 || e.Height <= 0 || e.Speed <= 0 {
		return fmt.Errorf("enemy: footprint %dx%d / speed %.1f must be positive", e.Width, e.Height, e.Speed)
	}

	cb := c.Combat
	if cb.StartHP <= 0 {
		return fmt.Errorf("combat: start hp %d must be positive", cb.StartHP)
	}
	if cb.StompVYThreshold <= 0 || cb.StompMargin <= 0 {
		return fmt.Errorf("combat: stomp threshold %.1f / margin %d must be positive", cb.StompVYThreshold, cb.StompMargin)
	}
	if cb.InvulnTime <= 0 {
		return fmt.Errorf("combat: invulnerability %.2fs must be positive", cb.InvulnTime)
	}

	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine: tick rate %d must be positive", c.Engine.TickRate)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api: port %d out of range", c.API.Port)
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
