// Command desktop is a native client for the trail memory game. It renders
// a session's board with ebiten, turns mouse movement into pointer-enter
// actions and plays the audio cues.
//
// Usage:
//
//	desktop            # pick a config and start a new session
//	desktop <session>  # join an existing session
//
// The server address is read from TRAILGAME_URL (default http://localhost:8080).
package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
	"github.com/wricardo/trailgame/transport/client"
)

const (
	headerHeight   = 60
	welcomeWidth   = 640
	welcomeHeight  = 480
	requestTimeout = 5 * time.Second
	defaultBaseURL = "http://localhost:8080"
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenWelcome ScreenType = iota
	ScreenGame
)

var (
	backgroundColor = color.RGBA{20, 20, 30, 255}
	dimColor        = color.RGBA{60, 60, 80, 255}
	outlineColor    = color.RGBA{110, 110, 140, 255}
	originColor     = color.RGBA{200, 200, 90, 255}
	activeColor     = color.RGBA{90, 200, 255, 255}
	lineColor       = color.RGBA{90, 200, 255, 200}
	winColor        = color.RGBA{100, 255, 100, 255}
	loseColor       = color.RGBA{255, 100, 100, 255}
)

// Game represents the desktop game client
type Game struct {
	api    *client.Client
	sound  *cuePlayer
	log    *logrus.Entry
	screen ScreenType

	// Welcome screen
	configs  []*service.ConfigInfo
	selected int
	errorMsg string

	// Game screen
	sessionID string
	conn      *client.Conn
	mirror    *client.Mirror
	layout    board.Layout
	hovered   engine.Coord
	hovering  bool
}

// NewGame creates the client. A non-empty sessionID skips the welcome screen.
func NewGame(api *client.Client, sessionID string) *Game {
	g := &Game{
		api:    api,
		sound:  newCuePlayer(),
		log:    logrus.WithField("component", "desktop"),
		screen: ScreenWelcome,
	}

	if sessionID != "" {
		if err := g.join(sessionID); err != nil {
			g.errorMsg = err.Error()
		}
	}
	if g.screen == ScreenWelcome {
		g.loadConfigs()
	}
	return g
}

func (g *Game) loadConfigs() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	configs, err := g.api.ListConfigs(ctx)
	if err != nil {
		g.errorMsg = fmt.Sprintf("Error loading configs: %v", err)
		return
	}
	g.configs = configs
	if g.selected >= len(configs) {
		g.selected = 0
	}
}

// createSession starts a session with the selected config and joins it.
func (g *Game) createSession() error {
	configID := ""
	if g.selected < len(g.configs) {
		configID = g.configs[g.selected].ConfigID
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	info, err := g.api.CreateSession(ctx, configID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	g.log.WithFields(logrus.Fields{"session": info.ID, "config": configID}).Info("Created session")
	return g.join(info.ID)
}

// join sizes the board from the session's config and opens the event stream.
func (g *Game) join(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	info, err := g.api.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	cfg := info.GameConfig
	grid, err := engine.NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return err
	}

	mirror := client.NewMirror()
	conn, err := g.api.Connect(ctx, sessionID, func(env client.Envelope) {
		if err := mirror.Apply(env); err != nil {
			g.log.WithError(err).Debug("Ignoring event")
		}
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	g.leave()
	g.sessionID = sessionID
	g.conn = conn
	g.mirror = mirror
	g.layout = board.NewLayout(cfg.BoardWidth, cfg.BoardHeight, grid)
	g.hovering = false
	g.errorMsg = ""
	g.screen = ScreenGame

	ebiten.SetWindowSize(g.layout.Width, g.layout.Height+headerHeight)
	ebiten.SetWindowTitle(fmt.Sprintf("Trail Memory - %s (%s)", cfg.Name, sessionID))
	g.log.WithField("session", sessionID).Info("Joined session")
	return nil
}

func (g *Game) leave() {
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
	g.mirror = nil
}

// Update updates game logic
func (g *Game) Update() error {
	switch g.screen {
	case ScreenWelcome:
		return g.updateWelcomeScreen()
	case ScreenGame:
		return g.updateGameScreen()
	}
	return nil
}

func (g *Game) updateWelcomeScreen() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadConfigs()
	}
	if n := len(g.configs); n > 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyTab) {
			g.selected = (g.selected + 1) % n
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
			g.selected = (g.selected + n - 1) % n
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if err := g.createSession(); err != nil {
			g.errorMsg = err.Error()
		}
	}
	return nil
}

func (g *Game) updateGameScreen() error {
	select {
	case <-g.conn.Done():
		g.errorMsg = fmt.Sprintf("Connection lost: %v", g.conn.Err())
		g.leave()
		g.screen = ScreenWelcome
		g.loadConfigs()
		ebiten.SetWindowSize(welcomeWidth, welcomeHeight)
		return nil
	default:
	}

	for _, cue := range g.mirror.TakeCues() {
		g.sound.Play(cue)
	}

	// Pointer-enter fires once each time the cursor moves onto a circle.
	x, y := ebiten.CursorPosition()
	cell, ok := g.layout.HitTest(float64(x), float64(y-headerHeight))
	if ok && (!g.hovering || cell != g.hovered) {
		if err := g.conn.EnterCell(cell); err != nil {
			g.log.WithError(err).Warn("Failed to send cell")
		}
	}
	g.hovered, g.hovering = cell, ok

	if inpututil.IsKeyJustPressed(ebiten.KeyR) || inpututil.IsKeyJustPressed(ebiten.KeyN) {
		if err := g.conn.NewGame(); err != nil {
			g.log.WithError(err).Warn("Failed to start a new game")
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.leave()
		g.screen = ScreenWelcome
		g.loadConfigs()
		ebiten.SetWindowSize(welcomeWidth, welcomeHeight)
	}
	return nil
}

// Draw renders the current screen
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	switch g.screen {
	case ScreenWelcome:
		g.drawWelcomeScreen(screen)
	case ScreenGame:
		g.drawGameScreen(screen)
	}
}

func (g *Game) drawWelcomeScreen(screen *ebiten.Image) {
	y := 20
	ebitenutil.DebugPrintAt(screen, "=== TRAIL MEMORY - NEW SESSION ===", 20, y)
	y += 30

	if g.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("ERROR: %s", g.errorMsg), 20, y)
		y += 20
	}

	ebitenutil.DebugPrintAt(screen, "Configs:", 20, y)
	y += 20
	if len(g.configs) == 0 {
		ebitenutil.DebugPrintAt(screen, "  No configs found. Press F5 to retry.", 20, y)
		y += 15
	}
	for i, cfg := range g.configs {
		cursor := "  "
		if i == g.selected {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%s | %dx%d | %dms | %s", cursor, cfg.ConfigID, cfg.Rows, cfg.Cols, cfg.TickMs, cfg.Description)
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 15
	}

	y += 20
	ebitenutil.DebugPrintAt(screen, "CONTROLS:", 20, y)
	y += 20
	ebitenutil.DebugPrintAt(screen, "  UP/DOWN  - Choose config", 20, y)
	y += 15
	ebitenutil.DebugPrintAt(screen, "  ENTER    - Start a session", 20, y)
	y += 15
	ebitenutil.DebugPrintAt(screen, "  F5       - Refresh configs", 20, y)
}

func (g *Game) drawGameScreen(screen *ebiten.Image) {
	view := g.mirror.View()

	status := view.Phase.String()
	statusColor := color.Color(color.White)
	if view.State != nil && view.State.GameOver {
		statusColor = loseColor
		if view.State.Victory {
			statusColor = winColor
		}
	}
	vector.DrawFilledRect(screen, 0, headerHeight-4, float32(g.layout.Width), 4, statusColor, false)
	ebitenutil.DebugPrintAt(screen, view.Message, 10, 8)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Session %s | %s | R: New Game | ESC: Menu", g.sessionID, status), 10, 28)

	for _, line := range view.Lines {
		x0, y0 := g.layout.Centre(line.From)
		x1, y1 := g.layout.Centre(line.To)
		vector.StrokeLine(screen,
			float32(x0), float32(y0+headerHeight),
			float32(x1), float32(y1+headerHeight),
			4, lineColor, true)
	}

	r := float32(g.layout.Radius())
	for row := 0; row < g.layout.Rows; row++ {
		for col := 0; col < g.layout.Cols; col++ {
			c := engine.Coord{Row: row, Col: col}
			cx, cy := g.layout.Centre(c)
			fx, fy := float32(cx), float32(cy+headerHeight)

			fill := color.Color(dimColor)
			if view.IsActive(c) {
				fill = activeColor
			}
			vector.DrawFilledCircle(screen, fx, fy, r, fill, true)

			outline := color.Color(outlineColor)
			if c == view.Origin {
				outline = originColor
			}
			vector.StrokeCircle(screen, fx, fy, r, 2, outline, true)
		}
	}

	if view.Error != "" {
		ebitenutil.DebugPrintAt(screen, "Server: "+view.Error, 10, g.layout.Height+headerHeight-20)
	}
}

// Layout returns the logical screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.screen == ScreenGame {
		return g.layout.Width, g.layout.Height + headerHeight
	}
	return welcomeWidth, welcomeHeight
}

func main() {
	// Load .env file if it exists
	godotenv.Load()

	baseURL := os.Getenv("TRAILGAME_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sessionID := ""
	if len(os.Args) > 1 {
		sessionID = os.Args[1]
	}

	game := NewGame(client.New(baseURL), sessionID)

	if game.screen == ScreenWelcome {
		ebiten.SetWindowSize(welcomeWidth, welcomeHeight)
		ebiten.SetWindowTitle("Trail Memory - Desktop Client")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		logrus.WithError(err).Fatal("Desktop client failed")
	}
}
