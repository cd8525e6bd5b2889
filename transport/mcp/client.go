package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/trailgame/game/board"
	"github.com/wricardo/trailgame/game/engine"
	"github.com/wricardo/trailgame/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Trail Memory Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Trail Memory Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
The computer grows a trail of circles one step per round and plays it back.
Retrace it from the origin (centre circle) without a mistake. You win when
the trail cannot grow anymore.

AVAILABLE TOOLS:
- create_session: Create new game session (starts the first game)
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Phase, trail length, progress and status message
- board_state: What the board currently shows (lit circles and lines)
- new_game: Start a new game in a session
- enter_cell: Move the pointer onto one circle
- enter_cells: Move the pointer over several circles in order
- list_configs: List available configurations
- game_instructions: Get comprehensive game instructions and rules`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection. The first game starts immediately.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get what the board shows right now. Poll it during the computer turn to watch the trail being played back.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Abandon the current game and start a new one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "enter_cell",
		Description: "Move the pointer onto a circle. Start at the origin, then follow the trail.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the circle (0-based, top to bottom)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the circle (0-based, left to right)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleEnterCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "enter_cells",
		Description: "Move the pointer over several circles in order. Stops at the first wrong circle.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"cells": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"row": map[string]interface{}{"type": "integer"},
							"col": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"row", "col"},
					},
					"description": "Circles to enter, in order",
				},
			},
			Required: []string{"session_id", "cells"},
		},
	}, c.handleEnterCells)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"].(string); ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
}

func coordArg(args map[string]interface{}) (engine.Coord, error) {
	row, err := intArg(args, "row")
	if err != nil {
		return engine.Coord{}, err
	}
	col, err := intArg(args, "col")
	if err != nil {
		return engine.Coord{}, err
	}
	return engine.Coord{Row: row, Col: col}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID, _ := arguments(request)["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		phase := "unknown"
		if s.GameState != nil {
			phase = s.GameState.Phase.String()
		}
		fmt.Fprintf(&result, "- %s (Config: %s, Phase: %s, Created: %s)\n",
			s.ID, s.ConfigName, phase, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snap board.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/board", sessionID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&snap)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string           `json:"message"`
		State   *engine.Snapshot `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/new-game", sessionID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatGameState(response.State)), nil
}

func (c *Client) handleEnterCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	cell, err := coordArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := c.enterCell(ctx, sessionID, cell)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEnterResult(result)), nil
}

func (c *Client) handleEnterCells(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	raw, ok := args["cells"].([]interface{})
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("cells must be a non-empty array of {row, col}"), nil
	}

	var out strings.Builder
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("cells[%d] must be an object", i)), nil
		}
		cell, err := coordArg(obj)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cells[%d]: %v", i, err)), nil
		}

		result, err := c.enterCell(ctx, sessionID, cell)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cells[%d]: %v", i, err)), nil
		}
		fmt.Fprintf(&out, "%d. %s -> %s\n", i+1, cell, result.Outcome)

		if result.Outcome == engine.OutcomeMismatch {
			fmt.Fprintf(&out, "\nStopped: wrong circle, %d of %d cells entered.\n", i+1, len(raw))
			break
		}
		if i == len(raw)-1 {
			out.WriteString("\n" + formatGameState(result.GameState))
		}
	}

	return mcp.NewToolResultText(out.String()), nil
}

func (c *Client) enterCell(ctx context.Context, sessionID string, cell engine.Coord) (*service.EnterResult, error) {
	var result service.EnterResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/cells", sessionID), cell, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "- %s: %s (%dx%d, %dms per step)\n  %s\n",
			cfg.ConfigID, cfg.Name, cfg.Rows, cfg.Cols, cfg.TickMs, cfg.Description)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Trail Memory Game - Complete Instructions

GAME OBJECTIVE:
Memorise a trail of circles and retrace it. Every round the trail grows by
one circle. You win when the trail cannot grow anymore: its last circle has
no unvisited neighbour left.

THE BOARD:
- An odd number of rows and columns of circles, addressed as (row,col) from
  the top-left (0,0).
- The origin is the centre circle: (rows/2, cols/2). Every trail starts there.
- The trail moves one step left, right, up or down at a time and never
  revisits a circle. Diagonal steps never happen.

TURN SEQUENCE:
1. computer_turn: the trail is played back one circle per tick. Each circle
   lights up and a line joins it to the previous one.
2. await_origin: the board is cleared. Enter the origin to begin.
3. player_turn: enter the remaining trail circles in order.
4. After the last circle, the next computer turn starts one tick later with
   a trail that is one circle longer.

WATCHING THE TRAIL (AGENTS):
- Poll board_state during computer_turn. Lit circles and lines show the
  trail so far; the line list gives its order.
- Trail length is in game_state (trail_length). Once the board shows that
  many lit circles you have seen the whole trail.

INPUT RULES:
- Entering a circle that is already lit does nothing.
- Entering anything but the origin while waiting for the origin does nothing.
- Entering any other unlit circle during your turn loses the game.
- Input outside your turn is ignored.

TOOLS:
- enter_cell(session_id, row, col): one circle.
- enter_cells(session_id, cells): a whole trace in one call; the origin may
  be the first cell. Stops at the first wrong circle.
- new_game(session_id): abandon and restart at any time.

VICTORY CONDITIONS:
- Win: "You win! You survived through N circles and the trail can't grow anymore"
- Lose: "Wrong circle - you survived through N circles. Want to try again?"

Good luck, and watch closely!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Phase: %s | Trail: %d | Progress: %d | Round: %d\n",
		state.Phase, state.TrailLength, state.Progress, state.Round)
	fmt.Fprintf(&result, "Grid: %dx%d | Origin: %s\n", state.Rows, state.Cols, state.Origin)

	// Status
	if state.GameOver {
		if state.Victory {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			result.WriteString("\n💀 GAME OVER")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

// formatBoard draws the board as text: O origin, # lit, . dim.
func formatBoard(snap *board.Snapshot) string {
	lit := make(map[engine.Coord]bool, len(snap.Active))
	for _, c := range snap.Active {
		lit[c] = true
	}

	var result strings.Builder
	for row := 0; row < snap.Rows; row++ {
		for col := 0; col < snap.Cols; col++ {
			c := engine.Coord{Row: row, Col: col}
			switch {
			case lit[c]:
				result.WriteString("#")
			case c == snap.Origin:
				result.WriteString("O")
			default:
				result.WriteString(".")
			}
		}
		result.WriteString("\n")
	}

	if len(snap.Lines) > 0 {
		result.WriteString("\nLines:")
		for _, l := range snap.Lines {
			fmt.Fprintf(&result, " %s-%s", l.From, l.To)
		}
		result.WriteString("\n")
	}

	if snap.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", snap.Message)
	}

	return result.String()
}

func formatEnterResult(result *service.EnterResult) string {
	var status string
	switch result.Outcome {
	case engine.OutcomeOrigin:
		status = "✓ Origin reached"
	case engine.OutcomeMatch:
		status = "✓ Correct circle"
	case engine.OutcomeComplete:
		status = "✓ Trail complete"
	case engine.OutcomeMismatch:
		status = "✗ Wrong circle"
	default:
		status = "· Ignored"
	}

	return fmt.Sprintf("%s %s\n\n%s", status, result.Cell, formatGameState(result.GameState))
}
