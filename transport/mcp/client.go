package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mkowalczyk/seabattle/game/player"
	"github.com/mkowalczyk/seabattle/game/service"
)

// Client is a thin MCP client that proxies to the REST API. All tools are
// read-only: the game itself is played over the websocket protocol, the
// MCP surface only observes it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
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

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sea Battle Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sea Battle Server - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The server hosts two-player battleship games over websockets. These tools
give a read-only view of what is going on:

AVAILABLE TOOLS:
- list_games: List all active games
- game_state: Get the public state of one game (no ship positions)
- list_rooms: List rooms waiting for a second player
- list_winners: Get the winners leaderboard
- server_info: Server health, uptime and connection counts`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all active games with their phase and players",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the public state of a specific game. Ship positions are never exposed.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "number",
					"description": "Numeric id of the game",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List matchmaking rooms still waiting for a second player",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_winners",
		Description: "Get the winners leaderboard sorted by win count",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListWinners)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_info",
		Description: "Get server health, uptime and connection counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerInfo)
}

// GetMCPServer returns the underlying MCP server for transport wiring.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Games []service.GameView `json:"games"`
		Count int                `json:"count"`
	}
	if err := c.apiCall("/api/games", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No active games."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active games: %d\n\n", response.Count)
	for _, g := range response.Games {
		sb.WriteString(formatGameView(&g))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, ok := args["game_id"].(float64)
	if !ok {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var view service.GameView
	if err := c.apiCall(fmt.Sprintf("/api/games/%d", int(gameID)), &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameView(&view)), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Rooms []struct {
			RoomID    int `json:"roomId"`
			RoomUsers []struct {
				Name  string `json:"name"`
				Index int    `json:"index"`
			} `json:"roomUsers"`
		} `json:"rooms"`
		Count int `json:"count"`
	}
	if err := c.apiCall("/api/rooms", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No rooms waiting for players."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Rooms waiting for a second player: %d\n", response.Count)
	for _, r := range response.Rooms {
		names := make([]string, 0, len(r.RoomUsers))
		for _, u := range r.RoomUsers {
			names = append(names, u.Name)
		}
		fmt.Fprintf(&sb, "- Room %d: %s\n", r.RoomID, strings.Join(names, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListWinners(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var winners []player.WinnerEntry
	if err := c.apiCall("/api/winners", &winners); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(winners) == 0 {
		return mcp.NewToolResultText("No winners yet."), nil
	}

	sort.SliceStable(winners, func(i, j int) bool { return winners[i].Wins > winners[j].Wins })

	var sb strings.Builder
	sb.WriteString("Leaderboard:\n")
	for i, w := range winners {
		fmt.Fprintf(&sb, "%d. %s: %d wins\n", i+1, w.Name, w.Wins)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var health struct {
		Status      string `json:"status"`
		Uptime      string `json:"uptime"`
		Clients     int    `json:"clients"`
		ActiveGames int    `json:"active_games"`
	}
	if err := c.apiCall("/api/health", &health); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Status: %s\nUptime: %s\nConnected clients: %d\nActive games: %d",
		health.Status, health.Uptime, health.Clients, health.ActiveGames)
	return mcp.NewToolResultText(result), nil
}

// formatGameView renders a game view as readable text.
func formatGameView(g *service.GameView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Game %d [%s]\n", g.ID, g.Phase)
	for _, p := range g.Players {
		role := "player"
		if p.Bot {
			role = "bot"
		}
		fmt.Fprintf(&sb, "  %s (%s, id %d): ships placed=%t, shots received=%d, ships lost=%d\n",
			p.Name, role, p.ID, p.ShipsPlaced, p.ShotsReceived, p.ShipsLost)
	}
	if g.WinnerID != 0 {
		fmt.Fprintf(&sb, "  Winner: %d\n", g.WinnerID)
	} else {
		fmt.Fprintf(&sb, "  Turn of: %d\n", g.TurnOf)
	}
	return sb.String()
}
