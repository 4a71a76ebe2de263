package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/hexstones/game/engine"
	"github.com/wricardo/hexstones/game/hexmath"
	"github.com/wricardo/hexstones/game/service"
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
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Hexstones",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Hexstones - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Explore a hexagonal board, discover shrines and shape the terrain with elemental
stones (earth, water, fire, wind, void). Every turn gives a fixed amount of AP.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage games
- game_state: board around the player, AP, inventory and turn
- movable_hexes: neighbours you can enter right now and their cost
- move: step onto an adjacent hex (costs AP)
- sacrifice: step onto an adjacent fire hex by giving up two stones
- place_stone / break_stone: change an adjacent hex
- end_turn: restore AP, activate a shrine you stand on
- describe_hex: stone, mimicry, cost and wind zone of one hex
- water_connections: linked water stones
- move_history: past actions
- reset_game, list_configs, game_instructions

Coordinates are axial (q, r). The six neighbours of (q, r) are
(q+1,r) (q+1,r-1) (q,r-1) (q-1,r) (q-1,r+1) (q,r+1).

The 'intent' parameter on action tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": desc,
	}
}

func stoneProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"earth", "water", "fire", "wind", "void"},
		"description": desc,
	}
}

var intentProp = map[string]interface{}{
	"type":        "string",
	"description": "Brief explanation of the intent behind this action (serves as a rubber duck to help explain your reasoning)",
}

// coordTool builds the schema shared by the tools that target one hex.
func coordTool(name, description string, extra map[string]interface{}, required ...string) mcp.Tool {
	props := map[string]interface{}{
		"session_id": sessionProp(),
		"q":          intProp("Axial q coordinate of the target hex"),
		"r":          intProp("Axial r coordinate of the target hex"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   append([]string{"session_id", "q", "r"}, required...),
		},
	}
}

func sessionTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
			},
			Required: []string{"session_id"},
		},
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
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

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session"), c.handleGetSession)

	// Queries
	c.mcpServer.AddTool(sessionTool("game_state", "Get the current game state around the player"), c.handleGameState)
	c.mcpServer.AddTool(sessionTool("movable_hexes", "List the neighbouring hexes the player can enter and what each costs"), c.handleMovableHexes)
	c.mcpServer.AddTool(sessionTool("water_connections", "List adjacent pairs of water stones and what they mimic"), c.handleWaterConnections)
	c.mcpServer.AddTool(coordTool("describe_hex", "Get detailed info about one hex: stone, mimicry, movement cost, wind zone, shrine", nil), c.handleDescribeHex)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get paginated history of actions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page":       intProp("Page number (default 1)"),
				"limit":      intProp("Entries per page (default 20)"),
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc, newest first)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Actions
	c.mcpServer.AddTool(coordTool("move", "Move the player onto an adjacent hex, spending AP",
		map[string]interface{}{"intent": intentProp}), c.handleMove)

	c.mcpServer.AddTool(coordTool("place_stone", "Place a stone from the inventory on an adjacent empty hex",
		map[string]interface{}{
			"stone":  stoneProp("Stone type to place"),
			"intent": intentProp,
		}, "stone"), c.handlePlaceStone)

	c.mcpServer.AddTool(coordTool("break_stone", "Break the stone on an adjacent hex, spending AP",
		map[string]interface{}{"intent": intentProp}), c.handleBreakStone)

	c.mcpServer.AddTool(coordTool("sacrifice", "Step onto an adjacent fire hex by sacrificing two stones from the inventory",
		map[string]interface{}{
			"stones": map[string]interface{}{
				"type":        "array",
				"items":       stoneProp("Stone type"),
				"minItems":    2,
				"maxItems":    2,
				"description": "The two stones to sacrifice",
			},
			"intent": intentProp,
		}, "stones"), c.handleSacrifice)

	c.mcpServer.AddTool(sessionTool("end_turn", "End the turn: restores AP and activates a discovered shrine under the player"), c.handleEndTurn)
	c.mcpServer.AddTool(sessionTool("reset_game", "Reset the game to its initial state"), c.handleReset)

	// Info
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
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the MCP server instance
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages posted to it.
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		response := c.mcpServer.HandleMessage(r.Context(), body)
		w.Header().Set("Content-Type", "application/json")
		if response == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		json.NewEncoder(w).Encode(response)
	})
}

// apiCall performs one REST request. A 409 carries a refused action result and
// is decoded into result rather than reported as an error.
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
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

	if resp.StatusCode >= 400 && !(resp.StatusCode == http.StatusConflict && result != nil) {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(id string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// coordArgs reads q and r. JSON numbers arrive as float64.
func coordArgs(args map[string]interface{}) (hexmath.Coord, error) {
	q, okQ := args["q"].(float64)
	r, okR := args["r"].(float64)
	if !okQ || !okR {
		return hexmath.Coord{}, fmt.Errorf("q and r are required integers")
	}
	return hexmath.Coord{Q: int(q), R: int(r)}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

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

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		turn := 0
		if s.GameState != nil {
			turn = s.GameState.Turn
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Turn: %d, Created: %s)\n",
			s.ID, s.ConfigName, turn, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatGameState(&state)
	var movable struct {
		MovableHexes []engine.MovableHex `json:"movable_hexes"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "movable"), nil, &movable); err == nil {
		result += "\n" + formatMovable(movable.MovableHexes)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMovableHexes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		MovableHexes []engine.MovableHex `json:"movable_hexes"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "movable"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMovable(response.MovableHexes)), nil
}

func (c *Client) handleWaterConnections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Connections []engine.WaterConnection `json:"connections"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "water-connections"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Connections) == 0 {
		return mcp.NewToolResultText("No connected water stones."), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Water connections (%d):\n", len(response.Connections))
	for _, conn := range response.Connections {
		mimic := "nothing"
		if conn.MimicType != engine.None {
			mimic = string(conn.MimicType)
		}
		fmt.Fprintf(&b, "- (%s) <-> (%s) (mimics %s)\n", conn.From, conn.To, mimic)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeHex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	coord, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info engine.HexInfo
	path := sessionPath(sessionID, "hex", fmt.Sprint(coord.Q), fmt.Sprint(coord.R))
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHexInfo(&info)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprint(int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	coord, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = args["intent"]

	return c.action(ctx, sessionPath(sessionID, "move"), map[string]interface{}{"q": coord.Q, "r": coord.R})
}

func (c *Client) handlePlaceStone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	stone, _ := args["stone"].(string)
	coord, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := engine.ParseStoneType(stone); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"q": coord.Q, "r": coord.R, "stone": stone}
	return c.action(ctx, sessionPath(sessionID, "place"), body)
}

func (c *Client) handleBreakStone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	coord, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.action(ctx, sessionPath(sessionID, "break"), map[string]interface{}{"q": coord.Q, "r": coord.R})
}

func (c *Client) handleSacrifice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	coord, err := coordArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, _ := args["stones"].([]interface{})
	stones := make([]string, 0, len(raw))
	for _, s := range raw {
		if name, ok := s.(string); ok {
			stones = append(stones, name)
		}
	}
	if len(stones) != 2 {
		return mcp.NewToolResultError("exactly two stones are required"), nil
	}

	body := map[string]interface{}{"q": coord.Q, "r": coord.R, "stones": stones}
	return c.action(ctx, sessionPath(sessionID, "sacrifice"), body)
}

func (c *Client) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	return c.action(ctx, sessionPath(sessionID, "end-turn"), nil)
}

// action posts a player action. A refused action is reported as text, not as a
// tool error, so the model can read the reason and try something else.
func (c *Client) action(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		turns := "unlimited"
		if config.TurnLimit > 0 {
			turns = fmt.Sprint(config.TurnLimit)
		}
		fmt.Fprintf(&b, "• %s (id: %s, level %d)\n  %s\n  Radius: %d, AP/turn: %d, Turns: %s\n\n",
			config.Name, config.ConfigID, config.Level, config.Description,
			config.GridRadius, config.APPerTurn, turns)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Hexstones - Rules

BOARD:
A hexagonal board in axial coordinates (q, r), centred on (0,0). Only revealed
hexes can be entered or built on. Moving reveals the six neighbours of the hex
you land on.

TURNS AND AP:
• Each turn grants a fixed pool of regular AP. Unused AP is lost at end_turn.
• Every void stone held adds one extra AP per turn, spent after regular AP.
• Some configs cap the number of turns; the game ends when the cap passes.

MOVEMENT COST (entering a hex):
• empty: 1      • void: 1      • wind: 0      • water: 2
• earth: impassable             • fire: only by sacrificing two stones
• Moving between two hexes that are both next to an active wind stone costs 0.
• A wind stone touching a void stone is nullified and gives no wind zone.

STONES:
• place_stone puts a stone from your inventory on an adjacent empty hex.
• break_stone removes an adjacent stone for AP: void 1, wind 2, fire 3, water 4, earth 5.

INTERACTIONS (on placement):
• Fire destroys adjacent earth and wind stones.
• Fire next to water starts a chain reaction: after a short delay every stone
  touching the connected water body (except water, void and fire) is destroyed,
  then the water itself evaporates.
• Void nullifies: a stone next to void has no effect and is not affected.
• Water mimics the highest ranked neighbour (earth > fire > wind > void) and
  passes that behaviour along connected water. Direct neighbours beat chains,
  and void stops a chain.

SHRINES:
Mega-tiles of radius 2 hide a shrine at their centre. Stepping on a tile
discovers it; ending a turn on a discovered shrine gives stones of its type
(earth 5, water 4, fire 3, wind 2, void 1), up to your capacity.

TIPS:
• Call movable_hexes before moving; describe_hex explains unexpected costs.
• Wind corridors make long trips free. Water bridges cost 2 unless mimicking.
• Keep two spare stones if you may need to cross fire.`

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// stoneSymbol is the one-letter board notation for a hex's contents.
func stoneSymbol(t engine.StoneType) string {
	if t == engine.None {
		return "."
	}
	return strings.ToUpper(string(t)[:1])
}

func formatInventory(inv engine.Inventory) string {
	parts := make([]string, 0, len(engine.StoneTypes))
	for _, t := range engine.StoneTypes {
		parts = append(parts, fmt.Sprintf("%s %d/%d", t, inv.Counts[t], inv.Capacity[t]))
	}
	return strings.Join(parts, ", ")
}

func formatGameState(state *engine.GameState) string {
	if state == nil || state.Grid == nil {
		return "No game state available"
	}

	var b strings.Builder
	player := state.Grid.Player()
	voidAP := max(0, state.Inventory.Count(engine.Void)-state.AP.VoidAPUsed)

	turns := fmt.Sprint(state.Turn)
	if state.TurnLimit > 0 {
		turns = fmt.Sprintf("%d/%d", state.Turn, state.TurnLimit)
	}
	fmt.Fprintf(&b, "Position: (%s) | Turn: %s | AP: %d (+%d void) | Actions: %d\n",
		player, turns, state.AP.RegularAP, voidAP, state.TotalMoves)
	fmt.Fprintf(&b, "Inventory: %s\n", formatInventory(state.Inventory))
	fmt.Fprintf(&b, "Revealed: %d/%d hexes\n", state.Grid.CountRevealed(), state.Grid.Len())

	b.WriteString("\nNeighbours:\n")
	for _, n := range hexmath.Neighbors(player) {
		h, ok := state.Grid.Hex(n)
		switch {
		case !ok:
			fmt.Fprintf(&b, "  (%s) off board\n", n)
		case !h.Revealed:
			fmt.Fprintf(&b, "  (%s) unrevealed\n", n)
		case h.Stone == engine.None:
			fmt.Fprintf(&b, "  (%s) empty\n", n)
		default:
			fmt.Fprintf(&b, "  (%s) %s\n", n, h.Stone)
		}
	}

	var shrines []string
	for _, m := range state.MegaTiles {
		if m.Revealed {
			shrines = append(shrines, fmt.Sprintf("%s shrine at (%s) (distance %d)",
				m.Type, m.Center, hexmath.Distance(player, m.Center)))
		}
	}
	if len(shrines) > 0 {
		b.WriteString("\nDiscovered shrines:\n")
		for _, s := range shrines {
			b.WriteString("  " + s + "\n")
		}
	}

	if v := formatLocalView(state, 2); v != "" {
		b.WriteString("\nLocal view (radius 2, rows by r):\n")
		b.WriteString(v)
	}

	if state.PendingChain != nil {
		fmt.Fprintf(&b, "\nChain reaction pending: %d water stones around (%s)\n",
			len(state.PendingChain.Water), state.PendingChain.Seed)
	}
	if state.GameOver {
		b.WriteString("\nGAME OVER")
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

// formatLocalView draws the hexes within radius of the player, one line per
// row of constant r. P marks the player and ? an unrevealed hex.
func formatLocalView(state *engine.GameState, radius int) string {
	player := state.Grid.Player()
	var b strings.Builder
	for dr := -radius; dr <= radius; dr++ {
		r := player.R + dr
		qMin := max(-radius, -dr-radius)
		qMax := min(radius, -dr+radius)
		fmt.Fprintf(&b, "%*s", abs(dr), "")
		for dq := qMin; dq <= qMax; dq++ {
			c := hexmath.Coord{Q: player.Q + dq, R: r}
			h, ok := state.Grid.Hex(c)
			switch {
			case c == player:
				b.WriteString("P ")
			case !ok:
				b.WriteString("  ")
			case !h.Revealed:
				b.WriteString("? ")
			default:
				b.WriteString(stoneSymbol(h.Stone) + " ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMovable(hexes []engine.MovableHex) string {
	if len(hexes) == 0 {
		return "No movable hexes."
	}
	var b strings.Builder
	b.WriteString("Movable hexes:\n")
	for _, m := range hexes {
		c := hexmath.Coord{Q: m.Q, R: m.R}
		switch m.Kind {
		case engine.MoveSacrifice:
			fmt.Fprintf(&b, "  (%s) fire, sacrifice two stones\n", c)
		case engine.MoveNeedsMoreStones:
			fmt.Fprintf(&b, "  (%s) fire, needs two stones to sacrifice\n", c)
		default:
			fmt.Fprintf(&b, "  (%s) cost %d\n", c, int(m.Cost))
		}
	}
	return b.String()
}

func formatHexInfo(info *engine.HexInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hex (%s)\n", info.Coord())
	if !info.Revealed {
		b.WriteString("Unrevealed\n")
		return b.String()
	}
	stone := "empty"
	if info.Stone != engine.None {
		stone = string(info.Stone)
	}
	fmt.Fprintf(&b, "Stone: %s\n", stone)
	if info.MimicType != engine.None {
		fmt.Fprintf(&b, "Mimics: %s\n", info.MimicType)
	}
	fmt.Fprintf(&b, "Movement cost: %s\n", info.IntrinsicCost)
	fmt.Fprintf(&b, "Wind zone: %t\n", info.WindZone)
	if info.Nullified {
		b.WriteString("Nullified by adjacent void\n")
	}
	if info.MegaTile != nil {
		state := "undiscovered"
		if info.MegaTile.Revealed {
			state = "discovered"
		}
		fmt.Fprintf(&b, "Mega-tile: %s, shrine at (%s) (%s)\n", info.MegaTile.Type, info.MegaTile.Center, state)
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(result.Message)
	if !result.Success && result.ReasonCode != "" {
		fmt.Fprintf(&b, " (%s)", result.ReasonCode)
	}
	b.WriteString("\n")

	if result.Move != nil {
		fmt.Fprintf(&b, "Moved (%s) -> (%s)", result.Move.From, result.Move.To)
		if result.Move.Sacrificed != nil {
			fmt.Fprintf(&b, " sacrificing %v", result.Move.Sacrificed)
		} else {
			fmt.Fprintf(&b, " for %d AP", result.Move.Cost)
		}
		b.WriteString("\n")
	}
	for _, ev := range result.Events {
		if ev.Message != "" {
			fmt.Fprintf(&b, "• %s\n", ev.Message)
		}
	}
	if result.PendingChain != nil {
		fmt.Fprintf(&b, "Chain reaction pending on %d water stones. It resolves shortly.\n", len(result.PendingChain.Water))
	}
	fmt.Fprintf(&b, "AP: %d regular + %d void = %d\n", result.AP.RegularAP, result.AP.VoidAP, result.AP.TotalAP)
	if result.TurnPressure != "" {
		fmt.Fprintf(&b, "Turn pressure: %s\n", result.TurnPressure)
	}
	if s := result.NearestShrine; s != nil {
		fmt.Fprintf(&b, "Nearest shrine: %s at (%s), %d away\n", s.Type, s.Center, s.Distance)
	}
	if len(result.MovableHexes) > 0 {
		b.WriteString(formatMovable(result.MovableHexes))
	}
	if result.GameState != nil {
		b.WriteString("\n" + formatGameState(result.GameState))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d, Total: %d):\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%s #%d turn %d %s", status, m.MoveNumber, m.Turn, m.Action)
		switch m.Action {
		case "move", "sacrifice":
			fmt.Fprintf(&b, " (%s) -> (%s)", m.From, m.To)
		case "place", "break":
			fmt.Fprintf(&b, " %s at (%s)", m.Stone, m.To)
		}
		if m.Cost > 0 {
			fmt.Fprintf(&b, " (%d AP)", m.Cost)
		}
		if m.Message != "" {
			fmt.Fprintf(&b, " - %s", m.Message)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		b.WriteString("\nMore entries on the next page.")
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
