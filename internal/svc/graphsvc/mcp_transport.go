package graphsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mkrupp/followgraph/internal/domain"
	"github.com/mkrupp/followgraph/internal/infra/logging"
)

const (
	// MCPServerName is the name announced by the MCP server.
	MCPServerName = "followgraph"
	// MCPServerVersion is the version announced by the MCP server.
	MCPServerVersion = "1.0.0"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
	ErrorCodeUserNotFound   = -32001
	ErrorCodeRejectedFollow = -32002
	ErrorCodeUserExists     = -32003
)

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    any
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data any) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// MCPTransport exposes the graph service as MCP tools.
type MCPTransport struct {
	graphSvc *GraphService
	log      logging.Logger
	mcp      *server.MCPServer
}

// NewMCPTransport creates an MCP server with all graph tools registered.
func NewMCPTransport(graphSvc *GraphService) *MCPTransport {
	mt := &MCPTransport{
		graphSvc: graphSvc,
		log:      logging.GetLogger("svc.graphsvc.mcp_transport"),
		mcp:      server.NewMCPServer(MCPServerName, MCPServerVersion),
	}

	mt.mcp.AddTool(userTool("register_user", "Register a user with an empty followee list"), mt.HandleRegisterUser)
	mt.mcp.AddTool(noArgsTool("list_users", "List the names of all registered users"), mt.HandleListUsers)
	mt.mcp.AddTool(userTool("get_user", "Get a user and the ordered list of names it follows"), mt.HandleGetUser)
	mt.mcp.AddTool(userTool("render_user", "Render a user as 'name -> followee ... '"), mt.HandleRenderUser)
	mt.mcp.AddTool(followTool("follow_user", "Make a user follow a name"), mt.HandleFollow)
	mt.mcp.AddTool(followTool("unfollow_user", "Make a user stop following a name"), mt.HandleUnfollow)
	mt.mcp.AddTool(pairTool("count_mutual", "Count the names followed by both users"), mt.HandleCountMutual)
	mt.mcp.AddTool(pairTool("is_friend", "Check whether two users follow each other"), mt.HandleIsFriend)

	return mt
}

// Serve reads JSON-RPC messages from in and writes responses to out until
// in is closed or ctx is cancelled. Both count as a clean shutdown.
func (mt *MCPTransport) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	mt.log.DebugContext(ctx, "serving mcp")

	stdio := server.NewStdioServer(mt.mcp)
	stdio.SetErrorLogger(logging.GetLogLogger(mt.log, logging.LevelError))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

func stringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

func noArgsTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}
}

func userTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"user": stringProperty("Name of the user"),
			},
			Required: []string{"user"},
		},
	}
}

func followTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"user":     stringProperty("Name of the user whose followee list changes"),
				"followee": stringProperty("Name to follow or unfollow"),
			},
			Required: []string{"user", "followee"},
		},
	}
}

func pairTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"user":  stringProperty("Name of the first user"),
				"other": stringProperty("Name of the second user"),
			},
			Required: []string{"user", "other"},
		},
	}
}

func requireStrings(request mcp.CallToolRequest, keys ...string) ([]string, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	values := make([]string, len(keys))

	for i, key := range keys {
		value, ok := args[key].(string)
		if !ok || value == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]any{
				"param":  key,
				"reason": "missing or empty",
			})
		}

		values[i] = value
	}

	return values, nil
}

func toMCPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return newMCPError(ErrorCodeUserExists, "user already exists", map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		return newMCPError(ErrorCodeUserNotFound, "user not found", map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyFollowing),
		errors.Is(err, domain.ErrFolloweeListFull),
		errors.Is(err, domain.ErrNotFollowing):
		return newMCPError(ErrorCodeRejectedFollow, "followee list rejected the change", map[string]any{"error": err.Error()})
	default:
		return newMCPError(ErrorCodeInternalError, "internal error", map[string]any{"error": err.Error()})
	}
}

func formatJSON(data any) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}

	return string(bytes)
}

// HandleRegisterUser handles the register_user tool invocation.
func (mt *MCPTransport) HandleRegisterUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user")
	if err != nil {
		return nil, err
	}

	if err := mt.graphSvc.RegisterUser(ctx, args[0]); err != nil {
		return nil, toMCPError(err)
	}

	return mt.HandleGetUser(ctx, request)
}

// HandleListUsers handles the list_users tool invocation.
func (mt *MCPTransport) HandleListUsers(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := mt.graphSvc.ListUsers(ctx)
	if err != nil {
		return nil, toMCPError(err)
	}

	return mcp.NewToolResultText(formatJSON(names)), nil
}

// HandleGetUser handles the get_user tool invocation.
func (mt *MCPTransport) HandleGetUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user")
	if err != nil {
		return nil, err
	}

	u, err := mt.graphSvc.GetUser(ctx, args[0])
	if err != nil {
		return nil, toMCPError(err)
	}

	return mcp.NewToolResultText(formatJSON(domain.NewUserResponse(u))), nil
}

// HandleRenderUser handles the render_user tool invocation.
func (mt *MCPTransport) HandleRenderUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user")
	if err != nil {
		return nil, err
	}

	text, err := mt.graphSvc.Render(ctx, args[0])
	if err != nil {
		return nil, toMCPError(err)
	}

	return mcp.NewToolResultText(text), nil
}

// HandleFollow handles the follow_user tool invocation.
func (mt *MCPTransport) HandleFollow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user", "followee")
	if err != nil {
		return nil, err
	}

	if err := mt.graphSvc.Follow(ctx, args[0], args[1]); err != nil {
		return nil, toMCPError(err)
	}

	return mt.HandleGetUser(ctx, request)
}

// HandleUnfollow handles the unfollow_user tool invocation.
func (mt *MCPTransport) HandleUnfollow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user", "followee")
	if err != nil {
		return nil, err
	}

	if err := mt.graphSvc.Unfollow(ctx, args[0], args[1]); err != nil {
		return nil, toMCPError(err)
	}

	return mt.HandleGetUser(ctx, request)
}

// HandleCountMutual handles the count_mutual tool invocation.
func (mt *MCPTransport) HandleCountMutual(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user", "other")
	if err != nil {
		return nil, err
	}

	count, err := mt.graphSvc.CountMutual(ctx, args[0], args[1])
	if err != nil {
		return nil, toMCPError(err)
	}

	return mcp.NewToolResultText(formatJSON(domain.MutualResponse{User: args[0], Other: args[1], Count: count})), nil
}

// HandleIsFriend handles the is_friend tool invocation.
func (mt *MCPTransport) HandleIsFriend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request, "user", "other")
	if err != nil {
		return nil, err
	}

	friends, err := mt.graphSvc.AreFriends(ctx, args[0], args[1])
	if err != nil {
		return nil, toMCPError(err)
	}

	return mcp.NewToolResultText(formatJSON(domain.FriendsResponse{User: args[0], Other: args[1], Friends: friends})), nil
}
