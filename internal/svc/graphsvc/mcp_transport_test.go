package graphsvc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/followgraph/internal/domain"
	"github.com/mkrupp/followgraph/internal/svc/graphsvc"
)

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])

	return text.Text
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()

	var mcpErr *graphsvc.MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}

func TestMCPTransport_Follow(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, 1, "Alice")
	mt := graphsvc.NewMCPTransport(svc)
	ctx := context.Background()

	result, err := mt.HandleFollow(ctx, toolRequest("follow_user", map[string]any{"user": "Alice", "followee": "Bob"}))
	require.NoError(t, err)

	var resp domain.UserResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, []string{"Bob"}, resp.Followees)

	_, err = mt.HandleFollow(ctx, toolRequest("follow_user", map[string]any{"user": "Alice", "followee": "Carol"}))
	requireMCPError(t, err, graphsvc.ErrorCodeRejectedFollow)

	_, err = mt.HandleFollow(ctx, toolRequest("follow_user", map[string]any{"user": "Nobody", "followee": "Carol"}))
	requireMCPError(t, err, graphsvc.ErrorCodeUserNotFound)

	_, err = mt.HandleFollow(ctx, toolRequest("follow_user", map[string]any{"user": "Alice"}))
	requireMCPError(t, err, graphsvc.ErrorCodeInvalidParams)

	result, err = mt.HandleRenderUser(ctx, toolRequest("render_user", map[string]any{"user": "Alice"}))
	require.NoError(t, err)
	assert.Equal(t, "Alice -> Bob ", resultText(t, result))

	result, err = mt.HandleUnfollow(ctx, toolRequest("unfollow_user", map[string]any{"user": "Alice", "followee": "Bob"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Empty(t, resp.Followees)

	_, err = mt.HandleUnfollow(ctx, toolRequest("unfollow_user", map[string]any{"user": "Alice", "followee": "Bob"}))
	requireMCPError(t, err, graphsvc.ErrorCodeRejectedFollow)
}

func TestMCPTransport_PairQueries(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, 10, "u1", "u2")
	mt := graphsvc.NewMCPTransport(svc)
	ctx := context.Background()

	for _, f := range []string{"A", "B", "u2"} {
		require.NoError(t, svc.Follow(ctx, "u1", f))
	}

	for _, f := range []string{"B", "u1"} {
		require.NoError(t, svc.Follow(ctx, "u2", f))
	}

	result, err := mt.HandleCountMutual(ctx, toolRequest("count_mutual", map[string]any{"user": "u1", "other": "u2"}))
	require.NoError(t, err)

	var mutual domain.MutualResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &mutual))
	assert.Equal(t, 1, mutual.Count)

	result, err = mt.HandleIsFriend(ctx, toolRequest("is_friend", map[string]any{"user": "u1", "other": "u2"}))
	require.NoError(t, err)

	var friends domain.FriendsResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &friends))
	assert.True(t, friends.Friends)

	_, err = mt.HandleIsFriend(ctx, toolRequest("is_friend", nil))
	requireMCPError(t, err, graphsvc.ErrorCodeInvalidParams)
}

func TestMCPTransport_RegisterAndListUsers(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t, 10, "Alice")
	mt := graphsvc.NewMCPTransport(svc)
	ctx := context.Background()

	result, err := mt.HandleRegisterUser(ctx, toolRequest("register_user", map[string]any{"user": "Bob"}))
	require.NoError(t, err)

	var resp domain.UserResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, domain.UserResponse{Name: "Bob", Followees: []string{}, Count: 0, Capacity: 10}, resp)

	_, err = mt.HandleRegisterUser(ctx, toolRequest("register_user", map[string]any{"user": "Alice"}))
	requireMCPError(t, err, graphsvc.ErrorCodeUserExists)

	_, err = mt.HandleRegisterUser(ctx, toolRequest("register_user", nil))
	requireMCPError(t, err, graphsvc.ErrorCodeInvalidParams)

	result, err = mt.HandleListUsers(ctx, toolRequest("list_users", nil))
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &names))
	assert.Equal(t, []string{"Alice", "Bob"}, names)

	result, err = mt.HandleFollow(ctx, toolRequest("follow_user", map[string]any{"user": "Bob", "followee": "Alice"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, []string{"Alice"}, resp.Followees)
}

//nolint:paralleltest
func TestMCPTransport_ServeListsTools(t *testing.T) {
	svc, _ := setupTestService(t, 10)
	mt := graphsvc.NewMCPTransport(svc)

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n")

	var out bytes.Buffer

	require.NoError(t, mt.Serve(context.Background(), in, &out))

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"register_user", "list_users", "get_user", "render_user",
		"follow_user", "unfollow_user", "count_mutual", "is_friend",
	}, names)
}

//nolint:paralleltest
func TestMCPTransport_ServeStopsOnCancel(t *testing.T) {
	svc, _ := setupTestService(t, 10)
	mt := graphsvc.NewMCPTransport(svc)

	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, mt.Serve(ctx, in, io.Discard))
}
