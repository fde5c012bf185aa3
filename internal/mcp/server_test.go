package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemshloyda/photoresizer/internal/resizer"
	"github.com/artemshloyda/photoresizer/internal/scanner"
	"github.com/artemshloyda/photoresizer/internal/service"
	"github.com/artemshloyda/photoresizer/internal/watcher"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()

	engine := resizer.New(nil)
	controller := watcher.New(engine, scanner.New(nil), nil,
		watcher.WithPollInterval(5*time.Millisecond),
		watcher.WithStopTimeout(time.Second),
	)
	srv := NewServer(service.New(engine, controller, nil), "test", nil)

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := srv.mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = controller.Stop()
		_ = session.Close()
	})

	return session
}

func call[T any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (T, *mcp.CallToolResult) {
	t.Helper()

	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)

	var out T
	if !res.IsError {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return out, res
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"configure_folders", "configure_policy", "run_initial_pass",
		"start_watching", "stop_watching", "get_status", "poll_events",
	}, names)
}

func TestServer_StartStopRoundTrip(t *testing.T) {
	session := connect(t)

	resp, _ := call[service.Response](t, session, "start_watching", nil)
	assert.False(t, resp.Success)

	src, dst := t.TempDir(), t.TempDir()
	resp, _ = call[service.Response](t, session, "configure_folders", map[string]any{
		"source":      src,
		"destination": dst,
	})
	require.True(t, resp.Success, resp.Message)

	resp, _ = call[service.Response](t, session, "start_watching", nil)
	assert.True(t, resp.Success)

	st, _ := call[service.StatusResponse](t, session, "get_status", nil)
	assert.True(t, st.Running)
	assert.Equal(t, src, st.SourceFolder)

	resp, _ = call[service.Response](t, session, "stop_watching", nil)
	assert.True(t, resp.Success)

	st, _ = call[service.StatusResponse](t, session, "get_status", nil)
	assert.False(t, st.Running)
}

func TestServer_PolicyAndInitialPass(t *testing.T) {
	session := connect(t)

	src, dst := t.TempDir(), t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20))))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.png"), buf.Bytes(), 0o644))

	resp, _ := call[service.Response](t, session, "configure_folders", map[string]any{"source": src, "destination": dst})
	require.True(t, resp.Success)

	resp, _ = call[service.Response](t, session, "configure_policy", map[string]any{"single_side_resolution": 10})
	require.True(t, resp.Success)

	pass, _ := call[service.PassResponse](t, session, "run_initial_pass", nil)
	require.True(t, pass.Success)
	require.Len(t, pass.Results, 1)
	assert.Equal(t, resizer.StatusProcessed, pass.Results[0].Status)
	assert.Equal(t, filepath.Join(dst, "a_10px.png"), pass.Results[0].OutputPath)

	st, _ := call[service.StatusResponse](t, session, "get_status", nil)
	assert.Equal(t, 1.0, st.ScalingFactor)
	assert.Equal(t, 10, st.SingleSideResolution)
	assert.Equal(t, 1, st.ProcessedCount)
}

func TestServer_PollEvents(t *testing.T) {
	session := connect(t)

	src := t.TempDir()
	resp, _ := call[service.Response](t, session, "configure_folders", map[string]any{"source": src, "destination": t.TempDir()})
	require.True(t, resp.Success)
	resp, _ = call[service.Response](t, session, "start_watching", nil)
	require.True(t, resp.Success)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.WriteFile(filepath.Join(src, "new.png"), buf.Bytes(), 0o644))

	var events []resizer.Result
	assert.Eventually(t, func() bool {
		out, _ := call[PollEventsOutput](t, session, "poll_events", nil)
		events = append(events, out.Events...)
		return len(events) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Len(t, events, 1)
	assert.Equal(t, "new.png", events[0].Filename)
}

func TestServer_InvalidInput(t *testing.T) {
	session := connect(t)

	resp, res := call[service.Response](t, session, "configure_folders", map[string]any{"source": "", "destination": ""})
	assert.False(t, res.IsError)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)

	_, res = call[PollEventsOutput](t, session, "poll_events", map[string]any{"max": -1})
	assert.True(t, res.IsError)
}

func TestAPIKeyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := APIKeyMiddleware("secret", next)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"x-api-key", "X-API-Key", "secret", http.StatusNoContent},
		{"bearer", "Authorization", "Bearer secret", http.StatusNoContent},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"basic auth", "Authorization", "Basic secret", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
