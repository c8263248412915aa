package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/codecontext-mcp/tools"
)

func newTestMCPServer() *mcp.Server {
	return mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)
}

func Test_HTTPHandler_Live(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(newTestMCPServer(), nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
}

func Test_HTTPHandler_Ready(t *testing.T) {
	var loaded atomic.Bool
	handler := NewHTTPHandler(newTestMCPServer(), loaded.Load)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before load, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"loading"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	loaded.Store(true)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 after load, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func Test_HTTPHandler_UnknownRoute(t *testing.T) {
	handler := NewHTTPHandler(newTestMCPServer(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func Test_Setup_RegistersTools(t *testing.T) {
	ctx := context.Background()
	mcpServer := Setup(Handlers{
		Select:  &tools.SelectHandler{},
		Render:  &tools.RenderHandler{},
		Rank:    &tools.RankHandler{},
		Search:  &tools.SearchHandler{},
		Files:   &tools.FilesHandler{},
		Read:    &tools.ReadHandler{},
		Status:  &tools.StatusHandler{},
		Reindex: &tools.ReindexHandler{},
	})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer clientSession.Close()

	listed, err := clientSession.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range listed.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"context_select", "context_render", "context_rank", "context_search",
		"context_files", "context_read", "context_status", "context_reindex"} {
		if !names[want] {
			t.Errorf("expected tool %s to be registered, got %v", want, names)
		}
	}
}
