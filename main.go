package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/va6996/tsetools/agents"
	"github.com/va6996/tsetools/bootstrap"
	"github.com/va6996/tsetools/config"
	logcontext "github.com/va6996/tsetools/context"
	"github.com/va6996/tsetools/log"
	"github.com/va6996/tsetools/tools"
)

const maxBodyBytes = 1 << 20

// ToolServer exposes the tool registry and the analyst over HTTP
type ToolServer struct {
	registry *tools.Registry
	analyst  agents.Asker
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes registers the HTTP handlers on a new mux
func (s *ToolServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tools", s.listTools)
	mux.HandleFunc("POST /tools/{name}", s.callTool)
	mux.HandleFunc("POST /ask", s.ask)
	return mux
}

func (s *ToolServer) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.registry.Definitions())
}

func (s *ToolServer) callTool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	if !s.registry.Has(name) {
		writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: "unknown tool: " + name})
		return
	}

	args := map[string]interface{}{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "arguments must be a JSON object"})
		return
	}

	log.Infof(ctx, "Tool call: %s", name)

	result, err := s.registry.ExecuteTool(ctx, name, args)
	if err != nil {
		log.Warnf(ctx, "Tool %s rejected arguments: %v", name, err)
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

func (s *ToolServer) ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Query == "" {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	log.Infof(ctx, "Received question: %s", req.Query)

	answer, err := s.analyst.Ask(ctx, req.Query)
	if errors.Is(err, agents.ErrNoModel) {
		writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		log.Errorf(ctx, "Error answering question: %v", err)
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
		return
	}
	writeJSON(ctx, w, http.StatusOK, askResponse{Answer: answer})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf(ctx, "Failed to write response: %v", err)
	}
}

// withRequestID stamps every request context with a request ID
func withRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := logcontext.RequestIDFromHeader(r.Header)
		w.Header().Set(logcontext.RequestIDHeader, requestID)
		h.ServeHTTP(w, r.WithContext(logcontext.WithRequestID(r.Context(), requestID)))
	})
}

// withCORS allows browser clients from any origin
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func main() {
	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info(context.Background(), "Program terminated externally. Exiting...")
		cancel()
	}()

	// 0. Load Config
	cfg, err := config.Load()
	if err != nil {
		_ = log.Init("info")
		log.Fatalf(context.Background(), "Failed to load config: %v", err)
	}
	if err := log.Init(cfg.Log.Level); err != nil {
		log.Warnf(context.Background(), "%v", err)
	}

	// 1. Init App Components using Bootstrap
	app, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		log.Fatalf(context.Background(), "Setup failed: %v", err)
	}

	// 2. Start API Server
	server := &ToolServer{registry: app.Registry, analyst: app.Analyst}

	// Use h2c for HTTP/2 without TLS (common for dev and internal services)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: h2c.NewHandler(withCORS(withRequestID(server.Routes())), &http2.Server{}),
	}

	go func() {
		<-ctx.Done()
		log.Info(context.Background(), "Shutting down server...")
		srv.Shutdown(context.Background())
	}()

	log.Infof(context.Background(), "Starting server on port %s with %d tools", cfg.Server.Port, len(app.Registry.GetTools()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf(context.Background(), "Server failed: %v", err)
	}
}
