package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Handler funcs, one per collaborator skill. A server registers only the
// skills it serves.
type (
	PlanFunc     func(ctx context.Context, req PlanRequest) (*PlanResponse, error)
	DiscoverFunc func(ctx context.Context, req DiscoverRequest) (*DiscoverResponse, error)
	ExecuteFunc  func(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error)
	EvaluateFunc func(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error)
)

// Server hosts one collaborator over HTTP/JSON-RPC and serves its card at
// the well-known URI. Every call is recorded in the invocation log.
type Server struct {
	card Card
	log  *InvocationLog
	http *http.Server

	planFn     PlanFunc
	discoverFn DiscoverFunc
	executeFn  ExecuteFunc
	evaluateFn EvaluateFunc
}

// ServerOption registers a skill handler on a Server.
type ServerOption func(*Server)

// WithPlanHandler registers the planner skill.
func WithPlanHandler(fn PlanFunc) ServerOption {
	return func(s *Server) { s.planFn = fn }
}

// WithDiscoverHandler registers the schema skill.
func WithDiscoverHandler(fn DiscoverFunc) ServerOption {
	return func(s *Server) { s.discoverFn = fn }
}

// WithExecuteHandler registers the tool skill.
func WithExecuteHandler(fn ExecuteFunc) ServerOption {
	return func(s *Server) { s.executeFn = fn }
}

// WithEvaluateHandler registers the evaluator skill.
func WithEvaluateHandler(fn EvaluateFunc) ServerOption {
	return func(s *Server) { s.evaluateFn = fn }
}

// NewServer creates a Server for the given card.
func NewServer(card Card, opts ...ServerOption) *Server {
	s := &Server{
		card: card,
		log:  NewInvocationLog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Card returns the served collaborator card.
func (s *Server) Card() Card {
	return s.card
}

// Log returns the server's invocation log.
func (s *Server) Log() *InvocationLog {
	return s.log
}

// Start creates an HTTP server, registers routes, and begins serving.
// It returns immediately after starting the server in a background goroutine.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+CardPath, s.handleCard)
	mux.HandleFunc("POST /", s.handleJSONRPC)

	s.http = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go s.http.ListenAndServe()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// handleCard serves the collaborator card at the well-known endpoint.
func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(s.card); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleJSONRPC processes incoming JSON-RPC 2.0 requests and dispatches them
// to the registered skill handler.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONRPCError(w, nil, ErrCodeParse, "Parse error: "+err.Error())
		return
	}

	ctx := r.Context()

	switch req.Method {
	case MethodPlan:
		dispatch(ctx, s, w, &req, s.planFn)
	case MethodDiscover:
		dispatch(ctx, s, w, &req, s.discoverFn)
	case MethodExecute:
		dispatch(ctx, s, w, &req, s.executeFn)
	case MethodEvaluate:
		dispatch(ctx, s, w, &req, s.evaluateFn)
	default:
		writeJSONRPCError(w, req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// dispatch unmarshals params, runs the handler, and records the invocation.
func dispatch[Req any, Resp any](
	ctx context.Context,
	s *Server,
	w http.ResponseWriter,
	req *JSONRPCRequest,
	fn func(context.Context, Req) (*Resp, error),
) {
	if fn == nil {
		writeJSONRPCError(w, req.ID, ErrCodeSkillNotServed,
			fmt.Sprintf("Skill not served by %s: %s", s.card.Name, req.Method))
		return
	}

	var params Req
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeJSONRPCError(w, req.ID, ErrCodeInvalidParams, "Invalid params: "+err.Error())
		return
	}

	inv := s.log.Begin(req.Method)
	result, err := fn(ctx, params)
	s.log.Finish(inv, err)
	if err != nil {
		writeJSONRPCError(w, req.ID, ErrCodeInternal, err.Error())
		return
	}

	writeJSONRPCResult(w, req.ID, result)
}

// writeJSONRPCResult encodes a successful JSON-RPC response.
func writeJSONRPCResult(w http.ResponseWriter, id any, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		writeJSONRPCError(w, id, ErrCodeInternal, "Marshal result: "+err.Error())
		return
	}

	_ = json.NewEncoder(w).Encode(JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  data,
	})
}

// writeJSONRPCError encodes a JSON-RPC error response.
func writeJSONRPCError(w http.ResponseWriter, id any, code int, message string) {
	_ = json.NewEncoder(w).Encode(JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	})
}
