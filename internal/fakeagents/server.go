// Copyright (c) Microsoft. All rights reserved.

// Package fakeagents is an in-process emulator of the subset of the Azure AI
// Foundry agent service and model inference REST surface used by this
// repository. State lives in memory; runs advance one state per fetch.
//
// Message text can steer a run: "[fail]" fails it, "[expire]" expires it,
// "[incomplete]" ends it incomplete and "[empty-action]" asks for an action
// without tool calls.
package fakeagents

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

// ProjectPath is the path of the emulated project. The project endpoint of
// a server listening on base is base + ProjectPath.
const ProjectPath = "/api/projects/emulator"

// Server is the emulator. It implements http.Handler.
type Server struct {
	e     *echo.Echo
	token string

	mu           sync.Mutex
	clock        int64
	agents       map[string]*agents.Agent
	threads      map[string]*threadState
	runs         map[string]*runState
	files        map[string]*fileState
	vectorStores map[string]*agents.VectorStore
	requests     map[string]int
}

// Option configures a [Server].
type Option func(*Server)

// WithToken makes the server accept only this bearer token.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// New returns an emulator with empty state.
func New(opts ...Option) *Server {
	s := &Server{
		clock:        time.Now().Unix(),
		agents:       make(map[string]*agents.Agent),
		threads:      make(map[string]*threadState),
		runs:         make(map[string]*runState),
		files:        make(map[string]*fileState),
		vectorStores: make(map[string]*agents.VectorStore),
		requests:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(s.countRequests)

	p := e.Group(ProjectPath, s.authenticate, requireAPIVersion)
	p.POST("/assistants", s.createAgent)
	p.GET("/assistants", s.listAgents)
	p.GET("/assistants/:agent_id", s.getAgent)
	p.POST("/assistants/:agent_id", s.updateAgent)
	p.DELETE("/assistants/:agent_id", s.deleteAgent)

	p.POST("/threads", s.createThread)
	p.POST("/threads/runs", s.createThreadAndRun)
	p.GET("/threads/:thread_id", s.getThread)
	p.DELETE("/threads/:thread_id", s.deleteThread)
	p.POST("/threads/:thread_id/messages", s.createMessage)
	p.GET("/threads/:thread_id/messages", s.listMessages)
	p.GET("/threads/:thread_id/messages/:message_id", s.getMessage)

	p.POST("/threads/:thread_id/runs", s.createRun)
	p.GET("/threads/:thread_id/runs", s.listRuns)
	p.GET("/threads/:thread_id/runs/:run_id", s.getRun)
	p.POST("/threads/:thread_id/runs/:run_id/cancel", s.cancelRun)
	p.POST("/threads/:thread_id/runs/:run_id/submit_tool_outputs", s.submitToolOutputs)
	p.GET("/threads/:thread_id/runs/:run_id/steps", s.listRunSteps)
	p.GET("/threads/:thread_id/runs/:run_id/steps/:step_id", s.getRunStep)

	p.POST("/files", s.uploadFile)
	p.GET("/files", s.listFiles)
	p.GET("/files/:file_id", s.getFile)
	p.GET("/files/:file_id/content", s.getFileContent)
	p.DELETE("/files/:file_id", s.deleteFile)

	p.POST("/vector_stores", s.createVectorStore)
	p.GET("/vector_stores", s.listVectorStores)
	p.GET("/vector_stores/:vector_store_id", s.getVectorStore)
	p.DELETE("/vector_stores/:vector_store_id", s.deleteVectorStore)

	e.POST("/openai/deployments/:deployment/chat/completions", s.chatCompletions, s.authenticate, requireAPIVersion)

	s.e = e
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Echo exposes the underlying echo instance, for example to Start it.
func (s *Server) Echo() *echo.Echo { return s.e }

// Requests returns how many requests matched the route "METHOD path", where
// path is the registered route pattern.
func (s *Server) Requests(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+route]
}

// Len reports how many resources of kind ("agents", "threads", "files",
// "vector_stores") are currently stored.
func (s *Server) Len(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case "agents":
		return len(s.agents)
	case "threads":
		return len(s.threads)
	case "files":
		return len(s.files)
	case "vector_stores":
		return len(s.vectorStores)
	}
	return 0
}

func (s *Server) countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		route := strings.TrimPrefix(c.Path(), ProjectPath)
		s.mu.Lock()
		s.requests[c.Request().Method+" "+route]++
		s.mu.Unlock()
		return err
	}
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header
		if key := h.Get("api-key"); key != "" && (s.token == "" || key == s.token) {
			return next(c)
		}
		token, ok := strings.CutPrefix(h.Get("Authorization"), "Bearer ")
		if !ok || token == "" || (s.token != "" && token != s.token) {
			return apiError(http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
		}
		return next(c)
	}
}

func requireAPIVersion(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.QueryParam("api-version") == "" {
			return apiError(http.StatusBadRequest, "missing_api_version", "api-version query parameter is required")
		}
		return next(c)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// apiErr is returned by handlers and rendered in the service error envelope.
type apiErr struct {
	status int
	detail errorDetail
}

func (e *apiErr) Error() string { return e.detail.Message }

func apiError(status int, code, message string) error {
	return &apiErr{status: status, detail: errorDetail{Code: code, Message: message}}
}

func notFound(kind, id string) error {
	return apiError(http.StatusNotFound, "not_found", "no "+kind+" found with id '"+id+"'")
}

func badRequest(message string) error {
	return apiError(http.StatusBadRequest, "invalid_request", message)
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var ae *apiErr
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ae):
	case errors.As(err, &he):
		ae = &apiErr{status: he.Code, detail: errorDetail{Code: strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))}}
		if msg, ok := he.Message.(string); ok {
			ae.detail.Message = msg
		} else {
			ae.detail.Message = http.StatusText(he.Code)
		}
	default:
		ae = &apiErr{status: http.StatusInternalServerError, detail: errorDetail{Code: "server_error", Message: err.Error()}}
	}
	_ = c.JSON(ae.status, errorBody{Error: ae.detail})
}

// now returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Server) now() int64 {
	s.clock++
	return s.clock
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// paginate applies the list parameters of the service to items, which must
// be sorted by creation ascending.
func paginate[T any](c echo.Context, items []T, id func(T) string) (agents.ListPage[T], error) {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return agents.ListPage[T]{}, badRequest("limit must be between 1 and 100")
		}
		limit = n
	}
	ordered := make([]T, len(items))
	copy(ordered, items)
	switch c.QueryParam("order") {
	case "", "desc":
		slices.Reverse(ordered)
	case "asc":
	default:
		return agents.ListPage[T]{}, badRequest("order must be asc or desc")
	}

	start, end := 0, len(ordered)
	if after := c.QueryParam("after"); after != "" {
		for i, it := range ordered {
			if id(it) == after {
				start = i + 1
				break
			}
		}
	}
	if before := c.QueryParam("before"); before != "" {
		for i, it := range ordered {
			if id(it) == before {
				end = i
				break
			}
		}
	}
	if start > end {
		start = end
	}
	window := ordered[start:end]
	page := agents.ListPage[T]{Object: "list", Data: window, HasMore: len(window) > limit}
	if page.HasMore {
		page.Data = window[:limit]
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	if len(page.Data) > 0 {
		page.FirstID = id(page.Data[0])
		page.LastID = id(page.Data[len(page.Data)-1])
	}
	return page, nil
}
