package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"market-loader/src/helpers"
	"market-loader/src/interfaces"
	"market-loader/src/logger"
	"market-loader/src/models"
	"market-loader/src/pipeline"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config   *models.MConfig
	Registry *pipeline.Registry
	Logger   *logger.Logger
	engine   *gin.Engine
	http     *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MStageEvent // Buffered queue
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Local cache
	lastEvent  *models.MStageEvent
	stateMutex sync.RWMutex
}

var _ interfaces.IDataExchanger = (*APIServer)(nil)

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, registry *pipeline.Registry) *APIServer {
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Registry:   registry,
		Logger:     logger.NewLogger("APIServer"),
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.MStageEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()

	// Built up front so Stop can shut it down even before Start has run
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/pipelines", s.getPipelines)
	api.POST("/pipelines/:name/run", s.runPipeline)
	api.GET("/runs", s.getRuns)
	api.GET("/runs/:id", s.getRun)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the routes, mainly for tests.
func (s *APIServer) Handler() http.Handler { return s.engine }

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	go s.handleWebsockets()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	last := s.lastEvent
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": connections,
		"last_event":  last,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPipelines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pipelines": s.Registry.List()})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getRuns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": s.Registry.History.List()})
}

func (s *APIServer) getRun(c *gin.Context) {
	report, ok := s.Registry.History.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// -----------------------------------------------------------------------------

type runRequest struct {
	Symbol    string `json:"symbol"`
	SetupOnly bool   `json:"setup_only"`
}

// runPipeline blocks until the run finishes. A failed run still returns its report.
func (s *APIServer) runPipeline(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Symbol == "" {
		req.Symbol = c.Query("symbol")
	}

	// The run outlives a client that hangs up
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := s.Registry.Run(ctx, c.Param("name"), pipeline.RunOptions{Symbol: req.Symbol, SetupOnly: req.SetupOnly})

	var unknown *pipeline.ErrUnknownPipeline
	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": helpers.Kind(err), "report": report})
	default:
		c.JSON(http.StatusOK, report)
	}
}
