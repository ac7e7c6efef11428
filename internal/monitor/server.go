// Package monitor - HTTP-панель корпорации: снапшоты состояния,
// SSE-поток для дашборда и приём вебхуков Tribute.
package monitor

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/timzinin/zinin-corp/internal/activity"
	"github.com/timzinin/zinin-corp/internal/connectors/tribute"
	"github.com/timzinin/zinin-corp/internal/metrics"
	"github.com/timzinin/zinin-corp/internal/ratemonitor"
	"github.com/timzinin/zinin-corp/internal/revenue"
	"github.com/timzinin/zinin-corp/internal/taskpool"
)

const ssePollInterval = 3 * time.Second

// Deps - источники данных панели.
type Deps struct {
	Activity *activity.Tracker
	Rates    *ratemonitor.Monitor
	Pool     *taskpool.Pool
	Revenue  *revenue.Tracker
	Tribute  *tribute.Store
	Keys     tribute.Keys
	Notifier *Notifier // nil = без уведомлений о подписках
	Metrics  *metrics.Metrics
}

// Server отдаёт состояние корпорации по HTTP.
type Server struct {
	addr      string
	deps      Deps
	logger    *zap.Logger
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

func NewServer(addr string, deps Deps, logger *zap.Logger) *Server {
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		deps:   deps,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/snapshot", s.handleSnapshot)
	r.GET("/api/agents", s.handleAgents)
	r.GET("/api/events", s.handleEvents)
	r.GET("/api/stream", s.handleStream)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/webhooks/tribute", s.handleTributeWebhook)

	return r
}

// Start запускает сервер в фоне.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	s.logger.Info("monitor server started", zap.String("addr", s.addr))

	go s.server.Serve(listener)
	return nil
}

// Stop останавливает сервер, обрывая SSE-потоки.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.buildSnapshot())
}

func (s *Server) handleAgents(c *gin.Context) {
	c.JSON(http.StatusOK, s.agentViews())
}

func (s *Server) handleEvents(c *gin.Context) {
	hours := queryInt(c, "hours", 24)
	limit := queryInt(c, "limit", 50)
	events := s.deps.Activity.RecentEvents(hours, limit)
	if events == nil {
		events = []activity.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// handleStream - SSE: каждые 3 секунды сверяем хеш снапшота и шлём
// событие update только при изменениях.
func (s *Server) handleStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(ssePollInterval)
	defer ticker.Stop()

	lastHash := ""
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			snap := s.buildSnapshot()
			raw, err := json.Marshal(snap)
			if err != nil {
				s.logger.Warn("snapshot marshal failed", zap.Error(err))
				continue
			}
			hash := fmt.Sprintf("%x", md5.Sum(raw))
			if hash == lastHash {
				continue
			}
			lastHash = hash
			c.SSEvent("update", string(raw))
			c.Writer.Flush()
		}
	}
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
