package frontend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// ProcessLookbackDays and ProcessLimit bound a pass triggered over HTTP
const (
	ProcessLookbackDays = 1
	ProcessLimit        = 20
)

// HealthInfo describes the wiring reported by the health endpoint
type HealthInfo struct {
	Store      string
	MailSource string
	Backends   []string
}

// ApplicationView is the JSON form of a record
type ApplicationView struct {
	Company         string `json:"company"`
	Role            string `json:"role"`
	Status          string `json:"status"`
	AppliedDate     string `json:"applied_date"`
	LastUpdated     string `json:"last_updated"`
	EmailSubject    string `json:"email_subject"`
	DetectionReason string `json:"detection_reason"`
	ActionLink      string `json:"action_link"`
}

// HTTPServer serves the dashboard JSON API
type HTTPServer struct {
	service    *core.TrackerService
	store      core.RecordStore
	info       HealthInfo
	logger     *zap.Logger
	listenAddr string
	engine     *gin.Engine
	server     *http.Server
}

// NewHTTPServer creates a new JSON API server
func NewHTTPServer(service *core.TrackerService, store core.RecordStore, info HealthInfo, listenAddr string, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		service:    service,
		store:      store,
		info:       info,
		logger:     logger,
		listenAddr: listenAddr,
		engine:     gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *HTTPServer) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/applications", s.applications)
		api.GET("/stats", s.stats)
		// GET is kept for cron callers
		api.GET("/process", s.process)
		api.POST("/process", s.process)
	}
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Handler returns the router, for tests and embedding
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Name identifies the server in logs
func (s *HTTPServer) Name() string {
	return "http"
}

// Start starts listening in the background
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP API starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (s *HTTPServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) health(c *gin.Context) {
	backends := s.info.Backends
	if backends == nil {
		backends = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   time.Now().Format(time.RFC3339),
		"store":       s.info.Store,
		"mail_source": s.info.MailSource,
		"backends":    backends,
	})
}

func (s *HTTPServer) applications(c *gin.Context) {
	records, err := s.store.List(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list applications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, DashboardApplications(records))
}

func (s *HTTPServer) stats(c *gin.Context) {
	stats, err := s.service.Statistics(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to compute statistics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"total": stats.Total}
	for status, n := range stats.ByStatus {
		body[string(status)] = n
	}
	c.JSON(http.StatusOK, body)
}

func (s *HTTPServer) process(c *gin.Context) {
	summary, err := s.service.RunPass(c.Request.Context(),
		core.FetchQuery{LookbackDays: ProcessLookbackDays, Limit: ProcessLimit}, false)
	if err != nil {
		s.logger.Error("Triggered pass failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}

	details := []string{}
	for _, o := range summary.Outcomes {
		if o.Decision == nil || !o.Decision.Applied {
			continue
		}
		details = append(details, fmt.Sprintf("%s - %s: %s", o.Result.Company, o.Result.Role, o.Result.Status))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"pass_id":   summary.ID,
		"processed": len(details),
		"details":   details,
		"message":   fmt.Sprintf("Processed %d updates from last %d days", len(details), ProcessLookbackDays),
	})
}

var (
	unknownCompanies = map[string]bool{"unknown": true, "unknown company": true, "": true}
	unknownRoles     = map[string]bool{"unknown": true, "unknown position": true, "": true, "unspecified": true}
)

// DashboardApplications drops records with neither a known company nor a known role and
// orders the rest by applied date, newest first
func DashboardApplications(records []*core.ApplicationRecord) []ApplicationView {
	kept := make([]*core.ApplicationRecord, 0, len(records))
	for _, rec := range records {
		company := strings.ToLower(strings.TrimSpace(rec.Company))
		role := strings.ToLower(strings.TrimSpace(rec.Role))
		if unknownCompanies[company] && unknownRoles[role] {
			continue
		}
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].AppliedDate.After(kept[j].AppliedDate)
	})

	views := make([]ApplicationView, 0, len(kept))
	for _, rec := range kept {
		views = append(views, ApplicationView{
			Company:         rec.Company,
			Role:            rec.Role,
			Status:          string(rec.Status),
			AppliedDate:     formatTime(rec.AppliedDate, core.DateLayout),
			LastUpdated:     formatTime(rec.LastUpdated, core.TimestampLayout),
			EmailSubject:    rec.EmailSubject,
			DetectionReason: rec.DetectionReason,
			ActionLink:      rec.ActionLink,
		})
	}
	return views
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
