package seedapp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Version       string   `json:"version"`
	Features      []string `json:"features"`
	LastEvolution *string  `json:"last_evolution"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message":     "Welcome to the AI Seed Application!",
		"description": "This application evolves through AI agent contributions",
		"docs":        "/docs",
		"health":      "/health",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Timestamp: s.now(), Version: AppVersion})
}

func (s *Server) handleInfo(c echo.Context) error {
	ctx := c.Request().Context()
	features, err := s.store.Features(ctx)
	if err != nil {
		return err
	}
	entries, err := s.store.EvolutionLog(ctx)
	if err != nil {
		return err
	}

	info := InfoResponse{Name: AppName, Description: AppDescription, Version: AppVersion, Features: features}
	if n := len(entries); n > 0 {
		last := entries[n-1].Timestamp.Format(time.RFC3339Nano)
		info.LastEvolution = &last
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleGetEvolutionLog(c echo.Context) error {
	entries, err := s.store.EvolutionLog(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// evolutionEntryRequest is the POST /evolution-log body. Pointers tell a
// missing field apart from a zero value.
type evolutionEntryRequest struct {
	Timestamp    *time.Time `json:"timestamp"`
	IssueNumber  *int       `json:"issue_number"`
	Description  *string    `json:"description"`
	AgentSummary *string    `json:"agent_summary"`
	Status       *string    `json:"status"`
}

func (s *Server) handleAddEvolutionEntry(c echo.Context) error {
	var req evolutionEntryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if msg := validateEntry(req); msg != "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg)
	}
	entry := EvolutionLogEntry{
		ID:           uuid.NewString(),
		Timestamp:    *req.Timestamp,
		IssueNumber:  *req.IssueNumber,
		Description:  *req.Description,
		AgentSummary: *req.AgentSummary,
		Status:       *req.Status,
	}

	if err := s.store.AppendEvolution(c.Request().Context(), entry); err != nil {
		return err
	}
	s.metrics.evolutionEntries.Inc()
	s.logger.Info("Added evolution entry.", zap.Int("issue", entry.IssueNumber), zap.String("id", entry.ID))

	return c.JSON(http.StatusOK, map[string]string{
		"message":      "Evolution entry added successfully",
		"issue_number": strconv.Itoa(entry.IssueNumber),
		"id":           entry.ID,
	})
}

// validateEntry reports missing fields. Any value that decodes is accepted.
func validateEntry(e evolutionEntryRequest) string {
	var missing []string
	if e.Timestamp == nil {
		missing = append(missing, "timestamp")
	}
	if e.IssueNumber == nil {
		missing = append(missing, "issue_number")
	}
	if e.Description == nil {
		missing = append(missing, "description")
	}
	if e.AgentSummary == nil {
		missing = append(missing, "agent_summary")
	}
	if e.Status == nil {
		missing = append(missing, "status")
	}
	if len(missing) == 0 {
		return ""
	}
	return "Missing or invalid fields: " + strings.Join(missing, ", ")
}

func (s *Server) handleGetFeatures(c echo.Context) error {
	features, err := s.store.Features(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, features)
}

func (s *Server) handleAddFeature(c echo.Context) error {
	var body map[string]string
	if err := c.Bind(&body); err != nil {
		return err
	}
	name := body["name"]
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Feature name is required")
	}

	added, err := s.store.AddFeature(c.Request().Context(), name)
	if err != nil {
		return err
	}
	if !added {
		return c.JSON(http.StatusOK, map[string]string{"message": "Feature already exists", "feature": name})
	}

	s.metrics.featuresAdded.Inc()
	s.logger.Info("Added new feature.", zap.String("feature", name))
	return c.JSON(http.StatusOK, map[string]string{"message": "Feature added successfully", "feature": name})
}
