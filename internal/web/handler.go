// Package web serves the question form and its JSON counterparts.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/insights/internal/agent"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Query    string
	Response string
	Failed   bool
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse carries the agent's answer verbatim.
type AskResponse struct {
	Response string `json:"response"`
}

// ToolRequest is the body of POST /api/v1/tools/:name.
type ToolRequest struct {
	Input string `json:"input"`
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Handler struct {
	agent    agent.Agent
	registry *agent.Registry
	logger   zerolog.Logger
}

func NewHandler(a agent.Agent, registry *agent.Registry, logger zerolog.Logger) *Handler {
	return &Handler{agent: a, registry: registry, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.GET("/", h.Index)
	e.POST("/", h.Submit)

	api.POST("/ask", h.Ask)
	api.GET("/tools", h.ListTools)
	api.POST("/tools/:name", h.InvokeTool)
}

// -- Form Handlers --

func (h *Handler) Index(c echo.Context) error {
	return h.render(c, http.StatusOK, pageData{})
}

// Submit runs the agent on the submitted text. An empty query only redraws
// the form.
func (h *Handler) Submit(c echo.Context) error {
	query := c.FormValue("query")
	if strings.TrimSpace(query) == "" {
		return h.render(c, http.StatusOK, pageData{Query: query})
	}

	resp, err := h.agent.Run(c.Request().Context(), query, h.registry.Tools())
	if err != nil {
		h.logFailure(c, err)
		return h.render(c, http.StatusInternalServerError, pageData{Query: query, Failed: true})
	}
	return h.render(c, http.StatusOK, pageData{Query: query, Response: resp})
}

func (h *Handler) render(c echo.Context, status int, data pageData) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page")
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// -- API Handlers --

func (h *Handler) Ask(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	resp, err := h.agent.Run(c.Request().Context(), req.Query, h.registry.Tools())
	if err != nil {
		h.logFailure(c, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "agent failed to answer")
	}
	return c.JSON(http.StatusOK, AskResponse{Response: resp})
}

func (h *Handler) ListTools(c echo.Context) error {
	tools := h.registry.Tools()
	out := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolInfo{Name: t.Name, Description: t.Description})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) InvokeTool(c echo.Context) error {
	var req ToolRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	name := c.Param("name")
	resp, err := h.registry.Invoke(c.Request().Context(), name, req.Input)
	if errors.Is(err, agent.ErrUnknownTool) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown tool: "+name)
	}
	if err != nil {
		h.logFailure(c, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "tool failed")
	}
	return c.JSON(http.StatusOK, AskResponse{Response: resp})
}

func (h *Handler) logFailure(c echo.Context, err error) {
	ev := h.logger.Error().Err(err).Str("path", c.Path())
	if rid, ok := c.Get("request_id").(string); ok {
		ev = ev.Str("request_id", rid)
	}
	if errors.Is(err, agent.ErrMaxIterations) {
		ev = ev.Bool("iteration_limit", true)
	}
	ev.Msg("request failed")
}
