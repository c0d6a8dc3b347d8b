package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/insights/internal/agent"
)

type stubAgent struct {
	response string
	err      error
	inputs   []string
}

func (s *stubAgent) Run(_ context.Context, input string, _ []agent.Tool) (string, error) {
	s.inputs = append(s.inputs, input)
	return s.response, s.err
}

func newTestHandler(a *stubAgent) (*Handler, *echo.Echo) {
	registry := agent.NewRegistry(agent.Tool{
		Name:        "QueryVisits",
		Description: "Fetch hospital visit summaries.",
		Invoke: func(_ context.Context, input string) (string, error) {
			if input == "boom" {
				return "", errors.New("store down")
			}
			return "visits for " + input, nil
		},
	})
	h := NewHandler(a, registry, zerolog.Nop())
	return h, echo.New()
}

func formRequest(query string) *http.Request {
	form := url.Values{"query": {query}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestHandler_Index(t *testing.T) {
	h, e := newTestHandler(&stubAgent{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Index(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Healthcare Insights Assistant", "Run Agent", "Summarize patient 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(body, "Agent Response") {
		t.Error("expected no response section on an empty form")
	}
}

func TestHandler_Submit(t *testing.T) {
	a := &stubAgent{response: "Patient 1 has <no> risks"}
	h, e := newTestHandler(a)

	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("Summarize patient 1"), rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if len(a.inputs) != 1 || a.inputs[0] != "Summarize patient 1" {
		t.Errorf("expected query forwarded verbatim, got %v", a.inputs)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Agent Response") {
		t.Error("expected response section")
	}
	if !strings.Contains(body, "Patient 1 has &lt;no&gt; risks") {
		t.Errorf("expected escaped response text, got:\n%s", body)
	}
}

func TestHandler_Submit_EmptyQuery(t *testing.T) {
	a := &stubAgent{response: "unused"}
	h, e := newTestHandler(a)

	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("   "), rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.inputs) != 0 {
		t.Error("expected agent not to run for an empty query")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Submit_AgentFailure(t *testing.T) {
	a := &stubAgent{err: agent.ErrMaxIterations}
	h, e := newTestHandler(a)

	rec := httptest.NewRecorder()
	c := e.NewContext(formRequest("loop"), rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "could not answer") {
		t.Error("expected generic failure message")
	}
	if strings.Contains(body, "iteration") {
		t.Error("expected internal error details to stay hidden")
	}
}

func TestHandler_Ask(t *testing.T) {
	a := &stubAgent{response: "No major risk indicators"}
	h, e := newTestHandler(a)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"query":"risks for patient 2"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Ask(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "No major risk indicators" {
		t.Errorf("unexpected response: %q", resp.Response)
	}
}

func TestHandler_Ask_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		agent  *stubAgent
		status int
	}{
		{"empty query", `{"query":""}`, &stubAgent{}, http.StatusBadRequest},
		{"malformed body", `{"query":`, &stubAgent{}, http.StatusBadRequest},
		{"agent failure", `{"query":"patient 1"}`, &stubAgent{err: errors.New("upstream")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e := newTestHandler(tt.agent)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())

			err := h.Ask(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if he.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, he.Code)
			}
		})
	}
}

func TestHandler_ListTools(t *testing.T) {
	h, e := newTestHandler(&stubAgent{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil), rec)

	if err := h.ListTools(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var tools []ToolInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tools); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "QueryVisits" {
		t.Errorf("unexpected tools: %+v", tools)
	}
}

func TestHandler_InvokeTool(t *testing.T) {
	h, e := newTestHandler(&stubAgent{})

	invoke := func(name, body string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/"+name, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("name")
		c.SetParamValues(name)
		return rec, h.InvokeTool(c)
	}

	rec, err := invoke("QueryVisits", `{"input":"patient 3"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "visits for patient 3") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	_, err = invoke("DropTables", `{"input":"x"}`)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown tool, got %v", err)
	}

	_, err = invoke("QueryVisits", `{"input":"boom"}`)
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for tool failure, got %v", err)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler(&stubAgent{})
	api := e.Group("/api/v1")

	h.RegisterRoutes(e, api)

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}
	expected := []string{
		"GET:/",
		"POST:/",
		"POST:/api/v1/ask",
		"GET:/api/v1/tools",
		"POST:/api/v1/tools/:name",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
