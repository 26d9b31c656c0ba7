package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
	"github.com/meltforce/paceline/internal/storage"
)

// HTTPClient implements DataSource by calling the Paceline REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNotFound distinguishes a 404 from a real transport failure so
// getters can report "no such row" as (nil, nil), matching storage.DB.
var errNotFound = errors.New("not found")

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) GetAthlete(ctx context.Context, id int) (*models.AthleteRow, error) {
	body, err := c.get(ctx, "/api/v1/athletes/"+strconv.Itoa(id), nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var a models.AthleteRow
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("httpclient: decode athlete: %w", err)
	}
	return &a, nil
}

func (c *HTTPClient) SchemeForAthlete(ctx context.Context, athleteID int, fallback plan.ZoneScheme) (plan.ZoneScheme, error) {
	body, err := c.get(ctx, "/api/v1/athletes/"+strconv.Itoa(athleteID)+"/zones", nil)
	if errors.Is(err, errNotFound) {
		return fallback, nil
	}
	if err != nil {
		return plan.ZoneScheme{}, err
	}

	var resp struct {
		Scheme plan.ZoneScheme `json:"scheme"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return plan.ZoneScheme{}, fmt.Errorf("httpclient: decode zones: %w", err)
	}
	if len(resp.Scheme.Power) == 0 {
		return fallback, nil
	}
	return resp.Scheme, nil
}

func (c *HTTPClient) GetTemplate(ctx context.Context, id uuid.UUID) (*models.WorkoutTemplateRow, error) {
	body, err := c.get(ctx, "/api/v1/workouts/"+id.String(), nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var t models.WorkoutTemplateRow
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("httpclient: decode workout: %w", err)
	}
	return &t, nil
}

func (c *HTTPClient) ListTemplates(ctx context.Context, sport string) ([]models.WorkoutTemplateRow, error) {
	params := url.Values{}
	if sport != "" {
		params.Set("sport", sport)
	}

	body, err := c.get(ctx, "/api/v1/workouts", params)
	if err != nil {
		return nil, err
	}

	var templates []models.WorkoutTemplateRow
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return templates, nil
}

func (c *HTTPClient) QuerySchedule(ctx context.Context, athleteID int, start, end time.Time) ([]models.ScheduledWorkoutRow, error) {
	params := timeParams(start, end)
	params.Set("athlete", strconv.Itoa(athleteID))

	body, err := c.get(ctx, "/api/v1/schedule", params)
	if err != nil {
		return nil, err
	}

	var entries []models.ScheduledWorkoutRow
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("httpclient: decode schedule: %w", err)
	}
	return entries, nil
}

func (c *HTTPClient) GetScheduledWorkout(ctx context.Context, id uuid.UUID) (*models.ScheduledWorkoutRow, error) {
	body, err := c.get(ctx, "/api/v1/schedule/"+id.String(), nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sw models.ScheduledWorkoutRow
	if err := json.Unmarshal(body, &sw); err != nil {
		return nil, fmt.Errorf("httpclient: decode scheduled workout: %w", err)
	}
	return &sw, nil
}

func (c *HTTPClient) ResolveStructure(ctx context.Context, sw *models.ScheduledWorkoutRow) (*plan.Structure, error) {
	if sw.StructureOverride != nil {
		return sw.StructureOverride, nil
	}
	if sw.TemplateID == nil {
		return nil, nil
	}
	tpl, err := c.GetTemplate(ctx, *sw.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, nil
	}
	return tpl.Structure, nil
}

func (c *HTTPClient) QueryWeeklyLoad(ctx context.Context, athleteID int, start, end time.Time) ([]storage.WeeklyLoad, error) {
	params := timeParams(start, end)
	params.Set("athlete", strconv.Itoa(athleteID))

	body, err := c.get(ctx, "/api/v1/schedule/load", params)
	if err != nil {
		return nil, err
	}

	var weeks []storage.WeeklyLoad
	if err := json.Unmarshal(body, &weeks); err != nil {
		return nil, fmt.Errorf("httpclient: decode weekly load: %w", err)
	}
	return weeks, nil
}
