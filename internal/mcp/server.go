package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/paceline/internal/plan"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, defaultScheme plan.ZoneScheme, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Paceline", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Paceline training plan server. Preview structured workouts, inspect athlete schedules and planned load, and map power targets to heart-rate zones."),
	)

	h := &handlers{ds: ds, defaultScheme: defaultScheme, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolPreviewWorkout, Handler: h.previewWorkout},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetSchedule, Handler: h.getSchedule},
		server.ServerTool{Tool: toolGetWorkoutSegments, Handler: h.getWorkoutSegments},
		server.ServerTool{Tool: toolHRZoneForPower, Handler: h.hrZoneForPower},
		server.ServerTool{Tool: toolGetWeeklyLoad, Handler: h.getWeeklyLoad},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resWorkoutCatalog, Handler: h.workoutCatalog},
		server.ServerResource{Resource: resZoneReference, Handler: h.zoneReference},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds            DataSource
	defaultScheme plan.ZoneScheme
	log           *slog.Logger
}

// --- Resource definitions ---

var resWorkoutCatalog = mcp.NewResource(
	"paceline://workout_catalog",
	"Workout Catalog",
	mcp.WithResourceDescription("All workout templates with planned TSS, intensity factor, and duration"),
	mcp.WithMIMEType("application/json"),
)

var resZoneReference = mcp.NewResource(
	"paceline://zone_reference",
	"Zone Reference",
	mcp.WithResourceDescription("The default training zone scheme: power bands (percent of FTP) paired with heart-rate bands (percent of max HR)"),
	mcp.WithMIMEType("application/json"),
)
