package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/hevy"
	"github.com/gymkit/hevymcp/logger"
	"github.com/gymkit/hevymcp/search"
)

// Tool names
const (
	ToolSearchExerciseTemplates = "search-exercise-templates"
	ToolGetExerciseTemplate     = "get-exercise-template"
	ToolGetExerciseTemplates    = "get-exercise-templates"
	ToolGetCatalogStats         = "get-catalog-stats"
)

const (
	defaultPageSize = 20
	maxPageSize     = hevy.MaxPageSize
)

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	searchTool := mcp.NewTool(ToolSearchExerciseTemplates,
		mcp.WithDescription("Search exercise templates by name in English or Spanish (e.g. \"bench press\", \"press de banca\", \"sentadilla\"). "+
			"Returns the best matches with their exerciseTemplateId and a 0-100 relevance score."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Exercise name or part of it, English or Spanish"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (1-%d, default %d)", search.MaxLimit, s.defaultLimit)),
			mcp.DefaultNumber(float64(s.defaultLimit)),
			mcp.Min(1),
			mcp.Max(search.MaxLimit),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(searchTool, s.handleSearch)

	getTool := mcp.NewTool(ToolGetExerciseTemplate,
		mcp.WithDescription("Get a single exercise template by its 8 character id"),
		mcp.WithString("exerciseTemplateId",
			mcp.Required(),
			mcp.Description("Exercise template id, 8 hexadecimal characters (e.g. 79D0BB3A)"),
			mcp.Pattern("^[0-9A-Fa-f]{8}$"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(getTool, s.handleGetTemplate)

	listTool := mcp.NewTool(ToolGetExerciseTemplates,
		mcp.WithDescription("List exercise templates from the local catalog, one page at a time"),
		mcp.WithNumber("page",
			mcp.Description("Page number, starting at 1"),
			mcp.DefaultNumber(1),
			mcp.Min(1),
		),
		mcp.WithNumber("pageSize",
			mcp.Description(fmt.Sprintf("Templates per page (1-%d, default %d)", maxPageSize, defaultPageSize)),
			mcp.DefaultNumber(defaultPageSize),
			mcp.Min(1),
			mcp.Max(maxPageSize),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(listTool, s.handleListTemplates)

	statsTool := mcp.NewTool(ToolGetCatalogStats,
		mcp.WithDescription("Summarise the local exercise catalog: counts, Spanish translation coverage, muscle groups, equipment and last update"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(statsTool, s.handleStats)
}

// withRequestLogging tags each tool call with a request id and logs its outcome
func (s *Server) withRequestLogging(next mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
		start := time.Now()

		result, err := next(ctx, request)
		elapsed := time.Since(start)

		fields := []interface{}{
			logger.FieldRequestID, requestID,
			logger.FieldTool, request.Params.Name,
			logger.FieldDurationMS, elapsed.Milliseconds(),
		}
		status := "ok"
		switch {
		case err != nil:
			status = "failed"
			s.logger.Errorw("Tool call failed", append(fields, logger.FieldError, err)...)
		case result != nil && result.IsError:
			status = "error"
			s.logger.Infow("Tool call returned error", append(fields, logger.FieldStatus, status)...)
		default:
			s.logger.Debugw("Tool call completed", append(fields, logger.FieldStatus, status)...)
		}
		s.metrics.ObserveToolCall(request.Params.Name, status, elapsed)
		return result, err
	}
}

// handleSearch handles search-exercise-templates tool calls
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", s.defaultLimit)

	resp, err := s.ranker.SearchSnapshot(query, limit, s.store.Snapshot())
	if err != nil {
		return toolError(err), nil
	}
	s.metrics.SearchResults.Observe(float64(len(resp.Results)))

	logger.LoggerFromContext(ctx).Debugw("Exercise search",
		logger.FieldQuery, query,
		logger.FieldTranslatedQuery, resp.TranslatedQuery,
		logger.FieldLimit, limit,
		logger.FieldCount, len(resp.Results))

	return jsonResult(resp)
}

// exerciseTemplate is the camelCase view of a template returned by the tools
type exerciseTemplate struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title"`
	SpanishTitle          string   `json:"spanishTitle,omitempty"`
	Type                  string   `json:"type,omitempty"`
	PrimaryMuscleGroup    string   `json:"primaryMuscleGroup,omitempty"`
	SecondaryMuscleGroups []string `json:"secondaryMuscleGroups,omitempty"`
	Equipment             string   `json:"equipment,omitempty"`
	IsCustom              bool     `json:"isCustom"`
	Source                string   `json:"source,omitempty"` // "catalog" or "api"
}

func newExerciseTemplate(rec catalog.ExerciseRecord, spanish, source string) exerciseTemplate {
	return exerciseTemplate{
		ID:                    rec.ID,
		Title:                 rec.Title,
		SpanishTitle:          spanish,
		Type:                  rec.Type,
		PrimaryMuscleGroup:    rec.PrimaryMuscleGroup,
		SecondaryMuscleGroups: rec.SecondaryMuscleGroups,
		Equipment:             rec.Equipment,
		IsCustom:              rec.IsCustom,
		Source:                source,
	}
}

// handleGetTemplate handles get-exercise-template tool calls. The local
// catalog is consulted first; the Hevy API is only asked for ids it lacks.
func (s *Server) handleGetTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("exerciseTemplateId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !catalog.IsValidExerciseTemplateID(id) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Invalid exerciseTemplateId %q: expected 8 hexadecimal characters (e.g. 79D0BB3A). "+
				"Use %s to find the id of an exercise.", id, ToolSearchExerciseTemplates)), nil
	}

	snap := s.store.Snapshot()
	if rec, ok := snap.Lookup(id); ok {
		return jsonResult(newExerciseTemplate(rec, snap.SpanishTitle(rec.ID), "catalog"))
	}

	if s.hevy == nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Exercise template %s is not in the local catalog. Use %s to find a valid id.",
			id, ToolSearchExerciseTemplates)), nil
	}

	log := logger.LoggerFromContext(ctx)
	log.Debugw("Template not in catalog, asking Hevy API", logger.FieldExerciseTemplateID, id)

	tmpl, err := s.hevy.GetExerciseTemplate(ctx, id)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Exercise template %s does not exist. Use %s to find a valid id.",
				id, ToolSearchExerciseTemplates)), nil
		}
		log.Warnw("Hevy API lookup failed",
			logger.FieldExerciseTemplateID, id,
			logger.FieldError, err)
		return toolError(err), nil
	}

	rec := catalog.FromTemplate(*tmpl)
	return jsonResult(newExerciseTemplate(rec, snap.SpanishTitle(rec.ID), "api"))
}

// templatePage is the get-exercise-templates response
type templatePage struct {
	Page              int                `json:"page"`
	PageSize          int                `json:"pageSize"`
	PageCount         int                `json:"pageCount"`
	Total             int                `json:"total"`
	ExerciseTemplates []exerciseTemplate `json:"exerciseTemplates"`
}

// handleListTemplates handles get-exercise-templates tool calls
func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := request.GetInt("page", 1)
	pageSize := request.GetInt("pageSize", defaultPageSize)
	if page < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("page must be at least 1, got %d", page)), nil
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return mcp.NewToolResultError(fmt.Sprintf("pageSize must be between 1 and %d, got %d", maxPageSize, pageSize)), nil
	}

	snap := s.store.Snapshot()
	total := snap.Len()
	out := templatePage{
		Page:              page,
		PageSize:          pageSize,
		PageCount:         (total + pageSize - 1) / pageSize,
		Total:             total,
		ExerciseTemplates: []exerciseTemplate{},
	}

	start := (page - 1) * pageSize
	if start < total {
		end := min(start+pageSize, total)
		for _, rec := range snap.Records[start:end] {
			out.ExerciseTemplates = append(out.ExerciseTemplates, newExerciseTemplate(rec, snap.SpanishTitle(rec.ID), ""))
		}
	}
	return jsonResult(out)
}

// catalogStats is the get-catalog-stats response
type catalogStats struct {
	catalog.Stats
	LoadError string `json:"loadError,omitempty"`
	Hint      string `json:"hint,omitempty"`
}

// handleStats handles get-catalog-stats tool calls
func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := catalogStats{Stats: catalog.ComputeStats(s.store.Snapshot())}
	if err := s.store.Err(); err != nil {
		out.LoadError = err.Error()
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			out.Hint = hints[0]
		}
	}
	return jsonResult(out)
}

// toolError turns err into a tool-level error result, appending any hints
func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if errors.IsUnauthorizedError(err) {
		msg = "Hevy API rejected the API key: " + msg
	}
	if hint := errors.FlattenHints(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return mcp.NewToolResultError(msg)
}
