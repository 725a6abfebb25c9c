// Package server exposes the engine over HTTP/JSON. Every route except
// health requires a bearer JWT whose subject is the owner id.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/constants"
	"github.com/julianstephens/lifeplan/internal/engine"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/logger"
	"github.com/julianstephens/lifeplan/internal/models"
	"github.com/julianstephens/lifeplan/internal/planner"
)

// Config for the HTTP API handler.
type Config struct {
	Engine    engine.Engine
	BasePath  string
	JWTSecret string
	// Today resolves a request without a date. Defaults to the server's
	// local date.
	Today func() calendar.Date
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"activity 42 not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError is the error envelope every failure is rendered with.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type api struct {
	engine engine.Engine
	today  func() calendar.Date
}

// New returns an HTTP handler exposing the lifeplan API.
func New(cfg Config) (http.Handler, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("server requires a JWT secret (server.jwt_secret, LIFEPLAN_SERVER_JWT_SECRET or the keyring)")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = constants.DefaultServerBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	today := cfg.Today
	if today == nil {
		today = func() calendar.Date { return calendar.Today(time.Local) }
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)
	router.Use(newAuthMiddleware(basePath, cfg.JWTSecret))

	hcfg := huma.DefaultConfig("lifeplan API", constants.Version)
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = ""
	humaAPI := humachi.New(router, hcfg)
	group := huma.NewGroup(humaAPI, basePath)

	a := &api{engine: cfg.Engine, today: today}
	registerHealth(group)
	a.registerActivities(group)
	a.registerCompletions(group)
	a.registerViews(group)

	return router, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps error kinds onto statuses. Upstream failures are 502
// since the API itself is healthy.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	case apperr.KindNotFound:
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case apperr.KindUnauthorized:
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), nil)
	case apperr.KindConflict:
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	default:
		logger.Error("Request failed", "error", err)
		return newAPIError(http.StatusBadGateway, "upstream_error", "storage unavailable", nil)
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func (a *api) date(s string) (calendar.Date, huma.StatusError) {
	if strings.TrimSpace(s) == "" {
		return a.today(), nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return calendar.Date{}, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": "date"})
	}
	return d, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type activityPath struct {
	ID string `path:"id"`
}

type activityOutput struct {
	Body ActivityResponse `json:"body"`
}

type completionOutput struct {
	Body CompletionResponse `json:"body"`
}

func (a *api) registerActivities(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activities",
		Method:      http.MethodGet,
		Path:        "/activities",
		Summary:     "List activities",
	}, func(ctx context.Context, input *struct {
		IncludeArchived bool `query:"include_archived"`
	}) (*struct {
		Body []ActivityResponse `json:"body"`
	}, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		activities, err := a.engine.ListActivities(ctx, owner, input.IncludeArchived)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body []ActivityResponse `json:"body"`
		}{Body: make([]ActivityResponse, len(activities))}
		for i, act := range activities {
			out.Body[i] = toActivityResponse(act)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-activity",
		Method:        http.MethodPost,
		Path:          "/activities",
		Summary:       "Create activity",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Body CreateActivityRequest `json:"body"`
	}) (*activityOutput, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		created, err := a.engine.CreateActivity(ctx, nil, owner, input.Body.activity())
		if err != nil {
			return nil, handleError(err)
		}
		return &activityOutput{Body: toActivityResponse(created)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-activity",
		Method:      http.MethodGet,
		Path:        "/activities/{id}",
		Summary:     "Get activity",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *activityPath) (*activityOutput, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		act, err := a.engine.GetActivity(ctx, owner, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &activityOutput{Body: toActivityResponse(act)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-activity",
		Method:      http.MethodPatch,
		Path:        "/activities/{id}",
		Summary:     "Update activity",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body UpdateActivityRequest `json:"body"`
	}) (*activityOutput, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		updated, err := a.engine.UpdateActivity(ctx, nil, owner, input.ID, input.Body.patch())
		if err != nil {
			return nil, handleError(err)
		}
		return &activityOutput{Body: toActivityResponse(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-activity",
		Method:        http.MethodDelete,
		Path:          "/activities/{id}",
		Summary:       "Delete activity and its completions",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound, http.StatusBadGateway},
	}, func(ctx context.Context, input *activityPath) (*struct{}, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := a.engine.DeleteActivity(ctx, nil, owner, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func (a *api) registerCompletions(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "toggle-completion",
		Method:      http.MethodPost,
		Path:        "/activities/{id}/toggle",
		Summary:     "Toggle completion for a date",
		Description: "On 409 the stored completion is returned in error.details.completion.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body DateRequest `json:"body"`
	}) (*completionOutput, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, dateErr := a.date(input.Body.Date)
		if dateErr != nil {
			return nil, dateErr
		}
		saved, err := a.engine.Toggle(ctx, nil, owner, input.ID, d)
		if err != nil {
			return nil, completionError(saved, err)
		}
		return &completionOutput{Body: toCompletionResponse(saved)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-completion-notes",
		Method:      http.MethodPut,
		Path:        "/activities/{id}/notes",
		Summary:     "Set completion notes for a date",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		ID   string       `path:"id"`
		Body NotesRequest `json:"body"`
	}) (*completionOutput, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, dateErr := a.date(input.Body.Date)
		if dateErr != nil {
			return nil, dateErr
		}
		saved, err := a.engine.SetNotes(ctx, nil, owner, input.ID, d, input.Body.Notes)
		if err != nil {
			return nil, completionError(saved, err)
		}
		return &completionOutput{Body: toCompletionResponse(saved)}, nil
	})
}

// completionError carries the stored completion with a Conflict so the
// client can replace its local state.
func completionError(saved models.Completion, err error) huma.StatusError {
	if apperr.Is(err, apperr.KindConflict) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), map[string]any{
			"completion": toCompletionResponse(saved),
		})
	}
	return handleError(err)
}

func (a *api) registerViews(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "view-window",
		Method:      http.MethodGet,
		Path:        "/window",
		Summary:     "Due activities across a day, week, month or once window",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Mode string `query:"mode" enum:"day,week,month,once" default:"week"`
		Date string `query:"date" doc:"Focus date, YYYY-MM-DD; defaults to today"`
	}) (*struct {
		Body WindowResponse `json:"body"`
	}, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		mode, err := planner.ParseViewMode(input.Mode)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"field": "mode"})
		}
		focus, dateErr := a.date(input.Date)
		if dateErr != nil {
			return nil, dateErr
		}
		v, err := a.engine.LoadView(ctx, owner, mode, focus)
		if err != nil {
			return nil, handleError(err)
		}
		var completions []models.Completion
		for _, act := range v.Store.Activities() {
			completions = append(completions, v.Store.Completions(act.ID)...)
		}
		days := planner.DueInWindow(v.Window, v.Store.Activities(), completions)
		return &struct {
			Body WindowResponse `json:"body"`
		}{Body: toWindowResponse(v.Window, days)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "due-on-date",
		Method:      http.MethodGet,
		Path:        "/due",
		Summary:     "Activities due on a date with the completion rate",
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Date          string `query:"date" doc:"YYYY-MM-DD; defaults to today"`
		Domain        string `query:"domain"`
		Goal          string `query:"goal"`
		Uncategorized bool   `query:"uncategorized"`
	}) (*struct {
		Body DueResponse `json:"body"`
	}, error) {
		owner, authErr := ownerFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		d, dateErr := a.date(input.Date)
		if dateErr != nil {
			return nil, dateErr
		}
		v, err := a.engine.LoadView(ctx, owner, planner.ModeDay, d)
		if err != nil {
			return nil, handleError(err)
		}
		switch {
		case input.Domain != "":
			v.Store.SetFilter(models.ByDomain(input.Domain))
		case input.Goal != "":
			v.Store.SetFilter(models.ByGoal(input.Goal))
		case input.Uncategorized:
			v.Store.SetFilter(models.Uncategorized())
		}

		due := v.Store.ActivitiesDueOn(d)
		rate := v.Store.CompletionRate(d)
		resp := DueResponse{Date: d.String(), Completed: rate.Completed, Total: rate.Total, Items: make([]DueItemResponse, len(due))}
		for i, act := range due {
			resp.Items[i] = DueItemResponse{Activity: toActivityResponse(act), Completed: v.Store.CompletedOn(act.ID, d)}
		}
		return &struct {
			Body DueResponse `json:"body"`
		}{Body: resp}, nil
	})
}
