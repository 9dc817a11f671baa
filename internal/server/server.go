package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"planwise/internal/agent"
	"planwise/internal/domain"
	"planwise/internal/extract"
	"planwise/internal/llm"
	"planwise/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Agent    *agent.Agent
	Store    repo.Repo
	BasePath string
	Auth     AuthConfig
	Logger   *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"backend_not_configured"`
	Message string         `json:"message" example:"generative backend not configured"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope shared by every route.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Planwise API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Planwise API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerAgent(group, cfg.Agent, log)
	registerProjects(group, cfg.Store)
	registerTasks(group, cfg.Store)
	registerSprints(group, cfg.Store)
	registerOpenAPI(router, api, basePath)

	return router, nil
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

// handleError maps agent and store failures onto the error envelope.
// The generative backend sits upstream of this service, so its
// failures surface as gateway errors rather than 500s.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var mce *agent.MissingContextError
	if errors.As(err, &mce) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		return newAPIError(http.StatusServiceUnavailable, "backend_not_configured", err.Error(), nil)
	}
	var pe *extract.ParseError
	if errors.As(err, &pe) {
		return newAPIError(http.StatusBadGateway, "extraction_failed", err.Error(), map[string]any{"raw": pe.Raw})
	}
	var be *llm.BackendError
	if errors.As(err, &be) {
		return newAPIError(http.StatusBadGateway, "backend_error", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadGateway:
		return "backend_error"
	case http.StatusServiceUnavailable:
		return "backend_not_configured"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
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

func registerAgent(api huma.API, ag *agent.Agent, log *zap.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "agent-execute",
		Method:      http.MethodPost,
		Path:        "/agent/execute",
		Summary:     "Execute a natural-language command",
		Description: "Routes the prompt to the matching capability and returns the unified response.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body agent.Request `json:"body"`
	}) (*struct {
		Body agent.Response `json:"body"`
	}, error) {
		if strings.TrimSpace(input.Body.Prompt) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "prompt is required", nil)
		}
		resp, err := ag.Execute(ctx, input.Body)
		if err != nil {
			log.Warn("agent execute failed", zap.Error(err))
			return nil, handleError(err)
		}
		return &struct {
			Body agent.Response `json:"body"`
		}{Body: *resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "agent-capabilities",
		Method:      http.MethodGet,
		Path:        "/agent/capabilities",
		Summary:     "List agent capabilities",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Capabilities []agent.CapabilityInfo `json:"capabilities"`
		} `json:"body"`
	}, error) {
		out := &struct {
			Body struct {
				Capabilities []agent.CapabilityInfo `json:"capabilities"`
			} `json:"body"`
		}{}
		out.Body.Capabilities = agent.Capabilities()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "agent-status",
		Method:      http.MethodGet,
		Path:        "/agent/status",
		Summary:     "Agent status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body agent.Status `json:"body"`
	}, error) {
		return &struct {
			Body agent.Status `json:"body"`
		}{Body: ag.Status()}, nil
	})
}

func registerProjects(api huma.API, store repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		key := input.Body.Key
		if key == "" {
			base := strings.ToUpper(input.Body.Name)
			if len(base) > 4 {
				base = base[:4]
			}
			key = fmt.Sprintf("%s%d", base, time.Now().Unix()%10000)
		}
		p := domain.Project{
			ID:        uuid.NewString(),
			Name:      input.Body.Name,
			Key:       key,
			Status:    "active",
			Category:  input.Body.Category,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if input.Body.Description != nil {
			p.Description = *input.Body.Description
		}
		if err := store.InsertProject(ctx, p); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		items, err := store.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		p, err := store.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}",
		Summary:     "Update project",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		if err := store.UpdateProject(ctx, input.ProjectID, input.Body.Status, input.Body.Description); err != nil {
			return nil, handleError(err)
		}
		p, err := store.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}",
		Summary:     "Delete project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		if err := store.DeleteProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerTasks(api huma.API, store repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string            `path:"project_id"`
		Body      CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if input.Body.Content == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "content is required", nil)
		}
		if _, err := store.GetProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		actor := anonymousActor
		if p, ok := principalFromContext(ctx); ok {
			actor = p.ActorID
		}
		priority := input.Body.Priority
		if priority == "" {
			priority = "medium"
		}
		stamp := time.Now().UTC().Format(time.RFC3339)
		task := domain.Task{
			ID:             uuid.NewString(),
			ProjectID:      input.ProjectID,
			SprintID:       input.Body.SprintID,
			ParentID:       input.Body.ParentID,
			Content:        input.Body.Content,
			Description:    input.Body.Description,
			Status:         "To Do",
			Priority:       priority,
			Assignee:       input.Body.Assignee,
			EstimatedHours: input.Body.EstimatedHours,
			Tags:           input.Body.Tags,
			CreatedBy:      actor,
			CreatedAt:      stamp,
			UpdatedAt:      stamp,
		}
		if err := store.InsertTask(ctx, task); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []TaskResponse `json:"body"`
	}, error) {
		items, err := store.ListTasksByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TaskResponse `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		task, err := store.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task fields",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if len(input.Body.Fields) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "fields is required", nil)
		}
		task, err := store.UpdateTaskFields(ctx, input.TaskID, input.Body.Fields, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{task_id}",
		Summary:     "Delete task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		deleted, err := store.DeleteTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		if !deleted {
			return nil, newAPIError(http.StatusNotFound, "not_found", "task not found", nil)
		}
		return &struct{}{}, nil
	})
}

func registerSprints(api huma.API, store repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-sprint",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/sprints",
		Summary:       "Create sprint",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string              `path:"project_id"`
		Body      CreateSprintRequest `json:"body"`
	}) (*struct {
		Body SprintResponse `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if _, err := store.GetProject(ctx, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		sprint := domain.Sprint{
			ID:        uuid.NewString(),
			ProjectID: input.ProjectID,
			Name:      input.Body.Name,
			Goal:      input.Body.Goal,
			Status:    "planned",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := store.InsertSprint(ctx, sprint); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SprintResponse `json:"body"`
		}{Body: sprint}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sprints",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/sprints",
		Summary:     "List sprints",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []SprintResponse `json:"body"`
	}, error) {
		items, err := store.ListSprintsByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []SprintResponse `json:"body"`
		}{Body: items}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Planwise API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}
