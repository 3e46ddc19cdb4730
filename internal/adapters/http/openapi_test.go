package http_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/lgatracker/api"
	handler "github.com/samirrijal/lgatracker/internal/adapters/http"
)

func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the document and checks key paths and schemas.
func TestOpenAPISpec(t *testing.T) {
	spec := loadOpenAPI(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	expectedSchemas := []string{
		"Error",
		"Pagination",
		"RegionSummary",
		"RegionDetail",
		"RegionStyle",
		"Progress",
		"ToggleResponse",
		"RegistryStatus",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI document valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

var fiberParam = regexp.MustCompile(`:(\w+)`)

// TestOpenAPICoversRoutes fails when a /v1 route or /graphql is registered without documentation.
func TestOpenAPICoversRoutes(t *testing.T) {
	spec := loadOpenAPI(t)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, &handler.Dependencies{Tracker: newIdleTracker()})

	for _, r := range app.GetRoutes(true) {
		if r.Method != fiber.MethodGet && r.Method != fiber.MethodPost {
			continue
		}
		if !strings.HasPrefix(r.Path, "/v1/") && r.Path != "/graphql" {
			continue
		}
		path := fiberParam.ReplaceAllString(r.Path, "{$1}")
		item := spec.Paths.Find(path)
		if item == nil {
			t.Errorf("route %s %s is not documented", r.Method, path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("route %s %s has no documented operation", r.Method, path)
		}
	}
}

// TestOpenAPIInfo verifies document metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadOpenAPI(t)

	if spec.Info.Title != "LGA Tracker API" {
		t.Errorf("expected title 'LGA Tracker API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}
	if len(spec.Servers) == 0 {
		t.Fatal("expected at least one server")
	}
}
