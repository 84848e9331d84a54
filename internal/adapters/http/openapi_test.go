package http_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	handler "github.com/encinapp/encinapp/internal/adapters/http"
)

// findOpenAPISpec locates the openapi.yaml file by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	// Start from the current working directory or test file location
	dir, _ := os.Getwd()

	// Look for api/openapi.yaml by going up directories
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	specPath := findOpenAPISpec(t)
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/map",
		"/v1/map/refresh",
		"/v1/map/filter",
		"/v1/map/alerts/{id}/select",
		"/v1/map/navigation/confirm",
		"/v1/map/navigation/cancel",
		"/v1/map/points/{id}/select",
		"/v1/map/details/dismiss",
		"/v1/points",
		"/v1/distance",
		"/v1/location",
		"/v1/geocode",
		"/v1/alerts",
		"/v1/alerts/draft",
		"/v1/alerts/{id}",
		"/v1/alerts/{id}/comments",
		"/v1/alerts/{id}/comments/{cid}",
		"/v1/session",
		"/v1/users",
		"/v1/users/{id}",
		"/v1/users/{id}/pin",
		"/v1/users/{id}/permissions",
		"/v1/announcements",
		"/v1/notifications",
		"/v1/notifications/{id}/dismiss",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	expectedSchemas := []string{
		"Coordinate",
		"PointOfInterest",
		"Alert",
		"MapView",
		"UserLocation",
		"Session",
		"User",
		"Permission",
		"Announcement",
		"Notification",
		"APIError",
		"Pagination",
	}

	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	specPath := findOpenAPISpec(t)
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	if spec.Info.Title != "EncinApp Gateway API" {
		t.Errorf("expected title 'EncinApp Gateway API', got %q", spec.Info.Title)
	}

	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}

	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}

	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", spec.Info.Title, spec.Info.Version, spec.Servers[0].URL)
}

var fiberParam = regexp.MustCompile(`:([a-z]+)`)

// TestOpenAPICoversRoutes checks that every registered /v1 route is documented.
func TestOpenAPICoversRoutes(t *testing.T) {
	specPath := findOpenAPISpec(t)
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromFile(specPath)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	app := fiber.New()
	handler.SetupRoutes(app, &handler.Dependencies{}, handler.RouterConfig{DocsPath: specPath})

	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead || len(r.Path) < 4 || r.Path[:4] != "/v1/" {
			continue
		}
		path := fiberParam.ReplaceAllString(r.Path, "{$1}")
		item := spec.Paths.Find(path)
		if item == nil {
			t.Errorf("route %s %s is not documented", r.Method, path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("operation %s %s is not documented", r.Method, path)
		}
	}
}
