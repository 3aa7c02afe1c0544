package http

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const defaultOpenAPIPath = "api/openapi.yaml"

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Map Screen API · Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

// LoadOpenAPISpec reads and validates the API description at path.
func LoadOpenAPISpec(ctx context.Context, path string) (*openapi3.T, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return doc, data, nil
}

// SetupDocs registers Swagger UI at /docs and the API description at
// /docs/openapi.yaml and /docs/openapi.json. The description is loaded once;
// if it is missing or invalid the document routes answer 404.
func SetupDocs(app *fiber.App, path string) {
	if path == "" {
		path = defaultOpenAPIPath
	}

	var yamlDoc, jsonDoc []byte
	doc, data, err := LoadOpenAPISpec(context.Background(), path)
	if err != nil {
		slog.Warn("api docs disabled", "error", err)
	} else if jsonDoc, err = doc.MarshalJSON(); err != nil {
		slog.Warn("api docs disabled", "error", err)
	} else {
		yamlDoc = data
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerUIHTML)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if yamlDoc == nil {
			return newError(c, fiber.StatusNotFound, "not_found", "API description unavailable")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(yamlDoc)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		if jsonDoc == nil {
			return newError(c, fiber.StatusNotFound, "not_found", "API description unavailable")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(jsonDoc)
	})
}
