package openapi

type generatorConfig struct {
	openAPIVersion string
	info           info
	path           string
	method         string
	operationID    string
	contentType    string
}

type info struct {
	Title       string
	Version     string
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: info{
			Title:   "jsconfig",
			Version: "1.0.0",
		},
		path:        "/config",
		method:      "put",
		operationID: "putConfig",
		contentType: "application/json",
	}
}

// GeneratorOption configures Generate.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the version string (default 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// WithInfo sets the info section.
func WithInfo(title, version, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		cfg.info.Description = description
	}
}

// WithOperation sets the path and method accepting the configuration
// document.
func WithOperation(method, path, operationID string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if method != "" {
			cfg.method = method
		}
		if path != "" {
			cfg.path = path
		}
		if operationID != "" {
			cfg.operationID = operationID
		}
	}
}

// WithContentType overrides the request media type.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}
