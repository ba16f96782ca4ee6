package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# DittoStore Configuration File
#
# Every value can be overridden with an environment variable named after its
# key, e.g. DITTOSTORE_LOGGING_LEVEL=DEBUG or DITTOSTORE_CLOUD_SERVICE_URL=...
`

// sectionComments documents each top-level key of the generated file.
var sectionComments = map[string]string{
	"logging": "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json),\n" +
		"output (stdout, stderr or a file path)",
	"metrics": "Prometheus endpoint served at http://<listen>/metrics when enabled",
	"cloud": "Cloud file-sharing service. When enabled, LOGIN mounts your drive as\n" +
		"CLOUD:/ and cloud://<username> mounts the files others shared with you",
	"schemes": "Backend options. badger://<path> drives use the badger section;\n" +
		"s3://<bucket>/<prefix> drives are available once s3.region is set",
	"drives":        "Drives mounted at startup, in order",
	"current_drive": "Drive selected at startup (defaults to the first mounted drive)",
}

// InitConfig writes a default configuration file to the default location.
//
// Returns the path of the written file. Fails if the file exists and force
// is false.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	content, err := generateConfigContent(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateConfigContent renders cfg as commented YAML.
func generateConfigContent(cfg *Config) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	// Mapping content alternates key and value nodes
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return buf.Bytes(), nil
}
