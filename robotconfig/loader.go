// Package robotconfig loads per-robot model documents that declare which
// plugins (sensors) a robot carries and where they are mounted.
package robotconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultRelativeRoot is where the simulation setup lives relative to the
	// running executable when no explicit root is configured.
	DefaultRelativeRoot = "../simulation-setup"

	robotsDir       = "entities/robots"
	modelFileSuffix = ".model.yaml"
)

// RobotConfig is a loaded robot model: its plugin descriptors in document
// order.
type RobotConfig struct {
	Plugins []Descriptor `yaml:"plugins"`
}

// Loader reads robot model documents from disk. It never caches: every call
// to Load reads the file again.
type Loader struct {
	// Root overrides the simulation setup directory. Empty means "relative to
	// the running executable".
	Root string

	logger     *slog.Logger
	executable func() (string, error)
}

// NewLoader creates a loader. An empty root falls back to DefaultRelativeRoot
// next to the running executable.
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Root:       root,
		logger:     logger,
		executable: os.Executable,
	}
}

// ResolveRoot returns the simulation setup directory in effect.
func (l *Loader) ResolveRoot() (string, error) {
	if l.Root != "" {
		return l.Root, nil
	}
	exe, err := l.executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), DefaultRelativeRoot), nil
}

// ModelPath returns the model file path for robotName under root.
func ModelPath(root, robotName string) string {
	return filepath.Join(root, robotsDir, robotName, robotName+modelFileSuffix)
}

// ValidateName rejects robot names that would resolve a model file outside
// the robots directory.
func ValidateName(robotName string) error {
	if robotName == "" || robotName == "." ||
		strings.ContainsAny(robotName, `/\`) || strings.Contains(robotName, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, robotName)
	}
	return nil
}

// Load reads and parses the model document for robotName.
//
// A missing file is logged and reported as ErrNotFound. A malformed document
// is reported as ErrParse.
func (l *Loader) Load(robotName string) (*RobotConfig, error) {
	if err := ValidateName(robotName); err != nil {
		return nil, err
	}
	root, err := l.ResolveRoot()
	if err != nil {
		return nil, err
	}
	path := ModelPath(root, robotName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Robot model not found", "robot", robotName, "path", path)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read robot model: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Debug("Loaded robot model", "robot", robotName, "path", path, "plugins", len(cfg.Plugins))
	return cfg, nil
}

// Parse decodes a model document.
func Parse(data []byte) (*RobotConfig, error) {
	var cfg RobotConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &cfg, nil
}
