package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/stubgen/internal/generator"
)

var validate = validator.New()

// Swapped in tests.
var runPackage = generator.Run

func newGenerateCommand() *cobra.Command {
	var config GenerateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate stub sources for the packages listed in a manifest",
		RunE: func(_ *cobra.Command, _ []string) error {
			return Generate(&config)
		},
	}

	cmd.Flags().StringVar(&config.PackagesPath, "packages", "packages.yml", "Path to the package manifest")
	cmd.Flags().StringVar(&config.OutputDir, "output", "./stubs", "Directory to write stub files into")
	cmd.Flags().StringVar(&config.ConfigPath, "config", "", "Path to .stubgen.yml config file")
	cmd.Flags().BoolVar(&config.Verbose, "verbose", false, "Enable debug logging")

	return cmd
}

// GenerateConfig holds configuration for stub generation.
type GenerateConfig struct {
	PackagesPath string `validate:"required"`
	OutputDir    string `validate:"required"`
	ConfigPath   string
	Verbose      bool
}

// packageManifest is the YAML shape of the --packages file: the list of
// already resolved packages to generate stubs for.
type packageManifest struct {
	Packages []packageEntry `yaml:"packages"`
}

type packageEntry struct {
	Name     string `yaml:"name" validate:"required"`
	Version  string `yaml:"version" validate:"required"`
	Assembly string `yaml:"assembly" validate:"required"`
	Doc      string `yaml:"doc"`
}

// Generate runs stub generation for every package in the manifest.
// Packages are processed sequentially, each with its own generator run;
// one failing package does not stop the others.
func Generate(config *GenerateConfig) error {
	if err := loadConfigFile(config); err != nil {
		return err
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if config.OutputDir == "-" {
		return errors.New("writing to stdout is not supported; --output must be a directory")
	}

	logger := newLogger(config.Verbose)

	manifest, err := loadManifest(config.PackagesPath)
	if err != nil {
		return err
	}
	if len(manifest.Packages) == 0 {
		return fmt.Errorf("no packages listed in %s", config.PackagesPath)
	}

	failed := 0
	for _, pkg := range manifest.Packages {
		if err := validate.Struct(pkg); err != nil {
			logger.Error("skipping invalid manifest entry", "package", pkg.Name, "err", err)
			failed++
			continue
		}
		if err := generateOne(logger, config.OutputDir, pkg); err != nil {
			logger.Error("package failed", "package", pkg.Name, "err", err)
			failed++
		}
	}
	if failed == len(manifest.Packages) {
		return fmt.Errorf("all %d packages failed", failed)
	}
	return nil
}

func generateOne(logger *log.Logger, outputDir string, pkg packageEntry) error {
	logger.Debug("generating", "package", pkg.Name, "version", pkg.Version, "assembly", pkg.Assembly)

	res, err := runPackage(generator.PackageInfo{
		Name:         pkg.Name,
		Version:      pkg.Version,
		AssemblyPath: pkg.Assembly,
		DocPath:      pkg.Doc,
	})
	if err != nil {
		return err
	}

	for _, w := range res.Warnings {
		logger.Warn("recovered", "identifier", w.Identifier, "reason", w.Reason)
	}

	for _, f := range res.Files {
		path := filepath.Join(outputDir, filepath.FromSlash(f.Path))
		if err := writeFile(path, []byte(f.Source)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	logger.Info("package done", "package", pkg.Name, "files", len(res.Files), "warnings", len(res.Warnings))
	return nil
}

func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
	})
}

func loadManifest(path string) (*packageManifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest packageManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

func loadConfigFile(config *GenerateConfig) error {
	if config.ConfigPath == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(config.ConfigPath))
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var cfg struct {
		Stubgen struct {
			Packages string `yaml:"packages"`
			Output   string `yaml:"output"`
		} `yaml:"stubgen"`
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	// Apply config values if flags weren't set
	if config.PackagesPath == "packages.yml" && cfg.Stubgen.Packages != "" {
		config.PackagesPath = cfg.Stubgen.Packages
	}
	if config.OutputDir == "./stubs" && cfg.Stubgen.Output != "" {
		config.OutputDir = cfg.Stubgen.Output
	}

	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
