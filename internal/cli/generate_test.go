package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stubgen/internal/generator"
)

func withRunPackage(t *testing.T, fn func(generator.PackageInfo) (*generator.Result, error)) {
	t.Helper()
	prev := runPackage
	runPackage = fn
	t.Cleanup(func() { runPackage = prev })
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packages.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const manifestYAML = `packages:
  - name: Acme.Widgets
    version: 1.2.0
    assembly: widgets.dll
    doc: widgets.xml
`

func TestGenerateWritesFiles(t *testing.T) {
	var got generator.PackageInfo
	withRunPackage(t, func(pkg generator.PackageInfo) (*generator.Result, error) {
		got = pkg
		return &generator.Result{Files: []generator.OutputFile{
			{Path: "Acme.Widgets/1.2.0/Widgets/Widget.cs", Source: "public class Widget\n{\n}\n"},
		}}, nil
	})

	out := t.TempDir()
	err := Generate(&GenerateConfig{
		PackagesPath: writeManifest(t, manifestYAML),
		OutputDir:    out,
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme.Widgets", got.Name)
	assert.Equal(t, "1.2.0", got.Version)
	assert.Equal(t, "widgets.dll", got.AssemblyPath)
	assert.Equal(t, "widgets.xml", got.DocPath)

	data, err := os.ReadFile(filepath.Join(out, "Acme.Widgets", "1.2.0", "Widgets", "Widget.cs"))
	require.NoError(t, err)
	assert.Equal(t, "public class Widget\n{\n}\n", string(data))
}

func TestGenerateContinuesAfterPackageFailure(t *testing.T) {
	manifest := `packages:
  - name: Bad
    version: "1"
    assembly: bad.dll
  - name: Good
    version: "1"
    assembly: good.dll
`
	var calls []string
	withRunPackage(t, func(pkg generator.PackageInfo) (*generator.Result, error) {
		calls = append(calls, pkg.Name)
		if pkg.Name == "Bad" {
			return nil, errors.New("not a PE image")
		}
		return &generator.Result{}, nil
	})

	err := Generate(&GenerateConfig{
		PackagesPath: writeManifest(t, manifest),
		OutputDir:    t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bad", "Good"}, calls)
}

func TestGenerateFailsWhenAllPackagesFail(t *testing.T) {
	withRunPackage(t, func(generator.PackageInfo) (*generator.Result, error) {
		return nil, errors.New("boom")
	})

	err := Generate(&GenerateConfig{
		PackagesPath: writeManifest(t, manifestYAML),
		OutputDir:    t.TempDir(),
	})
	assert.Error(t, err)
}

func TestGenerateSkipsInvalidManifestEntries(t *testing.T) {
	manifest := `packages:
  - name: NoAssembly
    version: "1"
  - name: Ok
    version: "1"
    assembly: ok.dll
`
	var calls []string
	withRunPackage(t, func(pkg generator.PackageInfo) (*generator.Result, error) {
		calls = append(calls, pkg.Name)
		return &generator.Result{}, nil
	})

	err := Generate(&GenerateConfig{
		PackagesPath: writeManifest(t, manifest),
		OutputDir:    t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ok"}, calls)
}

func TestGenerateRejectsStdoutOutput(t *testing.T) {
	err := Generate(&GenerateConfig{
		PackagesPath: "packages.yml",
		OutputDir:    "-",
	})
	assert.Error(t, err)
}

func TestGenerateMissingManifest(t *testing.T) {
	err := Generate(&GenerateConfig{
		PackagesPath: filepath.Join(t.TempDir(), "absent.yml"),
		OutputDir:    t.TempDir(),
	})
	assert.Error(t, err)
}

func TestGenerateEmptyManifest(t *testing.T) {
	err := Generate(&GenerateConfig{
		PackagesPath: writeManifest(t, "packages: []\n"),
		OutputDir:    t.TempDir(),
	})
	assert.Error(t, err)
}

func TestLoadConfigFileMergesUnderFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".stubgen.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`stubgen:
  packages: custom.yml
  output: ./out
`), 0o644))

	config := &GenerateConfig{
		PackagesPath: "packages.yml",
		OutputDir:    "./stubs",
		ConfigPath:   cfgPath,
	}
	require.NoError(t, loadConfigFile(config))
	assert.Equal(t, "custom.yml", config.PackagesPath)
	assert.Equal(t, "./out", config.OutputDir)

	// Explicit flags win over the config file.
	config = &GenerateConfig{
		PackagesPath: "given.yml",
		OutputDir:    "./given",
		ConfigPath:   cfgPath,
	}
	require.NoError(t, loadConfigFile(config))
	assert.Equal(t, "given.yml", config.PackagesPath)
	assert.Equal(t, "./given", config.OutputDir)
}

func TestLoadConfigFileErrors(t *testing.T) {
	config := &GenerateConfig{ConfigPath: filepath.Join(t.TempDir(), "absent.yml")}
	assert.Error(t, loadConfigFile(config))

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("{invalid"), 0o644))
	config = &GenerateConfig{ConfigPath: bad}
	assert.Error(t, loadConfigFile(config))
}

func TestGenerateCommandDefaults(t *testing.T) {
	cmd := newGenerateCommand()
	assert.Equal(t, "generate", cmd.Use)
	assert.Equal(t, "packages.yml", cmd.Flags().Lookup("packages").DefValue)
	assert.Equal(t, "./stubs", cmd.Flags().Lookup("output").DefValue)
}
