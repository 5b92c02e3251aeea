package repoconfig

import (
	"sort"
	"strings"
)

const (
	// ArchiveFormatZip is the only archive container repotool produces.
	ArchiveFormatZip = "zip"
	// DefaultFormatToolName identifies the formatter section consulted by the format command.
	DefaultFormatToolName = "python"
	// DefaultLintToolName identifies the linter section consulted by the lint command.
	DefaultLintToolName = "flake8"
	// DefaultWindowsMaxPathLength bounds archive entry paths when a package omits the limit.
	DefaultWindowsMaxPathLength = 260

	defaultJobCountConstant = 1
)

// Configuration mirrors the repo.toml document consumed by every repotool invocation.
type Configuration struct {
	Repo    RepoSettings              `mapstructure:"repo" toml:"repo" yaml:"repo"`
	Publish PublishSettings           `mapstructure:"repo_publish" toml:"repo_publish" yaml:"repo_publish"`
	Package PackageSettings           `mapstructure:"repo_package" toml:"repo_package" yaml:"repo_package"`
	Format  map[string]FormatSettings `mapstructure:"repo_format" toml:"repo_format,omitempty" yaml:"repo_format,omitempty"`
	Lint    map[string]LintSettings   `mapstructure:"repo_lint" toml:"repo_lint,omitempty" yaml:"repo_lint,omitempty"`
}

// RepoSettings identifies the repository and the desired log verbosity.
type RepoSettings struct {
	Logging string `mapstructure:"logging" toml:"logging" yaml:"logging"`
	Name    string `mapstructure:"name" toml:"name" yaml:"name"`
}

// PublishSettings controls whether publishing runs and which built archives qualify.
type PublishSettings struct {
	Enabled  bool     `mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	Packages []string `mapstructure:"packages" toml:"packages" yaml:"packages"`
}

// PackageSettings groups the package definitions keyed by identifier.
type PackageSettings struct {
	Packages map[string]PackageDefinition `mapstructure:"packages" toml:"packages" yaml:"packages"`
}

// PackageDefinition describes one archive's contents and naming.
type PackageDefinition struct {
	Default              bool       `mapstructure:"default" toml:"default" yaml:"default"`
	FlowVersionScheme    bool       `mapstructure:"omniverse_flow_version_scheme" toml:"omniverse_flow_version_scheme" yaml:"omniverse_flow_version_scheme"`
	ArchiveName          string     `mapstructure:"archive_name" toml:"archive_name" yaml:"archive_name"`
	ArchiveFormat        string     `mapstructure:"archive_format" toml:"archive_format" yaml:"archive_format"`
	WindowsMaxPathLength int        `mapstructure:"windows_max_path_length" toml:"windows_max_path_length" yaml:"windows_max_path_length"`
	Files                [][]string `mapstructure:"files" toml:"files" yaml:"files"`
	FilesExclude         [][]string `mapstructure:"files_exclude" toml:"files_exclude" yaml:"files_exclude"`
}

// FileFilterSettings lists include and exclude glob patterns for tooling scope.
type FileFilterSettings struct {
	Include []string `mapstructure:"include" toml:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" toml:"exclude" yaml:"exclude"`
}

// FormatSettings drives an external formatter invocation.
type FormatSettings struct {
	Files         FileFilterSettings `mapstructure:"files" toml:"files" yaml:"files"`
	PythonVersion string             `mapstructure:"python_version" toml:"python_version" yaml:"python_version"`
	JobCount      int                `mapstructure:"job_count" toml:"job_count" yaml:"job_count"`
}

// LintSettings drives an external linter invocation.
type LintSettings struct {
	Files FileFilterSettings `mapstructure:"files" toml:"files" yaml:"files"`
}

// Sanitize trims configured values and applies per-field fallbacks.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Repo.Logging = strings.TrimSpace(configuration.Repo.Logging)
	sanitized.Repo.Name = strings.TrimSpace(configuration.Repo.Name)

	if len(configuration.Package.Packages) > 0 {
		sanitizedPackages := make(map[string]PackageDefinition, len(configuration.Package.Packages))
		for packageIdentifier, packageDefinition := range configuration.Package.Packages {
			sanitizedPackages[strings.TrimSpace(packageIdentifier)] = packageDefinition.sanitize()
		}
		sanitized.Package.Packages = sanitizedPackages
	}

	if len(configuration.Format) > 0 {
		sanitizedFormat := make(map[string]FormatSettings, len(configuration.Format))
		for toolName, formatSettings := range configuration.Format {
			if formatSettings.JobCount == 0 {
				formatSettings.JobCount = defaultJobCountConstant
			}
			formatSettings.PythonVersion = strings.TrimSpace(formatSettings.PythonVersion)
			sanitizedFormat[strings.TrimSpace(toolName)] = formatSettings
		}
		sanitized.Format = sanitizedFormat
	}

	if len(configuration.Lint) > 0 {
		sanitizedLint := make(map[string]LintSettings, len(configuration.Lint))
		for toolName, lintSettings := range configuration.Lint {
			sanitizedLint[strings.TrimSpace(toolName)] = lintSettings
		}
		sanitized.Lint = sanitizedLint
	}

	return sanitized
}

func (definition PackageDefinition) sanitize() PackageDefinition {
	sanitized := definition
	sanitized.ArchiveName = strings.TrimSpace(definition.ArchiveName)
	sanitized.ArchiveFormat = strings.TrimSpace(definition.ArchiveFormat)
	if len(sanitized.ArchiveFormat) == 0 {
		sanitized.ArchiveFormat = ArchiveFormatZip
	}
	if definition.WindowsMaxPathLength == 0 {
		sanitized.WindowsMaxPathLength = DefaultWindowsMaxPathLength
	}
	return sanitized
}

// SortedPackageIdentifiers returns package identifiers in deterministic order.
func (configuration Configuration) SortedPackageIdentifiers() []string {
	identifiers := make([]string, 0, len(configuration.Package.Packages))
	for packageIdentifier := range configuration.Package.Packages {
		identifiers = append(identifiers, packageIdentifier)
	}
	sort.Strings(identifiers)
	return identifiers
}

// DefaultPackageIdentifier selects the package used when no identifier is requested explicitly.
// A sole definition is implicitly the default; among several, the one flagged default wins.
func (configuration Configuration) DefaultPackageIdentifier() (string, bool) {
	identifiers := configuration.SortedPackageIdentifiers()
	if len(identifiers) == 1 {
		return identifiers[0], true
	}
	for _, packageIdentifier := range identifiers {
		if configuration.Package.Packages[packageIdentifier].Default {
			return packageIdentifier, true
		}
	}
	return "", false
}

// FormatSettingsFor looks up the formatter section for the named tool.
func (configuration Configuration) FormatSettingsFor(toolName string) (FormatSettings, bool) {
	formatSettings, settingsExist := configuration.Format[toolName]
	return formatSettings, settingsExist
}

// LintSettingsFor looks up the linter section for the named tool.
func (configuration Configuration) LintSettingsFor(toolName string) (LintSettings, bool) {
	lintSettings, settingsExist := configuration.Lint[toolName]
	return lintSettings, settingsExist
}
