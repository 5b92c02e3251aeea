package repoconfig

import (
	"fmt"

	"github.com/temirov/repotool/internal/utils"
)

const (
	// ConfigurationName is the repo.toml base name viper searches for.
	ConfigurationName = "repo"
	// ConfigurationType is the structured document format of repo.toml.
	ConfigurationType = "toml"

	repoLoggingConfigurationKeyConstant  = "repo.logging"
	defaultLoggingLevelValueConstant     = "warn"
	configurationFinalizeErrorTemplate   = "configuration invalid: %w"
	configurationResolutionErrorTemplate = "configuration interpolation failed: %w"
)

// DefaultConfigurationValues supplies baseline values merged beneath repo.toml.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		repoLoggingConfigurationKeyConstant: defaultLoggingLevelValueConstant,
	}
}

// Loader reads repo.toml documents into validated, interpolation-resolved configurations.
type Loader struct {
	configurationLoader *utils.ConfigurationLoader
}

// NewLoader constructs a Loader searching the provided paths with the given environment prefix.
func NewLoader(environmentPrefix string, searchPaths []string) *Loader {
	return &Loader{
		configurationLoader: utils.NewConfigurationLoader(ConfigurationName, ConfigurationType, environmentPrefix, searchPaths),
	}
}

// SetEmbeddedConfiguration installs fallback configuration data merged beneath user files.
func (loader *Loader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	loader.configurationLoader.SetEmbeddedConfiguration(configurationData, configurationType)
}

// Load reads, sanitizes, interpolates, and validates the configuration in one pass.
func (loader *Loader) Load(configurationFilePath string) (Configuration, utils.LoadedConfiguration, error) {
	var rawConfiguration Configuration
	loadedMetadata, loadError := loader.configurationLoader.LoadConfiguration(configurationFilePath, DefaultConfigurationValues(), &rawConfiguration)
	if loadError != nil {
		return Configuration{}, utils.LoadedConfiguration{}, loadError
	}

	finalizedConfiguration, finalizeError := Finalize(rawConfiguration)
	if finalizeError != nil {
		return Configuration{}, utils.LoadedConfiguration{}, finalizeError
	}

	return finalizedConfiguration, loadedMetadata, nil
}

// Finalize sanitizes the raw document, resolves ${conf:...} references, and validates the result.
// The returned configuration is immutable for the remainder of the invocation.
func Finalize(rawConfiguration Configuration) (Configuration, error) {
	sanitizedConfiguration := rawConfiguration.Sanitize()

	resolvedConfiguration, resolutionError := ResolveConfiguration(sanitizedConfiguration)
	if resolutionError != nil {
		return Configuration{}, fmt.Errorf(configurationResolutionErrorTemplate, resolutionError)
	}

	if validationError := Validate(resolvedConfiguration); validationError != nil {
		return Configuration{}, fmt.Errorf(configurationFinalizeErrorTemplate, validationError)
	}

	return resolvedConfiguration, nil
}
