package cli

import (
	_ "embed"

	"github.com/temirov/repotool/internal/repoconfig"
)

//go:embed default_repo.toml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns the embedded default configuration data and type identifier.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	duplicatedContent := make([]byte, len(embeddedDefaultConfigurationContent))
	copy(duplicatedContent, embeddedDefaultConfigurationContent)
	return duplicatedContent, repoconfig.ConfigurationType
}
