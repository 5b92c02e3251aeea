package publish

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFileName is the receipt written next to published archives.
	ManifestFileName = "publish-manifest.yaml"

	manifestFilePermissionsConstant     = 0o644
	manifestEncodeErrorTemplateConstant = "failed to encode publish manifest: %w"
	manifestWriteErrorTemplateConstant  = "failed to write publish manifest %q: %w"
)

// PublishedArchive describes one archive copied to the destination.
type PublishedArchive struct {
	FileName  string `yaml:"file_name"`
	SizeBytes int64  `yaml:"size_bytes"`
	SHA256    string `yaml:"sha256"`
}

// Manifest is the receipt recorded after a publish run.
type Manifest struct {
	RepositoryName string             `yaml:"repository"`
	PublishedAt    time.Time          `yaml:"published_at"`
	Destination    string             `yaml:"destination"`
	Archives       []PublishedArchive `yaml:"archives"`
}

func writeManifest(manifestPath string, manifest Manifest) error {
	encodedManifest, encodeError := yaml.Marshal(manifest)
	if encodeError != nil {
		return fmt.Errorf(manifestEncodeErrorTemplateConstant, encodeError)
	}

	if writeError := os.WriteFile(manifestPath, encodedManifest, manifestFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(manifestWriteErrorTemplateConstant, manifestPath, writeError)
	}

	return nil
}
