package pack

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/selection"
)

const (
	zipFileExtensionConstant             = ".zip"
	plainArchiveNameTemplateConstant     = "%s%s"
	versionedArchiveNameTemplateConstant = "%s-%s%s"
	archivePathSeparatorConstant         = "/"

	unknownPackageErrorTemplateConstant   = "package %s is not defined"
	noFilesSelectedErrorTemplateConstant  = "package %s selected no files"
	noDefaultPackageErrorMessageConstant  = "no package selected and no default package defined"
	pathLengthViolationTemplateConstant   = "package %s entry %q yields archive path longer than %d characters"
	archiveBuiltLogMessageConstant        = "archive built"
	archiveDryRunLogMessageConstant       = "archive build skipped (dry run)"
	logFieldPackageIdentifierConstant     = "package_id"
	logFieldArchiveFileNameConstant       = "archive_file"
	logFieldSelectedFileCountConstant     = "file_count"
)

// BuildOptions select the package and destination for one archive build.
type BuildOptions struct {
	PackageIdentifier string
	OutputDirectory   string
	VersionOverride   string
	DryRun            bool
}

// BuildResult reports the produced archive and its contents.
type BuildResult struct {
	PackageIdentifier string
	ArchiveFileName   string
	ArchivePath       string
	SelectedFiles     []string
}

// ArchiveBuilder assembles archives from package definitions.
type ArchiveBuilder struct {
	logger        *zap.Logger
	buildClock    BuildClock
	archiveWriter *ZipArchiveWriter
}

// NewArchiveBuilder constructs an archive builder; a nil clock uses the system time.
func NewArchiveBuilder(logger *zap.Logger, buildClock BuildClock) *ArchiveBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buildClock == nil {
		buildClock = time.Now
	}
	return &ArchiveBuilder{logger: logger, buildClock: buildClock, archiveWriter: NewZipArchiveWriter()}
}

// Build selects files per the package definition and writes the archive.
func (builder *ArchiveBuilder) Build(configuration repoconfig.Configuration, rootFileSystem fs.FS, options BuildOptions) (BuildResult, error) {
	packageIdentifier, packageDefinition, resolveError := resolvePackageDefinition(configuration, options.PackageIdentifier)
	if resolveError != nil {
		return BuildResult{}, resolveError
	}

	archiveFileName := builder.resolveArchiveFileName(packageDefinition, options.VersionOverride)

	packageFilter := selection.NewFilter(packageDefinition.Files, packageDefinition.FilesExclude)
	selectedFiles, selectionError := packageFilter.Select(rootFileSystem)
	if selectionError != nil {
		return BuildResult{}, selectionError
	}
	if len(selectedFiles) == 0 {
		return BuildResult{}, fmt.Errorf(noFilesSelectedErrorTemplateConstant, packageIdentifier)
	}

	if pathLengthError := enforcePathLengthLimit(packageIdentifier, archiveFileName, selectedFiles, packageDefinition.WindowsMaxPathLength); pathLengthError != nil {
		return BuildResult{}, pathLengthError
	}

	buildResult := BuildResult{
		PackageIdentifier: packageIdentifier,
		ArchiveFileName:   archiveFileName,
		ArchivePath:       filepath.Join(options.OutputDirectory, archiveFileName),
		SelectedFiles:     selectedFiles,
	}

	if options.DryRun {
		builder.logger.Info(
			archiveDryRunLogMessageConstant,
			zap.String(logFieldPackageIdentifierConstant, packageIdentifier),
			zap.String(logFieldArchiveFileNameConstant, archiveFileName),
			zap.Int(logFieldSelectedFileCountConstant, len(selectedFiles)),
		)
		return buildResult, nil
	}

	if writeError := builder.archiveWriter.WriteArchive(buildResult.ArchivePath, rootFileSystem, selectedFiles); writeError != nil {
		return BuildResult{}, writeError
	}

	builder.logger.Info(
		archiveBuiltLogMessageConstant,
		zap.String(logFieldPackageIdentifierConstant, packageIdentifier),
		zap.String(logFieldArchiveFileNameConstant, archiveFileName),
		zap.Int(logFieldSelectedFileCountConstant, len(selectedFiles)),
	)

	return buildResult, nil
}

func (builder *ArchiveBuilder) resolveArchiveFileName(packageDefinition repoconfig.PackageDefinition, versionOverride string) string {
	if !packageDefinition.FlowVersionScheme && len(versionOverride) == 0 {
		return fmt.Sprintf(plainArchiveNameTemplateConstant, packageDefinition.ArchiveName, zipFileExtensionConstant)
	}

	versionStamp := versionOverride
	if len(versionStamp) == 0 {
		versionStamp = FlowVersion(builder.buildClock())
	}
	return fmt.Sprintf(versionedArchiveNameTemplateConstant, packageDefinition.ArchiveName, versionStamp, zipFileExtensionConstant)
}

func resolvePackageDefinition(configuration repoconfig.Configuration, requestedIdentifier string) (string, repoconfig.PackageDefinition, error) {
	packageIdentifier := requestedIdentifier
	if len(packageIdentifier) == 0 {
		defaultIdentifier, defaultExists := configuration.DefaultPackageIdentifier()
		if !defaultExists {
			return "", repoconfig.PackageDefinition{}, errors.New(noDefaultPackageErrorMessageConstant)
		}
		packageIdentifier = defaultIdentifier
	}

	packageDefinition, packageExists := configuration.Package.Packages[packageIdentifier]
	if !packageExists {
		return "", repoconfig.PackageDefinition{}, fmt.Errorf(unknownPackageErrorTemplateConstant, packageIdentifier)
	}

	return packageIdentifier, packageDefinition, nil
}

func enforcePathLengthLimit(packageIdentifier string, archiveFileName string, selectedFiles []string, maximumPathLength int) error {
	for _, selectedFile := range selectedFiles {
		archiveInternalPath := archiveFileName + archivePathSeparatorConstant + selectedFile
		if len(archiveInternalPath) > maximumPathLength {
			return fmt.Errorf(pathLengthViolationTemplateConstant, packageIdentifier, selectedFile, maximumPathLength)
		}
	}
	return nil
}
