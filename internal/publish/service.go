package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/selection"
)

const (
	publishDisabledLogMessageConstant        = "publishing disabled"
	archivePublishedLogMessageConstant       = "archive published"
	noArchivesMatchedErrorMessageConstant    = "no archives matched repo_publish.packages"
	sourceDirectoryReadErrorTemplateConstant = "failed to read archive directory %q: %w"
	archiveCopyErrorTemplateConstant         = "failed to publish archive %q: %w"
	archiveDigestErrorTemplateConstant       = "failed to digest archive %q: %w"
	destinationCreateErrorTemplateConstant   = "failed to create publish destination %q: %w"
	publishedFilePermissionsConstant         = 0o644
	destinationDirectoryPermissionsConstant  = 0o755

	logFieldArchiveFileNameConstant = "archive_file"
	logFieldDestinationConstant     = "destination"
)

// ErrNoArchivesMatched indicates publishing was enabled but nothing qualified.
var ErrNoArchivesMatched = errors.New(noArchivesMatchedErrorMessageConstant)

// Options select the source and destination of a publish run.
type Options struct {
	SourceDirectory      string
	DestinationDirectory string
	DryRun               bool
}

// Report summarizes a publish run.
type Report struct {
	Skipped      bool
	Archives     []PublishedArchive
	ManifestPath string
}

// Service copies qualifying archives and records the manifest receipt.
type Service struct {
	logger       *zap.Logger
	publishClock func() time.Time
}

// NewService constructs a publish service; a nil clock uses the system time.
func NewService(logger *zap.Logger, publishClock func() time.Time) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publishClock == nil {
		publishClock = time.Now
	}
	return &Service{logger: logger, publishClock: publishClock}
}

// Execute performs the publish run described by the configuration and options.
// Disabled publishing is reported as skipped, never as an error.
func (service *Service) Execute(configuration repoconfig.Configuration, options Options) (Report, error) {
	if !configuration.Publish.Enabled {
		service.logger.Info(publishDisabledLogMessageConstant)
		return Report{Skipped: true}, nil
	}

	matchedArchives, matchError := service.matchArchives(configuration.Publish.Packages, options.SourceDirectory)
	if matchError != nil {
		return Report{}, matchError
	}
	if len(matchedArchives) == 0 {
		return Report{}, ErrNoArchivesMatched
	}

	publishedArchives := make([]PublishedArchive, 0, len(matchedArchives))
	for _, archiveFileName := range matchedArchives {
		archiveRecord, describeError := describeArchive(filepath.Join(options.SourceDirectory, archiveFileName))
		if describeError != nil {
			return Report{}, describeError
		}
		publishedArchives = append(publishedArchives, archiveRecord)
	}

	if options.DryRun {
		return Report{Archives: publishedArchives}, nil
	}

	if directoryError := os.MkdirAll(options.DestinationDirectory, destinationDirectoryPermissionsConstant); directoryError != nil {
		return Report{}, fmt.Errorf(destinationCreateErrorTemplateConstant, options.DestinationDirectory, directoryError)
	}

	for _, archiveRecord := range publishedArchives {
		sourcePath := filepath.Join(options.SourceDirectory, archiveRecord.FileName)
		destinationPath := filepath.Join(options.DestinationDirectory, archiveRecord.FileName)
		if copyError := copyArchive(sourcePath, destinationPath); copyError != nil {
			return Report{}, copyError
		}
		service.logger.Info(
			archivePublishedLogMessageConstant,
			zap.String(logFieldArchiveFileNameConstant, archiveRecord.FileName),
			zap.String(logFieldDestinationConstant, destinationPath),
		)
	}

	manifest := Manifest{
		RepositoryName: configuration.Repo.Name,
		PublishedAt:    service.publishClock(),
		Destination:    options.DestinationDirectory,
		Archives:       publishedArchives,
	}
	manifestPath := filepath.Join(options.DestinationDirectory, ManifestFileName)
	if manifestError := writeManifest(manifestPath, manifest); manifestError != nil {
		return Report{}, manifestError
	}

	return Report{Archives: publishedArchives, ManifestPath: manifestPath}, nil
}

func (service *Service) matchArchives(packagePatterns []string, sourceDirectory string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(sourceDirectory)
	if readError != nil {
		return nil, fmt.Errorf(sourceDirectoryReadErrorTemplateConstant, sourceDirectory, readError)
	}

	var matchedArchives []string
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		for _, packagePattern := range packagePatterns {
			matched, patternError := selection.MatchPattern(packagePattern, directoryEntry.Name())
			if patternError != nil {
				return nil, patternError
			}
			if matched {
				matchedArchives = append(matchedArchives, directoryEntry.Name())
				break
			}
		}
	}

	sort.Strings(matchedArchives)
	return matchedArchives, nil
}

func describeArchive(archivePath string) (PublishedArchive, error) {
	archiveFile, openError := os.Open(archivePath)
	if openError != nil {
		return PublishedArchive{}, fmt.Errorf(archiveDigestErrorTemplateConstant, archivePath, openError)
	}
	defer archiveFile.Close()

	digest := sha256.New()
	archiveSize, copyError := io.Copy(digest, archiveFile)
	if copyError != nil {
		return PublishedArchive{}, fmt.Errorf(archiveDigestErrorTemplateConstant, archivePath, copyError)
	}

	return PublishedArchive{
		FileName:  filepath.Base(archivePath),
		SizeBytes: archiveSize,
		SHA256:    hex.EncodeToString(digest.Sum(nil)),
	}, nil
}

func copyArchive(sourcePath string, destinationPath string) error {
	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(archiveCopyErrorTemplateConstant, sourcePath, openError)
	}
	defer sourceFile.Close()

	destinationFile, createError := os.OpenFile(destinationPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, publishedFilePermissionsConstant)
	if createError != nil {
		return fmt.Errorf(archiveCopyErrorTemplateConstant, destinationPath, createError)
	}

	_, copyError := io.Copy(destinationFile, sourceFile)
	closeError := destinationFile.Close()
	if copyError != nil {
		return fmt.Errorf(archiveCopyErrorTemplateConstant, destinationPath, copyError)
	}
	if closeError != nil {
		return fmt.Errorf(archiveCopyErrorTemplateConstant, destinationPath, closeError)
	}

	return nil
}
