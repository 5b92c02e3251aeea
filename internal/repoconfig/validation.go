package repoconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	repositoryNameMissingMessageConstant         = "repo.name must be provided"
	noPackageDefinitionsMessageConstant          = "repo_package must define at least one package"
	blankPackageIdentifierMessageConstant        = "repo_package package identifiers must be non-empty"
	noDefaultPackageMessageConstant              = "exactly one package must set default = true"
	multipleDefaultPackagesMessageConstant       = "multiple packages set default = true"
	duplicateIdentifierMessageTemplateConstant   = "package identifiers %q and %q collide"
	emptyGlobPatternMessageTemplateConstant      = "%s contains an empty glob pattern"
	unsupportedArchiveFormatTemplateConstant     = "package %s requests unsupported archive_format %q"
	pathLengthNotPositiveMessageTemplateConstant = "package %s windows_max_path_length must be positive"
	archiveNameMissingMessageTemplateConstant    = "package %s archive_name must resolve to a non-empty value"
	jobCountNotPositiveMessageTemplateConstant   = "repo_format.%s job_count must be positive"

	packageFilesSectionTemplateConstant          = "repo_package.packages.%s.files"
	packageFilesExcludeSectionTemplateConstant   = "repo_package.packages.%s.files_exclude"
	publishPackagesSectionConstant               = "repo_publish.packages"
	formatIncludeSectionTemplateConstant         = "repo_format.%s.files.include"
	formatExcludeSectionTemplateConstant         = "repo_format.%s.files.exclude"
	lintIncludeSectionTemplateConstant           = "repo_lint.%s.files.include"
	lintExcludeSectionTemplateConstant           = "repo_lint.%s.files.exclude"
)

// Validation sentinels surfaced to the invoking user. None are retried.
var (
	ErrRepositoryNameMissing   = errors.New(repositoryNameMissingMessageConstant)
	ErrNoPackageDefinitions    = errors.New(noPackageDefinitionsMessageConstant)
	ErrBlankPackageIdentifier  = errors.New(blankPackageIdentifierMessageConstant)
	ErrNoDefaultPackage        = errors.New(noDefaultPackageMessageConstant)
	ErrMultipleDefaultPackages = errors.New(multipleDefaultPackagesMessageConstant)
)

// DuplicatePackageIdentifierError reports identifiers that collide after case folding.
type DuplicatePackageIdentifierError struct {
	FirstIdentifier  string
	SecondIdentifier string
}

// Error describes the identifier collision.
func (duplicateError DuplicatePackageIdentifierError) Error() string {
	return fmt.Sprintf(duplicateIdentifierMessageTemplateConstant, duplicateError.FirstIdentifier, duplicateError.SecondIdentifier)
}

// EmptyGlobPatternError reports an empty pattern string inside a glob list.
type EmptyGlobPatternError struct {
	Section string
}

// Error names the offending configuration section.
func (globError EmptyGlobPatternError) Error() string {
	return fmt.Sprintf(emptyGlobPatternMessageTemplateConstant, globError.Section)
}

// Validate checks the resolved configuration and reports the first violation.
func Validate(configuration Configuration) error {
	if len(configuration.Repo.Name) == 0 {
		return ErrRepositoryNameMissing
	}

	if validationError := validatePackages(configuration); validationError != nil {
		return validationError
	}

	if validationError := validateGlobList(publishPackagesSectionConstant, configuration.Publish.Packages); validationError != nil {
		return validationError
	}

	for _, toolName := range sortedToolNames(configuration.Format) {
		formatSettings := configuration.Format[toolName]
		if formatSettings.JobCount < 1 {
			return fmt.Errorf(jobCountNotPositiveMessageTemplateConstant, toolName)
		}
		if validationError := validateGlobList(fmt.Sprintf(formatIncludeSectionTemplateConstant, toolName), formatSettings.Files.Include); validationError != nil {
			return validationError
		}
		if validationError := validateGlobList(fmt.Sprintf(formatExcludeSectionTemplateConstant, toolName), formatSettings.Files.Exclude); validationError != nil {
			return validationError
		}
	}

	for _, toolName := range sortedToolNames(configuration.Lint) {
		lintSettings := configuration.Lint[toolName]
		if validationError := validateGlobList(fmt.Sprintf(lintIncludeSectionTemplateConstant, toolName), lintSettings.Files.Include); validationError != nil {
			return validationError
		}
		if validationError := validateGlobList(fmt.Sprintf(lintExcludeSectionTemplateConstant, toolName), lintSettings.Files.Exclude); validationError != nil {
			return validationError
		}
	}

	return nil
}

func validatePackages(configuration Configuration) error {
	if len(configuration.Package.Packages) == 0 {
		return ErrNoPackageDefinitions
	}

	identifiers := configuration.SortedPackageIdentifiers()

	foldedIdentifiers := make(map[string]string, len(identifiers))
	for _, packageIdentifier := range identifiers {
		if len(packageIdentifier) == 0 {
			return ErrBlankPackageIdentifier
		}
		foldedIdentifier := strings.ToLower(packageIdentifier)
		if collidingIdentifier, identifierSeen := foldedIdentifiers[foldedIdentifier]; identifierSeen {
			return DuplicatePackageIdentifierError{FirstIdentifier: collidingIdentifier, SecondIdentifier: packageIdentifier}
		}
		foldedIdentifiers[foldedIdentifier] = packageIdentifier
	}

	if len(identifiers) > 1 {
		defaultCount := 0
		for _, packageIdentifier := range identifiers {
			if configuration.Package.Packages[packageIdentifier].Default {
				defaultCount++
			}
		}
		if defaultCount == 0 {
			return ErrNoDefaultPackage
		}
		if defaultCount > 1 {
			return ErrMultipleDefaultPackages
		}
	}

	for _, packageIdentifier := range identifiers {
		packageDefinition := configuration.Package.Packages[packageIdentifier]

		if len(packageDefinition.ArchiveName) == 0 {
			return fmt.Errorf(archiveNameMissingMessageTemplateConstant, packageIdentifier)
		}
		if packageDefinition.ArchiveFormat != ArchiveFormatZip {
			return fmt.Errorf(unsupportedArchiveFormatTemplateConstant, packageIdentifier, packageDefinition.ArchiveFormat)
		}
		if packageDefinition.WindowsMaxPathLength < 1 {
			return fmt.Errorf(pathLengthNotPositiveMessageTemplateConstant, packageIdentifier)
		}
		if validationError := validateGlobGroups(fmt.Sprintf(packageFilesSectionTemplateConstant, packageIdentifier), packageDefinition.Files); validationError != nil {
			return validationError
		}
		if validationError := validateGlobGroups(fmt.Sprintf(packageFilesExcludeSectionTemplateConstant, packageIdentifier), packageDefinition.FilesExclude); validationError != nil {
			return validationError
		}
	}

	return nil
}

func validateGlobGroups(sectionName string, patternGroups [][]string) error {
	for _, patternGroup := range patternGroups {
		if validationError := validateGlobList(sectionName, patternGroup); validationError != nil {
			return validationError
		}
	}
	return nil
}

func validateGlobList(sectionName string, patterns []string) error {
	for _, pattern := range patterns {
		if len(strings.TrimSpace(pattern)) == 0 {
			return EmptyGlobPatternError{Section: sectionName}
		}
	}
	return nil
}

func sortedToolNames[SettingsType any](toolSettings map[string]SettingsType) []string {
	toolNames := make([]string, 0, len(toolSettings))
	for toolName := range toolSettings {
		toolNames = append(toolNames, toolName)
	}
	sort.Strings(toolNames)
	return toolNames
}
