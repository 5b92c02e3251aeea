package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/utils/flags"
	pathutils "github.com/temirov/repotool/internal/utils/path"
)

const (
	publishCommandUseConstant              = "publish"
	publishCommandShortDescriptionConstant = "Copy qualifying archives to the publish destination"
	publishCommandLongDescriptionConstant  = "publish matches built archives against repo_publish.packages and copies them to the destination with a manifest receipt."

	sourceFlagNameConstant             = "source"
	sourceFlagDescriptionConstant      = "Directory containing built archives"
	destinationFlagNameConstant        = "destination"
	destinationFlagDescriptionConstant = "Directory receiving published archives"
	dryRunFlagNameConstant             = "dry-run"
	dryRunFlagDescriptionConstant      = "List qualifying archives without copying"

	defaultSourceDirectoryConstant      = "_build/packages"
	defaultDestinationDirectoryConstant = "_build/publish"

	unexpectedArgumentsErrorMessageConstant = "publish does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "publish failed: %w"
	publishSkippedMessageConstant           = "Publishing is disabled in repo.toml\n"
	dryRunEntryTemplateConstant             = "Would publish %s (%d bytes)\n"
	publishedEntryTemplateConstant          = "Published %s (%d bytes)\n"
	manifestNoticeTemplateConstant          = "Manifest written to %s\n"
)

var publishCommandHomeDirectoryExpander = pathutils.NewHomeExpander()

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved repo.toml configuration.
type ConfigurationProvider func() repoconfig.Configuration

// CommandBuilder assembles the publish command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	WorkingDirectory      string

	dryRunFlagValue bool
}

// Build constructs the publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	publishCommand := &cobra.Command{
		Use:   publishCommandUseConstant,
		Short: publishCommandShortDescriptionConstant,
		Long:  publishCommandLongDescriptionConstant,
		RunE:  builder.runPublish,
	}

	publishCommand.Flags().String(sourceFlagNameConstant, defaultSourceDirectoryConstant, sourceFlagDescriptionConstant)
	publishCommand.Flags().String(destinationFlagNameConstant, defaultDestinationDirectoryConstant, destinationFlagDescriptionConstant)
	flags.AddToggleFlag(publishCommand.Flags(), &builder.dryRunFlagValue, dryRunFlagNameConstant, "", false, dryRunFlagDescriptionConstant)

	return publishCommand, nil
}

func (builder *CommandBuilder) runPublish(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	publishOptions, optionsError := builder.parsePublishOptions(command)
	if optionsError != nil {
		return optionsError
	}

	publishService := NewService(builder.resolveLogger(), nil)
	publishReport, executionError := publishService.Execute(builder.resolveConfiguration(), publishOptions)
	if executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, executionError)
	}

	if publishReport.Skipped {
		fmt.Fprint(command.OutOrStdout(), publishSkippedMessageConstant)
		return nil
	}

	entryTemplate := publishedEntryTemplateConstant
	if publishOptions.DryRun {
		entryTemplate = dryRunEntryTemplateConstant
	}
	for _, archiveRecord := range publishReport.Archives {
		fmt.Fprintf(command.OutOrStdout(), entryTemplate, archiveRecord.FileName, archiveRecord.SizeBytes)
	}

	if len(publishReport.ManifestPath) > 0 {
		fmt.Fprintf(command.OutOrStdout(), manifestNoticeTemplateConstant, publishReport.ManifestPath)
	}

	return nil
}

func (builder *CommandBuilder) parsePublishOptions(command *cobra.Command) (Options, error) {
	sourceFlagValue, sourceFlagError := command.Flags().GetString(sourceFlagNameConstant)
	if sourceFlagError != nil {
		return Options{}, sourceFlagError
	}

	destinationFlagValue, destinationFlagError := command.Flags().GetString(destinationFlagNameConstant)
	if destinationFlagError != nil {
		return Options{}, destinationFlagError
	}

	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		resolvedWorkingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return Options{}, workingDirectoryError
		}
		workingDirectory = resolvedWorkingDirectory
	}

	publishOptions := Options{
		SourceDirectory:      builder.resolveDirectory(sourceFlagValue, workingDirectory),
		DestinationDirectory: builder.resolveDirectory(destinationFlagValue, workingDirectory),
		DryRun:               builder.dryRunFlagValue,
	}

	return publishOptions, nil
}

func (builder *CommandBuilder) resolveDirectory(candidateDirectory string, workingDirectory string) string {
	expandedDirectory := publishCommandHomeDirectoryExpander.Expand(candidateDirectory)
	if filepath.IsAbs(expandedDirectory) {
		return expandedDirectory
	}
	return filepath.Join(workingDirectory, expandedDirectory)
}

func (builder *CommandBuilder) resolveConfiguration() repoconfig.Configuration {
	if builder.ConfigurationProvider == nil {
		return repoconfig.Configuration{}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if providedLogger := builder.LoggerProvider(); providedLogger != nil {
		return providedLogger
	}
	return zap.NewNop()
}
