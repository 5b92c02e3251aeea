package pack

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
	packCommandUseConstant              = "pack"
	packCommandShortDescriptionConstant = "Assemble release archives from repo.toml package definitions"
	packCommandLongDescriptionConstant  = "pack selects files through the configured include and exclude globs and writes them into a zip archive."

	packageFlagNameConstant        = "package"
	packageFlagDescriptionConstant = "Package identifier to build (defaults to the default package)"
	outputFlagNameConstant         = "output"
	outputFlagDescriptionConstant  = "Directory receiving built archives"
	versionFlagNameConstant        = "version"
	versionFlagDescriptionConstant = "Version stamp overriding the flow calendar scheme"
	dryRunFlagNameConstant         = "dry-run"
	dryRunFlagDescriptionConstant  = "List the files that would be archived without writing anything"

	defaultOutputDirectoryConstant = "_build/packages"

	unexpectedArgumentsErrorMessageConstant = "pack does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "pack failed: %w"
	dryRunHeaderTemplateConstant            = "Would pack %s into %s:\n"
	dryRunEntryTemplateConstant             = "  %s\n"
	packSuccessTemplateConstant             = "Packed %s (%d files) into %s\n"
)

var packCommandHomeDirectoryExpander = pathutils.NewHomeExpander()

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved repo.toml configuration.
type ConfigurationProvider func() repoconfig.Configuration

// CommandBuilder assembles the pack command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	WorkingDirectory      string
	BuildClock            BuildClock

	dryRunFlagValue bool
}

// Build constructs the pack command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	packCommand := &cobra.Command{
		Use:   packCommandUseConstant,
		Short: packCommandShortDescriptionConstant,
		Long:  packCommandLongDescriptionConstant,
		RunE:  builder.runPack,
	}

	packCommand.Flags().String(packageFlagNameConstant, "", packageFlagDescriptionConstant)
	packCommand.Flags().String(outputFlagNameConstant, defaultOutputDirectoryConstant, outputFlagDescriptionConstant)
	packCommand.Flags().String(versionFlagNameConstant, "", versionFlagDescriptionConstant)
	flags.AddToggleFlag(packCommand.Flags(), &builder.dryRunFlagValue, dryRunFlagNameConstant, "", false, dryRunFlagDescriptionConstant)

	return packCommand, nil
}

func (builder *CommandBuilder) runPack(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	buildOptions, workingDirectory, optionsError := builder.parseBuildOptions(command)
	if optionsError != nil {
		return optionsError
	}

	archiveBuilder := NewArchiveBuilder(builder.resolveLogger(), builder.BuildClock)
	buildResult, buildError := archiveBuilder.Build(builder.resolveConfiguration(), os.DirFS(workingDirectory), buildOptions)
	if buildError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, buildError)
	}

	if buildOptions.DryRun {
		fmt.Fprintf(command.OutOrStdout(), dryRunHeaderTemplateConstant, buildResult.PackageIdentifier, buildResult.ArchiveFileName)
		for _, selectedFile := range buildResult.SelectedFiles {
			fmt.Fprintf(command.OutOrStdout(), dryRunEntryTemplateConstant, selectedFile)
		}
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), packSuccessTemplateConstant, buildResult.PackageIdentifier, len(buildResult.SelectedFiles), buildResult.ArchivePath)
	return nil
}

func (builder *CommandBuilder) parseBuildOptions(command *cobra.Command) (BuildOptions, string, error) {
	packageFlagValue, packageFlagError := command.Flags().GetString(packageFlagNameConstant)
	if packageFlagError != nil {
		return BuildOptions{}, "", packageFlagError
	}

	outputFlagValue, outputFlagError := command.Flags().GetString(outputFlagNameConstant)
	if outputFlagError != nil {
		return BuildOptions{}, "", outputFlagError
	}

	versionFlagValue, versionFlagError := command.Flags().GetString(versionFlagNameConstant)
	if versionFlagError != nil {
		return BuildOptions{}, "", versionFlagError
	}

	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		resolvedWorkingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return BuildOptions{}, "", workingDirectoryError
		}
		workingDirectory = resolvedWorkingDirectory
	}

	outputDirectory := packCommandHomeDirectoryExpander.Expand(outputFlagValue)
	if !filepath.IsAbs(outputDirectory) {
		outputDirectory = filepath.Join(workingDirectory, outputDirectory)
	}

	buildOptions := BuildOptions{
		PackageIdentifier: packageFlagValue,
		OutputDirectory:   outputDirectory,
		VersionOverride:   versionFlagValue,
		DryRun:            builder.dryRunFlagValue,
	}

	return buildOptions, workingDirectory, nil
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
