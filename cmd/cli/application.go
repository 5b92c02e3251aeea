package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/format"
	"github.com/temirov/repotool/internal/lint"
	"github.com/temirov/repotool/internal/pack"
	"github.com/temirov/repotool/internal/publish"
	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/utils"
)

const (
	applicationNameConstant             = "repotool"
	applicationShortDescriptionConstant = "Command-line interface for repo.toml driven packaging"
	applicationLongDescriptionConstant  = "repotool packs, publishes, formats, and lints a repository according to its repo.toml configuration."

	configFileFlagNameConstant  = "config"
	configFileFlagUsageConstant = "Optional path to a repo.toml configuration file."
	logLevelFlagNameConstant    = "log-level"
	logLevelFlagUsageConstant   = "Override the log level configured by repo.logging."
	logFormatFlagNameConstant   = "log-format"
	logFormatFlagUsageConstant  = "Override the log format (structured or console)."

	environmentPrefixConstant              = "REPOTOOL"
	defaultConfigurationSearchPathConstant = "."

	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"

	rootCommandInfoMessageConstant      = "repotool CLI executed"
	rootCommandDebugMessageConstant     = "repotool CLI diagnostics"
	logFieldCommandNameConstant         = "command_name"
	logFieldArgumentCountConstant       = "argument_count"
	logFieldArgumentsConstant           = "arguments"
	loggerNotInitializedMessageConstant = "logger not initialized"
)

// Application wires the Cobra root command, repo.toml loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *repoconfig.Loader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          repoconfig.Configuration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	workingDirectory       string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := repoconfig.NewLoader(
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	embeddedConfigurationContent, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationContent, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	if workingDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
		application.workingDirectory = workingDirectory
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	packBuilder := pack.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() repoconfig.Configuration {
			return application.configuration
		},
		WorkingDirectory: application.workingDirectory,
	}
	packCommand, packBuildError := packBuilder.Build()
	if packBuildError == nil {
		cobraCommand.AddCommand(packCommand)
	}

	publishBuilder := publish.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() repoconfig.Configuration {
			return application.configuration
		},
		WorkingDirectory: application.workingDirectory,
	}
	publishCommand, publishBuildError := publishBuilder.Build()
	if publishBuildError == nil {
		cobraCommand.AddCommand(publishCommand)
	}

	formatBuilder := format.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() repoconfig.Configuration {
			return application.configuration
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		WorkingDirectory:             application.workingDirectory,
	}
	formatCommand, formatBuildError := formatBuilder.Build()
	if formatBuildError == nil {
		cobraCommand.AddCommand(formatCommand)
	}

	lintBuilder := lint.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() repoconfig.Configuration {
			return application.configuration
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		WorkingDirectory:             application.workingDirectory,
	}
	lintCommand, lintBuildError := lintBuilder.Build()
	if lintBuildError == nil {
		cobraCommand.AddCommand(lintCommand)
	}

	configBuilder := repoconfig.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() repoconfig.Configuration {
			return application.configuration
		},
	}
	configCommand, configBuildError := configBuilder.Build()
	if configBuildError == nil {
		cobraCommand.AddCommand(configCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadedMetadata, loadError := application.configurationLoader.Load(application.configurationFilePath)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configuration = loadedConfiguration
	application.configurationMetadata = loadedMetadata

	logLevelValue := application.configuration.Repo.Logging
	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		logLevelValue = application.logLevelFlagValue
	}
	parsedLogLevel, logLevelError := utils.ParseLogLevel(logLevelValue)
	if logLevelError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, logLevelError)
	}

	logFormatValue := string(utils.LogFormatStructured)
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		logFormatValue = application.logFormatFlagValue
	}

	createdLogger, loggerCreationError := application.loggerFactory.CreateLogger(parsedLogLevel, utils.LogFormat(logFormatValue))
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = createdLogger
	application.logFormatFlagValue = logFormatValue

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(parsedLogLevel)),
		zap.String(configurationLogFormatFieldConstant, logFormatValue),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithRepositoryRoot(updatedContext, application.workingDirectory)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.logFormatFlagValue)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
