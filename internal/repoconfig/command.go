package repoconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/utils"
	"github.com/temirov/repotool/internal/utils/flags"
)

const (
	configCommandUseConstant              = "config"
	configCommandShortDescriptionConstant = "Inspect the resolved repo.toml configuration"
	configCommandLongDescriptionConstant  = "config groups subcommands that validate and display the configuration after sanitization, interpolation, and validation."

	validateCommandUseConstant              = "validate"
	validateCommandShortDescriptionConstant = "Validate repo.toml and report the file in effect"

	showCommandUseConstant              = "show"
	showCommandShortDescriptionConstant = "Print the resolved configuration"

	showFormatFlagNameConstant        = "format"
	showFormatFlagDescriptionConstant = "Output document format"
	showFormatTOMLConstant            = "toml"
	showFormatYAMLConstant            = "yaml"

	unexpectedArgumentsErrorMessageConstant = "config subcommands do not accept positional arguments"
	unsupportedFormatErrorTemplateConstant  = "unsupported output format %q"
	validationSucceededTemplateConstant     = "Configuration valid: %s\n"
	validationDefaultsMessageConstant       = "Configuration valid: built-in defaults\n"

	configValidatedLogMessageConstant = "configuration validated"
	logFieldConfigurationFileConstant = "configuration_file"
)

var configCommandContextAccessor = utils.NewCommandContextAccessor()

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved repo.toml configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the config command group.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the config command with its validate and show subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	configCommand := &cobra.Command{
		Use:   configCommandUseConstant,
		Short: configCommandShortDescriptionConstant,
		Long:  configCommandLongDescriptionConstant,
	}

	validateCommand := &cobra.Command{
		Use:   validateCommandUseConstant,
		Short: validateCommandShortDescriptionConstant,
		RunE:  builder.runValidate,
	}

	showCommand := &cobra.Command{
		Use:   showCommandUseConstant,
		Short: showCommandShortDescriptionConstant,
		RunE:  builder.runShow,
	}
	showFormatUsage := flags.FormatChoiceUsage(showFormatTOMLConstant, []string{showFormatTOMLConstant, showFormatYAMLConstant}, showFormatFlagDescriptionConstant)
	showCommand.Flags().String(showFormatFlagNameConstant, showFormatTOMLConstant, showFormatUsage)

	configCommand.AddCommand(validateCommand)
	configCommand.AddCommand(showCommand)

	return configCommand, nil
}

func (builder *CommandBuilder) runValidate(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configurationFilePath, configurationFileAvailable := configCommandContextAccessor.ConfigurationFilePath(command.Context())

	builder.resolveLogger().Info(
		configValidatedLogMessageConstant,
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
	)

	if configurationFileAvailable && len(configurationFilePath) > 0 {
		fmt.Fprintf(command.OutOrStdout(), validationSucceededTemplateConstant, configurationFilePath)
		return nil
	}

	fmt.Fprint(command.OutOrStdout(), validationDefaultsMessageConstant)
	return nil
}

func (builder *CommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	formatFlagValue, formatFlagError := command.Flags().GetString(showFormatFlagNameConstant)
	if formatFlagError != nil {
		return formatFlagError
	}

	resolvedConfiguration := builder.resolveConfiguration()

	var encodedDocument []byte
	var encodeError error
	switch strings.ToLower(strings.TrimSpace(formatFlagValue)) {
	case showFormatTOMLConstant:
		encodedDocument, encodeError = EncodeTOML(resolvedConfiguration)
	case showFormatYAMLConstant:
		encodedDocument, encodeError = EncodeYAML(resolvedConfiguration)
	default:
		return fmt.Errorf(unsupportedFormatErrorTemplateConstant, formatFlagValue)
	}
	if encodeError != nil {
		return encodeError
	}

	command.OutOrStdout().Write(encodedDocument)
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return Configuration{}
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
