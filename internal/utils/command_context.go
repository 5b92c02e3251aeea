package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	repositoryRootContextKeyConstant        = commandContextKey("repositoryRoot")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithRepositoryRoot attaches the resolved repository root directory to the provided context.
func (accessor CommandContextAccessor) WithRepositoryRoot(parentContext context.Context, repositoryRoot string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, repositoryRootContextKeyConstant, repositoryRoot)
}

// RepositoryRoot extracts the repository root directory from the provided context.
func (accessor CommandContextAccessor) RepositoryRoot(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	repositoryRoot, repositoryRootAvailable := executionContext.Value(repositoryRootContextKeyConstant).(string)
	if !repositoryRootAvailable {
		return "", false
	}
	return repositoryRoot, true
}
