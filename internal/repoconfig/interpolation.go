package repoconfig

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	interpolationTokenPrefixConstant             = "${conf:"
	interpolationTokenSuffixConstant             = "}"
	unresolvedReferenceMessageTemplateConstant   = "unresolved configuration reference %q"
	referenceCycleMessageTemplateConstant        = "configuration reference cycle involving %q"
	repoNameReferenceKeyConstant                 = "repo.name"
	repoLoggingReferenceKeyConstant              = "repo.logging"
	packageReferenceKeyTemplateConstant          = "repo_package.packages.%s.archive_name"
	formatPythonVersionReferenceTemplateConstant = "repo_format.%s.python_version"
)

var interpolationTokenPattern = regexp.MustCompile(`\$\{conf:([^}]+)\}`)

// UnresolvedReferenceError reports a ${conf:...} token pointing at an unknown configuration key.
type UnresolvedReferenceError struct {
	Reference string
}

// Error describes the unresolved reference.
func (resolutionError UnresolvedReferenceError) Error() string {
	return fmt.Sprintf(unresolvedReferenceMessageTemplateConstant, resolutionError.Reference)
}

// ReferenceCycleError reports interpolation references that depend on themselves.
type ReferenceCycleError struct {
	Reference string
}

// Error describes the reference cycle.
func (cycleError ReferenceCycleError) Error() string {
	return fmt.Sprintf(referenceCycleMessageTemplateConstant, cycleError.Reference)
}

// Resolver substitutes ${conf:<key>} references with configuration values.
type Resolver struct {
	referenceValues map[string]string
}

// NewResolver indexes the interpolatable string values of the configuration.
func NewResolver(configuration Configuration) *Resolver {
	referenceValues := map[string]string{
		repoNameReferenceKeyConstant:    configuration.Repo.Name,
		repoLoggingReferenceKeyConstant: configuration.Repo.Logging,
	}

	for packageIdentifier, packageDefinition := range configuration.Package.Packages {
		referenceKey := fmt.Sprintf(packageReferenceKeyTemplateConstant, packageIdentifier)
		referenceValues[referenceKey] = packageDefinition.ArchiveName
	}

	for toolName, formatSettings := range configuration.Format {
		referenceKey := fmt.Sprintf(formatPythonVersionReferenceTemplateConstant, toolName)
		referenceValues[referenceKey] = formatSettings.PythonVersion
	}

	return &Resolver{referenceValues: referenceValues}
}

// ResolveString expands every reference token inside the provided value.
// Referenced values may themselves contain references; cycles are rejected.
func (resolver *Resolver) ResolveString(rawValue string) (string, error) {
	return resolver.expandValue(rawValue, map[string]struct{}{})
}

func (resolver *Resolver) expandValue(rawValue string, activeReferences map[string]struct{}) (string, error) {
	var expansionError error

	expandedValue := interpolationTokenPattern.ReplaceAllStringFunc(rawValue, func(token string) string {
		if expansionError != nil {
			return token
		}
		referenceKey := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(token, interpolationTokenPrefixConstant), interpolationTokenSuffixConstant))
		resolvedValue, referenceError := resolver.expandReference(referenceKey, activeReferences)
		if referenceError != nil {
			expansionError = referenceError
			return token
		}
		return resolvedValue
	})

	if expansionError != nil {
		return "", expansionError
	}
	return expandedValue, nil
}

func (resolver *Resolver) expandReference(referenceKey string, activeReferences map[string]struct{}) (string, error) {
	if _, referenceActive := activeReferences[referenceKey]; referenceActive {
		return "", ReferenceCycleError{Reference: referenceKey}
	}

	referencedValue, referenceExists := resolver.referenceValues[referenceKey]
	if !referenceExists {
		return "", UnresolvedReferenceError{Reference: referenceKey}
	}

	activeReferences[referenceKey] = struct{}{}
	defer delete(activeReferences, referenceKey)

	return resolver.expandValue(referencedValue, activeReferences)
}

// ResolveConfiguration returns a copy of the configuration with archive names fully interpolated.
func ResolveConfiguration(configuration Configuration) (Configuration, error) {
	resolver := NewResolver(configuration)
	resolved := configuration

	if len(configuration.Package.Packages) > 0 {
		resolvedPackages := make(map[string]PackageDefinition, len(configuration.Package.Packages))
		for packageIdentifier, packageDefinition := range configuration.Package.Packages {
			resolvedArchiveName, resolutionError := resolver.ResolveString(packageDefinition.ArchiveName)
			if resolutionError != nil {
				return Configuration{}, resolutionError
			}
			packageDefinition.ArchiveName = resolvedArchiveName
			resolvedPackages[packageIdentifier] = packageDefinition
		}
		resolved.Package.Packages = resolvedPackages
	}

	return resolved, nil
}
