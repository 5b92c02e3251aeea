package repoconfig

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	tomlEncodeErrorTemplateConstant = "failed to encode configuration as TOML: %w"
	tomlDecodeErrorTemplateConstant = "failed to decode TOML configuration: %w"
	yamlEncodeErrorTemplateConstant = "failed to encode configuration as YAML: %w"
)

// EncodeTOML serializes the configuration back into a TOML document.
func EncodeTOML(configuration Configuration) ([]byte, error) {
	encodedDocument, encodeError := toml.Marshal(configuration)
	if encodeError != nil {
		return nil, fmt.Errorf(tomlEncodeErrorTemplateConstant, encodeError)
	}
	return encodedDocument, nil
}

// DecodeTOML parses a TOML document into a raw, unvalidated configuration.
func DecodeTOML(documentData []byte) (Configuration, error) {
	var decodedConfiguration Configuration
	if decodeError := toml.Unmarshal(documentData, &decodedConfiguration); decodeError != nil {
		return Configuration{}, fmt.Errorf(tomlDecodeErrorTemplateConstant, decodeError)
	}
	return decodedConfiguration, nil
}

// EncodeYAML serializes the configuration as a YAML document.
func EncodeYAML(configuration Configuration) ([]byte, error) {
	encodedDocument, encodeError := yaml.Marshal(configuration)
	if encodeError != nil {
		return nil, fmt.Errorf(yamlEncodeErrorTemplateConstant, encodeError)
	}
	return encodedDocument, nil
}
