package signature

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSignature is the intermediate struct for one catalog file entry.
// Magic is hex-encoded so binary prefixes survive YAML round-trips.
type yamlSignature struct {
	Tag   string `yaml:"tag"`
	Magic string `yaml:"magic"`
}

// yamlCatalogFile represents the top-level structure of a catalog YAML
// file: a "signatures" array.
type yamlCatalogFile struct {
	Signatures []yamlSignature `yaml:"signatures"`
}

// LoadCatalog parses catalog entries from YAML bytes. Entries keep file
// order, which becomes scan tie-break order.
func LoadCatalog(data []byte) ([]Signature, error) {
	var yamlFile yamlCatalogFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Signatures) == 0 {
		return nil, fmt.Errorf("no signatures found in YAML")
	}

	out := make([]Signature, 0, len(yamlFile.Signatures))
	for i, ys := range yamlFile.Signatures {
		if ys.Tag == "" {
			return nil, fmt.Errorf("signature %d: tag is required", i)
		}
		magic, err := hex.DecodeString(ys.Magic)
		if err != nil {
			return nil, fmt.Errorf("signature %q: invalid magic hex: %w", ys.Tag, err)
		}
		if len(magic) == 0 {
			return nil, fmt.Errorf("signature %q: magic is required", ys.Tag)
		}
		out = append(out, Signature{Tag: ys.Tag, Magic: magic})
	}

	return out, nil
}

// LoadCatalogFile loads catalog entries from a YAML file path.
func LoadCatalogFile(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return LoadCatalog(data)
}
