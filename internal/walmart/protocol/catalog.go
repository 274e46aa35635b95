package protocol

import (
	"encoding/json"
	"fmt"
	"os"
)

type ConfiguredCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

type ConfiguredStream struct {
	Stream              CatalogStream `json:"stream"`
	SyncMode            SyncMode      `json:"sync_mode"`
	DestinationSyncMode string        `json:"destination_sync_mode,omitempty"`
}

// LoadConfiguredCatalog reads the catalog passed to the read command.
func LoadConfiguredCatalog(path string) (*ConfiguredCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var catalog ConfiguredCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	return &catalog, nil
}

// Lookup returns the configured entry for stream, if any.
func (c *ConfiguredCatalog) Lookup(stream string) (ConfiguredStream, bool) {
	for _, s := range c.Streams {
		if s.Stream.Name == stream {
			return s, true
		}
	}
	return ConfiguredStream{}, false
}

// NewCatalogStream describes a full refresh stream with a free-form schema.
func NewCatalogStream(name string, primaryKey []string) CatalogStream {
	pk := make([][]string, 0, len(primaryKey))
	for _, field := range primaryKey {
		pk = append(pk, []string{field})
	}
	return CatalogStream{
		Name: name,
		JSONSchema: map[string]interface{}{
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"type":                 "object",
			"additionalProperties": true,
		},
		SupportedSyncModes:      []SyncMode{FullRefresh},
		SourceDefinedPrimaryKey: pk,
	}
}
