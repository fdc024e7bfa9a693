package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// loadSearchFile overlays the keys present in a YAML file onto cfg.
// Unknown keys are rejected.
//
//	text_weight: 0.7
//	embedding_weight: 0.3
//	strategy: rrf
func loadSearchFile(path string, cfg *SearchConfig) error {
	f, err := os.Open(path) //#nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("open search config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse search config %s: %w", path, err)
	}
	return nil
}
