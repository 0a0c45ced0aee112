package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in catalog.
func Default() (domain.Catalog, error) {
	return parse(defaultCatalog)
}

// Load reads the catalog from path, or the built-in one when path is empty.
func Load(path string) (domain.Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return parse(raw)
}

func parse(raw []byte) (domain.Catalog, error) {
	var catalog domain.Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		return domain.Catalog{}, domain.WrapError(domain.ErrInvalidInput, "decode catalog", err)
	}
	if err := catalog.Validate(); err != nil {
		return domain.Catalog{}, err
	}
	return catalog, nil
}
