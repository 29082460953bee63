package intel

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// registryFile mirrors categories.yaml: the structured category map plus the
// named template and comprehensive query listings. Query bodies live in
// separate files referenced by relative path.
type registryFile struct {
	Templates     []definitionEntry `yaml:"templates"`
	Categories    []categoryEntry   `yaml:"categories"`
	Comprehensive []definitionEntry `yaml:"comprehensive"`
}

type definitionEntry struct {
	Key         string   `yaml:"key"`
	DisplayName string   `yaml:"display_name"`
	Category    string   `yaml:"category"`
	Body        string   `yaml:"body"`
	Fields      []string `yaml:"fields"`
	Cap         int      `yaml:"cap"`
	Order       string   `yaml:"order"`
}

type categoryEntry struct {
	Name        string            `yaml:"name"`
	DisplayName string            `yaml:"display_name"`
	Variants    []definitionEntry `yaml:"variants"`
}

// LoadRegistry reads the query definition catalog from dir. The directory
// must contain categories.yaml and the query body files it references.
// Loading happens once at process start; the resulting registry is immutable
// and safe to share across concurrent searches.
func LoadRegistry(dir string) (*Registry, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "categories.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry config: %w", err)
	}

	var cfg registryFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse registry config: %w", err)
	}

	readBody := func(entry definitionEntry) (string, error) {
		if entry.Body == "" {
			return "", fmt.Errorf("definition %q has no body file", entry.Key)
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Body))
		if err != nil {
			return "", fmt.Errorf("failed to read body for %q: %w", entry.Key, err)
		}
		return string(body), nil
	}

	toDefinition := func(entry definitionEntry, category, subcategory string) (QueryDefinition, error) {
		body, err := readBody(entry)
		if err != nil {
			return QueryDefinition{}, err
		}
		def := QueryDefinition{
			Key:         entry.Key,
			DisplayName: entry.DisplayName,
			Category:    category,
			Subcategory: subcategory,
			Body:        body,
			Fields:      entry.Fields,
			ResultCap:   entry.Cap,
			Ordering:    Ordering(entry.Order),
		}
		if def.Category == "" {
			def.Category = entry.Category
		}
		return def, nil
	}

	templates := make([]QueryDefinition, 0, len(cfg.Templates))
	for _, entry := range cfg.Templates {
		def, err := toDefinition(entry, entry.Category, "")
		if err != nil {
			return nil, err
		}
		templates = append(templates, def)
	}

	var categories []QueryDefinition
	for _, group := range cfg.Categories {
		displayName := group.DisplayName
		if displayName == "" {
			displayName = group.Name
		}
		for _, entry := range group.Variants {
			def, err := toDefinition(entry, displayName, entry.Key)
			if err != nil {
				return nil, err
			}
			if def.DisplayName == "" {
				def.DisplayName = displayName
			}
			categories = append(categories, def)
		}
	}

	comprehensive := make([]QueryDefinition, 0, len(cfg.Comprehensive))
	for _, entry := range cfg.Comprehensive {
		def, err := toDefinition(entry, entry.Category, "")
		if err != nil {
			return nil, err
		}
		comprehensive = append(comprehensive, def)
	}

	return NewRegistry(templates, categories, comprehensive)
}
