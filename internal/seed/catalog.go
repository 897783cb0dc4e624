package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"rwid/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalog []byte

// Catalog is the set of platforms the seeder creates.
type Catalog struct {
	Platforms []PlatformSpec `yaml:"platforms"`
}

// PlatformSpec describes one platform and its communities.
type PlatformSpec struct {
	Name         string          `yaml:"name"`
	Slug         string          `yaml:"slug"`
	Tagline      string          `yaml:"tagline"`
	Description  string          `yaml:"description"`
	PrimaryColor string          `yaml:"primaryColor"`
	LogoURL      string          `yaml:"logoUrl"`
	Public       bool            `yaml:"public"`
	Features     FeatureSpec     `yaml:"features"`
	Communities  []CommunitySpec `yaml:"communities"`
	// Pinned posts are written by the owner into the first community.
	Pinned []string `yaml:"pinned"`
}

// FeatureSpec mirrors the platform feature toggles.
type FeatureSpec struct {
	Communities    bool `yaml:"communities"`
	Courses        bool `yaml:"courses"`
	SuccessStories bool `yaml:"successStories"`
}

// CommunitySpec describes one community.
type CommunitySpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Thumbnail   string `yaml:"thumbnail"`
}

// DefaultCatalog returns the built-in development catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate normalizes slugs and checks they are well formed and unique.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Platforms))
	for i := range c.Platforms {
		p := &c.Platforms[i]
		p.Slug = validation.NormalizeSlug(p.Slug)
		if p.Name == "" || p.Slug == "" {
			return fmt.Errorf("catalog platform %d: name and slug are required", i)
		}
		if err := validation.ValidatePlatformSlug(p.Slug); err != nil {
			return fmt.Errorf("catalog platform %q: %w", p.Slug, err)
		}
		if seen[p.Slug] {
			return fmt.Errorf("catalog platform %q: duplicate slug", p.Slug)
		}
		seen[p.Slug] = true
		for j, community := range p.Communities {
			if strings.TrimSpace(community.Name) == "" {
				return fmt.Errorf("catalog platform %q community %d: name is required", p.Slug, j)
			}
		}
	}
	return nil
}
