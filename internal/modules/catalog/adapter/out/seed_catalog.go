package out

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"bnkchallenge/internal/modules/catalog/domain"
)

//go:embed seed/missions.yaml
var seedYAML []byte

type seedFile struct {
	User        domain.User      `yaml:"user"`
	Recommended []domain.Mission `yaml:"recommended"`
	Missions    []domain.Mission `yaml:"missions"`
}

// SeedCatalog is the catalog bundled into the binary.
type SeedCatalog struct {
	file seedFile
}

func NewSeedCatalog() (*SeedCatalog, error) {
	return ParseSeedCatalog(seedYAML)
}

func ParseSeedCatalog(raw []byte) (*SeedCatalog, error) {
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}
	for _, m := range append(slices.Clone(file.Missions), file.Recommended...) {
		if _, err := domain.ParseCategory(string(m.Category)); err != nil {
			return nil, fmt.Errorf("seed mission %s: %w", m.ID, err)
		}
	}
	return &SeedCatalog{file: file}, nil
}

func (s *SeedCatalog) Missions() []domain.Mission { return slices.Clone(s.file.Missions) }
func (s *SeedCatalog) Recommended() []domain.Mission { return slices.Clone(s.file.Recommended) }
func (s *SeedCatalog) User() domain.User { return s.file.User }
