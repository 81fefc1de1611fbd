package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SectionKindTraining   = "training"
	SectionKindMonitoring = "monitoring"
)

//go:embed orgchart.yaml
var defaultOrgChart []byte

// OrgChart is the static part of the organigrama: who sits at the top, which
// area bosses hang under them and which managers render as synthetic sections.
type OrgChart struct {
	SupremeBoss AreaHead   `yaml:"supremeBoss"`
	AreaBosses  []AreaHead `yaml:"areaBosses"`
	Sections    []Section  `yaml:"sections"`
	Splits      []Split    `yaml:"splits"`
}

type AreaHead struct {
	ID       string `yaml:"id"`
	Area     string `yaml:"area"`
	AreaName string `yaml:"areaName"`
}

type Section struct {
	ID               string `yaml:"id"`
	Kind             string `yaml:"kind"`
	Name             string `yaml:"name"`
	Title            string `yaml:"title"`
	MemberJobTitleID int    `yaml:"memberJobTitleId"`
	Area             string `yaml:"area"`
	AreaName         string `yaml:"areaName"`
}

// Split replaces a manager's subordinate search with a fixed list of sections.
type Split struct {
	ManagerID string   `yaml:"managerId"`
	Sections  []string `yaml:"sections"`
}

// LoadOrgChart reads the layout from path, or the embedded default when path
// is empty.
func LoadOrgChart(path string) (OrgChart, error) {
	raw := defaultOrgChart
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return OrgChart{}, fmt.Errorf("read org chart config: %w", err)
		}
		raw = data
	}
	return ParseOrgChart(raw)
}

func ParseOrgChart(raw []byte) (OrgChart, error) {
	var chart OrgChart
	if err := yaml.Unmarshal(raw, &chart); err != nil {
		return OrgChart{}, fmt.Errorf("decode org chart config: %w", err)
	}
	if err := chart.Validate(); err != nil {
		return OrgChart{}, err
	}
	return chart, nil
}

func (c OrgChart) Validate() error {
	if strings.TrimSpace(c.SupremeBoss.ID) == "" {
		return fmt.Errorf("org chart: supremeBoss.id is required")
	}

	employeeIDs := map[string]struct{}{c.SupremeBoss.ID: {}}
	for i, boss := range c.AreaBosses {
		if strings.TrimSpace(boss.ID) == "" {
			return fmt.Errorf("org chart: areaBosses[%d].id is required", i)
		}
		if strings.TrimSpace(boss.Area) == "" {
			return fmt.Errorf("org chart: areaBosses[%d].area is required", i)
		}
		if _, dup := employeeIDs[boss.ID]; dup {
			return fmt.Errorf("org chart: id %s is listed more than once", boss.ID)
		}
		employeeIDs[boss.ID] = struct{}{}
	}

	sections := make(map[string]int, len(c.Sections))
	for i, section := range c.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return fmt.Errorf("org chart: sections[%d].id is required", i)
		}
		if _, clash := employeeIDs[section.ID]; clash {
			return fmt.Errorf("org chart: section id %s collides with an employee id", section.ID)
		}
		if _, dup := sections[section.ID]; dup {
			return fmt.Errorf("org chart: section id %s is listed more than once", section.ID)
		}
		if section.Kind != SectionKindTraining && section.Kind != SectionKindMonitoring {
			return fmt.Errorf("org chart: section %s has unknown kind %q", section.ID, section.Kind)
		}
		if section.MemberJobTitleID <= 0 {
			return fmt.Errorf("org chart: section %s needs a positive memberJobTitleId", section.ID)
		}
		sections[section.ID] = 0
	}

	managers := make(map[string]struct{}, len(c.Splits))
	for i, split := range c.Splits {
		if strings.TrimSpace(split.ManagerID) == "" {
			return fmt.Errorf("org chart: splits[%d].managerId is required", i)
		}
		if _, dup := managers[split.ManagerID]; dup {
			return fmt.Errorf("org chart: manager %s is split more than once", split.ManagerID)
		}
		managers[split.ManagerID] = struct{}{}
		if len(split.Sections) == 0 {
			return fmt.Errorf("org chart: split for %s lists no sections", split.ManagerID)
		}
		for _, id := range split.Sections {
			if _, ok := sections[id]; !ok {
				return fmt.Errorf("org chart: split for %s references unknown section %s", split.ManagerID, id)
			}
			sections[id]++
		}
	}

	for id, refs := range sections {
		if refs != 1 {
			return fmt.Errorf("org chart: section %s must belong to exactly one split, found %d", id, refs)
		}
	}

	return nil
}
