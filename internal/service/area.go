package service

import "organigrama/internal/config"

const (
	AreaOperations = "OPERATIONS"
	AreaOutbound   = "OUTBOUND"
	AreaQuality    = "QUALITY"
	AreaATC        = "ATC"
	AreaTraining   = "TRAINING-SECTION"
	AreaMonitoring = "MONITORING-SECTION"
	AreaOther      = "OTHER"
)

type Area struct {
	Tag  string
	Name string
}

var otherArea = Area{Tag: AreaOther, Name: "Otros"}

// AreaTable maps the configured ids (supreme boss, area bosses and sections)
// to their business area. It is built once and never mutated.
type AreaTable struct {
	byID map[string]Area
}

func NewAreaTable(chart config.OrgChart) AreaTable {
	byID := make(map[string]Area, len(chart.AreaBosses)+len(chart.Sections)+1)

	add := func(id, tag, name string) {
		if tag == "" {
			tag = AreaOther
		}
		if name == "" {
			name = tag
		}
		byID[id] = Area{Tag: tag, Name: name}
	}

	add(chart.SupremeBoss.ID, chart.SupremeBoss.Area, chart.SupremeBoss.AreaName)
	for _, boss := range chart.AreaBosses {
		add(boss.ID, boss.Area, boss.AreaName)
	}
	for _, section := range chart.Sections {
		add(section.ID, section.Area, section.AreaName)
	}

	return AreaTable{byID: byID}
}

// Resolve never fails: unknown ids belong to OTHER.
func (t AreaTable) Resolve(id string) Area {
	if area, ok := t.byID[id]; ok {
		return area
	}
	return otherArea
}

// matchesArea reports whether area passes the filter. An empty filter, "all"
// and "todos" let everything through; otherwise the filter must equal the tag
// or the display name, ignoring case and accents.
func matchesArea(filter string, area Area) bool {
	f := fold(filter)
	switch f {
	case "", "all", "todos":
		return true
	}
	return f == fold(area.Tag) || f == fold(area.Name)
}
