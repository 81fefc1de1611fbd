package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"organigrama/internal/apperror"
	"organigrama/internal/config"
	"organigrama/internal/metrics"
	"organigrama/internal/models"
	"organigrama/internal/repository"
)

var (
	coordinatorTerms = []string{"coordinador"}
	supervisorTerms  = []string{"supervisor"}
	agentTerms       = []string{"agente", "operador", "asesor"}
)

// ParseStatus turns the estado query value into a directory filter. Empty
// means active employees; "todos" and "all" disable the filter.
func ParseStatus(raw string) models.EmploymentStatus {
	value := strings.TrimSpace(raw)
	switch fold(value) {
	case "":
		return models.StatusActive
	case "todos", "all":
		return models.StatusAny
	}
	return models.EmploymentStatus(value)
}

type OrgChartService struct {
	directory EmployeeDirectory
	chart     config.OrgChart
	areas     AreaTable
	sections  map[string]config.Section
	splits    map[string][]config.Section
	logger    *zap.Logger
}

func NewOrgChartService(directory EmployeeDirectory, chart config.OrgChart, logger *zap.Logger) *OrgChartService {
	sections := make(map[string]config.Section, len(chart.Sections))
	for _, section := range chart.Sections {
		sections[section.ID] = section
	}

	splits := make(map[string][]config.Section, len(chart.Splits))
	for _, split := range chart.Splits {
		for _, id := range split.Sections {
			splits[split.ManagerID] = append(splits[split.ManagerID], sections[id])
		}
	}

	return &OrgChartService{
		directory: directory,
		chart:     chart,
		areas:     NewAreaTable(chart),
		sections:  sections,
		splits:    splits,
		logger:    logger,
	}
}

// BuildRoot returns the supreme boss with the area bosses that pass the area
// filter as children, in configured order. Area bosses are not expanded.
func (s *OrgChartService) BuildRoot(ctx context.Context, query RootQuery) (OrgNode, error) {
	status := ParseStatus(query.Status)

	supreme, err := s.findEmployee(ctx, s.chart.SupremeBoss.ID, status, "supreme boss")
	if err != nil {
		metrics.RecordRootBuild(resultOf(err))
		return OrgNode{}, err
	}

	root := s.employeeNode(supreme, LevelSupreme)
	root.Expandable = true

	for _, boss := range s.chart.AreaBosses {
		if !matchesArea(query.Area, s.areas.Resolve(boss.ID)) {
			continue
		}

		employee, err := s.findEmployee(ctx, boss.ID, status, "area boss")
		if err != nil {
			metrics.RecordRootBuild(resultOf(err))
			return OrgNode{}, err
		}

		child := s.employeeNode(employee, LevelAreaBoss)
		child.Expandable = true
		root.Children = append(root.Children, child)
	}

	metrics.RecordRootBuild("ok")
	return root, nil
}

// Expand returns the node identified by query.ID and its direct children.
// The area filter is accepted for symmetry with BuildRoot and does not narrow
// the children.
func (s *OrgChartService) Expand(ctx context.Context, query ExpandQuery) (Expansion, error) {
	id := strings.TrimSpace(query.ID)
	if id == "" {
		return Expansion{}, apperror.MissingParameter("dni")
	}
	status := ParseStatus(query.Status)

	if section, ok := s.sections[id]; ok {
		expansion, err := s.expandSection(ctx, section, status)
		if err != nil {
			metrics.RecordExpansion(resultOf(err))
		}
		return expansion, err
	}

	employee, err := s.findEmployee(ctx, id, status, "employee")
	if err != nil {
		metrics.RecordExpansion(resultOf(err))
		return Expansion{}, err
	}

	level := Classify(employee.JobTitleName(), SectionNone)
	expansion := Expansion{
		Employee:     s.employeeNode(employee, level),
		Subordinates: []OrgNode{},
	}

	if sections, ok := s.splits[id]; ok {
		for _, section := range sections {
			expansion.Subordinates = append(expansion.Subordinates, s.sectionNode(section))
		}
		metrics.RecordExpansion("split")
		return expansion, nil
	}

	var (
		employees []models.Employee
		branch    string
	)
	switch level {
	case LevelSupreme, LevelAreaBoss:
		branch = "boss"
		employees, err = s.directory.FindByManagerField(ctx, models.ManagerFieldBoss, id, status, coordinatorTerms)
		if err == nil && len(employees) == 0 {
			// No coordinator layer: either a flat area or a missing
			// coordinator assignment in the directory.
			s.logger.Debug("no coordinators under boss, falling back to supervisors", zap.String("dni", id))
			branch = "boss_fallback"
			employees, err = s.directory.FindByManagerField(ctx, models.ManagerFieldBoss, id, status, supervisorTerms)
		}
	case LevelCoordinator:
		branch = "coordinator"
		employees, err = s.directory.FindByManagerField(ctx, models.ManagerFieldCoordinator, id, status, supervisorTerms)
	case LevelSupervisor:
		branch = "supervisor"
		employees, err = s.directory.FindByManagerField(ctx, models.ManagerFieldSupervisor, id, status, agentTerms)
	default:
		branch = "leaf"
	}
	if err != nil {
		metrics.RecordExpansion(resultOf(err))
		return Expansion{}, fmt.Errorf("expand %s: %w", id, err)
	}

	for _, e := range employees {
		expansion.Subordinates = append(expansion.Subordinates, s.childNode(e))
	}
	metrics.RecordExpansion(branch)
	return expansion, nil
}

func (s *OrgChartService) expandSection(ctx context.Context, section config.Section, status models.EmploymentStatus) (Expansion, error) {
	members, err := s.directory.FindByJobTitleID(ctx, section.MemberJobTitleID, status)
	if err != nil {
		return Expansion{}, fmt.Errorf("expand section %s: %w", section.ID, err)
	}

	area := s.areas.Resolve(section.ID)
	expansion := Expansion{
		Employee:     s.sectionNode(section),
		Subordinates: make([]OrgNode, 0, len(members)),
	}
	for _, member := range members {
		node := s.employeeNode(member, LevelLeaf)
		node.Area = area.Tag
		node.AreaName = area.Name
		expansion.Subordinates = append(expansion.Subordinates, node)
	}

	metrics.RecordExpansion("section")
	return expansion, nil
}

func (s *OrgChartService) findEmployee(ctx context.Context, id string, status models.EmploymentStatus, role string) (models.Employee, error) {
	employee, err := s.directory.FindByID(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return models.Employee{}, apperror.New(apperror.CodeNotFound, fmt.Sprintf("%s %s not found", role, id))
		}
		return models.Employee{}, fmt.Errorf("load %s %s: %w", role, id, err)
	}
	return employee, nil
}

func (s *OrgChartService) childNode(e models.Employee) OrgNode {
	node := s.employeeNode(e, Classify(e.JobTitleName(), SectionNone))
	// Config keeps section ids apart from configured DNIs, but a directory
	// row may still carry one; such a row stays expandable.
	_, isSection := s.sections[e.DNI]
	node.Expandable = isSection || node.Level < LevelLeaf
	return node
}

func (s *OrgChartService) employeeNode(e models.Employee, level Level) OrgNode {
	area := s.areas.Resolve(e.DNI)
	node := OrgNode{
		ID:           e.DNI,
		Name:         e.FullName(),
		JobTitle:     e.JobTitleName(),
		JobTitleID:   e.JobTitleID,
		CampaignID:   e.CampaignID,
		CampaignName: e.CampaignName(),
		Area:         area.Tag,
		AreaName:     area.Name,
		Level:        level,
		Expandable:   level < LevelLeaf,
		Children:     []OrgNode{},
	}
	if e.HireDate != nil {
		node.HireDate = e.HireDate.Format("2006-01-02")
	}
	return node
}

func (s *OrgChartService) sectionNode(section config.Section) OrgNode {
	area := s.areas.Resolve(section.ID)
	return OrgNode{
		ID:         section.ID,
		Name:       section.Name,
		JobTitle:   section.Title,
		Area:       area.Tag,
		AreaName:   area.Name,
		Level:      Classify(section.Title, sectionKind(section.Kind)),
		Expandable: true,
		Children:   []OrgNode{},
	}
}

func sectionKind(kind string) SectionKind {
	switch kind {
	case config.SectionKindTraining:
		return SectionTraining
	case config.SectionKindMonitoring:
		return SectionMonitoring
	}
	return SectionNone
}

func resultOf(err error) string {
	if apperror.GetCode(err) == apperror.CodeNotFound {
		return "not_found"
	}
	return "error"
}
