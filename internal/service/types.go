package service

import (
	"context"
	"time"

	"organigrama/internal/auth"
	"organigrama/internal/models"
)

// OrgNode is one box of the chart. Nodes are built per request and never kept.
type OrgNode struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	JobTitle     string    `json:"jobTitle"`
	JobTitleID   *int      `json:"jobTitleId"`
	CampaignID   *int      `json:"campaignId"`
	CampaignName string    `json:"campaignName"`
	HireDate     string    `json:"hireDate,omitempty"`
	Area         string    `json:"area"`
	AreaName     string    `json:"areaName"`
	Level        Level     `json:"level"`
	Expandable   bool      `json:"expandable"`
	Children     []OrgNode `json:"children"`
}

// Expansion is a node together with its direct children.
type Expansion struct {
	Employee     OrgNode   `json:"empleado"`
	Subordinates []OrgNode `json:"subordinados"`
}

type RootQuery struct {
	Area   string
	Status string
}

type ExpandQuery struct {
	ID     string
	Area   string
	Status string
}

type LoginInput struct {
	DNI      string
	Password string
}

type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiraEn"`
	User      auth.Identity `json:"usuario"`
}

type OrgChart interface {
	BuildRoot(ctx context.Context, query RootQuery) (OrgNode, error)
	Expand(ctx context.Context, query ExpandQuery) (Expansion, error)
}

type Authenticator interface {
	Login(ctx context.Context, input LoginInput) (LoginResult, error)
}

// EmployeeDirectory is the read-only employee store the chart is built from.
type EmployeeDirectory interface {
	FindByID(ctx context.Context, id string, status models.EmploymentStatus) (models.Employee, error)
	FindByManagerField(ctx context.Context, field models.ManagerField, managerID string, status models.EmploymentStatus, titleTerms []string) ([]models.Employee, error)
	FindByJobTitleID(ctx context.Context, titleID int, status models.EmploymentStatus) ([]models.Employee, error)
}

type AccountStore interface {
	FindUser(ctx context.Context, dni string) (models.User, error)
	EnabledVistas(ctx context.Context, role string) ([]string, error)
}

type TokenSigner interface {
	Issue(identity auth.Identity) (string, time.Time, error)
}
