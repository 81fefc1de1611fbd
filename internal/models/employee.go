package models

import (
	"strings"
	"time"
)

type EmploymentStatus string

const (
	StatusActive   EmploymentStatus = "Activo"
	StatusInactive EmploymentStatus = "Cese"
	// StatusAny disables status filtering in directory lookups.
	StatusAny EmploymentStatus = ""
)

// ManagerField names one of the parallel manager-reference columns.
type ManagerField string

const (
	ManagerFieldBoss        ManagerField = "jefe_dni"
	ManagerFieldCoordinator ManagerField = "coordinador_dni"
	ManagerFieldSupervisor  ManagerField = "supervisor_dni"
)

func (f ManagerField) Valid() bool {
	switch f {
	case ManagerFieldBoss, ManagerFieldCoordinator, ManagerFieldSupervisor:
		return true
	}
	return false
}

type Employee struct {
	DNI             string           `gorm:"column:dni;primaryKey;type:varchar(20)"`
	FirstNames      string           `gorm:"column:nombres;type:varchar(100);not null"`
	PaternalSurname string           `gorm:"column:apellido_paterno;type:varchar(100)"`
	MaternalSurname string           `gorm:"column:apellido_materno;type:varchar(100)"`
	JobTitleID      *int             `gorm:"column:cargo_id;index"`
	JobTitle        *JobTitle        `gorm:"foreignKey:JobTitleID;references:ID"`
	CampaignID      *int             `gorm:"column:campania_id;index"`
	Campaign        *Campaign        `gorm:"foreignKey:CampaignID;references:ID"`
	HireDate        *time.Time       `gorm:"column:fecha_contratacion;type:date"`
	Status          EmploymentStatus `gorm:"column:estado_empleado;type:varchar(30);index"`
	SupervisorDNI   *string          `gorm:"column:supervisor_dni;type:varchar(20);index"`
	CoordinatorDNI  *string          `gorm:"column:coordinador_dni;type:varchar(20);index"`
	BossDNI         *string          `gorm:"column:jefe_dni;type:varchar(20);index"`
}

func (Employee) TableName() string {
	return "empleados"
}

func (e Employee) FullName() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{e.FirstNames, e.PaternalSurname, e.MaternalSurname} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

func (e Employee) JobTitleName() string {
	if e.JobTitle == nil {
		return ""
	}
	return e.JobTitle.Name
}

func (e Employee) CampaignName() string {
	if e.Campaign == nil {
		return ""
	}
	return e.Campaign.Name
}

type JobTitle struct {
	ID   int    `gorm:"column:cargo_id;primaryKey"`
	Name string `gorm:"column:nombre_cargo;type:varchar(150);not null"`
}

func (JobTitle) TableName() string {
	return "cargos"
}

type Campaign struct {
	ID   int    `gorm:"column:campania_id;primaryKey"`
	Name string `gorm:"column:nombre_campania;type:varchar(150);not null"`
}

func (Campaign) TableName() string {
	return "campanias"
}
