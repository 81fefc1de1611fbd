package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"organigrama/internal/models"
)

var ErrEmployeeNotFound = errors.New("employee not found")

// EmployeeRepository is the read-only employee directory.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id string, status models.EmploymentStatus) (models.Employee, error) {
	var employee models.Employee
	err := r.scoped(ctx, status).
		Where("empleados.dni = ?", id).
		Take(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, queryError("find employee", err)
	}
	return employee, nil
}

// FindByManagerField lists employees whose field column points at managerID.
// When titleTerms is not empty, the job title must contain at least one of
// them (case-insensitive).
func (r *EmployeeRepository) FindByManagerField(
	ctx context.Context,
	field models.ManagerField,
	managerID string,
	status models.EmploymentStatus,
	titleTerms []string,
) ([]models.Employee, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown manager field %q", field)
	}

	query := r.scoped(ctx, status).Where("empleados."+string(field)+" = ?", managerID)

	if len(titleTerms) > 0 {
		conditions := make([]string, 0, len(titleTerms))
		args := make([]interface{}, 0, len(titleTerms))
		for _, term := range titleTerms {
			conditions = append(conditions, "LOWER(cargos.nombre_cargo) LIKE ?")
			args = append(args, "%"+strings.ToLower(term)+"%")
		}
		query = query.Where("("+strings.Join(conditions, " OR ")+")", args...)
	}

	var employees []models.Employee
	if err := orderByName(query).Find(&employees).Error; err != nil {
		return nil, queryError("find subordinates", err)
	}
	return employees, nil
}

func (r *EmployeeRepository) FindByJobTitleID(ctx context.Context, titleID int, status models.EmploymentStatus) ([]models.Employee, error) {
	var employees []models.Employee
	query := r.scoped(ctx, status).Where("empleados.cargo_id = ?", titleID)
	if err := orderByName(query).Find(&employees).Error; err != nil {
		return nil, queryError("find employees by job title", err)
	}
	return employees, nil
}

func (r *EmployeeRepository) scoped(ctx context.Context, status models.EmploymentStatus) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Select("empleados.*").
		Joins("LEFT JOIN cargos ON cargos.cargo_id = empleados.cargo_id").
		Preload("JobTitle").
		Preload("Campaign")
	if status != models.StatusAny {
		query = query.Where("empleados.estado_empleado = ?", string(status))
	}
	return query
}

func orderByName(query *gorm.DB) *gorm.DB {
	return query.Order("empleados.apellido_paterno, empleados.apellido_materno, empleados.nombres")
}

func queryError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: sqlstate %s: %w", op, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
