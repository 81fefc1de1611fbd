package models

// User is a login account keyed by the employee's DNI.
type User struct {
	DNI          string `gorm:"column:dni;primaryKey;type:varchar(20)"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null"`
	Role         string `gorm:"column:rol;type:varchar(50);not null;index"`
	Active       bool   `gorm:"column:activo;not null;default:true"`
}

func (User) TableName() string {
	return "usuarios"
}

// RoleVista grants (or revokes) one vista to a role.
type RoleVista struct {
	ID      uint   `gorm:"column:id;primaryKey"`
	Role    string `gorm:"column:rol;type:varchar(50);not null;uniqueIndex:ux_rol_vista"`
	Vista   string `gorm:"column:vista;type:varchar(80);not null;uniqueIndex:ux_rol_vista"`
	Enabled bool   `gorm:"column:habilitado;not null;default:true"`
}

func (RoleVista) TableName() string {
	return "rol_vistas"
}

// ReadModels lists every table the service reads, in dependency order.
func ReadModels() []interface{} {
	return []interface{}{
		&JobTitle{},
		&Campaign{},
		&Employee{},
		&User{},
		&RoleVista{},
	}
}
