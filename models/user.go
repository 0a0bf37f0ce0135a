package models

// UserRole соответствует роли пользователя на платформе.
type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleAdmin    UserRole = "admin"
)

// User — отображаемые данные пользователя. Таблица users принадлежит
// основной платформе, здесь она только читается.
type User struct {
	ID         int      `json:"id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Department string   `json:"department"`
	Role       UserRole `json:"role"`
}

// DisplayName собирает имя для списков и дашборда.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
