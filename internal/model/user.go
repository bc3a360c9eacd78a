package model

// UserRole — роль пользователя.
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User — учётная запись. RefreshToken хранит единственный действующий refresh-токен.
type User struct {
	Base
	SoftDelete

	Username     string   `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password     string   `gorm:"not null" json:"-"`
	FullName     string   `gorm:"size:100" json:"full_name"`
	Phone        *string  `json:"phone,omitempty"`
	Role         UserRole `gorm:"size:16;not null;default:user" json:"role"`
	Active       *bool    `json:"active"`
	Image        *string  `json:"image,omitempty"`
	RefreshToken *string  `gorm:"size:1024" json:"-"`
}

// IsActive — отсутствующий флаг считается отключённой учётной записью.
func (u *User) IsActive() bool {
	return u.Active != nil && *u.Active
}

// LogEntry — запись журнала аудита.
type LogEntry struct {
	Base

	ActionType string `gorm:"size:32" json:"action_type"`
	Path       string `json:"path"`
	Request    string `json:"request"`
	Response   string `json:"response"`
	StatusCode int    `json:"status_code"`
	UserName   string `gorm:"index" json:"user_name"`
	IP         string `json:"ip"`
}

// All перечисляет модели для миграции.
func All() []any {
	return []any{&Location{}, &Ownership{}, &Car{}, &Attachment{}, &User{}, &LogEntry{}}
}
