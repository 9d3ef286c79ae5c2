package model

import "encoding/json"

type Role string

const (
	RoleFormando Role = "formando"
	RoleGestor   Role = "gestor"
	RoleFormador Role = "formador"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFormando, RoleGestor, RoleFormador:
		return true
	}
	return false
}

// Auth 是当前会话的认证状态，Role 仅在 IsAuthenticated 为 true 时有意义
type Auth struct {
	IsAuthenticated bool `json:"isAuthenticated"`
	Role            Role `json:"role,omitempty"`
}

func (a Auth) EffectiveRole() Role {
	if !a.IsAuthenticated {
		return ""
	}
	return a.Role
}

// AuthUser /auth/check 与 /auth/login 返回的用户信息
type AuthUser struct {
	ID    int    `json:"id,omitempty"`
	Nome  string `json:"nome,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

type CheckResponse struct {
	User AuthUser `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"Email" binding:"required,email"`
	Password string `json:"Password" binding:"required"`
}

type LoginResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
	Role  Role            `json:"role"`
}

type RegisterFormadorRequest struct {
	Nome     string `json:"Nome" binding:"required"`
	Email    string `json:"Email" binding:"required,email"`
	Password string `json:"Password" binding:"required,min=6"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}
