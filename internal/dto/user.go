package dto

// ── 用户模块请求 ──

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Name      string `json:"name"       binding:"required,min=1,max=100"`
	Email     string `json:"email"      binding:"required,email"`
	Password  string `json:"password"   binding:"required,min=6,max=72"`
	Role      string `json:"role"       binding:"omitempty,oneof=staff admin super_admin"`
	GroupName string `json:"group_name" binding:"omitempty,max=100"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=1,max=100"`
	GroupName *string `json:"group_name" binding:"omitempty,max=100"`
}

// AssignRoleRequest 分配角色请求（仅 super_admin）
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=staff admin super_admin"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	Role      string `form:"role"       binding:"omitempty,oneof=staff admin super_admin"`
	GroupName string `form:"group_name" binding:"omitempty,max=100"`
	Keyword   string `form:"keyword"    binding:"omitempty,max=100"`
	PaginationRequest
}
