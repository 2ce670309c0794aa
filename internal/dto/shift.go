package dto

// ── 个人班次模块 DTO ──

// CreateShiftRequest 创建个人班次请求
// user_ids 传多个时按旧约定逐人建行（同一班次多行）
type CreateShiftRequest struct {
	UserIDs      []string `json:"user_ids"      binding:"required,min=1,dive,uuid"`
	Title        string   `json:"title"         binding:"required,min=1,max=200"`
	StartTime    string   `json:"start_time"    binding:"required"` // RFC 3339
	EndTime      string   `json:"end_time"      binding:"required"` // RFC 3339
	SupervisorID *string  `json:"supervisor_id" binding:"omitempty,uuid"`
	Description  string   `json:"description"   binding:"omitempty,max=500"`
}

// UpdateShiftRequest 更新个人班次请求
type UpdateShiftRequest struct {
	Title        *string `json:"title"         binding:"omitempty,min=1,max=200"`
	StartTime    *string `json:"start_time"    binding:"omitempty"`
	EndTime      *string `json:"end_time"      binding:"omitempty"`
	SupervisorID *string `json:"supervisor_id" binding:"omitempty,uuid"`
	Description  *string `json:"description"   binding:"omitempty,max=500"`
	Version      int     `json:"version"       binding:"required,min=1"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	From   string `form:"from"    binding:"omitempty"`
	To     string `form:"to"      binding:"omitempty"`
	PaginationRequest
}

// ShiftResponse 个人班次响应
type ShiftResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	User         *UserBrief `json:"user,omitempty"`
	Title        string     `json:"title"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	SupervisorID *string    `json:"supervisor_id,omitempty"`
	Supervisor   *UserBrief `json:"supervisor,omitempty"`
	Description  string     `json:"description,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GroupName string `json:"group_name,omitempty"`
}

// ── 外部班次导入 ──

// ImportShiftsResponse 导入结果汇总
type ImportShiftsResponse struct {
	TotalMembers   int      `json:"total_members"`
	CreatedShifts  int      `json:"created_shifts"`
	UnmatchedNames []string `json:"unmatched_names,omitempty"`
}
