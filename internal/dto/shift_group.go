package dto

// ── 集体班次模块 DTO ──

// CreateShiftGroupRequest 创建集体班次请求
type CreateShiftGroupRequest struct {
	Title       string                  `json:"title"       binding:"required,min=1,max=200"`
	StartTime   string                  `json:"start_time"  binding:"required"` // RFC 3339
	EndTime     string                  `json:"end_time"    binding:"required"` // RFC 3339
	Description string                  `json:"description" binding:"omitempty,max=500"`
	Members     []AssignmentMemberInput `json:"members"     binding:"omitempty,dive"`
}

// UpdateShiftGroupRequest 更新集体班次请求
type UpdateShiftGroupRequest struct {
	Title       *string `json:"title"       binding:"omitempty,min=1,max=200"`
	StartTime   *string `json:"start_time"  binding:"omitempty"`
	EndTime     *string `json:"end_time"    binding:"omitempty"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// AssignmentMemberInput 分配成员输入
type AssignmentMemberInput struct {
	UserID       string `json:"user_id"       binding:"required,uuid"`
	IsSupervisor bool   `json:"is_supervisor"`
}

// SetAssignmentsRequest 整体替换分配列表请求
type SetAssignmentsRequest struct {
	Members []AssignmentMemberInput `json:"members" binding:"required,dive"`
}

// AddMemberRequest 追加单个分配请求
type AddMemberRequest struct {
	UserID       string `json:"user_id"       binding:"required,uuid"`
	IsSupervisor bool   `json:"is_supervisor"`
}

// ShiftGroupListRequest 集体班次列表查询参数
type ShiftGroupListRequest struct {
	From string `form:"from" binding:"omitempty"`
	To   string `form:"to"   binding:"omitempty"`
	PaginationRequest
}

// ShiftGroupResponse 集体班次响应
type ShiftGroupResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	StartTime   string               `json:"start_time"`
	EndTime     string               `json:"end_time"`
	Description string               `json:"description,omitempty"`
	MemberCount int                  `json:"member_count"`
	Members     []AssignmentResponse `json:"members,omitempty"`
	Version     int                  `json:"version"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

// AssignmentResponse 分配成员响应
type AssignmentResponse struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	GroupName    string `json:"group_name,omitempty"`
	IsSupervisor bool   `json:"is_supervisor"`
}
