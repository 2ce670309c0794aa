package dto

// ── 日历聚合模块 DTO ──

// 事件类型标签
const (
	EventKindIndividual = "individual"
	EventKindGroup      = "group"
)

// CalendarEventResponse 聚合日历事件
// kind=individual 时填充 individual 字段组，kind=group 时填充 group 字段组
type CalendarEventResponse struct {
	Kind        string `json:"kind"` // individual | group
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description,omitempty"`

	// individual 专属
	ShiftID      string  `json:"shift_id,omitempty"`
	SupervisorID *string `json:"supervisor_id,omitempty"`
	IsOwn        bool    `json:"is_own"` // false 表示以负责人身份看到的他人班次

	// group 专属
	ShiftGroupID      string `json:"shift_group_id,omitempty"`
	MemberCount       int    `json:"member_count,omitempty"`
	IsSupervisor      bool   `json:"is_supervisor,omitempty"`
	GroupSupervisorID string `json:"group_supervisor_id,omitempty"`
}

// MyCalendarResponse 我的日历响应
type MyCalendarResponse struct {
	Events  []CalendarEventResponse `json:"events"`
	Current *CalendarEventResponse  `json:"current,omitempty"` // 正在进行的班次
	Next    *CalendarEventResponse  `json:"next,omitempty"`    // 无进行中时为最近的未来班次
	Partial bool                    `json:"partial"`           // true 表示部分数据源拉取失败，结果不完整
}

// EventMembersRequest 事件同事查询参数
// kind=individual 需提供 shift_id；kind=group 需提供 shift_group_id
type EventMembersRequest struct {
	Kind         string `form:"kind"           binding:"required,oneof=individual group"`
	ShiftID      string `form:"shift_id"       binding:"omitempty,uuid"`
	ShiftGroupID string `form:"shift_group_id" binding:"omitempty,uuid"`
}

// EventMemberResponse 事件同事响应
type EventMemberResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsCurrentUser bool   `json:"is_current_user"`
	IsSupervisor  bool   `json:"is_supervisor"`
}

// EventMembersResponse 事件同事列表响应
type EventMembersResponse struct {
	Members        []EventMemberResponse `json:"members"`
	SupervisorName string                `json:"supervisor_name,omitempty"`
}
