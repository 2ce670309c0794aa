package dto

// ── 群聊模块 DTO ──

// SendMessageRequest 发送消息请求
// message 与 image_url 至少其一非空（Service 层校验）
type SendMessageRequest struct {
	Message  string  `json:"message"   binding:"omitempty,max=2000"`
	ImageURL *string `json:"image_url" binding:"omitempty,url,max=1000"`
	ReplyTo  *string `json:"reply_to"  binding:"omitempty,uuid"`
}

// ChatMessageResponse 消息响应
type ChatMessageResponse struct {
	ID           string     `json:"id"`
	ShiftGroupID string     `json:"shift_group_id"`
	Sender       *UserBrief `json:"sender,omitempty"`
	Message      string     `json:"message"`
	ImageURL     *string    `json:"image_url,omitempty"`
	ReplyTo      *string    `json:"reply_to,omitempty"`
	ReadByOthers int        `json:"read_by_others"` // 除发送者外已读人数
	CreatedAt    string     `json:"created_at"`
}

// ChatThreadRequest 消息列表查询参数
type ChatThreadRequest struct {
	PaginationRequest
}

// ChatAvailabilityResponse 聊天可用性响应
type ChatAvailabilityResponse struct {
	Open     bool   `json:"open"`
	ClosesAt string `json:"closes_at,omitempty"` // 普通成员的关闭时间点；管理员恒为空
}

// MarkReadResponse 标记已读响应
type MarkReadResponse struct {
	MarkedCount int `json:"marked_count"`
}
