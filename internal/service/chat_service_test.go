package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"festa-shift/backend/config"
	"festa-shift/backend/internal/dto"
	"festa-shift/backend/internal/model"
	"festa-shift/backend/internal/repository"
)

// ── 测试辅助 ──

type chatTestEnv struct {
	svc        ChatService
	groupRepo  *mockShiftGroupRepo
	assignRepo *mockShiftAssignmentRepo
	chatRepo   *mockChatMessageRepo
	notifRepo  *mockNotificationRepo
	userRepo   *mockUserRepo
}

func setupTestChatService() *chatTestEnv {
	userRepo := newMockUserRepo()
	groupRepo := newMockShiftGroupRepo()
	assignRepo := newMockShiftAssignmentRepo(userRepo, groupRepo)
	chatRepo := newMockChatMessageRepo()
	notifRepo := newMockNotificationRepo()
	repo := &repository.Repository{
		User:            userRepo,
		Shift:           newMockShiftRepo(),
		ShiftGroup:      groupRepo,
		ShiftAssignment: assignRepo,
		ChatMessage:     chatRepo,
		ReadReceipt:     newMockReadReceiptRepo(chatRepo),
		Notification:    notifRepo,
	}
	cfg := &config.Config{
		Chat: config.ChatConfig{GraceWindow: 30 * time.Minute},
	}
	logger := zap.NewNop()
	webhook := NewWebhookTrigger(&config.NotifyConfig{}, logger)
	svc := NewChatService(cfg, repo, webhook, logger)
	return &chatTestEnv{
		svc: svc, groupRepo: groupRepo, assignRepo: assignRepo,
		chatRepo: chatRepo, notifRepo: notifRepo, userRepo: userRepo,
	}
}

// seedGroup 建一个结束于 end 的组并分配成员
func (e *chatTestEnv) seedGroup(end time.Time, memberIDs ...string) {
	e.groupRepo.groups["group-1"] = &model.ShiftGroup{
		ShiftGroupID: "group-1", Title: "舞台组",
		StartTime:      end.Add(-2 * time.Hour),
		EndTime:        end,
		VersionedModel: model.VersionedModel{Version: 1},
	}
	for _, id := range memberIDs {
		e.assignRepo.assignments = append(e.assignRepo.assignments,
			model.ShiftAssignment{ShiftGroupID: "group-1", UserID: id})
	}
}

// ── ChatOpenAt 测试 ──

func TestChatOpenAt_StaffWithinGrace(t *testing.T) {
	end := time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC)
	grace := 30 * time.Minute

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"班次进行中", end.Add(-time.Hour), true},
		{"结束时刻", end, true},
		{"宽限期内", end.Add(15 * time.Minute), true},
		{"宽限期边界", end.Add(30 * time.Minute), true},
		{"宽限期过后", end.Add(30*time.Minute + time.Second), false},
	}
	for _, tc := range cases {
		if got := ChatOpenAt(model.RoleStaff, end, grace, tc.now); got != tc.want {
			t.Errorf("%s: 期望 open=%v，实际=%v", tc.name, tc.want, got)
		}
	}
}

func TestChatOpenAt_AdminAlwaysOpen(t *testing.T) {
	end := time.Date(2026, 9, 12, 17, 0, 0, 0, time.UTC)
	longAfter := end.Add(72 * time.Hour)

	if !ChatOpenAt(model.RoleAdmin, end, 30*time.Minute, longAfter) {
		t.Error("admin 应恒可发言")
	}
	if !ChatOpenAt(model.RoleSuperAdmin, end, 30*time.Minute, longAfter) {
		t.Error("super_admin 应恒可发言")
	}
}

// ── GetAvailability 测试 ──

func TestChatService_GetAvailability_StaffClosesAt(t *testing.T) {
	env := setupTestChatService()
	end := time.Now().Add(time.Hour).Truncate(time.Second)
	env.seedGroup(end, "user-a")

	result, err := env.svc.GetAvailability(context.Background(), "user-a", model.RoleStaff, "group-1")
	if err != nil {
		t.Fatalf("GetAvailability 应成功: %v", err)
	}
	if !result.Open {
		t.Error("班次进行中应可发言")
	}
	want := end.Add(30 * time.Minute).Format(time.RFC3339)
	if result.ClosesAt != want {
		t.Errorf("期望 closes_at=%s，实际=%s", want, result.ClosesAt)
	}
}

func TestChatService_GetAvailability_AdminNoClosesAt(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(-24*time.Hour), "user-a")

	result, err := env.svc.GetAvailability(context.Background(), "admin-1", model.RoleAdmin, "group-1")
	if err != nil {
		t.Fatalf("GetAvailability 应成功: %v", err)
	}
	if !result.Open {
		t.Error("admin 应恒可发言")
	}
	if result.ClosesAt != "" {
		t.Errorf("admin 不应有 closes_at，实际=%s", result.ClosesAt)
	}
}

func TestChatService_GetAvailability_NonMember(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a")

	_, err := env.svc.GetAvailability(context.Background(), "user-x", model.RoleStaff, "group-1")
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("期望 ErrNotGroupMember，实际: %v", err)
	}
}

// ── SendMessage 测试 ──

func TestChatService_SendMessage_FanOutExcludesSender(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a", "user-b", "user-c")
	env.userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}

	req := &dto.SendMessageRequest{Message: "催场了"}
	result, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req)
	if err != nil {
		t.Fatalf("SendMessage 应成功: %v", err)
	}
	if result.Message != "催场了" {
		t.Errorf("期望消息内容=催场了，实际=%s", result.Message)
	}

	// 通知只发给除发送者外的成员
	if len(env.notifRepo.notifications) != 2 {
		t.Fatalf("期望2条通知，实际=%d", len(env.notifRepo.notifications))
	}
	for _, n := range env.notifRepo.notifications {
		if n.TargetUserID == "user-a" {
			t.Error("发送者本人不应收到通知")
		}
		if !strings.Contains(n.Title, "舞台组") {
			t.Errorf("通知标题应含组名，实际=%s", n.Title)
		}
		if n.Body != "张三: 催场了" {
			t.Errorf("期望通知正文=张三: 催场了，实际=%s", n.Body)
		}
	}
}

func TestChatService_SendMessage_ImagePlaceholderBody(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a", "user-b")
	env.userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}

	imageURL := "https://files.example.com/photo.png"
	req := &dto.SendMessageRequest{ImageURL: &imageURL}
	if _, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req); err != nil {
		t.Fatalf("SendMessage 应成功: %v", err)
	}
	if len(env.notifRepo.notifications) != 1 {
		t.Fatalf("期望1条通知，实际=%d", len(env.notifRepo.notifications))
	}
	if env.notifRepo.notifications[0].Body != "张三: [图片]" {
		t.Errorf("纯图片消息正文应为占位符，实际=%s", env.notifRepo.notifications[0].Body)
	}
}

func TestChatService_SendMessage_TextWithImageBody(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a", "user-b")
	env.userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}

	imageURL := "https://files.example.com/photo.png"
	req := &dto.SendMessageRequest{Message: "看这张图", ImageURL: &imageURL}
	if _, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req); err != nil {
		t.Fatalf("SendMessage 应成功: %v", err)
	}
	if len(env.notifRepo.notifications) != 1 {
		t.Fatalf("期望1条通知，实际=%d", len(env.notifRepo.notifications))
	}
	// 带图的文字消息正文需附图片标记
	if env.notifRepo.notifications[0].Body != "张三: 看这张图 [图片]" {
		t.Errorf("期望通知正文=张三: 看这张图 [图片]，实际=%s", env.notifRepo.notifications[0].Body)
	}
}

func TestChatService_SendMessage_EmptyRejected(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a")

	req := &dto.SendMessageRequest{Message: "   "}
	if _, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("期望 ErrEmptyMessage，实际: %v", err)
	}
}

func TestChatService_SendMessage_ClosedForStaff(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(-2*time.Hour), "user-a")

	req := &dto.SendMessageRequest{Message: "还在吗"}
	if _, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req); !errors.Is(err, ErrChatClosed) {
		t.Errorf("期望 ErrChatClosed，实际: %v", err)
	}
}

func TestChatService_SendMessage_AdminBypassesClose(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(-2*time.Hour), "user-a")

	req := &dto.SendMessageRequest{Message: "补个通知"}
	if _, err := env.svc.SendMessage(context.Background(), "admin-1", model.RoleAdmin, "group-1", req); err != nil {
		t.Fatalf("admin 应可在关闭后发言: %v", err)
	}
}

func TestChatService_SendMessage_NonMemberRejected(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a")

	req := &dto.SendMessageRequest{Message: "我也想说"}
	if _, err := env.svc.SendMessage(context.Background(), "user-x", model.RoleStaff, "group-1", req); !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("期望 ErrNotGroupMember，实际: %v", err)
	}
}

func TestChatService_SendMessage_ReplyToOtherGroupRejected(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a")
	env.chatRepo.messages = append(env.chatRepo.messages, model.ChatMessage{
		MessageID: "msg-other", ShiftGroupID: "group-2", UserID: "user-z", Message: "别组的消息",
	})

	replyTo := "msg-other"
	req := &dto.SendMessageRequest{Message: "回复", ReplyTo: &replyTo}
	if _, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req); !errors.Is(err, ErrReplyTargetBad) {
		t.Errorf("跨组回复应被拒绝，期望 ErrReplyTargetBad，实际: %v", err)
	}
}

func TestChatService_SendMessage_FanOutFailureDoesNotFailSend(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a", "user-b")
	env.notifRepo.batchCreateErr = errors.New("db down")

	req := &dto.SendMessageRequest{Message: "试试"}
	if _, err := env.svc.SendMessage(context.Background(), "user-a", model.RoleStaff, "group-1", req); err != nil {
		t.Fatalf("扇出失败不应影响发送结果: %v", err)
	}
	if len(env.chatRepo.messages) != 1 {
		t.Errorf("消息应已落库，实际=%d", len(env.chatRepo.messages))
	}
}

// ── MarkThreadRead 测试 ──

func TestChatService_MarkThreadRead_Idempotent(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a", "user-b")
	env.chatRepo.messages = append(env.chatRepo.messages,
		model.ChatMessage{MessageID: "msg-1", ShiftGroupID: "group-1", UserID: "user-b", Message: "一"},
		model.ChatMessage{MessageID: "msg-2", ShiftGroupID: "group-1", UserID: "user-b", Message: "二"},
		model.ChatMessage{MessageID: "msg-3", ShiftGroupID: "group-1", UserID: "user-a", Message: "本人的"},
	)

	first, err := env.svc.MarkThreadRead(context.Background(), "user-a", model.RoleStaff, "group-1")
	if err != nil {
		t.Fatalf("MarkThreadRead 应成功: %v", err)
	}
	// 本人消息不写回执
	if first.MarkedCount != 2 {
		t.Errorf("期望首次标记2条，实际=%d", first.MarkedCount)
	}

	second, err := env.svc.MarkThreadRead(context.Background(), "user-a", model.RoleStaff, "group-1")
	if err != nil {
		t.Fatalf("重复标记应成功: %v", err)
	}
	if second.MarkedCount != 0 {
		t.Errorf("重复标记应为0条新增，实际=%d", second.MarkedCount)
	}
}

// ── ListThread 测试 ──

func TestChatService_ListThread_ReadByOthersExcludesSender(t *testing.T) {
	env := setupTestChatService()
	env.seedGroup(time.Now().Add(time.Hour), "user-a", "user-b", "user-c")
	env.chatRepo.messages = append(env.chatRepo.messages,
		model.ChatMessage{MessageID: "msg-1", ShiftGroupID: "group-1", UserID: "user-a", Message: "大家好"},
	)

	// user-b、user-c 标记已读；发送者本人的回执不计入
	if _, err := env.svc.MarkThreadRead(context.Background(), "user-b", model.RoleStaff, "group-1"); err != nil {
		t.Fatalf("MarkThreadRead 应成功: %v", err)
	}
	if _, err := env.svc.MarkThreadRead(context.Background(), "user-c", model.RoleStaff, "group-1"); err != nil {
		t.Fatalf("MarkThreadRead 应成功: %v", err)
	}

	req := &dto.ChatThreadRequest{}
	list, total, err := env.svc.ListThread(context.Background(), "user-a", model.RoleStaff, "group-1", req)
	if err != nil {
		t.Fatalf("ListThread 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("期望1条消息，实际 total=%d len=%d", total, len(list))
	}
	if list[0].ReadByOthers != 2 {
		t.Errorf("期望已读人数=2，实际=%d", list[0].ReadByOthers)
	}
}

// ── DeleteMessage 测试 ──

func TestChatService_DeleteMessage_AdminOnly(t *testing.T) {
	env := setupTestChatService()
	env.chatRepo.messages = append(env.chatRepo.messages, model.ChatMessage{
		MessageID: "msg-1", ShiftGroupID: "group-1", UserID: "user-a", Message: "要删的",
	})

	if err := env.svc.DeleteMessage(context.Background(), "user-a", model.RoleStaff, "msg-1"); !errors.Is(err, ErrDeleteMsgDenied) {
		t.Errorf("普通成员删除应被拒绝，实际: %v", err)
	}

	if err := env.svc.DeleteMessage(context.Background(), "admin-1", model.RoleAdmin, "msg-1"); err != nil {
		t.Fatalf("admin 删除应成功: %v", err)
	}
	if !env.chatRepo.messages[0].DeletedAt.Valid {
		t.Error("消息应被软删除")
	}
}

func TestChatService_DeleteMessage_NotFound(t *testing.T) {
	env := setupTestChatService()

	if err := env.svc.DeleteMessage(context.Background(), "admin-1", model.RoleAdmin, "nonexistent"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("期望 ErrMessageNotFound，实际: %v", err)
	}
}
