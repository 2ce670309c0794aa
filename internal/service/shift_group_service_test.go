package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"festa-shift/backend/internal/dto"
	"festa-shift/backend/internal/model"
	"festa-shift/backend/internal/repository"
	pkgerrors "festa-shift/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestShiftGroupService() (ShiftGroupService, *mockShiftGroupRepo, *mockShiftAssignmentRepo, *mockUserRepo) {
	userRepo := newMockUserRepo()
	groupRepo := newMockShiftGroupRepo()
	assignRepo := newMockShiftAssignmentRepo(userRepo, groupRepo)
	chatRepo := newMockChatMessageRepo()
	repo := &repository.Repository{
		User:            userRepo,
		Shift:           newMockShiftRepo(),
		ShiftGroup:      groupRepo,
		ShiftAssignment: assignRepo,
		ChatMessage:     chatRepo,
		ReadReceipt:     newMockReadReceiptRepo(chatRepo),
		Notification:    newMockNotificationRepo(),
	}
	svc := NewShiftGroupService(repo, zap.NewNop())
	return svc, groupRepo, assignRepo, userRepo
}

// ── Create 测试 ──

func TestShiftGroupService_Create_WithMembers(t *testing.T) {
	svc, _, _, userRepo := setupTestShiftGroupService()
	userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}
	userRepo.users["user-b"] = &model.User{UserID: "user-b", Name: "李四"}

	req := &dto.CreateShiftGroupRequest{
		Title:     "舞台组",
		StartTime: "2026-09-12T15:00:00Z",
		EndTime:   "2026-09-12T17:00:00Z",
		Members: []dto.AssignmentMemberInput{
			{UserID: "user-a", IsSupervisor: true},
			{UserID: "user-b"},
		},
	}

	result, err := svc.Create(context.Background(), req, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.MemberCount != 2 {
		t.Errorf("期望成员数=2，实际=%d", result.MemberCount)
	}
	supervisors := 0
	for _, m := range result.Members {
		if m.IsSupervisor {
			supervisors++
		}
	}
	if supervisors != 1 {
		t.Errorf("期望1名负责人，实际=%d", supervisors)
	}
}

func TestShiftGroupService_Create_MultipleSupervisorsRejected(t *testing.T) {
	svc, _, _, _ := setupTestShiftGroupService()

	req := &dto.CreateShiftGroupRequest{
		Title:     "舞台组",
		StartTime: "2026-09-12T15:00:00Z",
		EndTime:   "2026-09-12T17:00:00Z",
		Members: []dto.AssignmentMemberInput{
			{UserID: "user-a", IsSupervisor: true},
			{UserID: "user-b", IsSupervisor: true},
		},
	}

	if _, err := svc.Create(context.Background(), req, "admin-001"); !errors.Is(err, ErrMultipleSupervisors) {
		t.Errorf("期望 ErrMultipleSupervisors，实际: %v", err)
	}
}

func TestShiftGroupService_Create_InvalidTimeRange(t *testing.T) {
	svc, _, _, _ := setupTestShiftGroupService()

	req := &dto.CreateShiftGroupRequest{
		Title:     "舞台组",
		StartTime: "2026-09-12T17:00:00Z",
		EndTime:   "2026-09-12T15:00:00Z",
	}

	if _, err := svc.Create(context.Background(), req, "admin-001"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("期望 ErrInvalidTimeRange，实际: %v", err)
	}
}

// ── SetMembers 测试 ──

func TestShiftGroupService_SetMembers_ReplacesAll(t *testing.T) {
	svc, groupRepo, assignRepo, userRepo := setupTestShiftGroupService()
	userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}
	userRepo.users["user-b"] = &model.User{UserID: "user-b", Name: "李四"}
	groupRepo.groups["group-1"] = &model.ShiftGroup{
		ShiftGroupID: "group-1", Title: "舞台组",
		VersionedModel: model.VersionedModel{Version: 1},
	}
	assignRepo.assignments = []model.ShiftAssignment{
		{ShiftGroupID: "group-1", UserID: "user-a", IsSupervisor: true},
	}

	req := &dto.SetAssignmentsRequest{
		Members: []dto.AssignmentMemberInput{{UserID: "user-b", IsSupervisor: true}},
	}
	result, err := svc.SetMembers(context.Background(), "group-1", req, "admin-001")
	if err != nil {
		t.Fatalf("SetMembers 应成功: %v", err)
	}
	if result.MemberCount != 1 {
		t.Fatalf("期望替换后成员数=1，实际=%d", result.MemberCount)
	}
	if result.Members[0].UserID != "user-b" {
		t.Errorf("期望成员=user-b，实际=%s", result.Members[0].UserID)
	}
}

func TestShiftGroupService_SetMembers_DuplicateRejected(t *testing.T) {
	svc, groupRepo, _, _ := setupTestShiftGroupService()
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}

	req := &dto.SetAssignmentsRequest{
		Members: []dto.AssignmentMemberInput{
			{UserID: "user-a"},
			{UserID: "user-a"},
		},
	}
	if _, err := svc.SetMembers(context.Background(), "group-1", req, "admin-001"); !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("期望 ErrDuplicateMember，实际: %v", err)
	}
}

func TestShiftGroupService_SetMembers_UnknownUserRejected(t *testing.T) {
	svc, groupRepo, _, _ := setupTestShiftGroupService()
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}

	req := &dto.SetAssignmentsRequest{
		Members: []dto.AssignmentMemberInput{{UserID: "nonexistent"}},
	}
	if _, err := svc.SetMembers(context.Background(), "group-1", req, "admin-001"); !errors.Is(err, ErrAssigneeNotFound) {
		t.Errorf("期望 ErrAssigneeNotFound，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestShiftGroupService_Update_OptimisticLockConflict(t *testing.T) {
	svc, groupRepo, _, _ := setupTestShiftGroupService()
	groupRepo.groups["group-1"] = &model.ShiftGroup{
		ShiftGroupID: "group-1", Title: "舞台组",
		VersionedModel: model.VersionedModel{Version: 3},
	}

	newTitle := "后台组"
	req := &dto.UpdateShiftGroupRequest{Title: &newTitle, Version: 2} // 过期版本号
	if _, err := svc.Update(context.Background(), "group-1", req, "admin-001"); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

// ── AddMember 测试 ──

func TestShiftGroupService_AddMember_Success(t *testing.T) {
	svc, groupRepo, assignRepo, userRepo := setupTestShiftGroupService()
	userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}
	userRepo.users["user-b"] = &model.User{UserID: "user-b", Name: "李四"}
	groupRepo.groups["group-1"] = &model.ShiftGroup{
		ShiftGroupID: "group-1", Title: "舞台组",
		VersionedModel: model.VersionedModel{Version: 1},
	}
	assignRepo.assignments = []model.ShiftAssignment{
		{ShiftGroupID: "group-1", UserID: "user-a", IsSupervisor: true},
	}

	req := &dto.AddMemberRequest{UserID: "user-b"}
	result, err := svc.AddMember(context.Background(), "group-1", req, "admin-001")
	if err != nil {
		t.Fatalf("AddMember 应成功: %v", err)
	}
	if result.MemberCount != 2 {
		t.Fatalf("期望追加后成员数=2，实际=%d", result.MemberCount)
	}
	// 原有分配保留
	if assignRepo.assignments[0].UserID != "user-a" || !assignRepo.assignments[0].IsSupervisor {
		t.Error("追加不应影响已有分配")
	}
}

func TestShiftGroupService_AddMember_SecondSupervisorRejected(t *testing.T) {
	svc, groupRepo, assignRepo, userRepo := setupTestShiftGroupService()
	userRepo.users["user-b"] = &model.User{UserID: "user-b", Name: "李四"}
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}
	assignRepo.assignments = []model.ShiftAssignment{
		{ShiftGroupID: "group-1", UserID: "user-a", IsSupervisor: true},
	}

	req := &dto.AddMemberRequest{UserID: "user-b", IsSupervisor: true}
	if _, err := svc.AddMember(context.Background(), "group-1", req, "admin-001"); !errors.Is(err, ErrMultipleSupervisors) {
		t.Errorf("期望 ErrMultipleSupervisors，实际: %v", err)
	}
	if len(assignRepo.assignments) != 1 {
		t.Errorf("校验失败时不应写入分配，实际=%d", len(assignRepo.assignments))
	}
}

func TestShiftGroupService_AddMember_AlreadyAssignedRejected(t *testing.T) {
	svc, groupRepo, assignRepo, userRepo := setupTestShiftGroupService()
	userRepo.users["user-a"] = &model.User{UserID: "user-a", Name: "张三"}
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}
	assignRepo.assignments = []model.ShiftAssignment{
		{ShiftGroupID: "group-1", UserID: "user-a"},
	}

	req := &dto.AddMemberRequest{UserID: "user-a"}
	if _, err := svc.AddMember(context.Background(), "group-1", req, "admin-001"); !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("期望 ErrDuplicateMember，实际: %v", err)
	}
}

func TestShiftGroupService_AddMember_UnknownUserRejected(t *testing.T) {
	svc, groupRepo, _, _ := setupTestShiftGroupService()
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}

	req := &dto.AddMemberRequest{UserID: "nonexistent"}
	if _, err := svc.AddMember(context.Background(), "group-1", req, "admin-001"); !errors.Is(err, ErrAssigneeNotFound) {
		t.Errorf("期望 ErrAssigneeNotFound，实际: %v", err)
	}
}

// ── RemoveMember 测试 ──

func TestShiftGroupService_RemoveMember_Success(t *testing.T) {
	svc, groupRepo, assignRepo, _ := setupTestShiftGroupService()
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}
	assignRepo.assignments = []model.ShiftAssignment{
		{ShiftGroupID: "group-1", UserID: "user-a"},
	}

	if err := svc.RemoveMember(context.Background(), "group-1", "user-a"); err != nil {
		t.Fatalf("RemoveMember 应成功: %v", err)
	}
	if len(assignRepo.assignments) != 0 {
		t.Errorf("分配应被移除，剩余=%d", len(assignRepo.assignments))
	}
}

func TestShiftGroupService_RemoveMember_NotAssigned(t *testing.T) {
	svc, groupRepo, _, _ := setupTestShiftGroupService()
	groupRepo.groups["group-1"] = &model.ShiftGroup{ShiftGroupID: "group-1", Title: "舞台组"}

	if err := svc.RemoveMember(context.Background(), "group-1", "user-x"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("期望 ErrAssignmentNotFound，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestShiftGroupService_Delete_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestShiftGroupService()

	if err := svc.Delete(context.Background(), "nonexistent", "admin-001"); !errors.Is(err, ErrShiftGroupNotFound) {
		t.Errorf("期望 ErrShiftGroupNotFound，实际: %v", err)
	}
}
