package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"festa-shift/backend/internal/model"
	"festa-shift/backend/internal/repository"
	pkgerrors "festa-shift/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users     map[string]*model.User
	idCounter int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.idCounter++
		user.UserID = fmt.Sprintf("user-%d", m.idCounter)
	}
	m.users[user.UserID] = user
	return nil
}

// GetByID 返回副本，模拟真实查询每次加载新行
func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByName(_ context.Context, name string) (*model.User, error) {
	for _, u := range m.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.GroupName != "" && (u.GroupName == nil || *u.GroupName != filter.GroupName) {
			continue
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts    map[string]*model.Shift
	idCounter int

	// 注入查询错误用（日历降级路径测试）
	listByUserErr       error
	listBySupervisorErr error
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		m.idCounter++
		shift.ShiftID = fmt.Sprintf("shift-%d", m.idCounter)
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) BatchCreate(ctx context.Context, shifts []model.Shift) error {
	for i := range shifts {
		sh := shifts[i]
		if err := m.Create(ctx, &sh); err != nil {
			return err
		}
		shifts[i] = sh
	}
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter) ([]model.Shift, int64, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		result = append(result, *s)
	}
	total := int64(len(result))
	if filter.Offset >= len(result) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[filter.Offset:end], total, nil
}

func (m *mockShiftRepo) ListByUser(_ context.Context, userID string) ([]model.Shift, error) {
	if m.listByUserErr != nil {
		return nil, m.listByUserErr
	}
	var result []model.Shift
	for _, s := range m.shifts {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListBySupervisor(_ context.Context, supervisorID string) ([]model.Shift, error) {
	if m.listBySupervisorErr != nil {
		return nil, m.listBySupervisorErr
	}
	var result []model.Shift
	for _, s := range m.shifts {
		if s.SupervisorID != nil && *s.SupervisorID == supervisorID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListByShape(_ context.Context, title string, start, end time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.Title == title && s.StartTime.Equal(start) && s.EndTime.Equal(end) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	stored, ok := m.shifts[shift.ShiftID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version++
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.shifts, id)
	return nil
}

// ── Mock ShiftGroupRepository ──

type mockShiftGroupRepo struct {
	groups    map[string]*model.ShiftGroup
	idCounter int

	assigns *mockShiftAssignmentRepo // 模拟 Assignments 预加载用
}

func newMockShiftGroupRepo() *mockShiftGroupRepo {
	return &mockShiftGroupRepo{groups: make(map[string]*model.ShiftGroup)}
}

func (m *mockShiftGroupRepo) Create(_ context.Context, group *model.ShiftGroup) error {
	if group.ShiftGroupID == "" {
		m.idCounter++
		group.ShiftGroupID = fmt.Sprintf("group-%d", m.idCounter)
	}
	if group.Version == 0 {
		group.Version = 1
	}
	m.groups[group.ShiftGroupID] = group
	return nil
}

func (m *mockShiftGroupRepo) GetByID(_ context.Context, id string) (*model.ShiftGroup, error) {
	if g, ok := m.groups[id]; ok {
		cp := *g
		m.preloadAssignments(&cp)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// preloadAssignments 模拟 GORM 的 Assignments 预加载
func (m *mockShiftGroupRepo) preloadAssignments(g *model.ShiftGroup) {
	if m.assigns == nil {
		return
	}
	g.Assignments = nil
	for _, a := range m.assigns.assignments {
		if a.ShiftGroupID != g.ShiftGroupID {
			continue
		}
		if m.assigns.users != nil {
			if u, ok := m.assigns.users.users[a.UserID]; ok {
				a.User = u
			}
		}
		g.Assignments = append(g.Assignments, a)
	}
}

func (m *mockShiftGroupRepo) List(_ context.Context, filter repository.ShiftGroupFilter) ([]model.ShiftGroup, int64, error) {
	var result []model.ShiftGroup
	for _, g := range m.groups {
		cp := *g
		m.preloadAssignments(&cp)
		result = append(result, cp)
	}
	total := int64(len(result))
	if filter.Offset >= len(result) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[filter.Offset:end], total, nil
}

func (m *mockShiftGroupRepo) Update(_ context.Context, group *model.ShiftGroup) error {
	stored, ok := m.groups[group.ShiftGroupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != group.Version {
		return pkgerrors.ErrOptimisticLock
	}
	group.Version++
	m.groups[group.ShiftGroupID] = group
	return nil
}

func (m *mockShiftGroupRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.groups, id)
	return nil
}

// ── Mock ShiftAssignmentRepository ──

type mockShiftAssignmentRepo struct {
	assignments []model.ShiftAssignment
	users       *mockUserRepo       // 填充 User 关联用
	groups      *mockShiftGroupRepo // 填充 Group 关联用

	listByGroupErr error
}

func newMockShiftAssignmentRepo(users *mockUserRepo, groups *mockShiftGroupRepo) *mockShiftAssignmentRepo {
	m := &mockShiftAssignmentRepo{users: users, groups: groups}
	if groups != nil {
		groups.assigns = m
	}
	return m
}

func (m *mockShiftAssignmentRepo) Replace(_ context.Context, groupID string, assignments []model.ShiftAssignment) error {
	var remaining []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.ShiftGroupID != groupID {
			remaining = append(remaining, a)
		}
	}
	m.assignments = append(remaining, assignments...)
	return nil
}

func (m *mockShiftAssignmentRepo) Add(_ context.Context, assignment *model.ShiftAssignment) error {
	m.assignments = append(m.assignments, *assignment)
	return nil
}

func (m *mockShiftAssignmentRepo) Remove(_ context.Context, groupID, userID string) error {
	for i, a := range m.assignments {
		if a.ShiftGroupID == groupID && a.UserID == userID {
			m.assignments = append(m.assignments[:i], m.assignments[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockShiftAssignmentRepo) ListByGroup(_ context.Context, groupID string) ([]model.ShiftAssignment, error) {
	if m.listByGroupErr != nil {
		return nil, m.listByGroupErr
	}
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.ShiftGroupID != groupID {
			continue
		}
		if m.users != nil {
			if u, ok := m.users.users[a.UserID]; ok {
				a.User = u
			}
		}
		result = append(result, a)
	}
	return result, nil
}

func (m *mockShiftAssignmentRepo) ListByUser(_ context.Context, userID string) ([]model.ShiftAssignment, error) {
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.UserID != userID {
			continue
		}
		if m.groups != nil {
			if g, ok := m.groups.groups[a.ShiftGroupID]; ok {
				a.Group = g
			}
		}
		result = append(result, a)
	}
	return result, nil
}

// ── Mock ChatMessageRepository ──

type mockChatMessageRepo struct {
	messages  []model.ChatMessage
	idCounter int
}

func newMockChatMessageRepo() *mockChatMessageRepo {
	return &mockChatMessageRepo{}
}

func (m *mockChatMessageRepo) Create(_ context.Context, msg *model.ChatMessage) error {
	m.idCounter++
	if msg.MessageID == "" {
		msg.MessageID = fmt.Sprintf("msg-%d", m.idCounter)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatMessageRepo) GetByID(_ context.Context, id string) (*model.ChatMessage, error) {
	for i, msg := range m.messages {
		if msg.MessageID == id && !msg.DeletedAt.Valid {
			return &m.messages[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChatMessageRepo) ListByGroup(_ context.Context, groupID string, offset, limit int) ([]model.ChatMessage, int64, error) {
	var filtered []model.ChatMessage
	for _, msg := range m.messages {
		if msg.ShiftGroupID == groupID && !msg.DeletedAt.Valid {
			filtered = append(filtered, msg)
		}
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockChatMessageRepo) Delete(_ context.Context, id string, deletedBy string) error {
	for i, msg := range m.messages {
		if msg.MessageID == id {
			m.messages[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			m.messages[i].DeletedBy = &deletedBy
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock ReadReceiptRepository ──

type mockReadReceiptRepo struct {
	receipts map[string]model.ReadReceipt // key: messageID + "/" + userID
	chat     *mockChatMessageRepo         // 排除发送者本人回执用
}

func newMockReadReceiptRepo(chat *mockChatMessageRepo) *mockReadReceiptRepo {
	return &mockReadReceiptRepo{receipts: make(map[string]model.ReadReceipt), chat: chat}
}

func (m *mockReadReceiptRepo) BatchUpsert(_ context.Context, receipts []model.ReadReceipt) (int64, error) {
	var inserted int64
	for _, r := range receipts {
		key := r.MessageID + "/" + r.UserID
		if _, ok := m.receipts[key]; ok {
			continue
		}
		r.CreatedAt = time.Now()
		m.receipts[key] = r
		inserted++
	}
	return inserted, nil
}

func (m *mockReadReceiptRepo) CountOthersByMessages(_ context.Context, messageIDs []string) (map[string]int, error) {
	senders := make(map[string]string)
	if m.chat != nil {
		for _, msg := range m.chat.messages {
			senders[msg.MessageID] = msg.UserID
		}
	}

	counts := make(map[string]int)
	for _, id := range messageIDs {
		for _, r := range m.receipts {
			if r.MessageID != id {
				continue
			}
			if sender, ok := senders[id]; ok && sender == r.UserID {
				continue
			}
			counts[id]++
		}
	}
	return counts, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	idCounter     int

	batchCreateErr error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) BatchCreate(_ context.Context, notifications []model.Notification) error {
	if m.batchCreateErr != nil {
		return m.batchCreateErr
	}
	for i := range notifications {
		m.idCounter++
		if notifications[i].NotificationID == "" {
			notifications[i].NotificationID = fmt.Sprintf("notif-%d", m.idCounter)
		}
		notifications[i].CreatedAt = time.Now()
	}
	m.notifications = append(m.notifications, notifications...)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var filtered []model.Notification
	for _, n := range m.notifications {
		if n.TargetUserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		filtered = append(filtered, n)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (int64, error) {
	for i, n := range m.notifications {
		if n.NotificationID == id && n.TargetUserID == userID {
			m.notifications[i].IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.TargetUserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
