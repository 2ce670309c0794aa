package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"festa-shift/backend/internal/dto"
	"festa-shift/backend/internal/service"
	pkgerrors "festa-shift/backend/pkg/errors"
	"festa-shift/backend/pkg/response"
)

// ShiftGroupHandler 集体班次模块 HTTP 处理器
type ShiftGroupHandler struct {
	groupSvc service.ShiftGroupService
}

// NewShiftGroupHandler 创建 ShiftGroupHandler
func NewShiftGroupHandler(groupSvc service.ShiftGroupService) *ShiftGroupHandler {
	return &ShiftGroupHandler{groupSvc: groupSvc}
}

// CreateShiftGroup 创建集体班次（管理员）
// POST /api/v1/shift-groups
func (h *ShiftGroupHandler) CreateShiftGroup(c *gin.Context) {
	var req dto.CreateShiftGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	group, err := h.groupSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.Created(c, group)
}

// ListShiftGroups 集体班次列表
// GET /api/v1/shift-groups
func (h *ShiftGroupHandler) ListShiftGroups(c *gin.Context) {
	var req dto.ShiftGroupListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	groups, total, err := h.groupSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, groups, total, req.GetPage(), req.GetPageSize())
}

// GetShiftGroup 集体班次详情（含成员列表）
// GET /api/v1/shift-groups/:id
func (h *ShiftGroupHandler) GetShiftGroup(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "集体班次ID不能为空")
		return
	}

	group, err := h.groupSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// UpdateShiftGroup 更新集体班次基本信息（乐观锁）
// PUT /api/v1/shift-groups/:id
func (h *ShiftGroupHandler) UpdateShiftGroup(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "集体班次ID不能为空")
		return
	}

	var req dto.UpdateShiftGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	group, err := h.groupSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// DeleteShiftGroup 删除集体班次（管理员）
// DELETE /api/v1/shift-groups/:id
func (h *ShiftGroupHandler) DeleteShiftGroup(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "集体班次ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.groupSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, nil)
}

// SetMembers 整体替换成员分配列表（管理员）
// PUT /api/v1/shift-groups/:id/members
func (h *ShiftGroupHandler) SetMembers(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "集体班次ID不能为空")
		return
	}

	var req dto.SetAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	group, err := h.groupSvc.SetMembers(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// AddMember 追加单个成员（管理员）
// POST /api/v1/shift-groups/:id/members
func (h *ShiftGroupHandler) AddMember(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "集体班次ID不能为空")
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	group, err := h.groupSvc.AddMember(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, group)
}

// RemoveMember 移除单个成员（管理员）
// DELETE /api/v1/shift-groups/:id/members/:user_id
func (h *ShiftGroupHandler) RemoveMember(c *gin.Context) {
	id := c.Param("id")
	userID := c.Param("user_id")
	if id == "" || userID == "" {
		response.BadRequest(c, 10001, "集体班次ID与用户ID不能为空")
		return
	}

	if err := h.groupSvc.RemoveMember(c.Request.Context(), id, userID); err != nil {
		h.handleGroupError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleGroupError 统一处理集体班次模块业务错误
func (h *ShiftGroupHandler) handleGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrShiftGroupNotFound):
		response.NotFound(c, 14001, "集体班次不存在")
	case errors.Is(err, service.ErrMultipleSupervisors):
		response.BadRequest(c, 14002, "每个集体班次至多设置一名负责人")
	case errors.Is(err, service.ErrDuplicateMember):
		response.BadRequest(c, 14003, "成员列表中存在重复用户")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 14004, "该成员未被分配到此班次")
	case errors.Is(err, service.ErrAssigneeNotFound):
		response.BadRequest(c, 13002, "部分被分配用户不存在")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 13003, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrBadTimeFormat):
		response.BadRequest(c, 13004, "时间格式无效，需为 RFC 3339")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13005, "数据已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/shift_group_handler.go
