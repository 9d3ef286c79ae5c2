package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/internal/util"
	"formar_portal/pkg/logger"
	"math"
	"sync"

	"go.uber.org/zap"
)

type ProfileStats struct {
	CompletedCourses int     `json:"completedCourses"`
	AverageProgress  int     `json:"averageProgress"`
	HoursTrained     float64 `json:"hoursTrained"`
}

type ProfileView struct {
	Email string       `json:"email"`
	Stats ProfileStats `json:"stats"`
}

// CourseProgress 单门课程的测验进度，用于加权平均
type CourseProgress struct {
	MediaPercent float64
	Total        int
}

type ProfileService struct {
	FanoutLimit int
	Auth        *AuthService
}

func NewProfileService(fanoutLimit int, auth *AuthService) *ProfileService {
	return &ProfileService{FanoutLimit: fanoutLimit, Auth: auth}
}

// Load 读取学员仪表盘并并发获取每门已报名课程的进度，单门失败忽略
func (s *ProfileService) Load(ctx context.Context, api apiclient.API) (*ProfileView, error) {
	var dash model.FormandoDashboard
	if err := api.Get(ctx, "/formando/dashboard", &dash); err != nil {
		return nil, userFacing(err, "Erro ao carregar estatísticas do perfil")
	}

	var (
		mu       sync.Mutex
		progress []CourseProgress
	)
	_ = fanout(ctx, s.FanoutLimit, distinctIDs(dash.CursosInscritos), func(ctx context.Context, id int) error {
		var meta model.QuizProgressMeta
		if err := api.Get(ctx, fmt.Sprintf("/api/curso/%d/quizzes/progresso", id), &meta); err != nil {
			logger.Log.Debug("course progress failed", zap.Int("cursoId", id), zap.Error(err))
			return nil
		}
		p := CourseProgress{Total: meta.Total}
		if meta.MediaPercent != nil {
			p.MediaPercent = *meta.MediaPercent
		}
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
		return nil
	})

	stats := ComputeProfileStats(progress)
	stats.HoursTrained = dash.HoursTrained
	return &ProfileView{Email: dash.Email, Stats: stats}, nil
}

// ComputeProfileStats 平均进度按测验数量加权，平均分为 100 的课程计为完成
func ComputeProfileStats(progress []CourseProgress) ProfileStats {
	var (
		weighted  float64
		total     int
		completed int
	)
	for _, p := range progress {
		weighted += p.MediaPercent * float64(p.Total)
		total += p.Total
		if p.MediaPercent == 100 {
			completed++
		}
	}
	stats := ProfileStats{CompletedCourses: completed}
	if total > 0 {
		stats.AverageProgress = int(math.Round(weighted / float64(total)))
	}
	return stats
}

// RequestPasswordReset 使用仪表盘中的邮箱发送重置邮件
func (s *ProfileService) RequestPasswordReset(ctx context.Context, api apiclient.API) (string, error) {
	var dash model.FormandoDashboard
	if err := api.Get(ctx, "/formando/dashboard", &dash); err != nil {
		return "", userFacing(err, "Erro ao carregar estatísticas do perfil")
	}
	if dash.Email == "" {
		return "", util.BadInput(util.MsgEmailUnavailable)
	}
	return s.Auth.RequestPasswordReset(ctx, api, dash.Email)
}
