package service

import (
	"context"
	"fmt"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/model"
	"formar_portal/pkg/logger"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fanout 以有限并发对 ids 逐个调用 fn，遇到第一个错误即返回
func fanout(ctx context.Context, limit int, ids []int, fn func(ctx context.Context, id int) error) error {
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		id := id
		g.Go(func() error { return fn(gctx, id) })
	}
	return g.Wait()
}

// quizCounts 查询每门课程的测验数量，单个失败记为 0
func quizCounts(ctx context.Context, api apiclient.API, limit int, ids []int) map[int]int {
	counts := make(map[int]int, len(ids))
	var mu sync.Mutex

	_ = fanout(ctx, limit, ids, func(ctx context.Context, id int) error {
		var resp model.QuizCount
		n := 0
		if err := api.Get(ctx, fmt.Sprintf("/api/curso/%d/quizzes/count", id), &resp); err != nil {
			logger.Log.Debug("quiz count failed", zap.Int("cursoId", id), zap.Error(err))
		} else {
			n = resp.Total
		}
		mu.Lock()
		counts[id] = n
		mu.Unlock()
		return nil
	})
	return counts
}

// distinctIDs 合并多组课程的 id 并去重，保持首次出现的顺序
func distinctIDs(groups ...[]model.Curso) []int {
	seen := map[int]bool{}
	var ids []int
	for _, g := range groups {
		for _, c := range g {
			id := c.Key()
			if id == 0 || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
