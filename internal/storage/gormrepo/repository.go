package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/swipeapp-studio/sleep-server/internal/sleepevent"
	"github.com/swipeapp-studio/sleep-server/internal/storage/models"
)

// Repository 基于 GORM 的睡眠记录归档仓库。
// 持久接收方在落盘与远端上报之外把每条规范化记录旁路归档，
// 供事后查询；归档失败由调用方记录后继续。
type Repository struct {
	db *gorm.DB
}

// New 返回使用给定 *gorm.DB 的归档仓库
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 底层 *gorm.DB，健康检查用
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// AutoMigrate 建表（幂等）
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.SleepSegment{}, &models.SleepClassify{})
}

// SaveRecord 归档一条规范化记录，按 Kind 落入对应表
func (r *Repository) SaveRecord(ctx context.Context, rec sleepevent.Record) error {
	switch rec.Kind {
	case sleepevent.KindInterval:
		s := rec.Segment
		return r.db.WithContext(ctx).Create(&models.SleepSegment{
			StartMillis:    s.Start,
			EndMillis:      s.End,
			DurationMillis: s.Duration,
			Status:         int(s.Status),
		}).Error
	case sleepevent.KindClassification:
		c := rec.Classify
		return r.db.WithContext(ctx).Create(&models.SleepClassify{
			TimestampMillis: c.Timestamp,
			Confidence:      c.Confidence,
			Light:           c.Light,
			Motion:          c.Motion,
		}).Error
	default:
		return nil
	}
}

// RecentSegments 最近 limit 条区间记录，按创建时间倒序
func (r *Repository) RecentSegments(ctx context.Context, limit int) ([]models.SleepSegment, error) {
	var out []models.SleepSegment
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecentClassifies 最近 limit 条分类记录，按创建时间倒序
func (r *Repository) RecentClassifies(ctx context.Context, limit int) ([]models.SleepClassify, error) {
	var out []models.SleepClassify
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
