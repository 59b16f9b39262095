package models

import (
	"time"
)

// 注意：
// - 显式声明每个字段，不使用 gorm.Model，避免隐式 DeletedAt
// - 归档是尽力而为的旁路：写失败只记日志，不影响管线

// SleepSegment 映射 sleep_segments 表（区间记录归档）
type SleepSegment struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// 区间起止与时长，毫秒
	StartMillis    int64 `gorm:"column:start_millis;not null"`
	EndMillis      int64 `gorm:"column:end_millis;not null"`
	DurationMillis int64 `gorm:"column:duration_millis;not null"`
	// 提供方状态码
	Status int `gorm:"column:status;not null"`
	// 审计字段
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SleepSegment) TableName() string { return "sleep_segments" }

// SleepClassify 映射 sleep_classifies 表（分类采样归档）
type SleepClassify struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// 采样时间戳，毫秒
	TimestampMillis int64 `gorm:"column:timestamp_millis;not null"`
	// 置信度 0-100
	Confidence int `gorm:"column:confidence;not null"`
	// 环境光与运动档位
	Light  int `gorm:"column:light;not null"`
	Motion int `gorm:"column:motion;not null"`
	// 审计字段
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SleepClassify) TableName() string { return "sleep_classifies" }
