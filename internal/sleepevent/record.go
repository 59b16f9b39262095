package sleepevent

import "fmt"

// Kind 规范化记录的种类标签
type Kind string

const (
	// KindInterval 区间记录（来自 SegmentEvent）
	KindInterval Kind = "interval"
	// KindClassification 分类记录（来自 ClassifyEvent）
	KindClassification Kind = "classification"
)

// 落盘行与推送行使用的种类前缀
const (
	lineKindSegment  = "sleepSegment"
	lineKindClassify = "sleepClassify"
)

// SegmentRecord 区间记录字段
type SegmentRecord struct {
	Start    int64
	End      int64
	Duration int64
	Status   SegmentStatus
}

// ClassifyRecord 分类记录字段
type ClassifyRecord struct {
	Timestamp  int64
	Confidence int
	Light      int
	Motion     int
}

// Record 规范化记录。带显式 Kind 标签的联合体：
// 另一种形态的指针保持 nil，绝不填零值，避免把
// "置信度为 0" 和 "不是分类记录" 混为一谈。
type Record struct {
	Kind     Kind
	Segment  *SegmentRecord
	Classify *ClassifyRecord
}

// NewSegmentRecord 由区间事件构造规范化记录
func NewSegmentRecord(e SegmentEvent) Record {
	return Record{
		Kind: KindInterval,
		Segment: &SegmentRecord{
			Start:    e.StartTimeMillis,
			End:      e.EndTimeMillis,
			Duration: e.DurationMillis(),
			Status:   e.Status,
		},
	}
}

// NewClassifyRecord 由分类事件构造规范化记录
func NewClassifyRecord(e ClassifyEvent) Record {
	return Record{
		Kind: KindClassification,
		Classify: &ClassifyRecord{
			Timestamp:  e.TimestampMillis,
			Confidence: e.Confidence,
			Light:      e.Light,
			Motion:     e.Motion,
		},
	}
}

// Line 落盘/推送用的分号分隔行。字段顺序固定，以分号收尾，不含换行：
//
//	sleepSegment;start;end;duration;status;
//	sleepClassify;timestamp;confidence;light;motion;
func (r Record) Line() string {
	switch r.Kind {
	case KindInterval:
		s := r.Segment
		return fmt.Sprintf("%s;%d;%d;%d;%d;", lineKindSegment, s.Start, s.End, s.Duration, s.Status)
	case KindClassification:
		c := r.Classify
		return fmt.Sprintf("%s;%d;%d;%d;%d;", lineKindClassify, c.Timestamp, c.Confidence, c.Light, c.Motion)
	default:
		return ""
	}
}

// RelayPayload 远端上报的逐字段 JSON 载荷
func (r Record) RelayPayload() map[string]any {
	switch r.Kind {
	case KindInterval:
		s := r.Segment
		return map[string]any{
			"startTime": s.Start,
			"endTime":   s.End,
			"duration":  s.Duration,
			"status":    int(s.Status),
		}
	case KindClassification:
		c := r.Classify
		return map[string]any{
			"timestampMillis": c.Timestamp,
			"confidence":      c.Confidence,
			"light":           c.Light,
			"motion":          c.Motion,
		}
	default:
		return nil
	}
}

// DedupKey 远端消费侧幂等去重键：(kind, 时间戳, 取值元组)
func (r Record) DedupKey() string {
	switch r.Kind {
	case KindInterval:
		s := r.Segment
		return fmt.Sprintf("%s:%d:%d:%d:%d", lineKindSegment, s.Start, s.End, s.Duration, s.Status)
	case KindClassification:
		c := r.Classify
		return fmt.Sprintf("%s:%d:%d:%d:%d", lineKindClassify, c.Timestamp, c.Confidence, c.Light, c.Motion)
	default:
		return ""
	}
}
