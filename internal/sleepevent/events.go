package sleepevent

// 提供方原始事件。两种形态，单次投递只会携带其中一种：
// SegmentEvent 为一段完整睡眠区间，ClassifyEvent 为单点置信度采样。

// SegmentStatus 区间事件状态码
type SegmentStatus int

const (
	// StatusSuccessful 成功检测到完整睡眠区间
	StatusSuccessful SegmentStatus = 0
	// StatusMissingData 数据缺失，区间不完整
	StatusMissingData SegmentStatus = 1
	// StatusNotDetected 未检测到睡眠
	StatusNotDetected SegmentStatus = 2
)

// SegmentEvent 睡眠区间事件（毫秒时间戳）
type SegmentEvent struct {
	StartTimeMillis int64         `json:"startTimeMillis"`
	EndTimeMillis   int64         `json:"endTimeMillis"`
	Status          SegmentStatus `json:"status"`
}

// DurationMillis 区间时长（end - start）
func (e SegmentEvent) DurationMillis() int64 {
	return e.EndTimeMillis - e.StartTimeMillis
}

// ClassifyEvent 睡眠分类采样事件
type ClassifyEvent struct {
	TimestampMillis int64 `json:"timestampMillis"`
	// Confidence 睡眠置信度 0-100
	Confidence int `json:"confidence"`
	// Light 环境光档位，非负
	Light int `json:"light"`
	// Motion 运动档位，非负
	Motion int `json:"motion"`
}

// Delivery 提供方单次投递。一次投递捆绑若干同形态的原始事件，
// Segments 与 Classifies 互斥，两者都有或都无视为畸形投递。
type Delivery struct {
	Segments   []SegmentEvent  `json:"segments,omitempty"`
	Classifies []ClassifyEvent `json:"classifies,omitempty"`
}
