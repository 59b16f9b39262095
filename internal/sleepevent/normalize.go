package sleepevent

import (
	"errors"
	"fmt"
)

// ErrMalformedDelivery 畸形投递：形态混合、为空、或区间时长为负。
// 调用方应丢弃该次投递并继续处理后续事件，不得中断回调链路。
var ErrMalformedDelivery = errors.New("malformed provider delivery")

// Normalize 将一次提供方投递规范化为记录序列。
// 每个原始事件产出恰好一条记录，保持投递内原始顺序，
// 不合并、不过滤、不去重。
func Normalize(d Delivery) ([]Record, error) {
	hasSeg := len(d.Segments) > 0
	hasCls := len(d.Classifies) > 0

	switch {
	case hasSeg && hasCls:
		return nil, fmt.Errorf("%w: mixed segment and classify events", ErrMalformedDelivery)
	case !hasSeg && !hasCls:
		return nil, fmt.Errorf("%w: empty delivery", ErrMalformedDelivery)
	}

	if hasSeg {
		records := make([]Record, 0, len(d.Segments))
		for _, e := range d.Segments {
			if e.DurationMillis() < 0 {
				return nil, fmt.Errorf("%w: segment end %d before start %d", ErrMalformedDelivery, e.EndTimeMillis, e.StartTimeMillis)
			}
			records = append(records, NewSegmentRecord(e))
		}
		return records, nil
	}

	records := make([]Record, 0, len(d.Classifies))
	for _, e := range d.Classifies {
		if e.Confidence < 0 || e.Confidence > 100 || e.Light < 0 || e.Motion < 0 {
			return nil, fmt.Errorf("%w: classify fields out of range (confidence=%d light=%d motion=%d)", ErrMalformedDelivery, e.Confidence, e.Light, e.Motion)
		}
		records = append(records, NewClassifyRecord(e))
	}
	return records, nil
}
