package sleepevent

import (
	"errors"
	"testing"
)

func TestNormalize_SegmentDelivery(t *testing.T) {
	d := Delivery{Segments: []SegmentEvent{
		{StartTimeMillis: 1000, EndTimeMillis: 5000, Status: StatusMissingData},
	}}
	records, err := Normalize(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Kind != KindInterval {
		t.Fatalf("kind=%s", r.Kind)
	}
	if r.Classify != nil {
		t.Fatalf("classify fields must stay nil on interval records")
	}
	if r.Segment.Duration != 4000 {
		t.Fatalf("duration=%d, want end-start=4000", r.Segment.Duration)
	}
}

func TestNormalize_ClassifyDelivery(t *testing.T) {
	d := Delivery{Classifies: []ClassifyEvent{
		{TimestampMillis: 2000, Confidence: 80, Light: 3, Motion: 1},
	}}
	records, err := Normalize(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Kind != KindClassification {
		t.Fatalf("kind=%s", r.Kind)
	}
	if r.Segment != nil {
		t.Fatalf("segment fields must stay nil on classification records")
	}
	c := r.Classify
	if c.Timestamp != 2000 || c.Confidence != 80 || c.Light != 3 || c.Motion != 1 {
		t.Fatalf("fields not copied unchanged: %+v", c)
	}
}

func TestNormalize_BundlePreservesOrder(t *testing.T) {
	d := Delivery{Classifies: []ClassifyEvent{
		{TimestampMillis: 1, Confidence: 10},
		{TimestampMillis: 2, Confidence: 20},
		{TimestampMillis: 3, Confidence: 30},
	}}
	records, err := Normalize(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []int64{1, 2, 3} {
		if records[i].Classify.Timestamp != want {
			t.Fatalf("record %d timestamp=%d, want %d", i, records[i].Classify.Timestamp, want)
		}
	}
}

func TestNormalize_Malformed(t *testing.T) {
	cases := []struct {
		name string
		d    Delivery
	}{
		{"empty", Delivery{}},
		{"mixed", Delivery{
			Segments:   []SegmentEvent{{StartTimeMillis: 1, EndTimeMillis: 2}},
			Classifies: []ClassifyEvent{{TimestampMillis: 1}},
		}},
		{"negative duration", Delivery{
			Segments: []SegmentEvent{{StartTimeMillis: 5000, EndTimeMillis: 1000}},
		}},
		{"confidence out of range", Delivery{
			Classifies: []ClassifyEvent{{TimestampMillis: 1, Confidence: 101}},
		}},
		{"negative motion", Delivery{
			Classifies: []ClassifyEvent{{TimestampMillis: 1, Confidence: 50, Motion: -1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize(tc.d); !errors.Is(err, ErrMalformedDelivery) {
				t.Fatalf("expected ErrMalformedDelivery, got %v", err)
			}
		})
	}
}

func TestRecord_Line(t *testing.T) {
	seg := NewSegmentRecord(SegmentEvent{StartTimeMillis: 1000, EndTimeMillis: 5000, Status: 1})
	if got := seg.Line(); got != "sleepSegment;1000;5000;4000;1;" {
		t.Fatalf("segment line=%q", got)
	}
	cls := NewClassifyRecord(ClassifyEvent{TimestampMillis: 2000, Confidence: 80, Light: 3, Motion: 1})
	if got := cls.Line(); got != "sleepClassify;2000;80;3;1;" {
		t.Fatalf("classify line=%q", got)
	}
}

func TestRecord_RelayPayload(t *testing.T) {
	seg := NewSegmentRecord(SegmentEvent{StartTimeMillis: 1000, EndTimeMillis: 5000, Status: 1})
	p := seg.RelayPayload()
	if p["startTime"] != int64(1000) || p["endTime"] != int64(5000) || p["duration"] != int64(4000) || p["status"] != 1 {
		t.Fatalf("segment payload=%v", p)
	}
	if _, ok := p["timestampMillis"]; ok {
		t.Fatalf("segment payload leaked classify fields")
	}

	cls := NewClassifyRecord(ClassifyEvent{TimestampMillis: 2000, Confidence: 80, Light: 3, Motion: 1})
	p = cls.RelayPayload()
	if p["timestampMillis"] != int64(2000) || p["confidence"] != 80 || p["light"] != 3 || p["motion"] != 1 {
		t.Fatalf("classify payload=%v", p)
	}
}

func TestRecord_DedupKey(t *testing.T) {
	a := NewSegmentRecord(SegmentEvent{StartTimeMillis: 1, EndTimeMillis: 2})
	b := NewSegmentRecord(SegmentEvent{StartTimeMillis: 1, EndTimeMillis: 2})
	if a.DedupKey() != b.DedupKey() {
		t.Fatalf("identical records must share a dedup key")
	}
	c := NewSegmentRecord(SegmentEvent{StartTimeMillis: 1, EndTimeMillis: 3})
	if a.DedupKey() == c.DedupKey() {
		t.Fatalf("distinct records must not collide")
	}
}
