package histogram

import (
	"testing"
	"time"
)

func TestRecordBasics(t *testing.T) {
	h := New()
	h.RecordUs(1500)
	h.RecordUs(2500)
	h.RecordUs(500)

	if h.Count() != 3 {
		t.Errorf("Count = %d, want 3", h.Count())
	}
	if h.Min() != 500 {
		t.Errorf("Min = %d, want 500", h.Min())
	}
	if h.Max() != 2500 {
		t.Errorf("Max = %d, want 2500", h.Max())
	}
	if got := h.Mean(); got != 1500 {
		t.Errorf("Mean = %v, want 1500", got)
	}
}

func TestRecordClampsToLastBucket(t *testing.T) {
	h := New()
	h.RecordUs(25_000_000) // beyond the 10s limit
	if h.Max() != 9_999_999 {
		t.Errorf("Max = %d, want clamp to 9999999", h.Max())
	}
	p := h.Percentile(99.9)
	if p < 9_999_000 || p >= 10_000_000 {
		t.Errorf("p99.9 = %v, want within the last bucket", p)
	}
}

func TestRecordNegativeClampsToZero(t *testing.T) {
	h := New()
	h.RecordUs(-5)
	if h.Min() != 0 || h.Max() != 0 || h.Count() != 1 {
		t.Errorf("negative sample not clamped: min=%d max=%d count=%d", h.Min(), h.Max(), h.Count())
	}
}

func TestEmptyHistogram(t *testing.T) {
	h := New()
	if h.Percentile(50) != 0 || h.Mean() != 0 || h.Stddev() != 0 {
		t.Error("empty histogram should report zeros")
	}
	if h.Min() != 0 || h.Max() != 0 {
		t.Error("empty histogram min/max should be 0")
	}
}

func TestPercentileOrdering(t *testing.T) {
	h := New()
	for i := int64(0); i < 1000; i++ {
		h.RecordUs(i * 1000)
	}
	ps := []float64{50, 75, 90, 95, 99, 99.9}
	prev := float64(h.Min())
	for _, p := range ps {
		v := h.Percentile(p)
		if v < prev {
			t.Errorf("percentile %v = %v, below previous %v", p, v, prev)
		}
		prev = v
	}
	if prev > float64(h.Max()) {
		t.Errorf("p99.9 = %v above max %d", prev, h.Max())
	}
}

func TestPercentileMidpoint(t *testing.T) {
	h := New()
	for i := 0; i < 1000; i++ {
		h.RecordUs(int64(i) * 1000)
	}
	// target = 500, reached at bucket 499, midpoint 499500.
	if got := h.Percentile(50); got != 499500 {
		t.Errorf("p50 = %v, want 499500", got)
	}
}

func TestPercentileClampedToObservedRange(t *testing.T) {
	h := New()
	h.RecordUs(100) // bucket 0 midpoint would be 500
	if got := h.Percentile(50); got != 100 {
		t.Errorf("p50 = %v, want clamp to observed max 100", got)
	}
}

func TestStddev(t *testing.T) {
	h := New()
	h.RecordUs(500)
	if h.Stddev() != 0 {
		t.Error("stddev of a single sample should be 0")
	}
	h.RecordUs(500) // same bucket: zero spread over midpoints
	if h.Stddev() != 0 {
		t.Errorf("stddev = %v, want 0 for one bucket", h.Stddev())
	}
	h.RecordUs(2500)
	if h.Stddev() <= 0 {
		t.Errorf("stddev = %v, want > 0 across buckets", h.Stddev())
	}
}

func TestMergeCommutativeAssociative(t *testing.T) {
	build := func(vals ...int64) *Histogram {
		h := New()
		for _, v := range vals {
			h.RecordUs(v)
		}
		return h
	}
	a := build(100, 2000, 3000)
	b := build(500, 500, 9_000_000)
	c := build(42)

	ab := a.Clone()
	if err := ab.Merge(b); err != nil {
		t.Fatal(err)
	}
	if err := ab.Merge(c); err != nil {
		t.Fatal(err)
	}

	cb := c.Clone()
	if err := cb.Merge(b); err != nil {
		t.Fatal(err)
	}
	if err := cb.Merge(a); err != nil {
		t.Fatal(err)
	}

	if ab.Count() != cb.Count() || ab.Sum() != cb.Sum() ||
		ab.Min() != cb.Min() || ab.Max() != cb.Max() {
		t.Errorf("merge order changed totals: %+v vs %+v", ab, cb)
	}
	for _, p := range []float64{50, 90, 99, 99.9} {
		if ab.Percentile(p) != cb.Percentile(p) {
			t.Errorf("merge order changed p%v: %v vs %v", p, ab.Percentile(p), cb.Percentile(p))
		}
	}
}

func TestMergeEmptyAndNil(t *testing.T) {
	h := New()
	h.RecordUs(1000)
	if err := h.Merge(nil); err != nil {
		t.Fatal(err)
	}
	if err := h.Merge(New()); err != nil {
		t.Fatal(err)
	}
	if h.Count() != 1 {
		t.Errorf("Count = %d after merging empties, want 1", h.Count())
	}
}

func TestMergeGeometryMismatch(t *testing.T) {
	h := New()
	other := NewSized(100, time.Millisecond)
	other.RecordUs(100)
	if err := h.Merge(other); err == nil {
		t.Error("expected geometry mismatch error")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	h := New()
	h.RecordUs(1000)
	c := h.Clone()
	h.RecordUs(2000)
	if c.Count() != 1 {
		t.Errorf("clone count = %d, want 1", c.Count())
	}
}

func TestReset(t *testing.T) {
	h := New()
	h.RecordUs(1000)
	h.Reset()
	if h.Count() != 0 || h.Sum() != 0 || h.Min() != 0 || h.Max() != 0 {
		t.Error("reset did not zero the histogram")
	}
	h.RecordUs(4000)
	if h.Min() != 4000 {
		t.Errorf("Min after reset = %d, want 4000", h.Min())
	}
}

func BenchmarkRecord(b *testing.B) {
	h := New()
	for i := 0; i < b.N; i++ {
		h.RecordUs(int64(i % 10_000_000))
	}
}

func BenchmarkPercentile(b *testing.B) {
	h := New()
	for i := 0; i < 100_000; i++ {
		h.RecordUs(int64(i % 10_000_000))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Percentile(99)
	}
}
