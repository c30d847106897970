package observability

import (
	"testing"
	"time"
)

func TestPipelineMetrics(t *testing.T) {
	m := NewPipelineMetrics()

	t.Run("NewPipelineMetrics", func(t *testing.T) {
		if m == nil {
			t.Fatal("NewPipelineMetrics returned nil")
		}
		if m.FramesSent == nil {
			t.Error("FramesSent not initialized")
		}
		if m.IterationDuration == nil {
			t.Error("IterationDuration not initialized")
		}
		if m.ClassifyDuration == nil {
			t.Error("ClassifyDuration not initialized")
		}
	})

	t.Run("RecordSendRecv", func(t *testing.T) {
		m.RecordSend(44)
		m.RecordRecv(44)
	})

	t.Run("RecordTransportError", func(t *testing.T) {
		m.RecordTransportError("Send")
		m.RecordTransportError("Recv")
	})

	t.Run("RecordIteration", func(t *testing.T) {
		m.RecordIteration("knn", 5*time.Millisecond)
		m.RecordIteration("labeling", 2*time.Millisecond)
	})

	t.Run("RecordMerge", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			m.RecordMerge()
		}
	})

	t.Run("RecordLabelingWrites", func(t *testing.T) {
		m.RecordLabelingWrites(3)
	})

	t.Run("RecordClassify", func(t *testing.T) {
		m.RecordClassify(1*time.Millisecond, 4)
	})

	t.Run("UpdateSystemMetrics", func(t *testing.T) {
		m.UpdateGoroutineCount(12)
		m.UpdateMemoryUsage(1024 * 1024)
	})
}
