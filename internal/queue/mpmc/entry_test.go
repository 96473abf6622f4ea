package mpmc

import (
	"context"
	"ser2sockd/internal/global"
	"testing"
	"time"
)

// Helper
func intPtr[T any](v T) *T { return &v }

func TestQueue_PushPopScenarios(t *testing.T) {
	type op struct {
		push *int // nil means pop
		want *int // nil means no expected output
	}

	tests := []struct {
		name     string
		capacity uint64
		ops      []op
	}{
		{
			name:     "SinglePushPop",
			capacity: 32,
			ops: []op{
				{push: intPtr(10)},
				{want: intPtr(10)},
			},
		},
		{
			name:     "DeepWrap",
			capacity: 4,
			ops: []op{
				{push: intPtr(0)},
				{push: intPtr(1)},
				{push: intPtr(2)},
				{push: intPtr(3)},
				{want: intPtr(0)},
				{want: intPtr(1)},
				{push: intPtr(100)}, // wrap happens here
				{push: intPtr(200)},
				{want: intPtr(2)},
				{want: intPtr(3)},
				{want: intPtr(100)},
				{want: intPtr(200)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New[int]([]string{global.NSTest}, tt.capacity)
			if err != nil {
				t.Fatalf("expected no error in creating queue, but got '%v'", err)
			}

			for i, op := range tt.ops {
				if op.push != nil {
					if !q.Push(*op.push, 1) {
						t.Fatalf("op %d: push(%d) failed", i, *op.push)
					}
				} else if op.want != nil {
					got, ok := q.TryPop(nil)
					if !ok {
						t.Fatalf("op %d: pop failed", i)
					}
					if got != *op.want {
						t.Fatalf("op %d: want %d, got %d", i, *op.want, got)
					}
				}
			}
		})
	}
}

func TestNew_CapacityRounding(t *testing.T) {
	tests := []struct {
		name     string
		capacity uint64
		wantSize int
		wantErr  bool
	}{
		{"zero rejected", 0, 0, true},
		{"one rejected", 1, 0, true},
		{"power of two kept", 8, 8, false},
		{"rounded up", 5, 8, false},
		{"default inbox", global.DefaultInboxSize, 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New[int]([]string{global.NSTest}, tt.capacity)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error in creating queue, but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error in creating queue, but got '%v'", err)
			}
			if q.Size != tt.wantSize {
				t.Fatalf("expected size %d, but got '%d'", tt.wantSize, q.Size)
			}
		})
	}
}

func TestPush_FullThenRetry(t *testing.T) {
	q, err := New[int]([]string{global.NSTest}, 2)
	if err != nil {
		t.Fatalf("expected no error in creating queue, but got '%v'", err)
	}

	q.Push(1, 1)
	q.Push(2, 1)
	if q.Push(3, 1) {
		t.Fatalf("expected push into full queue to fail")
	}
	if q.Metrics.PushFull.Load() != 1 {
		t.Fatalf("expected 1 full rejection, but got '%d'", q.Metrics.PushFull.Load())
	}

	q.TryPop(nil)
	if !q.Push(3, 1) {
		t.Fatalf("retry push should succeed")
	}
}

func TestTryPop_EmptyAndAccounting(t *testing.T) {
	q, err := New[[]byte]([]string{global.NSTest}, 4)
	if err != nil {
		t.Fatalf("expected no error in creating queue, but got '%v'", err)
	}

	if _, ok := q.TryPop(nil); ok {
		t.Fatalf("expected empty queue")
	}

	sizeOf := func(b []byte) int { return len(b) }
	q.Push([]byte("abc"), 3)
	q.Push([]byte("de"), 2)
	if q.Metrics.Bytes.Load() != 5 || q.Len() != 2 {
		t.Fatalf("unexpected accounting bytes=%d len=%d", q.Metrics.Bytes.Load(), q.Len())
	}

	q.TryPop(sizeOf)
	if q.Metrics.Bytes.Load() != 2 || q.Len() != 1 {
		t.Fatalf("unexpected accounting after pop bytes=%d len=%d", q.Metrics.Bytes.Load(), q.Len())
	}
}

func TestPop_BlocksUntilPush(t *testing.T) {
	q, err := New[int]([]string{global.NSTest}, 8)
	if err != nil {
		t.Fatalf("expected no error in creating queue, but got '%v'", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push(42, 1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, ok := q.Pop(ctx, nil)
	if !ok || got != 42 {
		t.Fatalf("expected 42, got %d (ok=%v)", got, ok)
	}
}

func TestPop_ContextCancel(t *testing.T) {
	q, err := New[int]([]string{global.NSTest}, 8)
	if err != nil {
		t.Fatalf("expected no error in creating queue, but got '%v'", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, ok := q.Pop(ctx, nil); ok {
		t.Fatalf("expected pop on empty queue to fail after cancel")
	}
}
