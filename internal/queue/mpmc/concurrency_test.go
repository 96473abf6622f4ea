package mpmc

import (
	"runtime"
	"ser2sockd/internal/global"
	"sync"
	"testing"
)

func TestQueue_Concurrency(t *testing.T) {
	tests := []struct {
		name      string
		capacity  uint64
		producers int
		numOps    int
	}{
		{"SingleProducer", 128, 1, 1000},
		{"HighContention", 16, 8, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue, err := New[int]([]string{global.NSTest}, tt.capacity)
			if err != nil {
				t.Fatalf("expected no error in creating queue, but got '%v'", err)
			}

			var wg sync.WaitGroup
			for p := 0; p < tt.producers; p++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < tt.numOps; j++ {
						for !queue.Push(j, 1) {
							runtime.Gosched()
						}
					}
				}()
			}

			total := tt.producers * tt.numOps
			received := 0
			for received < total {
				if _, ok := queue.TryPop(nil); ok {
					received++
					continue
				}
				runtime.Gosched()
			}
			wg.Wait()

			if queue.Len() != 0 {
				t.Fatalf("expected drained queue, got depth %d", queue.Len())
			}
		})
	}
}
