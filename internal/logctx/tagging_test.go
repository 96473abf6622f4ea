package logctx

import (
	"context"
	"reflect"
	"ser2sockd/internal/global"
	"strconv"
	"sync"
	"testing"
)

func TestCtxTags(t *testing.T) {
	relayCtx := AppendCtxTag(context.Background(), global.NSDaemon)
	relayCtx = AppendCtxTag(relayCtx, global.NSRelay)

	tests := []struct {
		name string
		ctx  context.Context
		want []string
	}{
		{"unset", context.Background(), []string{}},
		{"wrong type stored", context.WithValue(context.Background(), global.LogTagsKey, "Relay"), []string{}},
		{"appended", relayCtx, []string{global.NSDaemon, global.NSRelay}},
		{"appended to child", AppendCtxTag(relayCtx, global.NSClient), []string{global.NSDaemon, global.NSRelay, global.NSClient}},
		{"overwritten", OverwriteCtxTag(relayCtx, []string{global.NSMetric, global.NSMetricSrv}), []string{global.NSMetric, global.NSMetricSrv}},
		{"overwritten with nothing", OverwriteCtxTag(relayCtx, nil), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetTagList(tt.ctx)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected tags %v, but got '%v'", tt.want, got)
			}
		})
	}

	// Children never change the parent
	if got := GetTagList(relayCtx); !reflect.DeepEqual(got, []string{global.NSDaemon, global.NSRelay}) {
		t.Fatalf("expected parent tags unchanged, but got '%v'", got)
	}
}

func TestCtxTags_CopyOnWrite(t *testing.T) {
	source := []string{global.NSSource}
	ctx := OverwriteCtxTag(context.Background(), source)
	source[0] = "mutated"

	tags := GetTagList(ctx)
	tags[0] = "mutated"

	if got := GetTagList(ctx); !reflect.DeepEqual(got, []string{global.NSSource}) {
		t.Fatalf("expected stored tags unaffected by callers, but got '%v'", got)
	}

	// Sibling appends must not share a backing array
	base := AppendCtxTag(AppendCtxTag(context.Background(), global.NSRelay), global.NSClient)
	first := AppendCtxTag(base, "0")
	second := AppendCtxTag(base, "1")
	if GetTagList(first)[2] != "0" || GetTagList(second)[2] != "1" {
		t.Fatalf("expected independent sibling tags, but got '%v' and '%v'", GetTagList(first), GetTagList(second))
	}
}

func TestCtxTags_Concurrent(t *testing.T) {
	base := OverwriteCtxTag(context.Background(), []string{global.NSRelay})

	const workers = 8
	results := make([][]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			ctx := AppendCtxTag(base, global.NSClient)
			ctx = AppendCtxTag(ctx, strconv.Itoa(id))
			results[id] = GetTagList(ctx)
		}(i)
	}
	wg.Wait()

	for id, tags := range results {
		want := []string{global.NSRelay, global.NSClient, strconv.Itoa(id)}
		if !reflect.DeepEqual(tags, want) {
			t.Fatalf("worker %d: expected tags %v, but got '%v'", id, want, tags)
		}
	}
	if got := GetTagList(base); !reflect.DeepEqual(got, []string{global.NSRelay}) {
		t.Fatalf("expected base tags unchanged, but got '%v'", got)
	}
}
