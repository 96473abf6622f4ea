package logctx

import (
	"context"
	"ser2sockd/internal/global"
)

// Append new tag to tag list.
// Copy-on-write, parent context keeps its list
func AppendCtxTag(ctx context.Context, newTag string) (newCtx context.Context) {
	tags := append(GetTagList(ctx), newTag)
	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Overwrites entire tag list with a copy of the given list
func OverwriteCtxTag(ctx context.Context, newList []string) (newCtx context.Context) {
	tags := append([]string{}, newList...)
	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Returns a private copy of the context tag list (empty when unset)
func GetTagList(ctx context.Context) (tags []string) {
	stored, ok := ctx.Value(global.LogTagsKey).([]string)
	tags = make([]string, len(stored), len(stored)+1)
	if ok {
		copy(tags, stored)
	}
	return
}
