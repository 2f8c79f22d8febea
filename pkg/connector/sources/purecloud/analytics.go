package purecloud

import (
	"context"
	"time"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
)

// syncConversations queries conversation details one day at a time, from
// start through the end of today.
func (r *Runner) syncConversations(ctx context.Context, start, today time.Time, sum *Summary) error {
	call := r.api.Post(genesys.PathConversationDetails)
	declare := r.declare(StreamConversation)

	ran := false
	for w := range pipeline.Days(start, today.AddDate(0, 0, 1)) {
		ran = true
		body := pipeline.CursorPaging{Filter: map[string]interface{}{
			"interval": w.Interval(),
			"order":    "asc",
			"orderBy":  "conversationStart",
		}}
		f := newFetcher[genesys.Conversation](r, StreamConversation, call, genesys.CollectionConversations)
		stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamConversation),
			pipeline.Open(ctx, f, body, r.pageOpts),
			pipeline.OneToOne[genesys.Conversation](conversationRecord),
			pipeline.Ancestor{WindowStart: w.Start}, declare && w.First)
		r.record(sum, StreamConversation, stats)
		if err != nil {
			return err
		}
	}
	return r.declareIdle(ctx, StreamConversation, declare, ran)
}

// syncUserState queries user presence and routing intervals one day at a
// time, from start through the end of today.
func (r *Runner) syncUserState(ctx context.Context, start, today time.Time, sum *Summary) error {
	call := r.api.Post(genesys.PathUserDetails)
	declare := r.declare(StreamUserState)

	ran := false
	for w := range pipeline.Days(start, today.AddDate(0, 0, 1)) {
		ran = true
		body := pipeline.CursorPaging{Filter: map[string]interface{}{
			"interval": w.Interval(),
			"order":    "asc",
		}}
		f := newFetcher[genesys.UserDetail](r, StreamUserState, call, genesys.CollectionUserDetails)
		stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamUserState),
			pipeline.Open(ctx, f, body, r.pageOpts),
			pipeline.OneToMany[genesys.UserDetail](userStateRecords),
			pipeline.Ancestor{WindowStart: w.Start}, declare && w.First)
		r.record(sum, StreamUserState, stats)
		if err != nil {
			return err
		}
	}
	return r.declareIdle(ctx, StreamUserState, declare, ran)
}
