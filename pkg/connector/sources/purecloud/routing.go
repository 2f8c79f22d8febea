package purecloud

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
)

// syncQueues emits every queue, then each queue's members and wrap-up codes.
func (r *Runner) syncQueues(ctx context.Context, _, _ time.Time, sum *Summary) error {
	f := newFetcher[genesys.Queue](r, StreamQueues, r.api.Get(genesys.PathQueues), genesys.CollectionEntities)

	queues, stats, err := pipeline.Collect(ctx, r.emitter, mustStream(StreamQueues),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.pageOpts),
		pipeline.OneToOne[genesys.Queue](queueRecord), pipeline.Ancestor{}, r.declare(StreamQueues))
	r.record(sum, StreamQueues, stats)
	if err != nil {
		return err
	}

	ids := recordIDs(queues, "id")
	r.logger.Debug("syncing queue children", zap.Int("queues", len(ids)))
	for _, id := range ids {
		anc := pipeline.Ancestor{ParentID: id}

		members := newFetcher[genesys.QueueMember](r, StreamQueueMembership,
			r.api.Get(genesys.QueueUsersPath(id)), genesys.CollectionEntities)
		stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamQueueMembership),
			pipeline.Counted(ctx, members, pipeline.CountedPage{}, r.pageOpts),
			pipeline.OneToOne[genesys.QueueMember](queueMemberRecord), anc, r.declare(StreamQueueMembership))
		r.record(sum, StreamQueueMembership, stats)
		if err != nil {
			return err
		}

		codes := newFetcher[genesys.WrapupCode](r, StreamQueueWrapupCode,
			r.api.Get(genesys.QueueWrapupCodesPath(id)), genesys.CollectionEntities)
		stats, err = pipeline.Emit(ctx, r.emitter, mustStream(StreamQueueWrapupCode),
			pipeline.Counted(ctx, codes, pipeline.CountedPage{}, r.pageOpts),
			pipeline.OneToOne[genesys.WrapupCode](wrapupCodeRecord), anc, r.declare(StreamQueueWrapupCode))
		r.record(sum, StreamQueueWrapupCode, stats)
		if err != nil {
			return err
		}
	}
	return nil
}

// recordIDs returns the non-empty string values of field, in order.
func recordIDs(records []core.Record, field string) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if id, ok := rec[field].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
