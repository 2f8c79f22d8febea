package purecloud

import (
	"context"
	"net/url"
	"time"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
)

func (r *Runner) syncUsers(ctx context.Context, _, _ time.Time, sum *Summary) error {
	f := newFetcher[genesys.User](r, StreamUsers, r.api.Get(genesys.PathUsers), genesys.CollectionEntities)
	f.Params = url.Values{"expand": {"locations"}}

	stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamUsers),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.pageOpts),
		pipeline.OneToOne[genesys.User](userRecord), pipeline.Ancestor{}, r.declare(StreamUsers))
	r.record(sum, StreamUsers, stats)
	return err
}

func (r *Runner) syncGroups(ctx context.Context, _, _ time.Time, sum *Summary) error {
	f := newFetcher[genesys.Group](r, StreamGroups, r.api.Get(genesys.PathGroups), genesys.CollectionEntities)

	stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamGroups),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.pageOpts),
		pipeline.OneToOne[genesys.Group](groupRecord), pipeline.Ancestor{}, r.declare(StreamGroups))
	r.record(sum, StreamGroups, stats)
	return err
}

// syncLocations pages the location search, which takes its paging in the
// request body and answers with "results".
func (r *Runner) syncLocations(ctx context.Context, _, _ time.Time, sum *Summary) error {
	f := newFetcher[genesys.Location](r, StreamLocation, r.api.Post(genesys.PathLocationsSearch), genesys.CollectionResults)

	stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamLocation),
		pipeline.Counted(ctx, f, pipeline.FilteredCountedPage{}, r.pageOpts),
		pipeline.OneToOne[genesys.Location](locationRecord), pipeline.Ancestor{}, r.declare(StreamLocation))
	r.record(sum, StreamLocation, stats)
	return err
}

func (r *Runner) syncPresence(ctx context.Context, _, _ time.Time, sum *Summary) error {
	f := newFetcher[genesys.PresenceDefinition](r, StreamPresence, r.api.Get(genesys.PathPresenceDefinitions), genesys.CollectionEntities)

	stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamPresence),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.pageOpts),
		pipeline.OneToOne[genesys.PresenceDefinition](presenceRecord), pipeline.Ancestor{}, r.declare(StreamPresence))
	r.record(sum, StreamPresence, stats)
	return err
}
