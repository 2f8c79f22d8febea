// Package pipeline is the paginated fetch-and-stream engine behind every
// stream of the tap.
//
// # Overview
//
// A stream sync is assembled from four parts:
//   - Fetcher: one request per page, wrapped in the rate-limit retry policy
//   - Pagination drivers: Counted, Open and OneShot produce a lazy
//     iter.Seq2 of pages, fetching one page per consumer step
//   - Days: daily [start, end) windows for incremental analytics queries
//   - Emit and Collect: transform each entity and write the records
//
// # Basic Usage
//
//	f := &pipeline.Fetcher[User]{
//	    Stream: "users",
//	    Call:   client.Get("/api/v2/users"),
//	    Entity: "entities",
//	    Retry:  base.DefaultRetryPolicy(),
//	}
//	pages := pipeline.Counted(ctx, f, pipeline.CountedPage{}, pipeline.Options{})
//	stats, err := pipeline.Emit(ctx, emitter, usersStream, pages,
//	    pipeline.OneToOne[User](userRecord), pipeline.Ancestor{}, true)
//
// Pages are never prefetched and a sequence can be ranged only once.
package pipeline

const tracerName = "github.com/ajitpratap0/tap-purecloud/internal/pipeline"
