package purecloud

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
)

// The activity code, unit user and schedule endpoints answer in one page.
const singlePage = 1

// syncManagementUnits emits every management unit followed by, per unit,
// its activity codes, users, schedules and historical adherence.
func (r *Runner) syncManagementUnits(ctx context.Context, start, today time.Time, sum *Summary) error {
	f := newFetcher[genesys.ManagementUnit](r, StreamManagementUnit,
		r.api.Get(genesys.PathManagementUnits), genesys.CollectionEntities)

	units, stats, err := pipeline.Collect(ctx, r.emitter, mustStream(StreamManagementUnit),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.pageOpts),
		pipeline.OneToOne[genesys.ManagementUnit](managementUnitRecord), pipeline.Ancestor{}, r.declare(StreamManagementUnit))
	r.record(sum, StreamManagementUnit, stats)
	if err != nil {
		return err
	}

	for _, muID := range recordIDs(units, "id") {
		logger := r.logger.With(zap.String("management_unit_id", muID))
		logger.Debug("syncing management unit")

		if err := r.syncActivityCodes(ctx, muID, sum); err != nil {
			return err
		}
		users, err := r.syncManagementUnitUsers(ctx, muID, sum)
		if err != nil {
			return err
		}
		userIDs := recordIDs(users, "user_id")
		if err := r.syncSchedules(ctx, muID, userIDs, start, today, sum); err != nil {
			return err
		}
		if err := r.syncAdherence(ctx, muID, userIDs, start, today, sum); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) singlePageOpts() pipeline.Options {
	opts := r.pageOpts
	opts.MaxPages = singlePage
	return opts
}

func (r *Runner) syncActivityCodes(ctx context.Context, muID string, sum *Summary) error {
	f := newFetcher[genesys.ActivityCode](r, StreamActivityCode,
		r.api.Get(genesys.ActivityCodesPath(muID)), genesys.CollectionActivityCodes)

	stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamActivityCode),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.singlePageOpts()),
		pipeline.OneToOne[genesys.ActivityCode](activityCodeRecord),
		pipeline.Ancestor{ParentID: muID}, r.declare(StreamActivityCode))
	r.record(sum, StreamActivityCode, stats)
	return err
}

func (r *Runner) syncManagementUnitUsers(ctx context.Context, muID string, sum *Summary) ([]core.Record, error) {
	f := newFetcher[genesys.ManagementUnitUser](r, StreamManagementUnitUsers,
		r.api.Get(genesys.ManagementUnitUsersPath(muID)), genesys.CollectionEntities)

	users, stats, err := pipeline.Collect(ctx, r.emitter, mustStream(StreamManagementUnitUsers),
		pipeline.Counted(ctx, f, pipeline.CountedPage{}, r.singlePageOpts()),
		pipeline.OneToOne[genesys.ManagementUnitUser](managementUnitUserRecord),
		pipeline.Ancestor{ParentID: muID}, r.declare(StreamManagementUnitUsers))
	r.record(sum, StreamManagementUnitUsers, stats)
	return users, err
}

// syncSchedules searches one day at a time from start through the
// configured lookahead past today.
func (r *Runner) syncSchedules(ctx context.Context, muID string, userIDs []string, start, today time.Time, sum *Summary) error {
	end := today.AddDate(0, 0, 7*r.cfg.ScheduleLookaheadWeeks)
	call := r.api.Post(genesys.SchedulesSearchPath(muID))

	declare := r.declare(StreamUserSchedule)
	ran := false
	for w := range pipeline.Days(start, end) {
		ran = true
		filter := map[string]interface{}{
			"startDate": core.FormatTime(w.Start),
			"endDate":   core.FormatTime(w.End),
		}
		if len(userIDs) > 0 {
			filter["userIds"] = userIDs
		}

		f := newFetcher[genesys.UserSchedule](r, StreamUserSchedule, call, genesys.CollectionUserSchedules)
		stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamUserSchedule),
			pipeline.Counted(ctx, f, pipeline.FilteredCountedPage{Filter: filter}, r.singlePageOpts()),
			pipeline.OneToMany[genesys.UserSchedule](scheduleRecords),
			pipeline.Ancestor{ParentID: muID, WindowStart: w.Start}, declare && w.First)
		r.record(sum, StreamUserSchedule, stats)
		if err != nil {
			return err
		}
	}
	return r.declareIdle(ctx, StreamUserSchedule, declare, ran)
}

// syncAdherence runs one notification-backed query per day, starting a day
// before start so late-arriving actuals are picked up.
func (r *Runner) syncAdherence(ctx context.Context, muID string, userIDs []string, start, today time.Time, sum *Summary) error {
	declare := r.declare(StreamHistoricalAdherence)
	ran := false
	for w := range pipeline.Days(start.AddDate(0, 0, -1), today) {
		ran = true
		query := genesys.AdherenceQuery{
			ClientID:         r.cfg.ClientID,
			ManagementUnitID: muID,
			Start:            w.Start,
			End:              w.End,
			UserIDs:          userIDs,
		}
		pages := pipeline.OneShot(ctx, func(ctx context.Context) ([]genesys.AdherenceRecord, error) {
			return r.adherence.HistoricalAdherence(ctx, query)
		})

		stats, err := pipeline.Emit(ctx, r.emitter, mustStream(StreamHistoricalAdherence), pages,
			pipeline.OneToOne[genesys.AdherenceRecord](adherenceRecord),
			pipeline.Ancestor{ParentID: muID, WindowStart: w.Start}, declare && w.First)
		r.record(sum, StreamHistoricalAdherence, stats)
		if err != nil {
			return err
		}
	}
	return r.declareIdle(ctx, StreamHistoricalAdherence, declare, ran)
}
