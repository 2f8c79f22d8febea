package purecloud

import (
	"github.com/ajitpratap0/tap-purecloud/internal/pipeline"
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
	"github.com/ajitpratap0/tap-purecloud/pkg/genesys"
)

// User state interval kinds
const (
	StateTypePresence = "presence"
	StateTypeRouting  = "routing"
)

func missing(field string) error {
	return errors.New(errors.ErrorTypeData, "missing "+field)
}

func refID(ref *genesys.DomainEntityRef) interface{} {
	if ref == nil || ref.ID == "" {
		return nil
	}
	return ref.ID
}

func userRecord(_ pipeline.Ancestor, u genesys.User) (core.Record, error) {
	if u.ID == "" {
		return nil, missing("id")
	}
	locations := make([]interface{}, 0, len(u.Locations))
	for _, loc := range u.Locations {
		entry := map[string]interface{}{
			"id":            loc.ID,
			"notes":         loc.Notes,
			"location_id":   nil,
			"location_name": nil,
		}
		if loc.LocationDefinition != nil {
			entry["location_id"] = loc.LocationDefinition.ID
			entry["location_name"] = loc.LocationDefinition.Name
		}
		locations = append(locations, entry)
	}
	return core.Record{
		"id":          u.ID,
		"name":        u.Name,
		"email":       u.Email,
		"username":    u.Username,
		"state":       u.State,
		"department":  u.Department,
		"title":       u.Title,
		"version":     u.Version,
		"division_id": refID(u.Division),
		"manager_id":  refID(u.Manager),
		"locations":   locations,
	}, nil
}

func groupRecord(_ pipeline.Ancestor, g genesys.Group) (core.Record, error) {
	if g.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"id":            g.ID,
		"name":          g.Name,
		"description":   g.Description,
		"state":         g.State,
		"type":          g.Type,
		"visibility":    g.Visibility,
		"member_count":  g.MemberCount,
		"rules_visible": g.RulesVisible,
		"date_modified": core.FormatTimePtr(g.DateModified),
	}, nil
}

func locationRecord(_ pipeline.Ancestor, l genesys.Location) (core.Record, error) {
	if l.ID == "" {
		return nil, missing("id")
	}
	var address interface{}
	if a := l.Address; a != nil {
		address = map[string]interface{}{
			"city":    a.City,
			"country": a.Country,
			"state":   a.State,
			"street1": a.Street1,
			"street2": a.Street2,
			"zipcode": a.Zipcode,
		}
	}
	return core.Record{
		"id":              l.ID,
		"name":            l.Name,
		"state":           l.State,
		"notes":           l.Notes,
		"version":         l.Version,
		"path":            l.Path,
		"contact_user_id": refID(l.ContactUser),
		"address":         address,
	}, nil
}

func presenceRecord(_ pipeline.Ancestor, p genesys.PresenceDefinition) (core.Record, error) {
	if p.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"id":              p.ID,
		"name":            p.Name,
		"system_presence": p.SystemPresence,
		"primary":         p.Primary,
		"deactivated":     p.Deactivated,
		"language_labels": p.LanguageLabels,
		"modified_date":   core.FormatTimePtr(p.DateModified),
	}, nil
}

func queueRecord(_ pipeline.Ancestor, q genesys.Queue) (core.Record, error) {
	if q.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"id":                       q.ID,
		"name":                     q.Name,
		"description":              q.Description,
		"member_count":             q.MemberCount,
		"skill_evaluation_method":  q.SkillEvaluationMethod,
		"enable_transcription":     q.EnableTranscription,
		"enable_manual_assignment": q.EnableManualAssignment,
		"calling_party_name":       q.CallingPartyName,
		"calling_party_number":     q.CallingPartyNumber,
		"date_created":             core.FormatTimePtr(q.DateCreated),
		"date_modified":            core.FormatTimePtr(q.DateModified),
		"division_id":              refID(q.Division),
	}, nil
}

// queueMemberRecord keys a membership by queue and user; the API's own id
// is the user id and repeats across queues.
func queueMemberRecord(anc pipeline.Ancestor, m genesys.QueueMember) (core.Record, error) {
	userID := m.ID
	if m.User != nil && m.User.ID != "" {
		userID = m.User.ID
	}
	if userID == "" {
		return nil, missing("user id")
	}
	return core.Record{
		"id":          core.SyntheticKey(anc.ParentID, userID),
		"queue_id":    anc.ParentID,
		"user_id":     userID,
		"name":        m.Name,
		"ring_number": m.RingNumber,
		"joined":      m.Joined,
		"member_by":   m.MemberBy,
	}, nil
}

func wrapupCodeRecord(anc pipeline.Ancestor, c genesys.WrapupCode) (core.Record, error) {
	if c.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"id":             core.SyntheticKey(anc.ParentID, c.ID),
		"queue_id":       anc.ParentID,
		"wrapup_code_id": c.ID,
		"name":           c.Name,
		"date_created":   core.FormatTimePtr(c.DateCreated),
		"created_by":     c.CreatedBy,
	}, nil
}

func managementUnitRecord(_ pipeline.Ancestor, mu genesys.ManagementUnit) (core.Record, error) {
	if mu.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"id":                mu.ID,
		"name":              mu.Name,
		"start_day_of_week": mu.StartDayOfWeek,
		"time_zone":         mu.TimeZone,
		"version":           mu.Version,
		"division_id":       refID(mu.Division),
		"business_unit_id":  refID(mu.BusinessUnit),
	}, nil
}

func activityCodeRecord(anc pipeline.Ancestor, a genesys.ActivityCode) (core.Record, error) {
	if a.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"id":                  a.ID,
		"management_unit_id":  anc.ParentID,
		"name":                a.Name,
		"category":            a.Category,
		"is_active":           a.IsActive,
		"is_default":          a.IsDefault,
		"length_in_minutes":   a.LengthInMinutes,
		"counts_as_paid_time": a.CountsAsPaidTime,
		"counts_as_work_time": a.CountsAsWorkTime,
	}, nil
}

func managementUnitUserRecord(anc pipeline.Ancestor, u genesys.ManagementUnitUser) (core.Record, error) {
	if u.ID == "" {
		return nil, missing("id")
	}
	return core.Record{
		"user_id":            u.ID,
		"management_unit_id": anc.ParentID,
		"name":               u.Name,
		"email":              u.Email,
		"username":           u.Username,
	}, nil
}

// scheduleRecords yields one record per shift. Shifts without a start are
// skipped since start_date is part of the key.
func scheduleRecords(anc pipeline.Ancestor, us genesys.UserSchedule) ([]core.Record, error) {
	if us.UserID == "" {
		return nil, missing("userId")
	}
	out := make([]core.Record, 0, len(us.Shifts))
	for _, shift := range us.Shifts {
		if shift.StartDate == nil {
			out = append(out, nil)
			continue
		}
		activities := make([]interface{}, 0, len(shift.Activities))
		for _, a := range shift.Activities {
			activities = append(activities, map[string]interface{}{
				"start_date":          core.FormatTimePtr(a.StartDate),
				"length_in_minutes":   a.LengthInMinutes,
				"description":         a.Description,
				"activity_code_id":    a.ActivityCodeID,
				"paid":                a.Paid,
				"counts_as_paid_time": a.CountsAsPaidTime,
				"is_dst_fallback":     a.IsDstFallback,
			})
		}
		out = append(out, core.Record{
			"start_date":         core.FormatTime(*shift.StartDate),
			"user_id":            us.UserID,
			"management_unit_id": anc.ParentID,
			"shift_id":           shift.ID,
			"length_in_minutes":  shift.LengthInMinutes,
			"manually_edited":    shift.ManuallyEdited,
			"activities":         activities,
		})
	}
	return out, nil
}

// conversationRecord unrolls participants, sessions and segments into
// nested fields of a single record.
func conversationRecord(_ pipeline.Ancestor, c genesys.Conversation) (core.Record, error) {
	if c.ConversationID == "" {
		return nil, missing("conversationId")
	}

	participants := make([]interface{}, 0, len(c.Participants))
	for _, p := range c.Participants {
		sessions := make([]interface{}, 0, len(p.Sessions))
		for _, sess := range p.Sessions {
			segments := make([]interface{}, 0, len(sess.Segments))
			for _, seg := range sess.Segments {
				segments = append(segments, map[string]interface{}{
					"segment_start":   core.FormatTimePtr(seg.SegmentStart),
					"segment_end":     core.FormatTimePtr(seg.SegmentEnd),
					"segment_type":    seg.SegmentType,
					"queue_id":        seg.QueueID,
					"wrap_up_code":    seg.WrapUpCode,
					"wrap_up_note":    seg.WrapUpNote,
					"disconnect_type": seg.DisconnectType,
					"conference":      seg.Conference,
				})
			}
			sessions = append(sessions, map[string]interface{}{
				"session_id": sess.SessionID,
				"media_type": sess.MediaType,
				"direction":  sess.Direction,
				"ani":        sess.ANI,
				"dnis":       sess.DNIS,
				"segments":   segments,
			})
		}
		participants = append(participants, map[string]interface{}{
			"participant_id":      p.ParticipantID,
			"participant_name":    p.ParticipantName,
			"purpose":             p.Purpose,
			"user_id":             p.UserID,
			"external_contact_id": p.ExternalContact,
			"sessions":            sessions,
		})
	}

	return core.Record{
		"conversation_id":       c.ConversationID,
		"conversation_start":    core.FormatTimePtr(c.ConversationStart),
		"conversation_end":      core.FormatTimePtr(c.ConversationEnd),
		"originating_direction": c.OriginatingDirection,
		"division_ids":          c.DivisionIDs,
		"participants":          participants,
	}, nil
}

// userStateRecords yields one record per presence interval followed by
// one per routing interval. Intervals without a start are skipped.
func userStateRecords(_ pipeline.Ancestor, d genesys.UserDetail) ([]core.Record, error) {
	if d.UserID == "" {
		return nil, missing("userId")
	}
	out := make([]core.Record, 0, len(d.PrimaryPresence)+len(d.RoutingStatus))

	for _, p := range d.PrimaryPresence {
		if p.StartTime == nil {
			out = append(out, nil)
			continue
		}
		start := core.FormatTime(*p.StartTime)
		out = append(out, core.Record{
			"id":                       core.SyntheticKey(start, d.UserID, StateTypePresence),
			"user_id":                  d.UserID,
			"type":                     StateTypePresence,
			"state":                    p.SystemPresence,
			"start_time":               start,
			"end_time":                 core.FormatTimePtr(p.EndTime),
			"system_presence":          p.SystemPresence,
			"organization_presence_id": p.OrganizationPresenceID,
			"routing_status":           nil,
		})
	}

	for _, r := range d.RoutingStatus {
		if r.StartTime == nil {
			out = append(out, nil)
			continue
		}
		start := core.FormatTime(*r.StartTime)
		out = append(out, core.Record{
			"id":                       core.SyntheticKey(start, d.UserID, StateTypeRouting),
			"user_id":                  d.UserID,
			"type":                     StateTypeRouting,
			"state":                    r.RoutingStatus,
			"start_time":               start,
			"end_time":                 core.FormatTimePtr(r.EndTime),
			"system_presence":          nil,
			"organization_presence_id": nil,
			"routing_status":           r.RoutingStatus,
		})
	}
	return out, nil
}

// adherenceRecord tags a downloaded row with its unit and day.
func adherenceRecord(anc pipeline.Ancestor, row genesys.AdherenceRecord) (core.Record, error) {
	if row.UserID() == "" {
		return nil, missing("userId")
	}
	rec := make(core.Record, len(row)+2)
	for k, v := range row {
		rec[k] = v
	}
	rec["management_unit_id"] = anc.ParentID
	rec["startDate"] = anc.WindowStart.UTC().Format("2006-01-02")
	return rec, nil
}
