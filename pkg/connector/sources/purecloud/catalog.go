package purecloud

import (
	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
)

// Stream names
const (
	StreamUsers               = "users"
	StreamGroups              = "groups"
	StreamLocation            = "location"
	StreamPresence            = "presence"
	StreamQueues              = "queues"
	StreamQueueMembership     = "queue_membership"
	StreamQueueWrapupCode     = "queue_wrapup_code"
	StreamManagementUnit      = "management_unit"
	StreamActivityCode        = "activity_code"
	StreamManagementUnitUsers = "management_unit_users"
	StreamUserSchedule        = "user_schedule"
	StreamConversation        = "conversation"
	StreamUserState           = "user_state"
	StreamHistoricalAdherence = "historical_adherence"
)

var (
	s  = core.String
	i  = core.Integer
	n  = core.Number
	b  = core.Boolean
	dt = core.DateTime
)

func obj(props map[string]*core.Schema) *core.Schema { return core.Object(props) }

func segmentSchema() *core.Schema {
	return obj(map[string]*core.Schema{
		"segment_start":   dt(),
		"segment_end":     dt(),
		"segment_type":    s(),
		"queue_id":        s(),
		"wrap_up_code":    s(),
		"wrap_up_note":    s(),
		"disconnect_type": s(),
		"conference":      b(),
	})
}

func sessionSchema() *core.Schema {
	return obj(map[string]*core.Schema{
		"session_id": s(),
		"media_type": s(),
		"direction":  s(),
		"ani":        s(),
		"dnis":       s(),
		"segments":   core.Array(segmentSchema()),
	})
}

func participantSchema() *core.Schema {
	return obj(map[string]*core.Schema{
		"participant_id":      s(),
		"participant_name":    s(),
		"purpose":             s(),
		"user_id":             s(),
		"external_contact_id": s(),
		"sessions":            core.Array(sessionSchema()),
	})
}

func activitySchema() *core.Schema {
	return obj(map[string]*core.Schema{
		"start_date":          dt(),
		"length_in_minutes":   i(),
		"description":         s(),
		"activity_code_id":    s(),
		"paid":                b(),
		"counts_as_paid_time": b(),
		"is_dst_fallback":     b(),
	})
}

// catalog lists every stream in sync order.
var catalog = []core.Stream{
	{
		Name: StreamUsers,
		Schema: obj(map[string]*core.Schema{
			"id":          s(),
			"name":        s(),
			"email":       s(),
			"username":    s(),
			"state":       s(),
			"department":  s(),
			"title":       s(),
			"version":     i(),
			"division_id": s(),
			"manager_id":  s(),
			"locations": core.Array(obj(map[string]*core.Schema{
				"id":            s(),
				"location_id":   s(),
				"location_name": s(),
				"notes":         s(),
			})),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamGroups,
		Schema: obj(map[string]*core.Schema{
			"id":            s(),
			"name":          s(),
			"description":   s(),
			"state":         s(),
			"type":          s(),
			"visibility":    s(),
			"member_count":  i(),
			"rules_visible": b(),
			"date_modified": dt(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamLocation,
		Schema: obj(map[string]*core.Schema{
			"id":              s(),
			"name":            s(),
			"state":           s(),
			"notes":           s(),
			"version":         i(),
			"path":            core.Array(s()),
			"contact_user_id": s(),
			"address": obj(map[string]*core.Schema{
				"city":    s(),
				"country": s(),
				"state":   s(),
				"street1": s(),
				"street2": s(),
				"zipcode": s(),
			}),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamPresence,
		Schema: obj(map[string]*core.Schema{
			"id":              s(),
			"name":            s(),
			"system_presence": s(),
			"primary":         b(),
			"deactivated":     b(),
			"language_labels": obj(nil),
			"modified_date":   dt(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamQueues,
		Schema: obj(map[string]*core.Schema{
			"id":                       s(),
			"name":                     s(),
			"description":              s(),
			"member_count":             i(),
			"skill_evaluation_method":  s(),
			"enable_transcription":     b(),
			"enable_manual_assignment": b(),
			"calling_party_name":       s(),
			"calling_party_number":     s(),
			"date_created":             dt(),
			"date_modified":            dt(),
			"division_id":              s(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamQueueMembership,
		Schema: obj(map[string]*core.Schema{
			"id":          s(),
			"queue_id":    s(),
			"user_id":     s(),
			"name":        s(),
			"ring_number": i(),
			"joined":      b(),
			"member_by":   s(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamQueueWrapupCode,
		Schema: obj(map[string]*core.Schema{
			"id":             s(),
			"queue_id":       s(),
			"wrapup_code_id": s(),
			"name":           s(),
			"date_created":   dt(),
			"created_by":     s(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamManagementUnit,
		Schema: obj(map[string]*core.Schema{
			"id":                s(),
			"name":              s(),
			"start_day_of_week": s(),
			"time_zone":         s(),
			"version":           i(),
			"division_id":       s(),
			"business_unit_id":  s(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamActivityCode,
		Schema: obj(map[string]*core.Schema{
			"id":                  s(),
			"management_unit_id":  s(),
			"name":                s(),
			"category":            s(),
			"is_active":           b(),
			"is_default":          b(),
			"length_in_minutes":   i(),
			"counts_as_paid_time": b(),
			"counts_as_work_time": b(),
		}),
		KeyProperties: []string{"id", "management_unit_id"},
	},
	{
		Name: StreamManagementUnitUsers,
		Schema: obj(map[string]*core.Schema{
			"user_id":            s(),
			"management_unit_id": s(),
			"name":               s(),
			"email":              s(),
			"username":           s(),
		}),
		KeyProperties: []string{"user_id", "management_unit_id"},
	},
	{
		Name: StreamUserSchedule,
		Schema: obj(map[string]*core.Schema{
			"start_date":         dt(),
			"user_id":            s(),
			"management_unit_id": s(),
			"shift_id":           s(),
			"length_in_minutes":  i(),
			"manually_edited":    b(),
			"activities":         core.Array(activitySchema()),
		}),
		KeyProperties: []string{"start_date", "user_id"},
	},
	{
		Name: StreamConversation,
		Schema: obj(map[string]*core.Schema{
			"conversation_id":       s(),
			"conversation_start":    dt(),
			"conversation_end":      dt(),
			"originating_direction": s(),
			"division_ids":          core.Array(s()),
			"participants":          core.Array(participantSchema()),
		}),
		KeyProperties: []string{"conversation_id"},
	},
	{
		Name: StreamUserState,
		Schema: obj(map[string]*core.Schema{
			"id":                       s(),
			"user_id":                  s(),
			"type":                     s(),
			"state":                    s(),
			"start_time":               dt(),
			"end_time":                 dt(),
			"system_presence":          s(),
			"organization_presence_id": s(),
			"routing_status":           s(),
		}),
		KeyProperties: []string{"id"},
	},
	{
		Name: StreamHistoricalAdherence,
		Schema: obj(map[string]*core.Schema{
			"userId":                s(),
			"management_unit_id":    s(),
			"startDate":             core.String(),
			"adherencePercentage":   n(),
			"conformancePercentage": n(),
			"impact":                s(),
			"exceptionInfo":         core.Array(obj(nil)),
			"dayMetrics":            core.Array(obj(nil)),
			"actualsEndDate":        dt(),
		}),
		KeyProperties: []string{"userId", "management_unit_id", "startDate"},
	},
}

// Catalog returns every stream the tap emits, in sync order.
func Catalog() []core.Stream {
	out := make([]core.Stream, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the named stream.
func Lookup(name string) (core.Stream, bool) {
	for _, st := range catalog {
		if st.Name == name {
			return st, true
		}
	}
	return core.Stream{}, false
}

func mustStream(name string) core.Stream {
	st, ok := Lookup(name)
	if !ok {
		panic("purecloud: unknown stream " + name)
	}
	return st
}

// CatalogEntry is one stream in the discover output.
type CatalogEntry struct {
	Stream        string       `json:"stream" yaml:"stream"`
	TapStreamID   string       `json:"tap_stream_id" yaml:"tap_stream_id"`
	Schema        *core.Schema `json:"schema" yaml:"schema"`
	KeyProperties []string     `json:"key_properties" yaml:"key_properties"`
}

// CatalogDocument is the discover output.
type CatalogDocument struct {
	Streams []CatalogEntry `json:"streams" yaml:"streams"`
}

// Discover builds the catalog document.
func Discover() CatalogDocument {
	doc := CatalogDocument{Streams: make([]CatalogEntry, 0, len(catalog))}
	for _, st := range catalog {
		doc.Streams = append(doc.Streams, CatalogEntry{
			Stream:        st.Name,
			TapStreamID:   st.Name,
			Schema:        st.Schema,
			KeyProperties: st.KeyProperties,
		})
	}
	return doc
}
