// Package genesys describes the PureCloud platform API: entity models,
// endpoint paths and the notification channel used by asynchronous
// workforce-management queries.
package genesys

import (
	"context"
	"net/url"
	"strings"
)

// API paths
const (
	PathUsers               = "/api/v2/users"
	PathGroups              = "/api/v2/groups"
	PathLocationsSearch     = "/api/v2/locations/search"
	PathPresenceDefinitions = "/api/v2/presencedefinitions"
	PathQueues              = "/api/v2/routing/queues"
	PathManagementUnits     = "/api/v2/workforcemanagement/managementunits"
	PathConversationDetails = "/api/v2/analytics/conversations/details/query"
	PathUserDetails         = "/api/v2/analytics/users/details/query"
	PathChannels            = "/api/v2/notifications/channels"
)

// Response collection names
const (
	CollectionEntities      = "entities"
	CollectionResults       = "results"
	CollectionActivityCodes = "activityCodes"
	CollectionUserSchedules = "userSchedules"
	CollectionConversations = "conversations"
	CollectionUserDetails   = "userDetails"
	CollectionData          = "data"
)

// Caller performs one API call and returns the response body. The
// clients.HTTPClient implements it.
type Caller interface {
	Do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error)
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

func join(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.Trim(p, "/")
	}
	return "/" + strings.Join(parts, "/")
}

// QueueUsersPath lists a queue's members.
func QueueUsersPath(queueID string) string {
	return join(PathQueues, url.PathEscape(queueID), "users")
}

// QueueWrapupCodesPath lists a queue's wrap-up codes.
func QueueWrapupCodesPath(queueID string) string {
	return join(PathQueues, url.PathEscape(queueID), "wrapupcodes")
}

// ActivityCodesPath lists a management unit's activity codes.
func ActivityCodesPath(muID string) string {
	return join(PathManagementUnits, url.PathEscape(muID), "activitycodes")
}

// ManagementUnitUsersPath lists a management unit's users.
func ManagementUnitUsersPath(muID string) string {
	return join(PathManagementUnits, url.PathEscape(muID), "users")
}

// SchedulesSearchPath searches a management unit's schedules.
func SchedulesSearchPath(muID string) string {
	return join(PathManagementUnits, url.PathEscape(muID), "schedules", "search")
}

// HistoricalAdherencePath starts an adherence query for a management unit.
func HistoricalAdherencePath(muID string) string {
	return join(PathManagementUnits, url.PathEscape(muID), "historicaladherencequery")
}

// SubscriptionsPath manages a notification channel's topics.
func SubscriptionsPath(channelID string) string {
	return join(PathChannels, url.PathEscape(channelID), "subscriptions")
}

// AdherenceTopic is the notification topic on which historical adherence
// results for queries started by clientID are announced.
func AdherenceTopic(clientID string) string {
	return "v2.users." + clientID + ".workforcemanagement.historicaladherencequery"
}
