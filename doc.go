// Package tappurecloud is a Singer tap for Genesys Cloud (PureCloud).
//
// It pulls directory, routing, workforce-management and analytics data from
// the platform's REST APIs and writes it as SCHEMA, RECORD and STATE
// messages, one JSON object per line.
//
// # Quick Start
//
//	tap-purecloud discover > catalog.json
//	tap-purecloud sync -c config.json -s state.json > out.jsonl
//
// A minimal config:
//
//	{
//	    "domain": "mypurecloud.com",
//	    "client_id": "...",
//	    "client_secret": "...",
//	    "start_date": "2024-03-01"
//	}
//
// Every optional setting can also be given as a TAP_PURECLOUD_* environment
// variable, e.g. TAP_PURECLOUD_RELIABILITY_RETRY_ATTEMPTS.
//
// # Streams
//
// Full syncs: users, groups, location, presence, queues, queue_membership,
// queue_wrapup_code, management_unit, activity_code, management_unit_users.
//
// Daily windows from the start date: user_schedule (through the configured
// look-ahead), historical_adherence (from the day before the start date
// through yesterday), conversation and user_state (through today).
//
// A successful sync ends with a STATE message whose start_date is today (or
// the start date, when that lies in the future). The output is closed before
// the cursor is saved, and the next run resumes from there.
//
// # Key Packages
//
//	internal/pipeline                  - Paginated fetch-and-stream engine
//	pkg/connector/sources/purecloud    - Stream catalog and sync runner
//	pkg/connector/destinations/singer  - Singer message writer
//	pkg/genesys                        - API models, paths and notifications
//	pkg/clients                        - OAuth2 HTTP client with pacing
//	pkg/state                          - File and PostgreSQL state stores
//	pkg/config                         - Config loading and validation
//	pkg/errors                         - Structured error handling
//	pkg/logger                         - Structured logging
//	pkg/metrics                        - Prometheus metrics
//	pkg/observability                  - OpenTelemetry tracing
//
// # Reliability
//
// Only rate-limited responses (HTTP 429) are retried: five attempts thirty
// seconds apart with up to a second of jitter, per page. Any other failure
// ends the sync without writing state, so the next run repeats the same
// range.
package tappurecloud
