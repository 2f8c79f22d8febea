package genesys

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/core"
	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// AdherenceQuery selects one management unit's historical adherence.
type AdherenceQuery struct {
	ClientID         string
	ManagementUnitID string
	Start            time.Time
	End              time.Time
	UserIDs          []string
}

type adherenceRequest struct {
	StartDate         string   `json:"startDate"`
	EndDate           string   `json:"endDate"`
	TimeZone          string   `json:"timeZone"`
	UserIDs           []string `json:"userIds,omitempty"`
	IncludeExceptions bool     `json:"includeExceptions"`
}

type adherenceResult struct {
	Data []AdherenceRecord `json:"data"`
}

// HistoricalAdherence starts an adherence query, waits for the notification
// announcing its result and downloads the result rows.
func (n *Notifier) HistoricalAdherence(ctx context.Context, q AdherenceQuery) ([]AdherenceRecord, error) {
	body, err := json.Marshal(adherenceRequest{
		StartDate:         core.FormatTime(q.Start),
		EndDate:           core.FormatTime(q.End),
		TimeZone:          "UTC",
		UserIDs:           q.UserIDs,
		IncludeExceptions: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode adherence query")
	}

	var queryID string
	trigger := func(ctx context.Context) error {
		var raw []byte
		err := n.cfg.Retry.Execute(ctx, func() error {
			var callErr error
			raw, callErr = n.api.Do(ctx, http.MethodPost, HistoricalAdherencePath(q.ManagementUnitID), nil, body)
			return callErr
		})
		if err != nil {
			return err
		}
		var started struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &started); err == nil {
			queryID = started.ID
		}
		return nil
	}

	note, err := n.Await(ctx, AdherenceTopic(q.ClientID), trigger)
	if err != nil {
		return nil, err
	}
	if queryID != "" && note.ID != queryID {
		n.logger.Warn("notification id differs from query id",
			zap.String("query_id", queryID),
			zap.String("notification_id", note.ID))
	}
	if strings.EqualFold(note.QueryState, "error") {
		return nil, errors.New(errors.ErrorTypeAPI, "historical adherence query failed").
			WithDetail("management_unit_id", q.ManagementUnitID).
			WithDetail("query_id", note.ID)
	}

	urls := note.URLs()
	if len(urls) == 0 {
		return nil, errors.New(errors.ErrorTypeAPI, "adherence notification carries no download url").
			WithDetail("query_id", note.ID)
	}

	var rows []AdherenceRecord
	for _, u := range urls {
		var raw []byte
		err := n.cfg.Retry.Execute(ctx, func() error {
			var callErr error
			raw, callErr = n.api.Download(ctx, u)
			return callErr
		})
		if err != nil {
			return nil, err
		}

		var result adherenceResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeAPI, "failed to decode adherence result")
		}
		rows = append(rows, result.Data...)
	}
	return rows, nil
}
