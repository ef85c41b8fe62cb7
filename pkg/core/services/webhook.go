package services

import (
	"context"
	"strings"
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// WebhookRosterData is the roster snapshot sent with a webhook-update request.
// Timestamps arrive as strings from editing clients and are parsed leniently.
type WebhookRosterData struct {
	Status         string `json:"status"`
	StartDischarge string `json:"startDischarge"`
	EtcTime        string `json:"etcTime"`
}

var webhookTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseLenientTime returns nil for empty or unparsable values, which resolve to draft
func parseLenientTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range webhookTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// ToRoster builds the in-memory roster the gateway resolves against
func (d WebhookRosterData) ToRoster(rosterID string) *model.SamplingRoster {
	return &model.SamplingRoster{
		ID:             rosterID,
		Status:         model.Status(d.Status),
		StartDischarge: parseLenientTime(d.StartDischarge),
		EtcTime:        parseLenientTime(d.EtcTime),
	}
}

// WebhookUpdate runs the gateway for a roster snapshot received over HTTP
func (g *StatusUpdateGateway) WebhookUpdate(ctx context.Context, rosterID string, data WebhookRosterData) GatewayResult {
	return g.Sync(ctx, data.ToRoster(rosterID))
}
