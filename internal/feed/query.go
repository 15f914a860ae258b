package feed

import (
	"encoding/json"
	"fmt"

	"github.com/trace-spatial/trace-app/internal/behavior"
)

func relayQuery(client *Client, input *FeedInput) {
	if input.Query == nil || input.Query.ObjectType == "" {
		ExitError(fmt.Errorf("query payload with objectType required"))
		return
	}

	body, err := json.Marshal(map[string]any{
		"object_type":    input.Query.ObjectType,
		"last_seen":      input.Query.LastSeen,
		"time_window_ms": input.Query.TimeWindowMs,
	})
	if err != nil {
		ExitError(err)
		return
	}

	data, err := client.Post("/api/queries", body)
	if err != nil {
		ExitError(err)
		return
	}

	var resp struct {
		Query behavior.LossQuery `json:"query"`
		Recap string             `json:"recap"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		ExitError(fmt.Errorf("decode response: %w", err))
		return
	}

	WriteQueryResult(resp.Query, resp.Recap)
}
