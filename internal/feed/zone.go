package feed

import (
	"encoding/json"
	"fmt"
)

func relayZone(client *Client, input *FeedInput) {
	if input.Zone == nil {
		ExitError(fmt.Errorf("zone payload required"))
		return
	}

	body, err := json.Marshal(input.Zone)
	if err != nil {
		ExitError(err)
		return
	}

	if _, err := client.Post("/api/zones", body); err != nil {
		ExitError(err)
		return
	}
}
