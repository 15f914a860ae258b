package feed

import (
	"encoding/json"
	"fmt"
)

func relayTransition(client *Client, input *FeedInput) {
	if input.Transition == nil {
		ExitError(fmt.Errorf("transition payload required"))
		return
	}

	body, err := json.Marshal(input.Transition)
	if err != nil {
		ExitError(err)
		return
	}

	if _, err := client.Post("/api/transitions", body); err != nil {
		ExitError(err)
		return
	}
}
