package feed

import (
	"encoding/json"
	"fmt"
)

func relayEpisode(client *Client, input *FeedInput) {
	if input.Episode == nil && input.Events == nil {
		ExitError(fmt.Errorf("episode or events payload required"))
		return
	}

	input.DropNoise()

	body, err := json.Marshal(map[string]any{
		"episode": input.Episode,
		"events":  input.Events,
	})
	if err != nil {
		ExitError(err)
		return
	}

	if _, err := client.Post("/api/episodes", body); err != nil {
		ExitError(err)
		return
	}
}
