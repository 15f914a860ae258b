package feed

import (
	"encoding/json"
	"fmt"
	"io"
)

// Handle reads FeedInput from the given reader and relays it to the
// daemon based on the kind argument. A daemon that is down degrades
// gracefully — the sensing pipeline must never crash because the brain
// is asleep.
func Handle(kind string, stdin io.Reader) {
	var input FeedInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		ExitError(fmt.Errorf("decode stdin: %w", err))
		return
	}

	client := NewClient()
	if !client.Healthy() {
		if kind == "query" {
			WriteQueryUnavailable()
		}
		return // silent exit for sensor events
	}

	switch kind {
	case "episode":
		relayEpisode(client, &input)
	case "transition":
		relayTransition(client, &input)
	case "zone":
		relayZone(client, &input)
	case "query":
		relayQuery(client, &input)
	default:
		ExitError(fmt.Errorf("unknown feed kind: %s", kind))
	}
}
