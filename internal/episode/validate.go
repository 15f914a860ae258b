package episode

import "sort"

// Normalize brings an episode into canonical shape: events sorted by
// timestamp, severities and confidence clamped to [0,1], disruptions of
// unknown type dropped, negative durations zeroed, and duration
// recomputed from the span when the caller left it unset. Returns a
// copy; the input is not modified.
func Normalize(e MovementEpisode) MovementEpisode {
	e.Events = sortEvents(e.Events)

	kept := make([]DisruptionEvent, 0, len(e.Events.Disruptions))
	for _, d := range e.Events.Disruptions {
		if !d.Type.IsValid() {
			continue
		}
		d.Severity = clamp01(d.Severity)
		kept = append(kept, d)
	}
	e.Events.Disruptions = kept

	e.Confidence = clamp01(e.Confidence)

	if e.DurationMs < 0 {
		e.DurationMs = 0
	}
	if e.DurationMs == 0 && e.EndTime > e.StartTime {
		e.DurationMs = e.EndTime - e.StartTime
	}

	return e
}

// sortEvents returns a copy of the event streams, each sorted by
// timestamp ascending. Sorting is stable so same-timestamp events keep
// their arrival order.
func sortEvents(ev Events) Events {
	steps := make([]StepEvent, len(ev.Steps))
	copy(steps, ev.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Timestamp < steps[j].Timestamp
	})

	transitions := make([]ZoneTransition, len(ev.Transitions))
	copy(transitions, ev.Transitions)
	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].Timestamp < transitions[j].Timestamp
	})

	disruptions := make([]DisruptionEvent, len(ev.Disruptions))
	copy(disruptions, ev.Disruptions)
	sort.SliceStable(disruptions, func(i, j int) bool {
		return disruptions[i].Timestamp < disruptions[j].Timestamp
	})

	return Events{Steps: steps, Transitions: transitions, Disruptions: disruptions}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
