package episode

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// turnThresholdDeg is the heading change between consecutive steps that
// counts as a turn.
const turnThresholdDeg = 45.0

// Build condenses raw movement events into a single episode. Times come
// from the events themselves: the window spans the earliest to the latest
// timestamp across all streams. Returns the zero episode when there are
// no events to summarize.
func Build(events Events) MovementEpisode {
	events = sortEvents(events)
	if len(events.Steps) == 0 && len(events.Transitions) == 0 && len(events.Disruptions) == 0 {
		return MovementEpisode{}
	}

	start, end := timeSpan(events)

	var distance float64
	headings := make([]float64, 0, len(events.Steps))
	for _, s := range events.Steps {
		distance += s.DistanceM
		headings = append(headings, s.Heading)
	}

	turns := 0
	for i := 1; i < len(headings); i++ {
		if angularDiff(headings[i-1], headings[i]) > turnThresholdDeg {
			turns++
		}
	}

	ep := MovementEpisode{
		ID:             uuid.NewString(),
		StartTime:      start,
		EndTime:        end,
		DurationMs:     end - start,
		StepCount:      len(events.Steps),
		Turns:          turns,
		TotalDistanceM: distance,
		AverageHeading: circularMean(headings),
		Confidence:     samplingConfidence(events.Steps),
		Events:         events,
	}
	return Normalize(ep)
}

// timeSpan returns the earliest and latest timestamp across all streams.
// Assumes the streams are already sorted.
func timeSpan(events Events) (int64, int64) {
	var start, end int64
	first := true

	consider := func(ts int64) {
		if first {
			start, end = ts, ts
			first = false
			return
		}
		if ts < start {
			start = ts
		}
		if ts > end {
			end = ts
		}
	}

	if n := len(events.Steps); n > 0 {
		consider(events.Steps[0].Timestamp)
		consider(events.Steps[n-1].Timestamp)
	}
	if n := len(events.Transitions); n > 0 {
		consider(events.Transitions[0].Timestamp)
		consider(events.Transitions[n-1].Timestamp)
	}
	if n := len(events.Disruptions); n > 0 {
		consider(events.Disruptions[0].Timestamp)
		consider(events.Disruptions[n-1].Timestamp)
	}
	return start, end
}

// samplingConfidence scores how evenly the step stream was sampled.
// A steady cadence means the sensor kept up and the aggregates can be
// trusted; a jittery one means dropped samples. Uses the coefficient of
// variation of inter-step gaps. Fewer than three steps can't establish a
// cadence and score a neutral 0.5.
func samplingConfidence(steps []StepEvent) float64 {
	if len(steps) < 3 {
		return 0.5
	}

	gaps := make([]float64, 0, len(steps)-1)
	for i := 1; i < len(steps); i++ {
		gaps = append(gaps, float64(steps[i].Timestamp-steps[i-1].Timestamp))
	}

	meanGap := stat.Mean(gaps, nil)
	if meanGap <= 0 {
		return 0.5
	}
	cv := stat.StdDev(gaps, nil) / meanGap
	return clamp01(1 - cv/2)
}

// circularMean averages headings on the circle so that 350° and 10°
// average to 0°, not 180°. Result is normalized to [0, 360).
func circularMean(headings []float64) float64 {
	if len(headings) == 0 {
		return 0
	}
	var sinSum, cosSum float64
	for _, h := range headings {
		rad := h * math.Pi / 180
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	deg := math.Atan2(sinSum, cosSum) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// angularDiff returns the smaller angle between two headings, in [0, 180].
func angularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
