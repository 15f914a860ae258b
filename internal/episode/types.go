package episode

// DisruptionType classifies what pulled the user's attention away.
type DisruptionType string

const (
	DisruptionCall         DisruptionType = "call"
	DisruptionNotification DisruptionType = "notification"
	DisruptionAcceleration DisruptionType = "acceleration"
	DisruptionPause        DisruptionType = "pause"
	DisruptionManual       DisruptionType = "manual"
)

// ValidDisruptionTypes returns all recognized disruption types.
func ValidDisruptionTypes() []DisruptionType {
	return []DisruptionType{
		DisruptionCall,
		DisruptionNotification,
		DisruptionAcceleration,
		DisruptionPause,
		DisruptionManual,
	}
}

// IsValid checks if the disruption type is recognized.
func (t DisruptionType) IsValid() bool {
	switch t {
	case DisruptionCall, DisruptionNotification, DisruptionAcceleration,
		DisruptionPause, DisruptionManual:
		return true
	}
	return false
}

// StepEvent is a single detected step. Heading is in degrees clockwise
// from north; detection itself happens upstream.
type StepEvent struct {
	Timestamp int64   `json:"timestamp"`
	Heading   float64 `json:"heading"`
	DistanceM float64 `json:"distanceM"`
}

// ZoneTransition is a detected move between two zones, with the kinematics
// observed along the way. FromZoneID is empty for the first movement of a
// session.
type ZoneTransition struct {
	Timestamp  int64   `json:"timestamp"`
	FromZoneID string  `json:"fromZoneId,omitempty"`
	ToZoneID   string  `json:"toZoneId"`
	Steps      int     `json:"steps"`
	TurnAngle  float64 `json:"turnAngle"`
	DurationMs int64   `json:"durationMs"`
}

// DisruptionEvent is an inferred attention break with a severity in [0,1].
type DisruptionEvent struct {
	Timestamp   int64          `json:"timestamp"`
	Type        DisruptionType `json:"type"`
	Severity    float64        `json:"severity"`
	Description string         `json:"description,omitempty"`
}

// Events groups the raw event streams of one movement window.
type Events struct {
	Steps       []StepEvent       `json:"steps"`
	Transitions []ZoneTransition  `json:"transitions"`
	Disruptions []DisruptionEvent `json:"disruptions"`
}

// MovementEpisode is a compressed record of one continuous activity
// window: aggregate kinematics plus the raw events they summarize.
type MovementEpisode struct {
	ID             string  `json:"episodeId"`
	StartTime      int64   `json:"startTime"`
	EndTime        int64   `json:"endTime"`
	DurationMs     int64   `json:"durationMs"`
	StepCount      int     `json:"stepCount"`
	Turns          int     `json:"turns"`
	TotalDistanceM float64 `json:"totalDistanceM"`
	AverageHeading float64 `json:"averageHeading"`
	Confidence     float64 `json:"confidence"`
	Events         Events  `json:"events"`
}

// IsZero reports whether the episode carries no data at all.
func (e MovementEpisode) IsZero() bool {
	return e.ID == "" && e.StartTime == 0 && e.EndTime == 0 &&
		len(e.Events.Steps) == 0 && len(e.Events.Transitions) == 0 &&
		len(e.Events.Disruptions) == 0
}
