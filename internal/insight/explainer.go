package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/trace-spatial/trace-app/internal/behavior"
)

// Explainer turns a ranked query result into a short recap a person can
// act on. Implementations must not block on anything slower than the
// caller's context allows.
type Explainer interface {
	Explain(ctx context.Context, q behavior.LossQuery, s behavior.Scores) (*Recap, error)
}

// Recap is the result of an explanation.
type Recap struct {
	Summary  string
	Provider string
}

// NewExplainer selects an explainer by provider name. "template" (the
// default) renders deterministic local text; "off" disables recaps and
// returns a nil Explainer.
func NewExplainer(provider string) (Explainer, error) {
	switch provider {
	case "", "template":
		return &TemplateExplainer{}, nil
	case "off":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown insight provider: %q", provider)
	}
}

// TemplateExplainer renders recaps from fixed templates, entirely in
// process. Same inputs, same text.
type TemplateExplainer struct{}

// Explain renders a recap of the ranked candidates plus the behavioral
// summary.
func (t *TemplateExplainer) Explain(_ context.Context, q behavior.LossQuery, s behavior.Scores) (*Recap, error) {
	var b strings.Builder

	object := q.ObjectType
	if object == "" {
		object = "item"
	}

	if len(q.Candidates) == 0 {
		fmt.Fprintf(&b, "No likely spots for your %s inside the queried window. Try widening the time window.", object)
		return &Recap{Summary: b.String(), Provider: "template"}, nil
	}

	top := q.Candidates[0]
	fmt.Fprintf(&b, "Most likely spot for your %s: %s (%.0f%% likely, %s search).",
		object, candidateName(top), top.Probability*100, top.SearchRadius)

	if d := top.Reasoning.Disruption; d != nil {
		fmt.Fprintf(&b, " A %s pulled your attention away there.", d.Type)
	}
	if top.Reasoning.TimeOfDay != "" {
		fmt.Fprintf(&b, " Last activity: %s.", top.Reasoning.TimeOfDay)
	}

	if len(q.Candidates) > 1 {
		names := make([]string, 0, 2)
		for _, c := range q.Candidates[1:] {
			names = append(names, candidateName(c))
			if len(names) == 2 {
				break
			}
		}
		fmt.Fprintf(&b, " Also worth checking: %s.", strings.Join(names, ", "))
	}

	if s.CSI < 0.5 {
		b.WriteString(" You were noticeably disrupted during this window, which makes an absent-minded drop more likely.")
	}

	return &Recap{Summary: b.String(), Provider: "template"}, nil
}

func candidateName(c behavior.Candidate) string {
	if c.ZoneName != "" {
		return c.ZoneName
	}
	return c.ZoneID
}
