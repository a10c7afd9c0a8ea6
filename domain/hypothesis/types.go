package hypothesis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"ranksum/domain/core"
)

// AltHyp is the alternative to the null hypothesis of equality
type AltHyp int

const (
	Lt AltHyp = iota // less than
	Gt               // greater than
	Ne               // not equal
)

// String returns the short lowercase tag ("lt", "gt", "ne")
func (a AltHyp) String() string {
	switch a {
	case Lt:
		return "lt"
	case Gt:
		return "gt"
	case Ne:
		return "ne"
	}
	return fmt.Sprintf("AltHyp(%d)", int(a))
}

// ParseAltHyp accepts the short tags plus the R spellings ("less", "greater", "two.sided")
func ParseAltHyp(s string) (AltHyp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lt", "less":
		return Lt, nil
	case "gt", "greater":
		return Gt, nil
	case "ne", "two.sided", "two-sided", "two_sided":
		return Ne, nil
	}
	return Ne, fmt.Errorf("%w: %q", core.ErrUnknownAltHyp, s)
}

func (a AltHyp) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AltHyp) UnmarshalText(b []byte) error {
	parsed, err := ParseAltHyp(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Hyp is the hypothesis accepted by a test: the null or one alternative.
// The zero value is the null hypothesis.
type Hyp struct {
	alt   AltHyp
	isAlt bool
}

// Null returns the null hypothesis of equality
func Null() Hyp {
	return Hyp{}
}

// Alt returns the alternative hypothesis a
func Alt(a AltHyp) Hyp {
	return Hyp{alt: a, isAlt: true}
}

func (h Hyp) IsNull() bool {
	return !h.isAlt
}

// AltHyp returns the alternative carried by h, or Ne for the null hypothesis
func (h Hyp) AltHyp() AltHyp {
	if !h.isAlt {
		return Ne
	}
	return h.alt
}

func (h Hyp) String() string {
	if !h.isAlt {
		return "null"
	}
	return "alt(" + h.alt.String() + ")"
}

func (h Hyp) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText reads the form written by MarshalText
func (h *Hyp) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "null" {
		*h = Null()
		return nil
	}
	inner, ok := strings.CutPrefix(s, "alt(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownAltHyp, s)
	}
	a, err := ParseAltHyp(inner)
	if err != nil {
		return err
	}
	*h = Alt(a)
	return nil
}

// HypTestResult is the immutable outcome of a hypothesis test with a null
// hypothesis of equality. Accepted is Alt(altHyp) iff p < alpha.
type HypTestResult struct {
	p        float64
	alpha    float64
	altHyp   AltHyp
	accepted Hyp
}

// NewHypTestResult builds the result and applies the acceptance rule
func NewHypTestResult(p, alpha float64, altHyp AltHyp) HypTestResult {
	accepted := Null()
	if p < alpha {
		accepted = Alt(altHyp)
	}
	return HypTestResult{
		p:        p,
		alpha:    alpha,
		altHyp:   altHyp,
		accepted: accepted,
	}
}

// P returns the p-value of the test
func (r HypTestResult) P() float64 { return r.p }

// Alpha returns the significance level; the confidence level is 1-alpha
func (r HypTestResult) Alpha() float64 { return r.alpha }

// AltHyp returns the alternative hypothesis tested against
func (r HypTestResult) AltHyp() AltHyp { return r.altHyp }

// Accepted returns the hypothesis accepted by the test
func (r HypTestResult) Accepted() Hyp { return r.accepted }

func (r HypTestResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		P        *float64 `json:"p"`
		Alpha    *float64 `json:"alpha"`
		AltHyp   AltHyp   `json:"alt_hyp"`
		Accepted Hyp      `json:"accepted"`
	}{
		P:        finiteOrNil(r.p),
		Alpha:    finiteOrNil(r.alpha),
		AltHyp:   r.altHyp,
		Accepted: r.accepted,
	})
}

// PositionWrtCi is the position of a value relative to a confidence interval
type PositionWrtCi int

const (
	Below PositionWrtCi = iota
	In
	Above
)

func (p PositionWrtCi) String() string {
	switch p {
	case Below:
		return "below"
	case In:
		return "in"
	case Above:
		return "above"
	}
	return fmt.Sprintf("PositionWrtCi(%d)", int(p))
}

// Ci is a confidence interval (Lo, Hi)
type Ci struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// PositionOf reports where value falls. The bounds are exclusive: a value equal
// to Lo is Below and a value equal to Hi is Above.
func (c Ci) PositionOf(value float64) PositionWrtCi {
	switch {
	case value <= c.Lo:
		return Below
	case value < c.Hi:
		return In
	default:
		return Above
	}
}

// CheckAlpha validates a significance level
func CheckAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return core.NewAlphaError(alpha)
	}
	return nil
}

// JSON has no NaN; non-finite values encode as null
func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
