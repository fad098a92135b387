package model

// SentimentType is the coarse emotional label produced by the classifier.
type SentimentType string

const (
	SentimentNeutral    SentimentType = "neutral"
	SentimentPositive   SentimentType = "positive"
	SentimentCurious    SentimentType = "curious"
	SentimentFrustrated SentimentType = "frustrated"
	SentimentEngaged    SentimentType = "engaged"
	SentimentMotivated  SentimentType = "motivated"
	SentimentConfused   SentimentType = "confused"
	SentimentAnxious    SentimentType = "anxious"
)

// ParseSentimentType maps a free-form label to a known sentiment, defaulting to neutral.
func ParseSentimentType(v string) SentimentType {
	switch s := SentimentType(v); s {
	case SentimentPositive, SentimentCurious, SentimentFrustrated, SentimentEngaged,
		SentimentMotivated, SentimentConfused, SentimentAnxious:
		return s
	case "negative":
		return SentimentFrustrated
	default:
		return SentimentNeutral
	}
}

// IntentType is what the learner is trying to do this turn.
type IntentType string

const (
	IntentUnderstand IntentType = "understand"
	IntentCreate     IntentType = "create"
	IntentSolve      IntentType = "solve"
	IntentEvaluate   IntentType = "evaluate"
	IntentOrganize   IntentType = "organize"
	IntentRegulate   IntentType = "regulate"
	IntentExplore    IntentType = "explore"
	IntentInteract   IntentType = "interact"
)

// Intents lists every known intent in a stable order.
var Intents = []IntentType{
	IntentUnderstand, IntentCreate, IntentSolve, IntentEvaluate,
	IntentOrganize, IntentRegulate, IntentExplore, IntentInteract,
}

var intentGerunds = map[IntentType]string{
	IntentUnderstand: "understanding",
	IntentCreate:     "creating",
	IntentSolve:      "solving",
	IntentEvaluate:   "evaluating",
	IntentOrganize:   "organizing",
	IntentRegulate:   "regulating",
	IntentExplore:    "exploring",
	IntentInteract:   "interacting",
}

// IsValid reports whether the intent is one of the known intents.
func (i IntentType) IsValid() bool {
	_, ok := intentGerunds[i]
	return ok
}

// Gerund returns the -ing form used in change reasons ("understanding").
func (i IntentType) Gerund() string {
	if g, ok := intentGerunds[i]; ok {
		return g
	}
	return string(i)
}

// Depth is the ordered engagement stage: surface < guided < deep.
type Depth string

const (
	DepthSurface Depth = "surface"
	DepthGuided  Depth = "guided"
	DepthDeep    Depth = "deep"
)

// Depths lists the stages in progression order.
var Depths = []Depth{DepthSurface, DepthGuided, DepthDeep}

// Index returns the position of d in the progression, or -1 when unknown.
func (d Depth) Index() int {
	for i, s := range Depths {
		if s == d {
			return i
		}
	}
	return -1
}

// IsValid reports whether d is one of the three stages.
func (d Depth) IsValid() bool {
	return d.Index() >= 0
}

// Next returns the following stage; deep stays deep.
func (d Depth) Next() Depth {
	i := d.Index()
	if i < 0 {
		return DepthSurface
	}
	if i+1 >= len(Depths) {
		return DepthDeep
	}
	return Depths[i+1]
}

// StagesBetween returns the stages from..to inclusive when to is ahead of from.
// It returns nil when the progression is not forward.
func StagesBetween(from, to Depth) []Depth {
	fi, ti := from.Index(), to.Index()
	if fi < 0 || ti < 0 || ti <= fi {
		return nil
	}
	out := make([]Depth, 0, ti-fi+1)
	out = append(out, Depths[fi:ti+1]...)
	return out
}

// ProgressionPattern summarises how depth evolved over recent turns.
type ProgressionPattern string

const (
	ProgressionStable    ProgressionPattern = "stable"
	ProgressionDeepening ProgressionPattern = "deepening"
	ProgressionStuck     ProgressionPattern = "stuck"
)

type Sentiment struct {
	Type             SentimentType `json:"type"`
	FrustrationLevel float64       `json:"frustrationLevel"`
	Confidence       float64       `json:"confidence"`
}

type Intent struct {
	Current      IntentType `json:"current"`
	Changed      bool       `json:"changed"`
	ChangeReason string     `json:"changeReason,omitempty"`
}

type DepthState struct {
	Current         Depth `json:"current"`
	Requested       Depth `json:"requested"`
	ChangeIndicator bool  `json:"changeIndicator"`
}

type Tooling struct {
	CurrentToolAppropriate string `json:"currentToolAppropriate"`
	SuggestedTool          string `json:"suggestedTool"`
}

type Dynamics struct {
	TurnsAtCurrentDepth int                `json:"turnsAtCurrentDepth"`
	ProgressionPattern  ProgressionPattern `json:"progressionPattern"`
}

// UserState is the per-turn snapshot of the learner. It is a value type: the
// caller owns it and passes copies into the orchestrator.
type UserState struct {
	Sentiment Sentiment  `json:"sentiment"`
	Intent    Intent     `json:"intent"`
	Depth     DepthState `json:"depth"`
	Tooling   Tooling    `json:"tooling"`
	Dynamics  Dynamics   `json:"dynamics"`
}

// Normalize clamps scores into [0,1] and fills unknown enums with defaults.
func (s UserState) Normalize() UserState {
	s.Sentiment.FrustrationLevel = Clamp01(s.Sentiment.FrustrationLevel)
	s.Sentiment.Confidence = Clamp01(s.Sentiment.Confidence)
	if s.Sentiment.Type == "" {
		s.Sentiment.Type = SentimentNeutral
	}
	if !s.Intent.Current.IsValid() {
		s.Intent.Current = IntentUnderstand
	}
	if !s.Depth.Current.IsValid() {
		s.Depth.Current = DepthSurface
	}
	if !s.Depth.Requested.IsValid() {
		s.Depth.Requested = s.Depth.Current
	}
	if s.Dynamics.TurnsAtCurrentDepth < 0 {
		s.Dynamics.TurnsAtCurrentDepth = 0
	}
	if s.Dynamics.ProgressionPattern == "" {
		s.Dynamics.ProgressionPattern = ProgressionStable
	}
	return s
}

// Clamp01 limits v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
