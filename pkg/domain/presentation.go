package domain

// SlideKind tags a Slide with its variant. The kind of the active slide is
// also the phase the participant's view is in.
type SlideKind string

const (
	// KindWelcome is the implicit initial/fallback variant. It is never persisted.
	KindWelcome        SlideKind = "Welcome"
	KindQuestion       SlideKind = "Question"
	KindIdentify       SlideKind = "Identify"
	KindDemoCta        SlideKind = "DemoCta"
	KindEnded          SlideKind = "Ended"
	KindWatchPresenter SlideKind = "WatchPresenter"
	KindWebRtc         SlideKind = "WebRtc"
	KindSubmitted      SlideKind = "Submitted"
)

// PersistedKinds lists the kinds that may appear in a presentation document.
var PersistedKinds = []SlideKind{
	KindQuestion,
	KindIdentify,
	KindDemoCta,
	KindEnded,
	KindWatchPresenter,
	KindWebRtc,
	KindSubmitted,
}

// IsPersisted reports whether k may be stored as a graph node.
func (k SlideKind) IsPersisted() bool {
	for _, p := range PersistedKinds {
		if k == p {
			return true
		}
	}
	return false
}

// HasOptions reports whether slides of this kind render answerable options
// or call-to-action buttons.
func (k SlideKind) HasOptions() bool {
	return k == KindQuestion || k == KindDemoCta || k == KindEnded
}

// MaxRenderedOptions is the soft UX limit on options per slide.
// It is reported by the linter but never enforced at the data layer.
const MaxRenderedOptions = 4

// Presentation is the declarative document describing a deck.
type Presentation struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`

	// AnalyticsKey selects the analytics destination for this deck.
	AnalyticsKey string `json:"analyticsKey,omitempty"`
	// SegmentWriteKey is the legacy name of AnalyticsKey.
	SegmentWriteKey string `json:"segmentWriteKey,omitempty"`
}

// WriteKey returns the analytics key, honouring the legacy field.
func (p *Presentation) WriteKey() string {
	if p.AnalyticsKey != "" {
		return p.AnalyticsKey
	}
	return p.SegmentWriteKey
}

// Slide returns the slide with the given id.
func (p *Presentation) Slide(id string) (Slide, bool) {
	if p == nil {
		return Slide{}, false
	}
	for _, s := range p.Slides {
		if s.ID == id {
			return s, true
		}
	}
	return Slide{}, false
}

// SlideIDs returns the slide identifiers in document order.
func (p *Presentation) SlideIDs() []string {
	ids := make([]string, 0, len(p.Slides))
	for _, s := range p.Slides {
		ids = append(ids, s.ID)
	}
	return ids
}

// Slide is one node in the presentation's navigation graph.
// Kind-specific fields are left empty for kinds that do not use them.
type Slide struct {
	ID          string    `json:"id"`
	Kind        SlideKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`

	// Options is used by Question, DemoCta and Ended slides.
	Options []Option `json:"options,omitempty"`

	// AfterSubmitActions is used by Identify slides.
	AfterSubmitActions Actions `json:"afterSubmitActions,omitempty"`
}

// Option returns the option at index i.
func (s Slide) Option(i int) (Option, bool) {
	if i < 0 || i >= len(s.Options) {
		return Option{}, false
	}
	return s.Options[i], true
}

// OptionByValue finds an option by its value, falling back to its label.
func (s Slide) OptionByValue(v string) (Option, bool) {
	for _, o := range s.Options {
		if o.OptionValue == v {
			return o, true
		}
	}
	for _, o := range s.Options {
		if o.OptionLabel == v {
			return o, true
		}
	}
	return Option{}, false
}

// Actions returns every action list attached to the slide, in render order.
func (s Slide) Actions() []Actions {
	lists := make([]Actions, 0, len(s.Options)+1)
	for _, o := range s.Options {
		lists = append(lists, o.AfterSubmitActions)
	}
	if len(s.AfterSubmitActions) > 0 {
		lists = append(lists, s.AfterSubmitActions)
	}
	return lists
}

// Option is an answerable choice or call-to-action button.
type Option struct {
	OptionLabel        string  `json:"optionLabel"`
	OptionValue        string  `json:"optionValue,omitempty"`
	Primary            bool    `json:"primary,omitempty"`
	AfterSubmitActions Actions `json:"afterSubmitActions,omitempty"`
}
