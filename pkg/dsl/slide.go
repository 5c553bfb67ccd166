package dsl

import (
	"github.com/aretw0/liveslides/pkg/domain"
)

// SlideBuilder configures one slide.
type SlideBuilder struct {
	slide   domain.Slide
	options []*OptionBuilder
	submit  *Actions
}

// Description sets the slide body (markdown).
func (sb *SlideBuilder) Description(text string) *SlideBuilder {
	sb.slide.Description = text
	return sb
}

// Option appends an option labelled label and returns its builder.
func (sb *SlideBuilder) Option(label string) *OptionBuilder {
	ob := &OptionBuilder{option: domain.Option{OptionLabel: label}, slide: sb}
	sb.options = append(sb.options, ob)
	return ob
}

// OnSubmit returns the afterSubmitActions of the slide (Identify slides).
func (sb *SlideBuilder) OnSubmit() *Actions {
	if sb.submit == nil {
		sb.submit = &Actions{}
	}
	return sb.submit
}

func (sb *SlideBuilder) build() domain.Slide {
	s := sb.slide
	for _, ob := range sb.options {
		s.Options = append(s.Options, ob.build())
	}
	if sb.submit != nil {
		s.AfterSubmitActions = sb.submit.list
	}
	return s
}

// OptionBuilder configures one option. Its action methods come from Actions.
type OptionBuilder struct {
	Actions
	option domain.Option
	slide  *SlideBuilder
}

// Value sets the option value. Without one, the label is used.
func (ob *OptionBuilder) Value(v string) *OptionBuilder {
	ob.option.OptionValue = v
	return ob
}

// Primary marks the option as the highlighted one.
func (ob *OptionBuilder) Primary() *OptionBuilder {
	ob.option.Primary = true
	return ob
}

// Tally appends a Tally action. An empty answer counts as Other.
func (ob *OptionBuilder) Tally(answer string) *OptionBuilder {
	ob.Actions.Tally(answer)
	return ob
}

// GoTo appends a Slide action.
func (ob *OptionBuilder) GoTo(slideID string) *OptionBuilder {
	ob.Actions.GoTo(slideID)
	return ob
}

// Slide returns to the slide, so further options can be chained.
func (ob *OptionBuilder) Slide() *SlideBuilder {
	return ob.slide
}

func (ob *OptionBuilder) build() domain.Option {
	o := ob.option
	o.AfterSubmitActions = ob.list
	return o
}

// Actions accumulates an ordered action pipeline.
type Actions struct {
	list domain.Actions
}

func (a *Actions) add(action domain.Action) *Actions {
	a.list = append(a.list, action)
	return a
}

func (a *Actions) GoTo(slideID string) *Actions {
	return a.add(domain.SlideAction{SlideID: slideID})
}

func (a *Actions) Tally(answer string) *Actions {
	return a.add(domain.TallyAction{Answer: answer})
}

func (a *Actions) Track(event string, properties map[string]any) *Actions {
	return a.add(domain.TrackAction{Event: event, Properties: properties})
}

func (a *Actions) Identify(properties map[string]any) *Actions {
	return a.add(domain.IdentifyAction{Properties: properties})
}

// Stream appends a Stream action publishing the interpolated message.
func (a *Actions) Stream(message string) *Actions {
	return a.add(domain.StreamAction{Message: message})
}

func (a *Actions) URL(url string) *Actions {
	return a.add(domain.URLAction{URL: url})
}

// List returns the accumulated pipeline.
func (a *Actions) List() domain.Actions {
	return append(domain.Actions(nil), a.list...)
}
