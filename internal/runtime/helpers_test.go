package runtime

import (
	"context"
	"sync"

	"github.com/aretw0/liveslides/pkg/domain"
)

// scenarioDeck is the two-slide deck used across runtime tests.
func scenarioDeck() *domain.Presentation {
	return &domain.Presentation{
		Title: "Scenario",
		Slides: []domain.Slide{
			{ID: "Q1", Kind: domain.KindQuestion, Title: "Ready?", Options: []domain.Option{{
				OptionLabel: "Yes",
				OptionValue: "yes",
				AfterSubmitActions: domain.Actions{
					domain.TallyAction{Answer: "Yes"},
					domain.SlideAction{SlideID: "END"},
				},
			}}},
			{ID: "END", Kind: domain.KindEnded, Title: "Thanks"},
		},
	}
}

// richDeck covers every persisted kind.
func richDeck() *domain.Presentation {
	return &domain.Presentation{
		Title: "Rich",
		Slides: []domain.Slide{
			{ID: "WAIT", Kind: domain.KindWatchPresenter, Title: "Watch"},
			{ID: "Q1", Kind: domain.KindQuestion, Title: "Q", Options: []domain.Option{{OptionLabel: "A"}}},
			{ID: "GATE", Kind: domain.KindIdentify, Title: "Who are you?"},
			{ID: "CTA", Kind: domain.KindDemoCta, Title: "Try it", Options: []domain.Option{{OptionLabel: "Go"}}},
			{ID: "RTC", Kind: domain.KindWebRtc, Title: "Call"},
			{ID: "DONE", Kind: domain.KindSubmitted, Title: "Sent"},
			{ID: "END", Kind: domain.KindEnded, Title: "Bye"},
		},
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ResponseEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, evt domain.ResponseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []domain.ResponseEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ResponseEvent(nil), p.events...)
}

// panickingAnalytics panics on Track to simulate a throwing handler.
type panickingAnalytics struct {
	identifies int
}

func (a *panickingAnalytics) Track(ctx context.Context, event string, properties map[string]any) error {
	panic("analytics exploded")
}

func (a *panickingAnalytics) Identify(ctx context.Context, userID string, properties map[string]any) error {
	a.identifies++
	return nil
}
