package domain

// Phase is what a participant's view currently shows.
// Slide phases share their names with SlideKind.
type Phase string

const (
	PhaseWelcome        Phase = "Welcome"
	PhaseQuestion       Phase = "Question"
	PhaseIdentify       Phase = "Identify"
	PhaseDemoCta        Phase = "DemoCta"
	PhaseEnded          Phase = "Ended"
	PhaseWatchPresenter Phase = "WatchPresenter"
	PhaseWebRtc         Phase = "WebRtc"
	PhaseSubmitted      Phase = "Submitted"

	// Error phases. They are absorbing until the participant is reset.
	PhaseErrorNoPid        Phase = "ErrorNoPid"
	PhaseErrorSync         Phase = "ErrorSync"
	PhaseErrorNoToken      Phase = "ErrorNoToken"
	PhaseErrorTokenExpired Phase = "ErrorTokenExpired"
)

// PhaseOf returns the phase shown for a slide kind.
func PhaseOf(kind SlideKind) Phase {
	return Phase(kind)
}

// IsError reports whether p is one of the error phases.
func (p Phase) IsError() bool {
	switch p {
	case PhaseErrorNoPid, PhaseErrorSync, PhaseErrorNoToken, PhaseErrorTokenExpired:
		return true
	}
	return false
}

// IsTerminal reports whether connectivity loss can no longer change the phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseEnded || p.IsError()
}

func (p Phase) String() string { return string(p) }
