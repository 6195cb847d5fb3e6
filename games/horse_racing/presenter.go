package horse_racing

// Presenter is the display sink a race reports to. Implementations must not call
// back into the race from these methods.
type Presenter interface {
	ShowRoster(horses []HorseView)
	ShowPhase(phase Phase)
	ShowSettlement(s Settlement)
}

// NopPresenter discards everything.
type NopPresenter struct{}

func (NopPresenter) ShowRoster([]HorseView) {}
func (NopPresenter) ShowPhase(Phase) {}
func (NopPresenter) ShowSettlement(Settlement) {}

// Presenters fans every call out to each presenter in order.
type Presenters []Presenter

func (ps Presenters) ShowRoster(horses []HorseView) {
	for _, p := range ps {
		p.ShowRoster(horses)
	}
}

func (ps Presenters) ShowPhase(phase Phase) {
	for _, p := range ps {
		p.ShowPhase(phase)
	}
}

func (ps Presenters) ShowSettlement(s Settlement) {
	for _, p := range ps {
		p.ShowSettlement(s)
	}
}
