package wizard

// Engine owns the current screen and the visited-screen history. It is a pure
// state holder: it knows nothing about gates, answers, or the analyzer. The
// navigation hook fires on every movement so the owner can re-issue the
// viewport reset the views rely on.
type Engine struct {
	current    Screen
	history    []Screen
	onNavigate func(Screen)
}

func NewEngine(start Screen, onNavigate func(Screen)) *Engine {
	if !validScreen(start) {
		start = ScreenDisclaimer
	}
	return &Engine{current: start, onNavigate: onNavigate}
}

func (e *Engine) Current() Screen { return e.current }

// History returns a copy of the visited stack, oldest first.
func (e *Engine) History() []Screen {
	out := make([]Screen, len(e.history))
	copy(out, e.history)
	return out
}

// NavigateTo moves forward to next. The screen being left is pushed onto
// history unless it is async or terminal; those are never rewound to, so
// recording them would only pollute the back path.
func (e *Engine) NavigateTo(next Screen) {
	if !validScreen(next) || next == e.current {
		return
	}
	if !e.current.IsAsync() && !e.current.IsTerminal() {
		e.history = append(e.history, e.current)
	}
	e.current = next
	if e.onNavigate != nil {
		e.onNavigate(next)
	}
}

// GoBack pops the most recent history entry and makes it current. The popped
// entry is discarded: there is no forward stack, going back then forward again
// builds fresh history. On empty history it is a no-op.
func (e *Engine) GoBack() {
	if len(e.history) == 0 {
		return
	}
	e.current = e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	if e.onNavigate != nil {
		e.onNavigate(e.current)
	}
}

// CanGoBack reports whether a user-initiated rewind is available here.
func (e *Engine) CanGoBack() bool {
	return e.current.BackAllowed() && len(e.history) > 0
}

// Reset returns to the disclaimer with empty history.
func (e *Engine) Reset() {
	e.history = nil
	e.current = ScreenDisclaimer
	if e.onNavigate != nil {
		e.onNavigate(e.current)
	}
}

// force sets current and wipes history without firing the hook's usual
// forward bookkeeping. Used by the payment-return restore, which lands the
// session on a specific screen with nothing to rewind to.
func (e *Engine) force(s Screen) {
	if !validScreen(s) {
		return
	}
	e.history = nil
	e.current = s
	if e.onNavigate != nil {
		e.onNavigate(s)
	}
}
