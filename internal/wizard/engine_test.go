package wizard

import "testing"

func TestGoBackOnEmptyHistoryIsNoOp(t *testing.T) {
	e := NewEngine(ScreenDisclaimer, nil)
	for i := 0; i < 5; i++ {
		e.GoBack()
	}
	if e.Current() != ScreenDisclaimer {
		t.Fatalf("current moved to %s on empty history", e.Current())
	}
	if e.CanGoBack() {
		t.Fatal("fresh engine must not report back availability")
	}
}

func TestHistoryNeverFabricatesScreens(t *testing.T) {
	e := NewEngine(ScreenDisclaimer, nil)
	visited := map[Screen]bool{ScreenDisclaimer: true}
	for _, s := range []Screen{ScreenUpload, ScreenIntakeJurisdiction, ScreenIntakeType, ScreenExplanation} {
		e.NavigateTo(s)
		visited[s] = true
	}
	// More pops than pushes: must settle on the start screen, never invent.
	for i := 0; i < 10; i++ {
		e.GoBack()
		if !visited[e.Current()] {
			t.Fatalf("landed on unvisited screen %s", e.Current())
		}
	}
	if e.Current() != ScreenDisclaimer {
		t.Fatalf("over-popping should end on the start screen, got %s", e.Current())
	}
}

func TestBackDiscardsPoppedEntry(t *testing.T) {
	e := NewEngine(ScreenDisclaimer, nil)
	e.NavigateTo(ScreenUpload)
	e.NavigateTo(ScreenIntakeJurisdiction)
	e.GoBack()
	if e.Current() != ScreenUpload {
		t.Fatalf("expected upload, got %s", e.Current())
	}
	// No redo stack: moving forward again builds fresh history.
	e.NavigateTo(ScreenIntakeType)
	e.GoBack()
	if e.Current() != ScreenUpload {
		t.Fatalf("expected upload after fresh forward+back, got %s", e.Current())
	}
}

func TestAsyncScreensStayOutOfHistory(t *testing.T) {
	e := NewEngine(ScreenDisclaimer, nil)
	e.NavigateTo(ScreenUpload)
	e.NavigateTo(ScreenAnalyzing)
	e.NavigateTo(ScreenIntakeJurisdiction)
	e.GoBack()
	if e.Current() == ScreenAnalyzing {
		t.Fatal("back must never land on an async screen")
	}
	if e.Current() != ScreenUpload {
		t.Fatalf("expected upload, got %s", e.Current())
	}
}

func TestBackSuppressedOnTerminalAndAsync(t *testing.T) {
	for _, s := range []Screen{ScreenAnalyzing, ScreenDrafting, ScreenResult,
		ScreenRedFlagPause, ScreenDataIncomplete, ScreenCannotHelp, ScreenConfigError} {
		if s.BackAllowed() {
			t.Errorf("back must be suppressed on %s", s)
		}
	}
}

func TestNavigationHookFires(t *testing.T) {
	var fired int
	e := NewEngine(ScreenDisclaimer, func(Screen) { fired++ })
	e.NavigateTo(ScreenUpload)
	e.GoBack()
	e.Reset()
	if fired != 3 {
		t.Fatalf("expected 3 hook firings, got %d", fired)
	}
}
