package shared

import (
	"fmt"
	"sync"
	"testing"
)

func TestWarningCollectorDisabled(t *testing.T) {
	wc := NewWarningCollector(false)
	wc.AddTagWriteWarning("track.mp3", "permission denied")

	if wc.HasWarnings() {
		t.Error("disabled collector should not record warnings")
	}
	if got := wc.GetWarningCount(); got != 0 {
		t.Errorf("expected 0 warnings, got %d", got)
	}
}

func TestWarningCollectorGroupsByType(t *testing.T) {
	wc := NewWarningCollector(true)
	wc.AddMusicBrainzLookupWarning("The Wire", "Neon Nights", "no match")
	wc.AddTagWriteWarning("a.mp3", "read-only file")
	wc.AddTagWriteWarning("b.mp3", "read-only file")

	if got := wc.GetWarningCount(); got != 3 {
		t.Fatalf("expected 3 warnings, got %d", got)
	}

	grouped := wc.GetWarningsByType()
	if got := len(grouped[TagWriteWarning]); got != 2 {
		t.Errorf("expected 2 tag write warnings, got %d", got)
	}
	if got := len(grouped[MusicBrainzLookupWarning]); got != 1 {
		t.Errorf("expected 1 lookup warning, got %d", got)
	}
	if ctx := grouped[MusicBrainzLookupWarning][0].Context; ctx != "The Wire - Neon Nights" {
		t.Errorf("unexpected lookup context %q", ctx)
	}
}

func TestWarningCollectorConcurrentAdds(t *testing.T) {
	wc := NewWarningCollector(true)

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				wc.AddFileSkippedWarning(fmt.Sprintf("track-%d-%d.mp3", worker, j), "untitled")
			}
		}(i)
	}
	wg.Wait()

	if got := wc.GetWarningCount(); got != workers*perWorker {
		t.Errorf("expected %d warnings, got %d", workers*perWorker, got)
	}
}
