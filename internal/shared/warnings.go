package shared

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WarningType represents different types of warnings
type WarningType int

const (
	MusicBrainzLookupWarning WarningType = iota
	CoverArtDownloadWarning
	CoverArtEmbedWarning
	TagWriteWarning
	SidecarWarning
	FileSkippedWarning
)

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // File/Track context
	Details string // Additional details like error message
}

// WarningCollector collects warnings during batch tagging operations.
// Safe for use from concurrent workers.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]Warning, 0),
		enabled:  enabled,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if !wc.enabled {
		return
	}

	warning := Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	}
	wc.mu.Lock()
	wc.warnings = append(wc.warnings, warning)
	wc.mu.Unlock()
}

// AddMusicBrainzLookupWarning adds a MusicBrainz lookup warning
func (wc *WarningCollector) AddMusicBrainzLookupWarning(artist, title, details string) {
	context := fmt.Sprintf("%s - %s", artist, title)
	wc.AddWarning(MusicBrainzLookupWarning, context, "Failed to find MusicBrainz recording", details)
}

// AddCoverArtDownloadWarning adds a cover art download warning
func (wc *WarningCollector) AddCoverArtDownloadWarning(file, details string) {
	wc.AddWarning(CoverArtDownloadWarning, file, "Could not download cover art", details)
}

// AddCoverArtEmbedWarning adds a cover art embedding warning
func (wc *WarningCollector) AddCoverArtEmbedWarning(file, details string) {
	wc.AddWarning(CoverArtEmbedWarning, file, "Failed to embed cover art", details)
}

// AddTagWriteWarning adds a tag write warning
func (wc *WarningCollector) AddTagWriteWarning(file, details string) {
	wc.AddWarning(TagWriteWarning, file, "Failed to write tags", details)
}

// AddSidecarWarning adds an analysis sidecar warning
func (wc *WarningCollector) AddSidecarWarning(file, details string) {
	wc.AddWarning(SidecarWarning, file, "Failed to write analysis sidecar", details)
}

// AddFileSkippedWarning adds a file skipped warning
func (wc *WarningCollector) AddFileSkippedWarning(file, reason string) {
	wc.AddWarning(FileSkippedWarning, file, "File skipped", reason)
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings) > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	grouped := make(map[WarningType][]Warning)
	for _, warning := range wc.warnings {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	count := wc.GetWarningCount()
	if count == 0 {
		return
	}

	ColorWarning.Printf("\n⚠️  Warning Summary (%d warnings):\n", count)
	ColorWarning.Println(strings.Repeat("─", 50))

	grouped := wc.GetWarningsByType()

	// Sort warning types for consistent output
	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		warnings := grouped[warningType]
		wc.printWarningTypeSection(warningType, warnings)
	}
}

// printWarningTypeSection prints warnings for a specific type
func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	sectionTitle := wc.getWarningTypeTitle(warningType)
	ColorWarning.Printf("\n%s (%d):\n", sectionTitle, len(warnings))

	// Group similar warnings to avoid repetition
	contextCounts := make(map[string]int)
	for _, warning := range warnings {
		contextCounts[warning.Context]++
	}

	// Sort contexts for consistent output
	var contexts []string
	for context := range contextCounts {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)

	for _, context := range contexts {
		count := contextCounts[context]
		if count > 1 {
			ColorWarning.Printf("  • %s (%d occurrences)\n", context, count)
		} else {
			ColorWarning.Printf("  • %s\n", context)
		}
	}
}

// getWarningTypeTitle returns a human-readable title for a warning type
func (wc *WarningCollector) getWarningTypeTitle(warningType WarningType) string {
	switch warningType {
	case MusicBrainzLookupWarning:
		return "MusicBrainz Lookup Failures"
	case CoverArtDownloadWarning:
		return "Cover Art Download Failures"
	case CoverArtEmbedWarning:
		return "Cover Art Embed Failures"
	case TagWriteWarning:
		return "Tag Write Failures"
	case SidecarWarning:
		return "Analysis Sidecar Failures"
	case FileSkippedWarning:
		return "Files Skipped"
	default:
		return "Other Warnings"
	}
}
