package processor

import (
	"context"
	"fmt"

	"songshare-analyzer/internal/api/musicbrainz"
	"songshare-analyzer/internal/core/analyzer"
	"songshare-analyzer/internal/core/tagger"
	"songshare-analyzer/internal/rhythm"
	"songshare-analyzer/internal/shared"
)

// processFile runs the full per-file pipeline: read tags, analyze,
// enrich, apply, embed
func (p *Processor) processFile(ctx context.Context, path string, opts Options) ItemResult {
	res := ItemResult{Path: path}

	tags, err := tagger.ReadTags(path)
	if err != nil {
		p.warn(shared.FileSkippedWarning, path, err.Error())
		res.Kind = ErrorRead
		res.Err = fmt.Errorf("failed to read tags: %w", err)
		return res
	}

	if opts.Verbose {
		p.printBasicInfo(tags)
	}

	if opts.Analyze {
		p.analyzeFile(path, tags, opts, &res)
	}

	if !opts.FetchMetadata {
		return res
	}

	if opts.FetchMissing && musicbrainz.HasMusicBrainzIDs(tags.Tags) {
		shared.DebugPrint(p.Debug, "Skipping MusicBrainz lookup for %s (IDs present)", path)
		res.Skipped = true
		return res
	}

	title := tags.Get("TIT2")
	artist := tags.Get("TPE1")
	if title == "" {
		p.warn(shared.FileSkippedWarning, path, "no title tag to search with")
		res.Skipped = true
		return res
	}

	info, proposed, err := p.enrich(ctx, title, artist)
	if err != nil {
		p.warnLookup(artist, title, err.Error())
		res.Kind = ErrorLookup
		res.Err = err
		return res
	}
	if proposed == nil {
		p.warnLookup(artist, title, "no match found")
		return res
	}

	if !opts.ApplyMetadata {
		if opts.Verbose {
			p.printProposal(path, tagger.ComputeDelta(proposed, tags.Tags))
		}
		return res
	}

	changes := tagger.PlanChanges(proposed, tags.Tags)
	embedWanted := opts.EmbedCover && info != nil && info.CoverArtURL != ""
	if len(changes) == 0 && !embedWanted {
		shared.DebugPrint(p.Debug, "No proposed metadata to apply for %s", path)
		return res
	}

	if len(changes) > 0 {
		fmt.Printf("File: %s\n", path)
		for _, change := range changes {
			if change.Deferred {
				shared.ColorWarning.Printf("  %s: %s (kept %q)\n", change.Frame, change.New, change.Old)
			} else {
				shared.ColorInfo.Printf("  %s: %s\n", change.Frame, change.New)
			}
		}
	}

	if !opts.AssumeYes {
		if !shared.GetYesNoInput(shared.ColorPrompt.Sprint("Apply these changes?"), "y") {
			fmt.Println("Aborted; no changes made.")
			return res
		}
	}

	if len(changes) > 0 {
		delta, err := tagger.ApplyTags(path, proposed, opts.Backup)
		if err != nil {
			p.warn(shared.TagWriteWarning, path, err.Error())
			res.Kind = ErrorApply
			res.Err = fmt.Errorf("failed to apply tags: %w", err)
			return res
		}
		if err := tagger.Verify(path, delta); err != nil {
			p.warn(shared.TagWriteWarning, path, err.Error())
			res.Kind = ErrorVerify
			res.Err = fmt.Errorf("verification failed: %w", err)
			return res
		}
		res.Applied = !delta.IsEmpty()
	}

	if embedWanted {
		p.embedCover(ctx, path, info, &res)
	}

	return res
}

// enrich looks a track up on MusicBrainz, falling back to Spotify for
// tracks MusicBrainz does not know
func (p *Processor) enrich(ctx context.Context, title, artist string) (*musicbrainz.RecordingInfo, map[string]string, error) {
	info, err := p.MB.LookupRecording(ctx, title, artist)
	if err != nil {
		return nil, nil, fmt.Errorf("musicbrainz lookup failed: %w", err)
	}
	if info != nil {
		return info, info.ProposeTags(), nil
	}

	if !p.Spotify.IsConfigured() {
		return nil, nil, nil
	}
	shared.DebugPrint(p.Debug, "MusicBrainz found nothing for %q, trying Spotify", title)
	if err := p.Spotify.Authenticate(ctx); err != nil {
		return nil, nil, fmt.Errorf("spotify authentication failed: %w", err)
	}
	track, err := p.Spotify.SearchTrack(ctx, title, artist)
	if err != nil {
		return nil, nil, fmt.Errorf("spotify lookup failed: %w", err)
	}
	if track == nil {
		return nil, nil, nil
	}
	return nil, track.ProposeTags(), nil
}

// analyzeFile computes or loads the audio analysis for a file and
// optionally writes the sidecar and the analysis-derived tags
func (p *Processor) analyzeFile(path string, tags *shared.FileTags, opts Options, res *ItemResult) {
	var analysis *analyzer.Analysis
	var err error

	if tags.Info.Format == shared.FormatWAV {
		analysis, err = analyzer.AnalyzeFile(path, p.classifierOptions())
		if err != nil {
			p.warn(shared.SidecarWarning, path, fmt.Sprintf("analysis failed: %v", err))
			return
		}
		res.Analyzed = true
		if opts.WriteSidecars {
			if _, err := analyzer.WriteSidecar(path, analysis); err != nil {
				p.warn(shared.SidecarWarning, path, err.Error())
			} else {
				res.Sidecar = true
			}
		}
	} else {
		// Compressed formats reuse a previously written sidecar
		analysis, err = analyzer.ReadSidecar(path)
		if err != nil {
			p.warn(shared.SidecarWarning, path, err.Error())
			return
		}
		if analysis == nil {
			shared.DebugPrint(p.Debug, "No analysis sidecar for %s", path)
			return
		}
	}

	if !opts.ApplyAnalysis {
		return
	}
	if tags.Info.Format != shared.FormatMP3 && tags.Info.Format != shared.FormatFLAC {
		shared.DebugPrint(p.Debug, "Analysis tags not written for %s files", tags.Info.Format)
		return
	}

	proposed := analyzer.AnalysisToTags(analysis, analyzer.DefaultThresholds())
	if len(proposed) == 0 {
		return
	}
	delta, err := tagger.ApplyTags(path, proposed, opts.Backup)
	if err != nil {
		p.warn(shared.TagWriteWarning, path, fmt.Sprintf("analysis tags: %v", err))
		return
	}
	if !delta.IsEmpty() {
		res.Applied = true
	}
}

// embedCover downloads the front cover and embeds it unless art is
// already present
func (p *Processor) embedCover(ctx context.Context, path string, info *musicbrainz.RecordingInfo, res *ItemResult) {
	present, err := tagger.HasCover(path)
	if err != nil {
		p.warn(shared.CoverArtEmbedWarning, path, err.Error())
		return
	}
	if present {
		shared.DebugPrint(p.Debug, "Cover art already present in %s", path)
		res.CoverPresent = true
		return
	}

	data, err := p.CoverArt.Download(ctx, info.CoverArtURL)
	if err != nil {
		p.warn(shared.CoverArtDownloadWarning, path, err.Error())
		failed := false
		res.Embed = &failed
		return
	}

	if err := tagger.EmbedCover(path, data); err != nil {
		p.warn(shared.CoverArtEmbedWarning, path, err.Error())
		failed := false
		res.Embed = &failed
		return
	}
	ok := true
	res.Embed = &ok
}

func (p *Processor) classifierOptions() rhythm.Options {
	return rhythm.Options{
		Subdivisions:   p.Config.Classifier.Subdivisions,
		QuantTolerance: p.Config.Classifier.QuantTolerance,
		MinBeats:       p.Config.Classifier.MinBeats,
	}
}

// printBasicInfo mirrors a tag listing in stable order
func (p *Processor) printBasicInfo(tags *shared.FileTags) {
	shared.ColorInfo.Printf("🎵 %s [%s]\n", tags.Path, tags.Info.Format)
	for _, frame := range tags.SortedKeys() {
		fmt.Printf("  %s: %s\n", frame, shared.TruncateString(tags.Tags[frame], 80))
	}
}

func (p *Processor) printProposal(path string, delta map[string]string) {
	if len(delta) == 0 {
		return
	}
	shared.ColorInfo.Printf("Proposed metadata for %s:\n", path)
	for frame, value := range delta {
		fmt.Printf("  %s: %s\n", frame, value)
	}
}

// warn routes a warning per the configured behavior
func (p *Processor) warn(wt shared.WarningType, context, details string) {
	if p.Config.WarningBehavior == "immediate" {
		shared.ColorWarning.Printf("⚠️ %s: %s\n", context, details)
		return
	}
	switch wt {
	case shared.CoverArtDownloadWarning:
		p.Warnings.AddCoverArtDownloadWarning(context, details)
	case shared.CoverArtEmbedWarning:
		p.Warnings.AddCoverArtEmbedWarning(context, details)
	case shared.TagWriteWarning:
		p.Warnings.AddTagWriteWarning(context, details)
	case shared.SidecarWarning:
		p.Warnings.AddSidecarWarning(context, details)
	case shared.FileSkippedWarning:
		p.Warnings.AddFileSkippedWarning(context, details)
	default:
		p.Warnings.AddWarning(wt, context, "Warning", details)
	}
}

func (p *Processor) warnLookup(artist, title, details string) {
	if p.Config.WarningBehavior == "immediate" {
		shared.ColorWarning.Printf("⚠️ MusicBrainz lookup failed for %s - %s: %s\n", artist, title, details)
		return
	}
	p.Warnings.AddMusicBrainzLookupWarning(artist, title, details)
}
