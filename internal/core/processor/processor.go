// Package processor drives the batch tagging pipeline: discover audio
// files, read their tags, analyze audio where possible, enrich from
// MusicBrainz, and apply the resulting tag proposals.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/karrick/godirwalk"
	"golang.org/x/sync/semaphore"

	"songshare-analyzer/internal/api/coverart"
	"songshare-analyzer/internal/api/musicbrainz"
	"songshare-analyzer/internal/api/navidrome"
	"songshare-analyzer/internal/api/spotify"
	"songshare-analyzer/internal/config"
	"songshare-analyzer/internal/shared"
)

// 1. Options and stats

// Options controls what the pipeline does per file
type Options struct {
	Recursive      bool // walk subdirectories during discovery
	Verbose        bool
	Analyze        bool // run audio analysis where the format allows it
	WriteSidecars  bool // persist analysis next to the file
	ApplyAnalysis  bool // write analysis-derived tags
	FetchMetadata  bool // look the file up on MusicBrainz
	FetchMissing   bool // skip lookup when MusicBrainz IDs are already tagged
	ApplyMetadata  bool // write the enrichment proposal
	EmbedCover     bool // download and embed cover art on precise matches
	AssumeYes      bool // apply without the interactive confirmation
	Backup         bool // snapshot tags before the first write
}

// Stats accumulates counters across a batch run
type Stats struct {
	Processed       int
	Analyzed        int
	SidecarsWritten int
	Applied         int
	Skipped         int
	CoversEmbedded  int
	CoversPresent   int
	CoversFailed    int
	Failed          int
	FailedItems     []string
}

// ErrorKind classifies where in the pipeline a file failed
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorRead
	ErrorAnalysis
	ErrorLookup
	ErrorApply
	ErrorVerify
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorRead:
		return "read"
	case ErrorAnalysis:
		return "analysis"
	case ErrorLookup:
		return "lookup"
	case ErrorApply:
		return "apply"
	case ErrorVerify:
		return "verify"
	default:
		return "none"
	}
}

// ItemResult describes what happened to a single file
type ItemResult struct {
	Path         string
	Applied      bool
	Analyzed     bool
	Sidecar      bool
	Skipped      bool
	CoverPresent bool
	// Embed is nil when no embed was attempted
	Embed *bool
	Kind  ErrorKind
	Err   error
}

// 2. Processor

// Processor holds the clients and collaborators for a batch run
type Processor struct {
	Config    *config.Config
	MB        *musicbrainz.Client
	CoverArt  *coverart.Client
	Spotify   *spotify.SpotifyClient
	Navidrome *navidrome.NavidromeClient
	Warnings  *shared.WarningCollector
	Debug     bool
}

// NewProcessor wires a processor from configuration
func NewProcessor(cfg *config.Config, debug bool) *Processor {
	mb := musicbrainz.NewClientWithContact(cfg.MusicBrainzContact)
	if cfg.MusicBrainzURL != "" {
		mbConfig := mb.GetConfig()
		mbConfig.BaseURL = cfg.MusicBrainzURL
		mb.UpdateConfig(mbConfig)
	}
	mb.SetDebug(debug)

	return &Processor{
		Config:    cfg,
		MB:        mb,
		CoverArt:  coverart.NewClientWithBaseURL(cfg.CoverArtArchiveURL),
		Spotify:   spotify.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret),
		Navidrome: navidrome.NewNavidromeClient(cfg.NavidromeURL, cfg.NavidromeUsername, cfg.NavidromePassword),
		Warnings:  shared.NewWarningCollector(cfg.WarningBehavior == "summary"),
		Debug:     debug,
	}
}

// DiscoverFiles expands a path into the audio files to process. A file
// path returns itself; a directory is scanned, recursively on request.
func DiscoverFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	if recursive {
		err = godirwalk.Walk(path, &godirwalk.Options{
			Callback: func(osPathname string, de *godirwalk.Dirent) error {
				if strings.Contains(osPathname, ".git") {
					return godirwalk.SkipThis
				}
				if de.IsRegular() && shared.IsAudioFile(osPathname) {
					files = append(files, osPathname)
				}
				return nil
			},
			Unsorted: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && shared.IsAudioFile(entry.Name()) {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// ProcessAll runs the pipeline over a list of files and prints a summary.
// Interactive runs (confirmation prompts enabled) are sequential; batch
// runs fan out up to the configured parallelism.
func (p *Processor) ProcessAll(ctx context.Context, files []string, opts Options) (*Stats, error) {
	if len(files) == 0 {
		shared.ColorInfo.Println("No audio files found")
		return &Stats{}, nil
	}

	interactive := opts.ApplyMetadata && !opts.AssumeYes
	stats := &Stats{}

	var bar *pb.ProgressBar
	if !interactive && shared.IsTTY() && len(files) > 1 {
		bar = pb.StartNew(len(files))
	}

	if interactive || p.Config.Parallelism <= 1 {
		for _, f := range files {
			res := p.processFile(ctx, f, opts)
			stats.add(res)
			if bar != nil {
				bar.Increment()
			}
		}
	} else {
		var wg sync.WaitGroup
		var mu sync.Mutex
		sem := semaphore.NewWeighted(int64(p.Config.Parallelism))

		for _, f := range files {
			wg.Add(1)
			if err := sem.Acquire(ctx, 1); err != nil {
				shared.ColorError.Printf("Failed to acquire semaphore: %v\n", err)
				wg.Done()
				continue
			}
			go func(f string) {
				defer wg.Done()
				defer sem.Release(1)
				res := p.processFile(ctx, f, opts)
				mu.Lock()
				stats.add(res)
				mu.Unlock()
				if bar != nil {
					bar.Increment()
				}
			}(f)
		}
		wg.Wait()
	}

	if bar != nil {
		bar.Finish()
	}

	if stats.Applied > 0 && p.Navidrome.IsConfigured() {
		p.refreshLibrary()
	}

	if p.Config.WarningBehavior == "summary" {
		p.Warnings.PrintSummary()
	}
	stats.PrintSummary()

	return stats, nil
}

// refreshLibrary asks the configured Navidrome server to rescan
func (p *Processor) refreshLibrary() {
	if err := p.Navidrome.Authenticate(); err != nil {
		shared.ColorWarning.Printf("⚠️ Navidrome authentication failed: %v\n", err)
		return
	}
	if err := p.Navidrome.StartScan(); err != nil {
		shared.ColorWarning.Printf("⚠️ Navidrome scan request failed: %v\n", err)
		return
	}
	shared.ColorInfo.Println("🔄 Triggered Navidrome library scan")
}

func (s *Stats) add(res ItemResult) {
	s.Processed++
	if res.Err != nil {
		s.Failed++
		s.FailedItems = append(s.FailedItems, fmt.Sprintf("%s: [%s] %v", res.Path, res.Kind, res.Err))
	}
	if res.Applied {
		s.Applied++
	}
	if res.Analyzed {
		s.Analyzed++
	}
	if res.Sidecar {
		s.SidecarsWritten++
	}
	if res.Skipped {
		s.Skipped++
	}
	if res.CoverPresent {
		s.CoversPresent++
	}
	if res.Embed != nil {
		if *res.Embed {
			s.CoversEmbedded++
		} else {
			s.CoversFailed++
		}
	}
}

// PrintSummary prints the end-of-run counters
func (s *Stats) PrintSummary() {
	fmt.Println()
	shared.ColorInfo.Printf("📊 Processed %d file(s)\n", s.Processed)
	if s.Analyzed > 0 {
		shared.ColorInfo.Printf("   Analyzed: %d (sidecars written: %d)\n", s.Analyzed, s.SidecarsWritten)
	}
	if s.Applied > 0 {
		shared.ColorSuccess.Printf("   Tags applied: %d\n", s.Applied)
	}
	if s.CoversEmbedded > 0 || s.CoversFailed > 0 || s.CoversPresent > 0 {
		shared.ColorInfo.Printf("   Covers: %d embedded, %d already present, %d failed\n",
			s.CoversEmbedded, s.CoversPresent, s.CoversFailed)
	}
	if s.Skipped > 0 {
		shared.ColorInfo.Printf("   Skipped: %d\n", s.Skipped)
	}
	if s.Failed > 0 {
		shared.ColorError.Printf("   Failed: %d\n", s.Failed)
		for _, item := range s.FailedItems {
			shared.ColorError.Printf("     - %s\n", item)
		}
	}
}

