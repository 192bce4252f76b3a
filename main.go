package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"songshare-analyzer/internal/config"
	"songshare-analyzer/internal/core/analyzer"
	"songshare-analyzer/internal/core/processor"
	"songshare-analyzer/internal/services"
	"songshare-analyzer/internal/shared"
)

const toolVersion = "1.0.0"

var (
	configFile   string
	debug        bool
	recursive    bool
	verbose      bool
	assumeYes    bool
	applyChanges bool
	embedCover   bool
	missingOnly  bool
	noBackup     bool
	noSidecar    bool
	parallelism  int
)

var rootCmd = &cobra.Command{
	Use:     "songshare-analyzer",
	Version: toolVersion,
	Short:   "Audio analysis and tag enrichment for local music libraries.",
	Long: fmt.Sprintf(`songshare-analyzer (v%s)

Analyzes local audio files and enriches their tags:
- Detects beats and classifies track timing as human or clicktrack.
- Writes analysis sidecars and analysis-derived tags (BPM, key, genre).
- Looks tracks up on MusicBrainz and applies metadata without clobbering.
- Downloads and embeds front cover art for precise matches.`, toolVersion),
}

var printCmd = &cobra.Command{
	Use:   "print [path]",
	Short: "Print the tags of a file or directory of files.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		container := initServices()
		runPipeline(container, args[0], processor.Options{
			Recursive: recursive,
			Verbose:   true,
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze audio files and write analysis sidecars.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		container := initServices()
		runPipeline(container, args[0], processor.Options{
			Recursive:     recursive,
			Verbose:       verbose,
			Analyze:       true,
			WriteSidecars: !noSidecar,
			ApplyAnalysis: applyChanges,
			Backup:        !noBackup,
		})
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify a track's timing as human or clicktrack.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		container := initServices()
		if err := runClassify(container, args[0]); err != nil {
			shared.ColorError.Printf("❌ Classification failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [path]",
	Short: "Look files up on MusicBrainz and propose or apply tags.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		container := initServices()
		runPipeline(container, args[0], processor.Options{
			Recursive:     recursive,
			Verbose:       verbose,
			FetchMetadata: true,
			FetchMissing:  missingOnly,
			ApplyMetadata: applyChanges,
			EmbedCover:    embedCover || container.Processor.Config.EmbedCoverArt,
			AssumeYes:     assumeYes,
			Backup:        !noBackup,
		})
	},
}

// runPipeline discovers files and runs the processor over them
func runPipeline(container *services.ServiceContainer, path string, opts processor.Options) {
	files, err := container.Process.DiscoverFiles(path, opts.Recursive)
	if err != nil {
		shared.ColorError.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	stats, err := container.Process.ProcessAll(context.Background(), files, opts)
	if err != nil {
		shared.ColorError.Printf("❌ Processing failed: %v\n", err)
		os.Exit(1)
	}
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

// runClassify prints the timing classification for its argument: "-"
// reads a JSON beat array from stdin, a .json path is a sidecar or beat
// array, anything else is an audio file (sidecar preferred, then
// analysis)
func runClassify(container *services.ServiceContainer, path string) error {
	if path == "-" || strings.HasSuffix(strings.ToLower(path), ".json") {
		beats, err := readBeats(path)
		if err != nil {
			return err
		}
		result := container.Analysis.ClassifyBeats(beats)
		return printJSON(&result)
	}

	analysis, err := container.Analysis.LoadSidecar(path)
	if err != nil {
		return err
	}
	if analysis == nil {
		analysis, err = container.Analysis.AnalyzeFile(path)
		if err != nil {
			return err
		}
	}

	result := analysis.Analysis.Rhythm.Timing
	if result == nil {
		classified := container.Analysis.ClassifyBeats(analysis.Analysis.Rhythm.Beats)
		result = &classified
	}
	return printJSON(result)
}

// readBeats loads beat timestamps from stdin or a JSON file holding
// either a plain array or an analysis sidecar
func readBeats(path string) ([]float64, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var beats []float64
	if err := json.Unmarshal(data, &beats); err == nil {
		return beats, nil
	}

	var sidecar analyzer.Analysis
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("input is neither a beat array nor an analysis sidecar: %w", err)
	}
	return sidecar.Analysis.Rhythm.Beats, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// initServices loads (or interactively creates) the configuration and
// wires the service container
func initServices() *services.ServiceContainer {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	if !shared.FileExists(configFile) {
		shared.ColorInfo.Println("✨ Welcome to songshare-analyzer! Let's set up your configuration.")

		cfg.MusicBrainzContact = shared.GetUserInput(
			"Enter a contact address for the MusicBrainz user agent (required by their etiquette)",
			cfg.MusicBrainzContact)

		defaultParallelism := strconv.Itoa(cfg.Parallelism)
		parallelismStr := shared.GetUserInput(
			fmt.Sprintf("Enter number of parallel workers (default: %s)", defaultParallelism),
			defaultParallelism)
		if p, err := strconv.Atoi(parallelismStr); err == nil && p > 0 {
			cfg.Parallelism = p
		} else {
			shared.ColorWarning.Printf("⚠️ Invalid parallelism value '%s', using default %d.\n", parallelismStr, cfg.Parallelism)
		}

		if err := config.SaveConfig(configFile, cfg); err != nil {
			shared.ColorError.Printf("❌ Failed to save initial config: %v\n", err)
		} else {
			shared.ColorSuccess.Println("✅ Configuration saved to", configFile)
		}
	} else {
		if err := config.LoadConfig(configFile, cfg); err != nil {
			shared.ColorError.Printf("❌ Failed to load config from %s: %v\n", configFile, err)
		} else {
			cfg.ApplyDefaults()
		}
	}

	if parallelism > 0 {
		cfg.Parallelism = parallelism
	}

	if err := cfg.Validate(); err != nil {
		shared.ColorError.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if !debug {
		debug = shared.IsDebugMode()
	}
	return services.NewServiceContainer(cfg, debug)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&parallelism, "parallelism", 0, "Override the configured number of parallel workers")

	printCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recurse into subdirectories")

	analyzeCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recurse into subdirectories")
	analyzeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print tags while processing")
	analyzeCmd.Flags().BoolVar(&noSidecar, "no-sidecar", false, "Skip writing analysis sidecars")
	analyzeCmd.Flags().BoolVar(&applyChanges, "write-tags", false, "Write analysis-derived tags to the files")
	analyzeCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the tag backup before writing")

	fetchCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recurse into subdirectories")
	fetchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print tags while processing")
	fetchCmd.Flags().BoolVar(&applyChanges, "apply", false, "Apply the proposed metadata")
	fetchCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Apply without asking for confirmation")
	fetchCmd.Flags().BoolVar(&embedCover, "embed-cover-art", false, "Embed front cover art on precise matches")
	fetchCmd.Flags().BoolVar(&missingOnly, "missing-only", false, "Skip files that already carry MusicBrainz IDs")
	fetchCmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the tag backup before writing")

	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(fetchCmd)
}

func main() {
	shared.InitializeColors()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
