// Package cli defines the genmusic command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aurastream/genmusic/internal/audio"
	"github.com/aurastream/genmusic/internal/config"
	"github.com/aurastream/genmusic/internal/gemini"
	"github.com/aurastream/genmusic/internal/history"
	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/observability"
	"github.com/aurastream/genmusic/internal/recorder"
	"github.com/aurastream/genmusic/internal/wav"
)

var (
	flagSeconds  int
	flagBPM      int
	flagOptimize bool
	flagPlay     bool
	flagOutput   string
)

var rootCmd = &cobra.Command{
	Use:   "genmusic <prompt>",
	Short: "Generative music from text prompts",
	Long: `genmusic records AI-generated music to WAV files and runs live
interactive playback sessions against the Lyria RealTime API.`,
	Args:          cobra.MinimumNArgs(1),
	RunE:          runGenerate,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&flagSeconds, "seconds", "s", 30, "recording length in seconds")
	rootCmd.Flags().IntVar(&flagBPM, "bpm", 0, "tempo in beats per minute (default from config)")
	rootCmd.Flags().BoolVar(&flagOptimize, "optimize", false, "expand the prompt with a text model first")
	rootCmd.Flags().BoolVar(&flagPlay, "play", false, "play the recording when done")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output directory (default ~/Music)")

	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
}

// setup loads configuration and initializes logging and metrics.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

// signalContext cancels on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// historyStore resolves the history file: absolute paths are used as
// given, relative ones live under the config directory.
func historyStore(cfg *config.Config) *history.Store {
	path := cfg.HistoryFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(config.ConfigDir(), path)
	}
	return history.NewStore(path)
}

// uniquePath appends a counter until the name is free.
func uniquePath(dir, slug string) string {
	path := filepath.Join(dir, slug+".wav")
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d.wav", slug, i))
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}
	if flagBPM != 0 {
		cfg.DefaultBPM = flagBPM
	}
	logger := observability.GetLogger()

	ctx, stop := signalContext()
	defer stop()

	if cfg.MetricsEnabled {
		defer observability.ServeMetrics(cfg.MetricsAddr, nil).Close()
	}

	prompt := strings.Join(args, " ")
	gem := gemini.NewClient(cfg)

	if flagOptimize {
		optimized, err := gem.OptimizePrompt(ctx, prompt)
		if err != nil {
			logger.Warn().Err(err).Msg("Prompt optimization failed, using original")
		} else {
			logger.Info().Str("prompt", optimized).Msg("Optimized prompt")
			prompt = optimized
		}
	}

	dir, err := cfg.MusicDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	slug := gem.FilenameSlug(ctx, prompt)
	if slug == "" {
		slug = "track"
	}
	path := uniquePath(dir, slug)

	logger.Info().Str("prompt", prompt).Int("seconds", flagSeconds).Msg("Connecting")
	sess, err := lyria.NewClient(cfg).Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.SetWeightedPrompts([]lyria.WeightedPrompt{{Text: prompt, Weight: 1.0}}); err != nil {
		return fmt.Errorf("set prompt: %w", err)
	}
	if err := sess.Configure(cfg.DefaultBPM, cfg.Temperature); err != nil {
		return fmt.Errorf("configure session: %w", err)
	}
	if err := sess.Play(); err != nil {
		return fmt.Errorf("start generation: %w", err)
	}

	res, err := recorder.New(sess).Record(ctx, path, flagSeconds)
	if err != nil {
		return err
	}

	if err := historyStore(cfg).Append(history.Entry{
		Prompt:    prompt,
		File:      res.Path,
		Seconds:   flagSeconds,
		BPM:       cfg.DefaultBPM,
		CreatedAt: nowUTC(),
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to record history")
	}

	fmt.Printf("Saved %s (%d bytes)\n", res.Path, res.Bytes)

	if flagPlay {
		return playFile(res.Path)
	}
	return nil
}

// playFile streams a recording's PCM to the audio device.
func playFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(wav.HeaderSize, 0); err != nil {
		return fmt.Errorf("skip header: %w", err)
	}

	device, err := audio.OpenDevice()
	if err != nil {
		return err
	}
	defer device.Close()

	if _, err := io.Copy(device, f); err != nil {
		return fmt.Errorf("play recording: %w", err)
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
