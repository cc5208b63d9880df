package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurastream/genmusic/internal/audio"
	"github.com/aurastream/genmusic/internal/engine"
	"github.com/aurastream/genmusic/internal/lyria"
	"github.com/aurastream/genmusic/internal/observability"
)

var liveCmd = &cobra.Command{
	Use:   "live [prompt]",
	Short: "Interactive live playback session",
	Long: `live streams generated music to the audio device while you steer it:
add and clear weighted prompts, change the tempo, and quit when done.`,
	RunE: runLive,
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	sess, err := lyria.NewClient(cfg).Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var initial []lyria.WeightedPrompt
	if len(args) > 0 {
		initial = []lyria.WeightedPrompt{{Text: strings.Join(args, " "), Weight: 1.0}}
	}

	eng := engine.New(cfg, sess, audio.OpenDevice, os.Stdin, os.Stdout)

	if cfg.MetricsEnabled {
		defer observability.ServeMetrics(cfg.MetricsAddr, eng.Status).Close()
	}

	fmt.Println("Live session started. Type 'help' for commands.")
	return eng.Run(ctx, initial)
}
