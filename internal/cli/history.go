package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past recordings",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	entries, err := historyStore(cfg).List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recordings yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %3ds  %3d bpm  %-30s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Seconds, e.BPM, e.Prompt, e.File)
	}
	return nil
}
