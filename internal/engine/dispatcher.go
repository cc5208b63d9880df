package engine

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aurastream/genmusic/internal/observability"
)

// weightPattern matches a bare signed decimal, the optional trailing
// weight on an add command.
var weightPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

const helpText = `Commands:
  add <text> [weight]  add a weighted prompt to the mix (default weight 1.0)
  clear                remove all prompts
  list                 show the current prompt mix
  bpm <n>              change tempo, restarts the musical context
  help                 show this help
  quit                 stop playback and exit
`

// Dispatcher reads commands line by line and applies them one at a
// time, so steering changes reach the service in order.
type Dispatcher struct {
	state   *State
	tempo   *TempoController
	prompts *PromptMixController
	in      io.Reader
	out     io.Writer
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// Run blocks reading commands until quit or end of input. Either one
// clears the running flag.
func (d *Dispatcher) Run() {
	scanner := bufio.NewScanner(d.in)

	for d.state.Running() {
		fmt.Fprint(d.out, "> ")
		if !scanner.Scan() {
			// End of input is a quit.
			d.state.SetRunning(false)
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d.dispatch(line)
	}
}

func (d *Dispatcher) dispatch(line string) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	var err error
	switch cmd {
	case "quit", "exit":
		d.state.SetRunning(false)
	case "help":
		fmt.Fprint(d.out, helpText)
	case "bpm":
		err = d.handleBPM(args)
	case "add":
		err = d.handleAdd(args)
	case "clear":
		err = d.prompts.Clear()
		if err == nil {
			fmt.Fprintln(d.out, "Prompt mix cleared")
		}
	case "list":
		d.printMix()
	default:
		err = fmt.Errorf("unknown command %q, type 'help' for commands", cmd)
	}

	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
	}
	d.metrics.RecordCommand(cmd, err == nil)
}

func (d *Dispatcher) handleBPM(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bpm <n>")
	}
	bpm, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid bpm %q", args[0])
	}
	if err := d.tempo.SetBPM(bpm); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Tempo set to %d BPM\n", bpm)
	return nil
}

func (d *Dispatcher) handleAdd(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: add <text> [weight]")
	}

	weight := 1.0
	text := strings.Join(args, " ")

	// A trailing bare number is the weight, not prompt text.
	if len(args) > 1 && weightPattern.MatchString(args[len(args)-1]) {
		w, err := strconv.ParseFloat(args[len(args)-1], 64)
		if err == nil {
			weight = w
			text = strings.Join(args[:len(args)-1], " ")
		}
	}

	if err := d.prompts.Add(text, weight); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Added %q (weight %.1f)\n", text, weight)
	return nil
}

func (d *Dispatcher) printMix() {
	mix := d.prompts.List()
	if len(mix) == 0 {
		fmt.Fprintln(d.out, "Prompt mix is empty")
		return
	}
	for i, p := range mix {
		fmt.Fprintf(d.out, "%2d. %-40s %.1f\n", i+1, p.Text, p.Weight)
	}
}
