// Command qdeck compiles an OpenQASM 2.0 program through the engine chain
// and prints the result, or opens an interactive stepper.
package main

import (
	"fmt"
	"io"
	"maps"
	"math/rand"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markkurossi/tabulate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qdeck/backends"
	"qdeck/config"
	"qdeck/engine"
	"qdeck/ops"
	"qdeck/qasm"
	"qdeck/setups"
	"qdeck/sim"
)

const (
	formatProbs     = "probs"
	formatJSON      = "json"
	formatQASM      = "qasm"
	formatCounts    = "counts"
	formatPrint     = "print"
	formatResources = "resources"
)

var formats = []string{formatProbs, formatJSON, formatQASM, formatCounts, formatPrint, formatResources}

// ExitError carries the process exit code for usage errors.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

type options struct {
	configPath string
	format     string
	seed       int64
	seeded     bool
	shots      int
	tui        bool
	path       string
	started    bool
}

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qdeck [flags] FILE.qasm",
		Short: "Compile and simulate OpenQASM 2.0 circuits",
		Long: `qdeck compiles an OpenQASM 2.0 program through the engine chain described by
the pipeline configuration, then prints probabilities, sampled counts, the
compiled circuit as JSON or QASM, a gate listing or resource counts.

Examples:

  # Simulate and print per-qubit probabilities
  qdeck bell.qasm

  # Sample 500 shots with a fixed seed
  qdeck --format counts --shots 500 --seed 7 bell.qasm

  # Step through the compiled command stream
  qdeck --tui --config qdeck.yaml bell.qasm
`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.started = true
			if !slices.Contains(formats, o.format) {
				return &ExitError{Code: 2, Message: fmt.Sprintf("invalid format %q: must be one of %s", o.format, strings.Join(formats, ", "))}
			}
			if o.shots < 1 {
				return &ExitError{Code: 2, Message: "shots must be at least 1"}
			}
			o.seeded = cmd.Flags().Changed("seed")
			o.path = args[0]
			return execute(out, o)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.Flags().StringVar(&o.configPath, "config", "", "Path to a YAML, HCL or JSON pipeline configuration.")
	cmd.Flags().StringVar(&o.format, "format", formatProbs, "Output: "+strings.Join(formats, ", ")+".")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "Simulator seed. Unset means a time based seed.")
	cmd.Flags().IntVar(&o.shots, "shots", 1024, "Number of runs for --format counts.")
	cmd.Flags().BoolVar(&o.tui, "tui", false, "Open the interactive stepper.")
	return cmd
}

// run executes the root command. Argument and flag errors fail before RunE
// starts and are reported with the usage text and exit code 2.
func run(out io.Writer, args []string) error {
	if args == nil {
		args = []string{}
	}
	o := &options{}
	cmd := newRootCmd(out, o)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil || o.started {
		return err
	}
	fmt.Fprint(out, cmd.UsageString())
	return &ExitError{Code: 2, Message: err.Error()}
}

func execute(out io.Writer, o *options) error {
	var err error
	cfg := &config.Config{}
	if o.configPath != "" {
		if cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	}
	cfg = cfg.WithDefaults()
	if o.seeded {
		cfg.Backend.Seed = &o.seed
	}
	logger, err := cfg.Log.CreateLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	src, err := os.ReadFile(o.path)
	if err != nil {
		return errors.Wrap(err, "read program")
	}

	if o.tui {
		p := tea.NewProgram(newModel(cfg, string(src)), tea.WithAltScreen())
		_, err := p.Run()
		return errors.Wrap(err, "run tui")
	}

	prog, err := qasm.Parse(string(src))
	if err != nil {
		return errors.Wrapf(err, "parse %s", o.path)
	}
	logger.Info("compiling program",
		zap.String("file", o.path),
		zap.String("format", o.format),
		zap.Int("qubits", prog.Qubits))

	switch o.format {
	case formatCounts:
		return runCounts(out, cfg, prog, o.shots, logger)
	case formatProbs:
		cfg.Backend.Kind = config.BackendSimulator
	case formatJSON:
		cfg.Backend.Kind = config.BackendJSON
	case formatQASM:
		cfg.Backend.Kind = config.BackendQASM
	case formatPrint:
		cfg.Backend.Kind = config.BackendPrinter
	case formatResources:
		cfg.Backend.Kind = config.BackendResources
	}

	s, err := setups.Build(cfg, setups.WithOutput(out), setups.WithLogger(logger))
	if err != nil {
		return err
	}
	reg, bits, err := prog.Run(s.Main)
	if err != nil {
		return err
	}

	switch b := s.Backend.(type) {
	case *sim.Simulator:
		return writeProbabilities(out, b, reg, bits)
	case *backends.JSONBackend:
		return b.WriteJSON(out)
	case *backends.QASMBackend:
		return b.WriteQASM(out)
	case *backends.ResourceCounter:
		_, err := io.WriteString(out, b.String())
		return errors.Wrap(err, "write resources")
	}
	return nil
}

func writeProbabilities(out io.Writer, s *sim.Simulator, reg engine.Qureg, bits []bool) error {
	tab := tabulate.New(tabulate.Unicode)
	tab.Header("Qubit").SetAlign(tabulate.ML)
	tab.Header("P(0)").SetAlign(tabulate.MR)
	tab.Header("P(1)").SetAlign(tabulate.MR)
	for i, q := range reg {
		p1, err := s.GetProbability([]bool{true}, []ops.QubitID{q.ID()})
		if err != nil {
			return err
		}
		row := tab.Row()
		row.Column(fmt.Sprintf("q[%d]", i))
		row.Column(fmt.Sprintf("%.4f", 1-p1))
		row.Column(fmt.Sprintf("%.4f", p1))
	}
	tab.Print(out)
	if len(bits) > 0 {
		_, err := fmt.Fprintf(out, "Measured: %s\n", bitString(bits))
		return errors.Wrap(err, "write measurement")
	}
	return nil
}

// runCounts runs the program once per shot and tabulates the outcomes.
func runCounts(out io.Writer, cfg *config.Config, prog *qasm.Program, shots int, logger *zap.Logger) error {
	counts, err := sample(cfg, prog, shots, logger)
	if err != nil {
		return err
	}
	tab := tabulate.New(tabulate.Unicode)
	tab.Header("Outcome").SetAlign(tabulate.ML)
	tab.Header("Count").SetAlign(tabulate.MR)
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		row := tab.Row()
		row.Column(k)
		row.Column(strconv.Itoa(counts[k]))
	}
	tab.Print(out)
	return nil
}

// sample builds a fresh simulator chain per shot, seeding each shot from
// shotSeeds.
func sample(cfg *config.Config, prog *qasm.Program, shots int, logger *zap.Logger) (map[string]int, error) {
	cfg.Backend.Kind = config.BackendSimulator
	base := cfg.Backend.Seed
	defer func() { cfg.Backend.Seed = base }()

	counts := make(map[string]int)
	for i, seed := range shotSeeds(base, shots) {
		cfg.Backend.Seed = &seed
		s, err := setups.Build(cfg, setups.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		_, bits, err := prog.Run(s.Main)
		if err != nil {
			return nil, errors.Wrapf(err, "shot %d", i)
		}
		counts[bitString(bits)]++
	}
	return counts, nil
}

// shotSeeds draws n simulator seeds from one generator, seeded with base when
// set and with the clock otherwise.
func shotSeeds(base *int64, n int) []int64 {
	src := time.Now().UnixNano()
	if base != nil {
		src = *base
	}
	rng := rand.New(rand.NewSource(src))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}

// bitString renders classical bits with c[0] rightmost.
func bitString(bits []bool) string {
	var sb strings.Builder
	for i := len(bits) - 1; i >= 0; i-- {
		if bits[i] {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
