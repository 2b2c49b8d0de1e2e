// cairo-vm-run executes a Cairo program and writes the relocated trace and
// memory artifacts. Program input is a minimal JSON form of the program
// contract (bytecode words, builtin list, entry offsets); parsing full
// compiler artifacts is a loader's job, not the VM's.
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/core"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/program"
	"github.com/cairo-vm/cairo-vm-go/internal/cairo-vm/runner"
)

// Version is filled when building with make, but *not* when installing via
// "go install".
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cairo-vm-run",
	Short: "A virtual machine for the Cairo instruction set.",
	Long:  "An interpreter for Cairo bytecode producing STARK-provable execution traces.",
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Print("cairo-vm-run ")
			if Version != "" {
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Printf("%s", info.Main.Version)
			} else {
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [program.json]",
	Short: "Execute a Cairo program.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}

		prog, err := loadProgramFile(args[0])
		if err != nil {
			return exitError(1, err)
		}
		log.WithField("program_hash", hex.EncodeToString(firstBytes(prog.Hash()))).Info("program loaded")

		cfg := runner.DefaultConfig()
		layout, _ := cmd.Flags().GetString("layout")
		cfg = cfg.WithLayout(layout)
		if proofMode, _ := cmd.Flags().GetBool("proof-mode"); proofMode {
			cfg = cfg.WithMode(runner.ModeProof)
		}
		if allow, _ := cmd.Flags().GetBool("allow-missing-builtins"); allow {
			cfg = cfg.WithAllowMissingBuiltins(true)
		}
		if cmd.Flags().Changed("entrypoint") {
			entry, _ := cmd.Flags().GetUint64("entrypoint")
			cfg = cfg.WithEntrypoint(entry)
		}
		if maxSteps, _ := cmd.Flags().GetUint64("max-steps"); maxSteps > 0 {
			cfg = cfg.WithMaxSteps(maxSteps)
		}
		traceFile, _ := cmd.Flags().GetString("trace-file")
		memoryFile, _ := cmd.Flags().GetString("memory-file")
		cfg = cfg.WithTrace(traceFile != "")

		r, err := runner.New(prog, cfg)
		if err != nil {
			return exitError(2, err)
		}
		if err := r.Initialize(); err != nil {
			return exitError(2, err)
		}
		if err := r.Run(); err != nil {
			return exitError(3, err)
		}
		if err := r.EndRun(); err != nil {
			return exitError(4, err)
		}
		if err := r.Relocate(); err != nil {
			return exitError(5, err)
		}
		log.WithField("steps", r.StepCount()).Info("run complete")

		if memoryFile != "" {
			cells, err := r.RelocatedMemory()
			if err != nil {
				return exitError(5, err)
			}
			if err := writeArtifact(memoryFile, func(f *os.File) error {
				return runner.WriteMemoryFile(f, cells)
			}); err != nil {
				return exitError(6, err)
			}
		}
		if traceFile != "" {
			trace, err := r.RelocatedTrace()
			if err != nil {
				return exitError(5, err)
			}
			if err := writeArtifact(traceFile, func(f *os.File) error {
				return runner.WriteTraceFile(f, trace)
			}); err != nil {
				return exitError(6, err)
			}
		}
		if airFile, _ := cmd.Flags().GetString("air-public-input"); airFile != "" {
			public, err := r.GetAirPublicInput()
			if err != nil {
				return exitError(5, err)
			}
			encoded, err := json.MarshalIndent(public, "", "  ")
			if err != nil {
				return exitError(6, err)
			}
			if err := os.WriteFile(airFile, encoded, 0o644); err != nil {
				return exitError(6, err)
			}
		}
		return nil
	},
}

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func exitError(code int, err error) error {
	return &codedError{code: code, err: err}
}

func writeArtifact(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}

func firstBytes(h [32]byte) []byte { return h[:8] }

// jsonProgram is the minimal on-disk program form this CLI accepts.
type jsonProgram struct {
	Builtins []string `json:"builtins"`
	Data     []string `json:"data"`
	Main     *uint64  `json:"main,omitempty"`
	Start    *uint64  `json:"start,omitempty"`
	End      *uint64  `json:"end,omitempty"`
}

func loadProgramFile(path string) (*program.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var jp jsonProgram
	if err := json.Unmarshal(raw, &jp); err != nil {
		return nil, fmt.Errorf("malformed program file: %w", err)
	}

	prog := program.NewProgram()
	for _, b := range jp.Builtins {
		prog.Builtins = append(prog.Builtins, program.BuiltinName(b))
	}
	prog.Data = make([]core.MaybeRelocatable, len(jp.Data))
	for i, w := range jp.Data {
		v, ok := new(big.Int).SetString(w, 0)
		if !ok {
			return nil, fmt.Errorf("malformed program word %q at index %d", w, i)
		}
		prog.Data[i] = core.FromFelt(core.NewFelt(v))
	}
	prog.Main = jp.Main
	prog.Start = jp.Start
	prog.End = jp.End
	return prog, nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately, returning the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var coded *codedError
		if errors.As(err, &coded) {
			log.Error(coded.err)
			return coded.code
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.Flags().Bool("version", false, "Report version of this executable")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")

	runCmd.Flags().String("layout", "plain", "prover layout (plain|small|dynamic|all_cairo)")
	runCmd.Flags().Bool("proof-mode", false, "run in canonical proof mode")
	runCmd.Flags().Bool("allow-missing-builtins", false, "permit program builtins the layout lacks")
	runCmd.Flags().String("trace-file", "", "write the relocated trace to this file")
	runCmd.Flags().String("memory-file", "", "write the relocated memory to this file")
	runCmd.Flags().String("air-public-input", "", "write the AIR public input JSON to this file")
	runCmd.Flags().Uint64("entrypoint", 0, "override the program's main offset")
	runCmd.Flags().Uint64("max-steps", 0, "bound the run to this many steps (0 = unbounded)")

	rootCmd.AddCommand(runCmd)
}

func main() {
	os.Exit(Execute())
}
