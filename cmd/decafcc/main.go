package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zldunn/decafcc/pkg/codegen"
	"github.com/zldunn/decafcc/pkg/tacfmt"
)

var version = "0.1.0"

var (
	dTAC       bool
	outputPath string
	seed       int64
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the single-dash-style debug flags this CLI
// accepts alongside their double-dash pflag spelling, e.g. -dtac
// instead of --dtac.
var debugFlagNames = []string{"dtac"}

// normalizeFlags rewrites a single-dash debug flag like -dtac to
// --dtac so pflag recognizes it.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, name := range debugFlagNames {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "decafcc [file]",
		Short:         "decafcc translates a TAC program into MIPS assembly",
		Long: `decafcc reads a textual three-address-code program and emits
MIPS assembly suitable for the SPIM simulator. It performs no lexing,
parsing, or semantic analysis of its own: the input is already
three-address code with concrete stack and global locations chosen.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dTAC, "dtac", false, "Dump the parsed TAC program instead of compiling it")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write MIPS output to a file instead of stdout")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for deterministic spill-victim selection (0 picks a random seed)")

	return rootCmd
}

func runCompile(filename string, out, errOut io.Writer) error {
	f, err := os.Open(filename)
	if err != nil {
		fmt.Fprintf(errOut, "decafcc: %v\n", err)
		return err
	}
	defer f.Close()

	prog, err := tacfmt.ReadProgram(f)
	if err != nil {
		fmt.Fprintf(errOut, "decafcc: %v\n", err)
		return err
	}

	if dTAC {
		tacfmt.NewWriter(out).WriteProgram(prog)
		return nil
	}

	w := out
	if outputPath != "" {
		outFile, err := os.Create(outputPath)
		if err != nil {
			fmt.Fprintf(errOut, "decafcc: %v\n", err)
			return err
		}
		defer outFile.Close()
		w = outFile
	}

	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	if err := codegen.Generate(w, prog, rng); err != nil {
		fmt.Fprintf(errOut, "decafcc: %v\n", err)
		return err
	}
	return nil
}
