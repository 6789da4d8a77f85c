package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlekbai/hfsm"
	"github.com/atlekbai/hfsm/definition"
)

var runCmd = &cobra.Command{
	Use:   "run [definition] [trigger[:arg]...]",
	Short: "Fire a sequence of triggers against a fresh machine",
	Long: `Builds the machine described by the definition and fires each step in order.

The definition may also come from --definition, the config file or
HFSM_DEFINITION; then a first argument without a .yaml, .yml or .json extension
is already a step. Steps are given as arguments or read one per line from
--script ("-" for stdin). A step is a trigger optionally followed by ':' and a
string argument. Blank lines and lines starting with '#' are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, steps, err := loadEnv(cmd, args)
		if err != nil {
			return err
		}
		defer e.logger.Sync() //nolint:errcheck

		if script, _ := cmd.Flags().GetString("script"); script != "" {
			fromScript, err := readScript(cmd.InOrStdin(), script)
			if err != nil {
				return err
			}
			steps = append(steps, fromScript...)
		}
		stopOnError, _ := cmd.Flags().GetBool("stop-on-error")

		m, err := e.def.Build(e.logger)
		if err != nil {
			return err
		}
		return runSteps(cmd.OutOrStdout(), e.logger, m, steps, stopOnError)
	},
}

func init() {
	runCmd.Flags().String("script", "", "File with one step per line, - for stdin")
	runCmd.Flags().Bool("stop-on-error", false, "Stop at the first rejected trigger")
	rootCmd.AddCommand(runCmd)
}

// parseStep splits "trigger:arg". A step without ':' has a nil argument.
func parseStep(step string) (string, any) {
	trigger, arg, found := strings.Cut(step, ":")
	if !found {
		return trigger, nil
	}
	return trigger, arg
}

func readScript(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	var steps []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		steps = append(steps, line)
	}
	return steps, scanner.Err()
}

func runSteps(w io.Writer, logger *zap.Logger, m *definition.Machine, steps []string, stopOnError bool) error {
	fmt.Fprintf(w, "initial: %s\n", m.CurrentState())
	failed := 0
	for _, step := range steps {
		trigger, arg := parseStep(step)
		res, err := m.Fire(trigger, arg)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s: rejected in %s: %v\n", step, m.CurrentState(), err)
			var te *hfsm.TransitionError
			if errors.As(err, &te) && te.Kind == hfsm.OtherError {
				logger.Warn("step failed", zap.String("step", step), zap.Error(err))
			}
			if stopOnError {
				return fmt.Errorf("step %q failed: %w", step, err)
			}
			continue
		}
		report := res.ReportedTransitions
		fmt.Fprintf(w, "%s: %s -> %s (entered %s)",
			step, report.CurrentState, report.NextState, strings.Join(report.OnEntryCallbacksCalled, ", "))
		if report.NextStateInDifferentTree {
			fmt.Fprint(w, " [tree change]")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "final: %s\n", m.CurrentState())
	if failed > 0 {
		logger.Info("run finished with rejected steps", zap.Int("rejected", failed), zap.Int("steps", len(steps)))
	}
	return nil
}
