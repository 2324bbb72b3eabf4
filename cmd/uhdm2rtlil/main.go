// Command uhdm2rtlil is the CLI surface over the core lowering engine: a
// single root command, a single positional filename, and a nonzero exit code on
// malformed input.
package main

import (
	"fmt"
	"os"

	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/audit"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/ir"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/rewrite"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/translate"
	"github.com/alainmarcel/uhdm2rtlil-sub000/pkg/uhdm"
	"github.com/spf13/cobra"
)

func main() {
	var modeDebug bool
	var allowFormal bool
	var reportErrors bool
	var outPath string

	rootCmd := &cobra.Command{
		Use:   "uhdm2rtlil <file>",
		Short: "Lower an elaborated UHDM design into netlist-plus-process IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outPath, modeDebug, allowFormal, reportErrors)
		},
	}

	rootCmd.Flags().BoolVar(&modeDebug, "debug", false, "enable verbose logging (mode_debug)")
	rootCmd.Flags().BoolVar(&allowFormal, "allow-formal", false, "accept assume/cover/restrict constructs (allowFormal)")
	rootCmd.Flags().BoolVar(&reportErrors, "report-errors", true, "print non-synthesizable construct diagnostics (reportErrors)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output path for the lowered IR (default: <file>.rtlil)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run performs the whole pipeline: read the elaborated design, apply the
// rewrite engine and the non-synthesizable-construct audit to each module,
// translate every process, then persist the resulting ir.Design.
func run(inPath, outPath string, modeDebug, allowFormal, reportErrors bool) error {
	design, err := uhdm.LoadDesign(inPath)
	if err != nil {
		return fmt.Errorf("uhdm2rtlil: reading %s: %w", inPath, err)
	}
	if len(design.Modules) == 0 {
		return fmt.Errorf("uhdm2rtlil: %s: empty design, nothing to lower", inPath)
	}

	out := ir.NewDesign()
	ids := ir.NewIDGen()
	hadErrors := false

	onError := func(msg string, loc uhdm.Loc) {
		hadErrors = true
		if reportErrors {
			fmt.Fprintf(os.Stderr, "%s:%d: %s\n", loc.File, loc.Line, msg)
		}
	}

	re := &rewrite.Engine{}
	if modeDebug {
		re.Report = func(msg string) { fmt.Fprintf(os.Stderr, "rewrite: %s\n", msg) }
	}

	for _, decl := range design.Modules {
		counts := re.ApplyAll(decl)
		if modeDebug {
			for name, n := range counts {
				if n > 0 {
					fmt.Fprintf(os.Stderr, "uhdm2rtlil: module %q: rewrite %s fired %d time(s)\n", decl.Name, name, n)
				}
			}
		}

		au := audit.New(allowFormal)
		au.OnError = func(f audit.Finding) {
			onError(fmt.Sprintf("non-synthesizable construct: %s %q", f.Kind, f.Name), f.Loc)
		}
		au.AuditModule(decl)

		mod := ir.NewModule(decl.Name)
		tr := translate.New(mod, decl, ids)
		tr.OnError = onError
		for _, p := range decl.Processes {
			tr.TranslateProcess(p)
		}
		out.AddModule(mod)

		if modeDebug {
			fmt.Fprintf(os.Stderr, "uhdm2rtlil: lowered module %q: %d wire(s), %d cell(s), %d process(es)\n",
				mod.Name, len(mod.Wires()), len(mod.Cells()), len(mod.Processes()))
		}
	}

	if outPath == "" {
		outPath = inPath + ".rtlil"
	}
	if err := ir.SaveDesign(outPath, out); err != nil {
		return fmt.Errorf("uhdm2rtlil: writing %s: %w", outPath, err)
	}
	if hadErrors {
		return fmt.Errorf("uhdm2rtlil: translation reported errors, see diagnostics above")
	}
	return nil
}
