package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/state"
)

func runParams(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := common.store(false)
	if err != nil {
		return err
	}
	return printParams(stdout, store)
}

func printParams(w io.Writer, store *params.Store) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "NAME\tVALUE\tDISPLAY\tRANGE\tDEFAULT"); err != nil {
		return err
	}
	for _, d := range params.Descriptors() {
		v := store.Get(d.ID)
		if _, err := fmt.Fprintf(tw, "%s\t%g\t%s\t%g..%g %s\t%g\n",
			d.Name, v, d.Format(v), d.Min, d.Max, d.Unit, d.Default); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runPresets(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("presets", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		for _, name := range state.PresetNames() {
			if _, err := fmt.Fprintln(stdout, name); err != nil {
				return err
			}
		}
		return nil
	}

	doc, err := state.Preset(fs.Arg(0))
	if err != nil {
		return err
	}
	return state.Encode(stdout, doc)
}
