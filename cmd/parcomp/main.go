// Command parcomp runs the parallel compressor outside a plugin host.
//
// Usage:
//
//	parcomp render [flags] input.wav output.wav
//	parcomp live [flags]
//	parcomp params [flags]
//	parcomp presets [name]
//
// Parameters start from their defaults and are then overridden, in order,
// by -preset, -state and any number of -set name=value flags.
//
// Examples:
//
//	parcomp render -preset drums loop.wav loop-comp.wav
//	parcomp render -set threshold=-20 -set mixer=50 in.wav out.wav
//	parcomp live -state ~/.parcomp.yaml -http :8080
//	parcomp presets vocals > vocals.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/state"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return errUsage
	}

	switch args[0] {
	case "render":
		return runRender(args[1:])
	case "live":
		return runLive(args[1:])
	case "params":
		return runParams(args[1:], stdout)
	case "presets":
		return runPresets(args[1:], stdout)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage(os.Stderr)
		return errUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: parcomp <command> [flags]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  render   process a WAV file\n")
	fmt.Fprintf(w, "  live     process the default audio device in real time\n")
	fmt.Fprintf(w, "  params   print the resolved parameter values\n")
	fmt.Fprintf(w, "  presets  list factory presets or print one as YAML\n\n")
	fmt.Fprintf(w, "Run 'parcomp <command> -h' for command flags.\n")
}

// paramSets collects repeated -set name=value flags.
type paramSets []paramSet

type paramSet struct {
	name  string
	value float64
}

func (p *paramSets) String() string {
	parts := make([]string, len(*p))
	for i, s := range *p {
		parts[i] = fmt.Sprintf("%s=%g", s.name, s.value)
	}
	return strings.Join(parts, ",")
}

func (p *paramSets) Set(v string) error {
	name, raw, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", v)
	}
	name = strings.TrimSpace(name)
	if _, err := params.Lookup(name); err != nil {
		return err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	*p = append(*p, paramSet{name: name, value: value})
	return nil
}

// commonFlags are shared by every command that builds a parameter store.
type commonFlags struct {
	logLevel  string
	preset    string
	statePath string
	sets      paramSets
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.logLevel, "log-level", "info", "log level (panic|fatal|error|warn|info|debug|trace)")
	fs.StringVar(&c.preset, "preset", "", "factory preset to start from (see 'parcomp presets')")
	fs.StringVar(&c.statePath, "state", "", "YAML state file to load")
	fs.Var(&c.sets, "set", "override a parameter as name=value (repeatable)")
	return c
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	f := cpu.DetectFeatures()
	logrus.WithFields(logrus.Fields{
		"function": "setupLogging",
		"arch":     f.Architecture,
		"sse2":     f.HasSSE2,
		"avx2":     f.HasAVX2,
		"neon":     f.HasNEON,
	}).Debug("CPU features")
	return nil
}

// store builds the parameter store described by the flags. A missing state
// file is not an error when allowMissingState is set; live mode creates it
// on save.
func (c *commonFlags) store(allowMissingState bool) (*params.Store, error) {
	if err := setupLogging(c.logLevel); err != nil {
		return nil, err
	}

	store := params.NewStore()

	if c.preset != "" {
		doc, err := state.Preset(c.preset)
		if err != nil {
			return nil, err
		}
		if _, err := doc.Apply(store); err != nil {
			return nil, err
		}
	}

	if c.statePath != "" {
		_, err := state.LoadFile(c.statePath, store)
		switch {
		case err == nil:
		case allowMissingState && errors.Is(err, os.ErrNotExist):
			logrus.WithFields(logrus.Fields{
				"function": "store",
				"path":     c.statePath,
			}).Info("State file does not exist yet")
		default:
			return nil, err
		}
	}

	for _, s := range c.sets {
		if err := store.SetByName(s.name, s.value); err != nil {
			return nil, err
		}
	}
	return store, nil
}
