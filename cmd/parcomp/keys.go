package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/parcomp/effect/params"
	"github.com/cwbudde/parcomp/effect/processor"
	"github.com/cwbudde/parcomp/effect/state"
)

const keyHelp = `  1-7          select parameter
  left/right   previous/next parameter
  up/down +/-  change by 1% of the range
  pgup/pgdn    change by 10% of the range
  d            selected parameter to default
  r            all parameters to default
  p            next factory preset
  s            save state (-state path)
  q, esc       quit
`

const statusInterval = 250 * time.Millisecond

type keyEvent struct {
	char rune
	key  keyboard.Key
}

// controller maps key presses to parameter changes and prints the status
// line. It runs on the control goroutine.
type controller struct {
	store     *params.Store
	statePath string
	out       io.Writer

	selected params.ID
	preset   int

	lastFaults uint64
}

func newController(store *params.Store, statePath string, out io.Writer) *controller {
	return &controller{
		store:     store,
		statePath: statePath,
		out:       out,
		preset:    -1,
	}
}

func (c *controller) run(ctx context.Context, p *processor.Processor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := c.listen(ctx)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			quit, err := c.handleKey(ev.char, ev.key)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "controller.run",
					"error":    err.Error(),
				}).Warn("Key action failed")
			}
			if quit {
				fmt.Fprintln(c.out)
				return nil
			}
		case <-ticker.C:
			c.report(p.Meters(), p.Faults())
		}
	}
}

// listen reads keys until ctx ends. Without a terminal it returns nil and
// the controller only prints status.
func (c *controller) listen(ctx context.Context) <-chan keyEvent {
	if err := keyboard.Open(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "controller.listen",
			"error":    err.Error(),
		}).Warn("Keyboard input disabled")
		return nil
	}

	events := make(chan keyEvent, 16)
	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() { _ = keyboard.Close() })
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() { _ = keyboard.Close() })
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case events <- keyEvent{char: char, key: key}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

// handleKey applies one key press. It reports whether the user asked to
// quit.
func (c *controller) handleKey(char rune, key keyboard.Key) (bool, error) {
	switch {
	case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
		return true, nil
	case char >= '1' && char < '1'+rune(params.Count):
		c.selected = params.ID(char - '1')
	case key == keyboard.KeyArrowRight || key == keyboard.KeyTab:
		c.selected = (c.selected + 1) % params.Count
	case key == keyboard.KeyArrowLeft:
		c.selected = (c.selected + params.Count - 1) % params.Count
	case key == keyboard.KeyArrowUp || char == '+' || char == '=':
		return false, c.nudge(0.01)
	case key == keyboard.KeyArrowDown || char == '-':
		return false, c.nudge(-0.01)
	case key == keyboard.KeyPgup:
		return false, c.nudge(0.1)
	case key == keyboard.KeyPgdn:
		return false, c.nudge(-0.1)
	case char == 'd':
		d, err := params.DescriptorOf(c.selected)
		if err != nil {
			return false, err
		}
		return false, c.store.Set(d.ID, d.Default)
	case char == 'r':
		c.store.Reset()
	case char == 'p':
		return false, c.nextPreset()
	case char == 's':
		return false, c.save()
	}
	return false, nil
}

// nudge moves the selected parameter by fraction of its range.
func (c *controller) nudge(fraction float64) error {
	d, err := params.DescriptorOf(c.selected)
	if err != nil {
		return err
	}
	return c.store.Set(d.ID, c.store.Get(d.ID)+fraction*(d.Max-d.Min))
}

func (c *controller) nextPreset() error {
	names := state.PresetNames()
	c.preset = (c.preset + 1) % len(names)

	doc, err := state.Preset(names[c.preset])
	if err != nil {
		return err
	}
	_, err = doc.Apply(c.store)
	return err
}

func (c *controller) save() error {
	if c.statePath == "" {
		return fmt.Errorf("no -state path to save to")
	}
	return state.SaveFile(c.statePath, "live", c.store)
}

// statusLine renders the selected parameter and the meters.
func (c *controller) statusLine(m processor.Meters) string {
	d, _ := params.DescriptorOf(c.selected)
	return fmt.Sprintf("[%d] %-11s %-9s | in %6.1f dB  out %6.1f dB  gr %5.1f dB",
		int(c.selected)+1, d.Name, d.Format(c.store.Get(d.ID)),
		m.InputPeakDB, m.OutputPeakDB, m.GainReductionDB)
}

func (c *controller) report(m processor.Meters, f processor.Faults) {
	fmt.Fprintf(c.out, "\r%s", c.statusLine(m))

	if total := f.Total(); total > c.lastFaults {
		c.lastFaults = total
		logrus.WithFields(logrus.Fields{
			"function":          "controller.report",
			"not_prepared":      f.NotPrepared,
			"layout_mismatches": f.LayoutMismatches,
			"parameter_rejects": f.ParameterRejects,
			"mixer_violations":  f.MixerViolations,
			"visualizer_panics": f.VisualizerPanics,
		}).Warn("Audio path faults")
	}
}
