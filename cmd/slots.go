package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/planday/core/interval"
	"github.com/kilianp07/planday/core/model"
	"github.com/kilianp07/planday/pkg/export"
)

var slotsOpts struct {
	instance  string
	duration  int
	from      string
	to        string
	gap       int
	conflicts string
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List free slots between the events of an instance",
	RunE:  runSlots,
}

func init() {
	f := slotsCmd.Flags()
	f.StringVar(&slotsOpts.instance, "instance", "", "instance file (.json or .yaml)")
	f.IntVar(&slotsOpts.duration, "duration", 30, "minimum slot length in minutes")
	f.StringVar(&slotsOpts.from, "from", "08:00", "search range start")
	f.StringVar(&slotsOpts.to, "to", "18:00", "search range end")
	f.IntVar(&slotsOpts.gap, "gap", 0, "minutes kept free after each event")
	f.StringVar(&slotsOpts.conflicts, "conflicts", "", "list the events overlapping HH:MM-HH:MM instead")
	_ = slotsCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(slotsCmd)
}

func runSlots(cmd *cobra.Command, _ []string) error {
	inst, err := export.ReadInstance(slotsOpts.instance)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if slotsOpts.conflicts != "" {
		window, err := parseRange(slotsOpts.conflicts)
		if err != nil {
			return err
		}
		for _, iv := range interval.FindConflicts(window, inst.Events) {
			if _, err := fmt.Fprintln(out, iv.String()); err != nil {
				return err
			}
		}
		return nil
	}

	from, err := model.ParseClock(slotsOpts.from)
	if err != nil {
		return err
	}
	to, err := model.ParseClock(slotsOpts.to)
	if err != nil {
		return err
	}
	for _, s := range interval.FindFreeSlots(inst.Events, slotsOpts.duration, from, to, slotsOpts.gap) {
		if _, err := fmt.Fprintf(out, "%s - %s (%d min)\n", s.Start, s.End, s.Duration()); err != nil {
			return err
		}
	}
	return nil
}

func parseRange(s string) (model.Interval, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return model.Interval{}, fmt.Errorf("range %q: want HH:MM-HH:MM", s)
	}
	iv, err := model.Entry{Label: "range", Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}.Interval()
	if err != nil {
		return model.Interval{}, err
	}
	if err := iv.Validate(); err != nil {
		return model.Interval{}, fmt.Errorf("range %q: %w", s, err)
	}
	return iv, nil
}
