package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inputmacro/internal/macro"
	"inputmacro/internal/macrofile"
)

var inspectEvents bool

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Summarize a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := macrofile.Load(args[0])
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), args[0], events, inspectEvents)
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectEvents, "events", false, "List every event")
}

func writeSummary(out io.Writer, path string, events []macro.Record, listEvents bool) error {
	s := macrofile.Summarize(events)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", path)
	fmt.Fprintf(tw, "Events:\t%d\n", s.Count)
	fmt.Fprintf(tw, "Duration:\t%s\n", s.Duration)
	for _, t := range macro.EventTypes() {
		if n := s.ByType[t]; n > 0 {
			fmt.Fprintf(tw, "  %s:\t%d\n", t, n)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if listEvents {
		for i, e := range events {
			if _, err := fmt.Fprintf(out, "%5d  %s\n", i, e); err != nil {
				return err
			}
		}
	}
	return nil
}
