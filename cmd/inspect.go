package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/trace"
)

type inspectOptions struct {
	setID   int
	outcome string
	limit   int
}

func newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	inspectCmd := &cobra.Command{
		Use:   "inspect <db>",
		Short: "Print the accesses recorded with --record-db",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	inspectCmd.Flags().IntVar(&opts.setID, "set", -1, "Only show accesses to this set")
	inspectCmd.Flags().StringVar(&opts.outcome, "outcome", "", "Only show accesses with this outcome")
	inspectCmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum number of accesses to show, 0 for all")

	return inspectCmd
}

func inspect(
	ctx context.Context,
	dbName string,
	opts *inspectOptions,
	w io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	filename := dbName
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	reader, err := datarecording.NewReader(filename)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(trace.SummaryTable, trace.SummaryEntry{})
	reader.MapTable(trace.AccessTable, trace.AccessEntry{})

	summaries, _, err := reader.Query(ctx, trace.SummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, s := range summaries {
		e := s.(*trace.SummaryEntry)
		fmt.Fprintf(w, "%s s=%d E=%d b=%d hits:%d misses:%d evictions:%d\n",
			e.Cache, e.SetBits, e.Ways, e.BlockBits,
			e.Hits, e.Misses, e.Evictions)
	}

	params := accessQuery(opts)

	accesses, total, err := reader.Query(ctx, trace.AccessTable, params)
	if err != nil {
		return err
	}

	for _, a := range accesses {
		e := a.(*trace.AccessEntry)
		fmt.Fprintf(w, "%d %s set=%d way=%d tag=%s %s",
			e.Seq, e.Address, e.SetID, e.WayID, e.Tag, e.Outcome)

		if e.EvictedTag != "" {
			fmt.Fprintf(w, " evicted=%s", e.EvictedTag)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "showing %d of %d accesses\n", len(accesses), total)

	return nil
}

func accessQuery(opts *inspectOptions) datarecording.QueryParams {
	var conds []string
	var args []any

	if opts.setID >= 0 {
		conds = append(conds, "SetID = ?")
		args = append(args, opts.setID)
	}

	if opts.outcome != "" {
		conds = append(conds, "Outcome = ?")
		args = append(args, opts.outcome)
	}

	return datarecording.QueryParams{
		Where:   strings.Join(conds, " AND "),
		Args:    args,
		Limit:   opts.limit,
		OrderBy: "Seq",
	}
}
