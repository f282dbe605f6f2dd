package main

import (
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/repositories"
)

func jobsCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "jobs [dataset]",
		Short: "Show the latest job per dataset, or one dataset's history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !slices.Contains(models.AllDatasets(), models.DatasetType(args[0])) {
				return fmt.Errorf("unknown dataset %q", args[0])
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var jobs []models.SyncJob
			if len(args) == 0 {
				jobs, err = repositories.LatestJobs(cmd.Context(), db)
			} else {
				jobs, err = repositories.JobHistory(cmd.Context(), db, models.DatasetType(args[0]), limit)
			}
			if err != nil {
				return err
			}

			if asJSON {
				if jobs == nil {
					jobs = []models.SyncJob{}
				}
				out, err := json.MarshalIndent(jobs, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATASET\tSTATUS\tSTARTED\tSEEN\tCREATED\tUPDATED\tFAILED\tERROR")
			for _, j := range jobs {
				errMsg := ""
				if j.ErrorMessage != nil {
					errMsg = *j.ErrorMessage
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					j.ID, j.DatasetType, j.Status, j.StartedAt.Format(time.RFC3339),
					j.RecordsSeen, j.RecordsCreated, j.RecordsUpdated, j.RecordsFailed, errMsg)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum jobs shown for one dataset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print jobs as JSON")
	return cmd
}
