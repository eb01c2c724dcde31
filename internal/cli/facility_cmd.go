package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/soyeahso/agentchat/internal/facility"
	"github.com/soyeahso/agentchat/internal/store"
	"github.com/spf13/cobra"
)

func newFacilityCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "facility",
		Short: "Look up hospitals in NPPES and the CMS hospital file",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the full JSON response")

	npiCmd := func(use, short string, op func(*facility.Service) func(context.Context, string) facility.Response) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <npi>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withFacility(cmd, asJSON, func(ctx context.Context, svc *facility.Service) facility.Response {
					return op(svc)(ctx, args[0])
				})
			},
		}
	}

	cmd.AddCommand(npiCmd("type", "Classify a facility by NPI",
		func(s *facility.Service) func(context.Context, string) facility.Response { return s.FacilityType }))
	cmd.AddCommand(npiCmd("related", "Find NPIs registered under the same organization",
		func(s *facility.Service) func(context.Context, string) facility.Response { return s.RelatedNPIs }))
	cmd.AddCommand(npiCmd("profile", "Facility type plus related NPIs",
		func(s *facility.Service) func(context.Context, string) facility.Response { return s.Profile }))
	cmd.AddCommand(newFacilityCCNCmd(&asJSON))
	cmd.AddCommand(newFacilityHistoryCmd())

	return cmd
}

func newFacilityCCNCmd(asJSON *bool) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "ccn <hospital name>",
		Short: "Find CMS Certification Numbers by hospital name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacility(cmd, *asJSON, func(ctx context.Context, svc *facility.Service) facility.Response {
				return svc.CCNByName(ctx, args[0], state)
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "two-letter state filter")
	return cmd
}

func newFacilityHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent facility lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(paths.CacheDB(), log)
			if err != nil {
				return err
			}
			defer db.Close()

			lookups, err := db.RecentLookups(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, l := range lookups {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.CreatedAt, l.Tool, l.Status, l.Query)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of lookups to show")
	return cmd
}

// withFacility builds the facility service from config, runs op and prints
// the result. An error response becomes a non-zero exit.
func withFacility(cmd *cobra.Command, asJSON bool, op func(context.Context, *facility.Service) facility.Response) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(paths.CacheDB(), log)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, closer, err := facility.Open(ctx, cfg.Facility, db, log, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	r := op(ctx, svc)
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	} else if r.OK() {
		fmt.Fprintln(out, r.Report)
	}
	if !r.OK() {
		return errors.New(r.ErrorMessage)
	}
	return nil
}
