package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the stored customer profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := c.app.Profiles.Status(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), profile)
		},
	}
}

func newSetProfileCmd(c *cli) *cobra.Command {
	var (
		businessType string
		plan         int
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Overwrite business type and plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Profiles.SetProfile(cmd.Context(), &businessType, &plan); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s, plan %d\n", businessType, plan)
			return nil
		},
	}
	cmd.Flags().StringVar(&businessType, "business-type", "", "business classification, e.g. bar")
	cmd.Flags().IntVar(&plan, "plan", 0, "plan tier (29, 69 or 159)")
	_ = cmd.MarkFlagRequired("business-type")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func newProfileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <description>",
		Short: "Classify the business with the language model and store the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suggestion, err := c.app.Profiler.Profile(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), suggestion)
		},
	}
}

func newCreateClientCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "create-client",
		Short: "Register the profile with the orchestrator (orchestrator backend)",
		Long:  "Registers a new orchestrator client and marks the payment as paid. Running it twice registers two clients.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Provisioner.CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			if res.ClientID != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (client_id: %s)\n", res.Reply, res.ClientID)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Reply)
			return nil
		},
	}
}

func newCreateStationCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "create-station",
		Short: "Provision one more station if the plan allows it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Provisioner.Provision(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !res.StationID.IsZero() && res.ShortName != "":
				_, _ = fmt.Fprintf(out, "%s (station_id: %s, short_name: %s)\n", res.Reply, res.StationID, res.ShortName)
			case !res.StationID.IsZero():
				_, _ = fmt.Fprintf(out, "%s (station_id: %s)\n", res.Reply, res.StationID)
			case res.Limit > 0 || res.Existing > 0:
				_, _ = fmt.Fprintf(out, "%s (%d/%d)\n", res.Reply, res.Existing, res.Limit)
			default:
				_, _ = fmt.Fprintln(out, res.Reply)
			}
			return nil
		},
	}
}

func newStationsCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List the backend's stations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stations, err := c.app.Provisioner.Stations(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stations)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSHORT NAME\tNAME\tENABLED")
			for _, s := range stations {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", s.Ref(), s.ShortName, s.Name, s.IsEnabled)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw backend listing")

	return cmd
}

func newToggleCmd(c *cli, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <station-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a station (direct backend)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid station id %q", args[0])
			}
			if err := c.app.Provisioner.SetStationEnabled(cmd.Context(), id, enabled); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Station %d %sd\n", id, verb)
			return nil
		},
	}
}
