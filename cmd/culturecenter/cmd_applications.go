package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/culture-center/internal/center"
)

func (c *cli) applyCommand() *cobra.Command {
	var values []string
	cmd := &cobra.Command{
		Use:   "apply <campaign-id>",
		Short: "Submit an application with one --field name=value per required field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireSession(); err != nil {
				return err
			}
			fields, err := parseFieldValues(values)
			if err != nil {
				return err
			}

			campaign, err := c.app.campaigns.Select(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !c.app.session.Snapshot().IsAdmin() {
				if _, err := c.app.applications.ListMine(cmd.Context()); err != nil {
					return err
				}
			}

			app, err := c.app.applications.Submit(cmd.Context(), center.SubmitParams{Campaign: campaign, Fields: fields})
			if err != nil {
				return err
			}
			return writeYAML(c.out, applicationViewOf(center.ApplicationSummary{Application: app, CampaignTitle: campaign.Title}))
		},
	}
	cmd.Flags().StringArrayVar(&values, "field", nil, "field value as name=value (repeatable)")
	return cmd
}

func parseFieldValues(values []string) (map[string]string, error) {
	fields := make(map[string]string, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--field 형식이 올바르지 않습니다 (이름=값): %q", raw)
		}
		fields[name] = value
	}
	return fields, nil
}

func (c *cli) applicationsCommand() *cobra.Command {
	applications := &cobra.Command{
		Use:   "applications",
		Short: "Review submitted applications",
	}
	applications.AddCommand(
		c.applicationsMineCommand(),
		c.applicationsListCommand(),
		c.applicationsShowCommand(),
		c.applicationsReviewCommand("approve", center.ApplicationApproved),
		c.applicationsReviewCommand("reject", center.ApplicationRejected),
	)
	return applications
}

func (c *cli) applicationsMineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireScreen(center.ScreenMyApplications); err != nil {
				return err
			}
			mine, err := c.app.applications.ListMine(cmd.Context())
			if err != nil {
				return err
			}

			titles := map[string]string{}
			if len(mine) > 0 {
				list, err := c.app.campaigns.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, campaign := range list {
					titles[campaign.ID] = campaign.Title
				}
			}

			views := make([]applicationView, 0, len(mine))
			for _, app := range mine {
				views = append(views, applicationViewOf(center.ApplicationSummary{Application: app, CampaignTitle: titles[app.CampaignID]}))
			}
			return writeYAML(c.out, views)
		},
	}
}

func (c *cli) applicationsListCommand() *cobra.Command {
	var campaignID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every application (administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireScreen(center.ScreenApplicationList); err != nil {
				return err
			}
			all, err := c.app.applications.ListAll(cmd.Context(), campaignID)
			if err != nil {
				return err
			}
			views := make([]applicationView, 0, len(all))
			for _, app := range all {
				views = append(views, applicationViewOf(app))
			}
			return writeYAML(c.out, views)
		},
	}
	cmd.Flags().StringVar(&campaignID, "campaign", "", "only show applications to this campaign")
	return cmd
}

// applicationsShowCommand shows one application with its campaign. Review
// actions are listed only while the application is pending.
func (c *cli) applicationsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show one application with its campaign (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireScreen(center.ScreenApplicationList); err != nil {
				return err
			}
			app, err := c.app.applications.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			campaign, err := c.app.campaigns.GetByID(cmd.Context(), app.CampaignID)
			if err != nil {
				return err
			}
			return writeYAML(c.out, applicationDetailViewOf(app, campaign))
		},
	}
}

func (c *cli) applicationsReviewCommand(use string, status center.ApplicationStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <application-id>",
		Short: fmt.Sprintf("Mark an application %s (administrators only)", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.requireScreen(center.ScreenApplicationList); err != nil {
				return err
			}
			if err := c.app.applications.SetStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s: %s\n", args[0], status.Label())
			return nil
		},
	}
}
