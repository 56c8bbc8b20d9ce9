package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/culture-center/internal/center"
)

const dateLayout = "2006-01-02"

func (c *cli) campaignsCommand() *cobra.Command {
	campaigns := &cobra.Command{
		Use:   "campaigns",
		Short: "Browse and manage campaigns",
	}
	campaigns.AddCommand(
		c.campaignsListCommand(),
		c.campaignsShowCommand(),
		c.campaignsCreateCommand(),
		c.campaignsEditCommand(),
		c.campaignsDeleteCommand(),
	)
	return campaigns
}

func (c *cli) campaignsListCommand() *cobra.Command {
	var status, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.app.campaigns.List(cmd.Context())
			if err != nil {
				return err
			}
			matched := center.FilterCampaigns(list, center.CampaignStatus(status), query)
			views := make([]campaignView, 0, len(matched))
			for _, campaign := range matched {
				views = append(views, campaignViewOf(campaign, false))
			}
			return writeYAML(c.out, views)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only show campaigns in this status (draft, active, closed, cancelled)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "keyword matched against title, description and target audience")
	return cmd
}

// campaignsShowCommand loads the campaign and the caller's applications
// concurrently, then shows the application form or the reason it is hidden.
func (c *cli) campaignsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <campaign-id>",
		Short: "Show a campaign and whether you can apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := c.app.session.Snapshot()

			var campaign center.Campaign
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				campaign, err = c.app.campaigns.Select(ctx, args[0])
				return err
			})
			if session.IsAuthenticated() && !session.IsAdmin() {
				g.Go(func() error {
					_, err := c.app.applications.ListMine(ctx)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			view := campaignDetailView{campaignView: campaignViewOf(campaign, true)}
			eligibility := center.Decide(session, campaign, c.app.applications.Mine())
			if eligibility == center.EligibilityEligible {
				for _, field := range campaign.Form(nil) {
					view.Form = append(view.Form, field.Name)
				}
			} else {
				view.Notice = eligibility.Notice()
			}
			return writeYAML(c.out, view)
		},
	}
}

type campaignFlags struct {
	title       string
	description string
	audience    string
	maxPeople   int
	start       string
	end         string
	fields      string
	status      string
}

func (f *campaignFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "campaign title")
	cmd.Flags().StringVar(&f.description, "description", "", "campaign description")
	cmd.Flags().StringVar(&f.audience, "audience", "", "target audience")
	cmd.Flags().IntVar(&f.maxPeople, "max", 0, "maximum participants")
	cmd.Flags().StringVar(&f.start, "start", "", "first day of the campaign (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day of the campaign (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.fields, "fields", "", "comma separated application fields")
	cmd.Flags().StringVar(&f.status, "status", "", "draft, active, closed or cancelled")
}

func parseDate(flag, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s 날짜 형식이 올바르지 않습니다 (YYYY-MM-DD): %q", flag, value)
	}
	return t, nil
}

func (c *cli) campaignsCreateCommand() *cobra.Command {
	var flags campaignFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a campaign (administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.requireScreen(center.ScreenCreateCampaign)
			if err != nil {
				return err
			}
			start, err := parseDate("start", flags.start)
			if err != nil {
				return err
			}
			end, err := parseDate("end", flags.end)
			if err != nil {
				return err
			}

			campaign, err := c.app.campaigns.Create(cmd.Context(), center.CreateCampaignParams{
				Principal: session.Principal(),
				Input: center.CampaignInput{
					Title:           flags.title,
					Description:     flags.description,
					TargetAudience:  flags.audience,
					MaxParticipants: flags.maxPeople,
					StartDate:       start,
					EndDate:         end,
					RequiredFields:  center.ParseRequiredFields(flags.fields),
					Status:          center.CampaignStatus(flags.status),
				},
			})
			if err != nil {
				return err
			}
			return writeYAML(c.out, campaignViewOf(campaign, true))
		},
	}
	flags.bind(cmd)
	return cmd
}

func (c *cli) campaignsEditCommand() *cobra.Command {
	var flags campaignFlags
	cmd := &cobra.Command{
		Use:   "edit <campaign-id>",
		Short: "Change fields or the status of a campaign (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.requireScreen(center.ScreenAdminCampaigns)
			if err != nil {
				return err
			}
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			if _, err := c.app.campaigns.List(cmd.Context()); err != nil {
				return err
			}

			campaign, err := c.app.campaigns.Update(cmd.Context(), center.UpdateCampaignParams{
				Principal:  session.Principal(),
				CampaignID: args[0],
				Patch:      patch,
			})
			if err != nil {
				return err
			}
			return writeYAML(c.out, campaignViewOf(campaign, true))
		},
	}
	flags.bind(cmd)
	return cmd
}

// patch keeps only the flags given on the command line.
func (f *campaignFlags) patch(cmd *cobra.Command) (center.CampaignPatch, error) {
	var patch center.CampaignPatch
	changed := cmd.Flags().Changed

	if changed("title") {
		patch.Title = &f.title
	}
	if changed("description") {
		patch.Description = &f.description
	}
	if changed("audience") {
		patch.TargetAudience = &f.audience
	}
	if changed("max") {
		patch.MaxParticipants = &f.maxPeople
	}
	if changed("start") {
		start, err := parseDate("start", f.start)
		if err != nil {
			return patch, err
		}
		patch.StartDate = &start
	}
	if changed("end") {
		end, err := parseDate("end", f.end)
		if err != nil {
			return patch, err
		}
		patch.EndDate = &end
	}
	if changed("fields") {
		patch.RequiredFields = center.ParseRequiredFields(f.fields)
	}
	if changed("status") {
		status := center.CampaignStatus(f.status)
		patch.Status = &status
	}
	return patch, nil
}

func (c *cli) campaignsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <campaign-id>",
		Short: "Delete a campaign without applications (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := c.requireScreen(center.ScreenAdminCampaigns)
			if err != nil {
				return err
			}
			if err := c.app.campaigns.Delete(cmd.Context(), session.Principal(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted: %s\n", args[0])
			return nil
		},
	}
}
