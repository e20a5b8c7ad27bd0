package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iqtestim/iqadmin/internal/cli/client"
	"github.com/iqtestim/iqadmin/internal/cli/tokenstore"
)

// NewListCmd creates the ls command with a subcommand per resource
func NewListCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List platform resources",
	}

	cmd.PersistentFlags().StringVar(&serverAlias, "server", "", "Server alias (uses selected server if not specified)")

	resources := []struct {
		use   string
		short string
		run   func(*client.Client, io.Writer) error
	}{
		{"users", "List user accounts", renderUsers},
		{"categories", "List categories", renderCategories},
		{"questions", "List questions", renderQuestions},
		{"tests", "List tests", renderTests},
		{"plans", "List subscription plans", renderPlans},
		{"subscriptions", "List subscriptions", renderSubscriptions},
		{"blog", "List blog posts", renderBlogPosts},
		{"pages", "List pages", renderPages},
		{"campaigns", "List marketing campaigns", renderCampaigns},
		{"pixels", "List tracking pixels", renderPixels},
		{"notifications", "List notifications", renderNotifications},
		{"activities", "List recent admin activities", renderActivities},
	}

	for _, resource := range resources {
		run := resource.run
		cmd.AddCommand(&cobra.Command{
			Use:   resource.use,
			Short: resource.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runList(serverAlias, tokenstore.Default, os.Stdout, run)
			},
		})
	}

	return cmd
}

func runList(serverAlias string, tokens tokenstore.Store, out io.Writer, render func(*client.Client, io.Writer) error) error {
	env, err := openSession(serverAlias, tokens)
	if err != nil {
		return err
	}

	if _, err := env.guard.Ensure(context.Background()); err != nil {
		return err
	}

	return render(env.client, out)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func renderUsers(c *client.Client, out io.Writer) error {
	users, err := c.Users("")
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tVERIFIED")
	for _, user := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", user.Name, user.Email, user.Role, user.EmailVerified)
	}
	return w.Flush()
}

func renderCategories(c *client.Client, out io.Writer) error {
	categories, err := c.Categories()
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(out, "No categories found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "NAME\tCOLOR\tACTIVE")
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\t%t\n", category.Name, category.Color, category.IsActive)
	}
	return w.Flush()
}

func renderQuestions(c *client.Client, out io.Writer) error {
	questions, err := c.Questions()
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		fmt.Fprintln(out, "No questions found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "QUESTION\tCATEGORY\tDIFFICULTY\tPOINTS")
	for _, question := range questions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			truncate(question.Text, 60), question.Category.Name, question.Difficulty, question.Points)
	}
	return w.Flush()
}

func renderTests(c *client.Client, out io.Writer) error {
	tests, err := c.Tests()
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		fmt.Fprintln(out, "No tests found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "TITLE\tCATEGORY\tDIFFICULTY\tACTIVE\tPARTICIPANTS\tRATING")
	for _, test := range tests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%.1f\n",
			test.Title, test.Category.Name, test.Difficulty, test.IsActive, test.Participants, test.Rating)
	}
	return w.Flush()
}

func renderPlans(c *client.Client, out io.Writer) error {
	plans, err := c.Plans()
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(out, "No plans found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "NAME\tPRICE\tDURATION\tACTIVE")
	for _, plan := range plans {
		fmt.Fprintf(w, "%s\t%.2f %s\t%dd\t%t\n", plan.Name, plan.Price, plan.Currency, plan.DurationDays, plan.IsActive)
	}
	return w.Flush()
}

func renderSubscriptions(c *client.Client, out io.Writer) error {
	subs, err := c.Subscriptions()
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Fprintln(out, "No subscriptions found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "USER\tPLAN\tSTATUS\tENDS")
	for _, sub := range subs {
		userEmail, planName := "-", "-"
		if sub.User != nil {
			userEmail = sub.User.Email
		}
		if sub.Plan != nil {
			planName = sub.Plan.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", userEmail, planName, sub.Status, sub.EndsAt)
	}
	return w.Flush()
}

func renderBlogPosts(c *client.Client, out io.Writer) error {
	posts, err := c.BlogPosts()
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintln(out, "No blog posts found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "TITLE\tLANGUAGE\tPUBLISHED\tVIEWS")
	for _, post := range posts {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", truncate(post.Title, 60), post.Language, post.IsPublished, post.Views)
	}
	return w.Flush()
}

func renderPages(c *client.Client, out io.Writer) error {
	pages, err := c.Pages()
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(out, "No pages found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "TITLE\tSLUG\tPUBLISHED")
	for _, page := range pages {
		fmt.Fprintf(w, "%s\t%s\t%t\n", page.Title, page.Slug, page.IsPublished)
	}
	return w.Flush()
}

func renderCampaigns(c *client.Client, out io.Writer) error {
	campaigns, err := c.Campaigns()
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		fmt.Fprintln(out, "No campaigns found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "NAME\tTYPE\tSTATUS\tBUDGET\tCONVERSIONS")
	for _, campaign := range campaigns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n",
			campaign.Name, campaign.Type, campaign.Status, campaign.BudgetAmount, campaign.Conversions)
	}
	return w.Flush()
}

func renderPixels(c *client.Client, out io.Writer) error {
	pixels, err := c.Pixels()
	if err != nil {
		return err
	}
	if len(pixels) == 0 {
		fmt.Fprintln(out, "No pixels found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "NAME\tTYPE\tPIXEL ID\tSTATUS")
	for _, pixel := range pixels {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pixel.Name, pixel.Type, pixel.PixelID, pixel.Status)
	}
	return w.Flush()
}

func renderNotifications(c *client.Client, out io.Writer) error {
	notifications, err := c.Notifications()
	if err != nil {
		return err
	}
	if len(notifications) == 0 {
		fmt.Fprintln(out, "No notifications found.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "TITLE\tTYPE\tRECIPIENTS\tSENT")
	for _, notification := range notifications {
		sent := "no"
		if notification.IsSent {
			sent = notification.SentAt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncate(notification.Title, 50), notification.Type, notification.Recipients, sent)
	}
	return w.Flush()
}

func renderActivities(c *client.Client, out io.Writer) error {
	activities, err := c.Activities(50)
	if err != nil {
		return err
	}
	if len(activities) == 0 {
		fmt.Fprintln(out, "No admin activities recorded.")
		return nil
	}

	w := newTable(out)
	fmt.Fprintln(w, "WHEN\tACTOR\tACTION\tRESOURCE\tSTATUS")
	for _, activity := range activities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			activity.CreatedAt, activity.ActorEmail, activity.Action, activity.Resource, activity.Status)
	}
	return w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
