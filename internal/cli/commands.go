package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/plugins/auth"
	"github.com/keyxmakerx/mailroom/internal/plugins/campaigns"
	"github.com/keyxmakerx/mailroom/internal/plugins/contacts"
	"github.com/keyxmakerx/mailroom/internal/plugins/sendmail"
)

// --- campaigns ---

func (r *root) campaignsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "campaigns", Short: "List, execute and delete campaigns"}

	var q campaigns.ListQuery
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Status = backend.Status(status)
			page, err := r.svc.campaigns.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, c := range page.Items {
				scheduled := "-"
				if c.ScheduledDate != nil {
					scheduled = c.ScheduledDate.String()
				}
				rows = append(rows, []string{
					c.ID, c.Name, string(c.Status), scheduled,
					strconv.Itoa(c.Stats.Sent), strconv.Itoa(c.Stats.Opened),
				})
			}
			out := cmd.OutOrStdout()
			if err := table(out, []string{"ID", "NAME", "STATUS", "SCHEDULED", "SENT", "OPENED"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "page %d of %d (%s total)\n", page.Page, max(page.TotalPages, 1), humanize.Comma(int64(page.Total)))
			return nil
		},
	}
	list.Flags().IntVar(&q.Page, "page", 1, "page number")
	list.Flags().StringVar(&status, "status", "", "only campaigns with this status")
	list.Flags().StringVar(&q.Search, "search", "", "name filter")

	execute := &cobra.Command{
		Use:   "execute <id>",
		Short: "Send a campaign now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := r.svc.campaigns.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = "Campaign executed"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.svc.campaigns.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted campaign %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, execute, del)
	return cmd
}

// --- templates ---

func (r *root) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "templates", Short: "Inspect email templates"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := r.svc.templates.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				rows = append(rows, []string{t.ID, t.Name, dash(t.Category), t.Subject, dash(strings.Join(t.Variables, ","))})
			}
			return table(cmd.OutOrStdout(), []string{"ID", "NAME", "CATEGORY", "SUBJECT", "VARIABLES"}, rows)
		},
	})
	return cmd
}

// --- contacts ---

func (r *root) contactsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "contacts", Short: "List and import contacts"}

	var q contacts.ListQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := r.svc.contacts.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, c := range page.Items {
				rows = append(rows, []string{c.ID, c.Email, dash(c.Name), dash(c.Organization), dash(strings.Join(c.Tags, ","))})
			}
			out := cmd.OutOrStdout()
			if err := table(out, []string{"ID", "EMAIL", "NAME", "ORGANIZATION", "TAGS"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "page %d of %d (%s total)\n", page.Page, max(page.TotalPages, 1), humanize.Comma(int64(page.Total)))
			return nil
		},
	}
	list.Flags().IntVar(&q.Page, "page", 1, "page number")
	list.Flags().StringVar(&q.Search, "search", "", "name or email filter")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Upload a CSV or spreadsheet of contacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			started := false
			report := func(percent int) {
				started = true
				fmt.Fprintf(errOut, "\ruploading %s: %d%%", humanize.IBytes(uint64(info.Size())), percent)
			}
			summary, err := r.svc.contacts.Import(cmd.Context(), filepath.Base(args[0]), info.Size(), f, report)
			if started {
				if err == nil {
					report(100)
				}
				fmt.Fprintln(errOut)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary.Message)
			if summary.Result != nil {
				for _, e := range summary.Result.Errors {
					fmt.Fprintf(errOut, "row %d %s: %s\n", e.Row, dash(e.Email), e.Message)
				}
			}
			return nil
		},
	}

	cmd.AddCommand(list, imp)
	return cmd
}

// --- send ---

func (r *root) sendCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "send", Short: "Send a template without a campaign"}

	var single sendmail.SingleForm
	var singleVars []string
	one := &cobra.Command{
		Use:   "single",
		Short: "Send a template to one address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			single.VarKeys, single.VarValues = splitVars(singleVars)
			in, err := r.svc.send.PrepareSingle(&single)
			if err != nil {
				return err
			}
			outcome, err := r.svc.send.SendSingle(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			return nil
		},
	}
	one.Flags().StringVar(&single.TemplateID, "template", "", "template id")
	one.Flags().StringVar(&single.Email, "email", "", "recipient address")
	one.Flags().StringArrayVar(&singleVars, "var", nil, "custom variable as key=value (repeatable)")

	var bulk sendmail.BulkForm
	var bulkVars []string
	many := &cobra.Command{
		Use:   "bulk",
		Short: "Send a template to contacts from the address book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bulk.VarKeys, bulk.VarValues = splitVars(bulkVars)
			in, err := r.svc.send.PrepareBulk(cmd.Context(), &bulk)
			if err != nil {
				return err
			}
			outcome, err := r.svc.send.SendBulk(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			if outcome.Warning {
				return errPartialSend
			}
			return nil
		},
	}
	many.Flags().StringVar(&bulk.TemplateID, "template", "", "template id")
	many.Flags().StringArrayVar(&bulk.Recipients, "to", nil, "contact address (repeatable)")
	many.Flags().BoolVar(&bulk.SelectAll, "all", false, "send to every contact")
	many.Flags().StringArrayVar(&bulkVars, "var", nil, "custom variable as key=value (repeatable)")

	cmd.AddCommand(one, many)
	return cmd
}

// errPartialSend makes a bulk send with failed recipients exit non-zero.
var errPartialSend = errors.New("some recipients failed")

// splitVars turns key=value flags into the editor's parallel key and value
// rows. A flag without "=" is a key with an empty value, which is dropped.
func splitVars(vars []string) (keys, values []string) {
	for _, v := range vars {
		k, val, _ := strings.Cut(v, "=")
		keys = append(keys, k)
		values = append(values, val)
	}
	return keys, values
}

// --- hash-password ---

func hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print an OPERATOR_PASSWORD_HASH value",
		Long:  "Hashes the password given as an argument, or the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		// Needs no backend.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password is empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
