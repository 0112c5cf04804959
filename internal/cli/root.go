// Package cli is the mailroomctl command tree. Every command goes through
// the same plugin services as the web console, so validation and error
// messages match what an operator sees in the browser.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/plugins/campaigns"
	"github.com/keyxmakerx/mailroom/internal/plugins/contacts"
	"github.com/keyxmakerx/mailroom/internal/plugins/sendmail"
	"github.com/keyxmakerx/mailroom/internal/plugins/templates"
)

// Config carries the defaults for the persistent flags.
type Config struct {
	BackendURL string
	JWTSecret  string
	Operator   string
	PageSize   int
	Limits     contacts.ImportLimits
}

// services are built once the persistent flags are parsed. The list cache
// is nil: a one-shot process has nothing to share it with.
type services struct {
	templates templates.TemplateService
	contacts  contacts.ContactService
	campaigns campaigns.CampaignService
	send      sendmail.SendService
}

type root struct {
	cfg Config
	svc *services
}

// NewRootCommand builds the mailroomctl command tree.
func NewRootCommand(cfg Config) *cobra.Command {
	r := &root{cfg: cfg}

	cmd := &cobra.Command{
		Use:           "mailroomctl",
		Short:         "Script the mailing backend from the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.connect(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&r.cfg.BackendURL, "backend", cfg.BackendURL, "mailing API base URL")
	flags.StringVar(&r.cfg.Operator, "operator", cfg.Operator, "operator email sent as the token subject")
	flags.IntVar(&r.cfg.PageSize, "page-size", cfg.PageSize, "rows per listed page")

	cmd.AddCommand(
		r.campaignsCommand(),
		r.templatesCommand(),
		r.contactsCommand(),
		r.sendCommand(),
		hashPasswordCommand(),
	)
	return cmd
}

func (r *root) connect(cmd *cobra.Command) error {
	client, err := backend.New(r.cfg.BackendURL, backend.WithJWTSecret(r.cfg.JWTSecret))
	if err != nil {
		return err
	}
	if r.cfg.PageSize < 1 {
		r.cfg.PageSize = 10
	}

	tmpl := templates.NewTemplateService(client.Templates, nil)
	cont := contacts.NewContactService(client.Contacts, nil, r.cfg.PageSize, r.cfg.Limits)
	r.svc = &services{
		templates: tmpl,
		contacts:  cont,
		campaigns: campaigns.NewCampaignService(client.Campaigns, r.cfg.PageSize),
		send:      sendmail.NewSendService(tmpl, cont, client.Emails),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(backend.WithOperator(ctx, r.cfg.Operator))
	return nil
}

// ErrorMessage is the one line printed for a failed command. Backend and
// validation errors carry operator-safe messages; anything else (flag
// parsing, missing files) is printed as is.
func ErrorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// table writes tab-separated rows aligned into columns.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// dash renders empty cells visibly.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
