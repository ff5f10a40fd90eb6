package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/client"
	"github.com/MKhiriev/go-chat-keeper/internal/service"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/spf13/cobra"
)

var (
	sendNew         bool
	sendAttachments []string
	keepPartial     bool
)

func init() {
	sendCmd.Flags().BoolVarP(&sendNew, "new", "n", false, "Start a new conversation; the first argument is the message")
	sendCmd.Flags().StringSliceVarP(&sendAttachments, "attach", "a", nil, "Attach a file path or an http(s) URL (repeatable)")
	for _, cmd := range []*cobra.Command{sendCmd, retryCmd, editCmd} {
		cmd.Flags().BoolVar(&keepPartial, "keep-partial", false, "Keep the partial reply when interrupted")
	}

	profilesCmd.AddCommand(profilesListCmd, profilesSealCmd)
}

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create an empty conversation",
	Args:  cobra.MaximumNArgs(1),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		var title string
		if len(args) == 1 {
			title = args[0]
		}
		c, err := app.Session().NewConversation(ctx, title)
		if err != nil {
			return err
		}
		fmt.Println(c.ID)
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List conversations, most recently updated first",
	Args:    cobra.NoArgs,
	RunE: runWithApp(func(_ context.Context, app *client.App, _ []string) error {
		printConversations(app.Session().Conversations())
		return nil
	}),
}

var showCmd = &cobra.Command{
	Use:   "show <conversation>",
	Short: "Print every message of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: runWithApp(func(_ context.Context, app *client.App, args []string) error {
		id, err := app.ResolveConversation(args[0])
		if err != nil {
			return err
		}
		c, _ := app.Session().Conversation(id)
		printMessages(os.Stdout, c)
		return nil
	}),
}

var sendCmd = &cobra.Command{
	Use:   "send [conversation] <message>",
	Short: "Send a message and stream the reply",
	Args:  cobra.RangeArgs(1, 2),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		profile, err := app.Profile(profileFlag())
		if err != nil {
			return err
		}

		var conversationID, content string
		switch {
		case sendNew && len(args) == 1:
			c, err := app.Session().NewConversation(ctx, "")
			if err != nil {
				return err
			}
			conversationID, content = c.ID, args[0]
		case !sendNew && len(args) == 2:
			if conversationID, err = app.ResolveConversation(args[0]); err != nil {
				return err
			}
			content = args[1]
		default:
			return errors.New("pass a conversation and a message, or --new and a message")
		}

		opts := service.SendOptions{KeepPartial: keepPartial, Handler: app.StreamHandler()}
		for _, ref := range sendAttachments {
			a, err := client.LoadAttachment(ref)
			if err != nil {
				return err
			}
			opts.Attachments = append(opts.Attachments, a)
		}

		_, err = app.Session().Send(ctx, conversationID, profile, content, opts)
		return streamResult(err)
	}),
}

var retryCmd = &cobra.Command{
	Use:   "retry <conversation>",
	Short: "Ask again for the reply to the last user message",
	Args:  cobra.ExactArgs(1),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		profile, err := app.Profile(profileFlag())
		if err != nil {
			return err
		}
		id, err := app.ResolveConversation(args[0])
		if err != nil {
			return err
		}

		opts := service.SendOptions{KeepPartial: keepPartial, Handler: app.StreamHandler()}
		_, err = app.Session().Retry(ctx, id, profile, opts)
		return streamResult(err)
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit <conversation> <message-id> <content>",
	Short: "Replace a user message and regenerate the reply",
	Args:  cobra.ExactArgs(3),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		profile, err := app.Profile(profileFlag())
		if err != nil {
			return err
		}
		id, err := app.ResolveConversation(args[0])
		if err != nil {
			return err
		}

		opts := service.SendOptions{KeepPartial: keepPartial, Handler: app.StreamHandler()}
		_, err = app.Session().Edit(ctx, id, args[1], profile, args[2], opts)
		return streamResult(err)
	}),
}

var branchCmd = &cobra.Command{
	Use:   "branch <conversation> <message-id>",
	Short: "Copy a conversation up to a message into a new one",
	Args:  cobra.ExactArgs(2),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		id, err := app.ResolveConversation(args[0])
		if err != nil {
			return err
		}
		c, err := app.Session().Branch(ctx, id, args[1])
		if err != nil {
			return err
		}
		fmt.Println(c.ID)
		return nil
	}),
}

var renameCmd = &cobra.Command{
	Use:   "rename <conversation> <title>",
	Short: "Change the title of a conversation",
	Args:  cobra.ExactArgs(2),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		id, err := app.ResolveConversation(args[0])
		if err != nil {
			return err
		}
		return app.Session().Rename(ctx, id, args[1])
	}),
}

var deleteCmd = &cobra.Command{
	Use:     "delete <conversation>",
	Aliases: []string{"rm"},
	Short:   "Delete a conversation locally and on the remote store",
	Args:    cobra.ExactArgs(1),
	RunE: runWithApp(func(ctx context.Context, app *client.App, args []string) error {
		id, err := app.ResolveConversation(args[0])
		if err != nil {
			return err
		}
		return app.Session().Delete(ctx, id)
	}),
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local replica with the remote store",
	Args:  cobra.NoArgs,
	RunE: runWithApp(func(ctx context.Context, app *client.App, _ []string) error {
		report, err := app.Session().Reconcile(ctx)
		if err != nil {
			return err
		}
		fmt.Println(report.String())
		if len(report.Skipped) > 0 {
			fmt.Printf("skipped: %s\n", strings.Join(report.Skipped, ", "))
		}
		return nil
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep probing the remote store and syncing until interrupted",
	Args:  cobra.NoArgs,
	RunE: runWithApp(func(ctx context.Context, app *client.App, _ []string) error {
		return app.Run(ctx)
	}),
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect backend profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured backend profiles",
	Args:  cobra.NoArgs,
	RunE: runWithApp(func(_ context.Context, app *client.App, _ []string) error {
		profiles, err := app.Profiles()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFAMILY\tMODEL\tMULTIMODAL\tDEFAULT")
		for _, p := range profiles.List {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n", p.ID, p.Family, p.Model, p.Multimodal, p.ID == profiles.Default)
		}
		return w.Flush()
	}),
}

var profilesSealCmd = &cobra.Command{
	Use:   "seal <credential>",
	Short: "Encrypt a credential with the vault key for the profiles file",
	Args:  cobra.ExactArgs(1),
	RunE: runWithApp(func(_ context.Context, app *client.App, args []string) error {
		sealed, err := app.Seal(args[0])
		if err != nil {
			return err
		}
		fmt.Println(sealed)
		return nil
	}),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printBuildInfo(cmd)
	},
}

func profileFlag() string {
	return overrides.Chat.Profile
}

// errReported marks a failure the stream handler has already printed.
var errReported = errors.New("reported")

func streamResult(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrSendAborted):
		fmt.Fprintln(os.Stderr, "interrupted")
		return nil
	case errors.Is(err, service.ErrSendFailed):
		return fmt.Errorf("%w: %w", errReported, err)
	default:
		return err
	}
}

func printConversations(list []models.Conversation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tUPDATED\tSAVED")
	for _, c := range list {
		title := c.Title
		if title == "" {
			title = service.FallbackTitle(c.Messages)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\n", c.ID, title, len(c.Messages), c.UpdatedAt.Local().Format(time.DateTime), c.IsSaved)
	}
	_ = w.Flush()
}

func printMessages(w io.Writer, c models.Conversation) {
	fmt.Fprintf(w, "# %s\n\n", c.Title)
	for _, m := range c.Messages {
		who := string(m.Role)
		if m.Role == models.RoleAssistant && m.ModelName != "" {
			who = m.ModelName
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n%s\n", m.ID, who, m.Timestamp.Local().Format(time.DateTime), m.Content)
		for _, a := range m.Attachments {
			name := a.FileName
			if name == "" {
				name = a.URL
			}
			fmt.Fprintf(w, "  + %s %s\n", a.Type, name)
		}
		fmt.Fprintln(w)
	}
}
