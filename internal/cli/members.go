package cli

import (
	"github.com/spf13/cobra"

	"modhub/internal/model"
)

func newMembersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage workspace members",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the workspace's members",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsID, err := requireWorkspace(app)
			if err != nil {
				return err
			}
			out, err := app.client().ListMembers(cmd.Context(), wsID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	var (
		email string
		role  string
	)
	invite := &cobra.Command{
		Use:   "invite <name>",
		Short: "Invite a member (prints the invite token)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wsID, err := requireWorkspace(app)
			if err != nil {
				return err
			}
			m, err := app.client().InviteMember(cmd.Context(), wsID, args[0], email, model.MemberRole(role))
			if err != nil {
				return err
			}
			return writeOut(cmd, app, m)
		},
	}
	invite.Flags().StringVar(&email, "email", "", "Member email")
	invite.Flags().StringVar(&role, "role", string(model.MemberRoleViewer), "Role (owner|editor|viewer)")

	rm := &cobra.Command{
		Use:   "rm <member-id>",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.client().RemoveMember(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, invite, rm)
	return cmd
}
