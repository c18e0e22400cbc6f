package main

import (
	"context"

	"github.com/spf13/cobra"
)

func InvitesCmd() *cobra.Command {
	invitesCmd := &cobra.Command{
		Use:   "invites",
		Short: "Service invitations",
	}

	var serviceID string
	invitesCmd.PersistentFlags().StringVar(&serviceID, "service-id", "", "Service the invitations belong to")
	_ = invitesCmd.MarkPersistentFlagRequired("service-id")

	invitesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List invitations for a service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				invites, err := svc.Invites.ListForService(ctx, serviceID)
				if err != nil {
					return err
				}
				return printJSON(invites)
			})
		},
	})

	invitesCmd.AddCommand(&cobra.Command{
		Use:   "cancel <invite-id>",
		Short: "Cancel a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				invite, err := svc.Invites.Cancel(ctx, serviceID, args[0])
				if err != nil {
					return err
				}
				return printJSON(invite)
			})
		},
	})

	return invitesCmd
}
