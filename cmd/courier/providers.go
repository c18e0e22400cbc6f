package main

import (
	"context"

	notificationdomain "github.com/smallbiznis/courier/internal/notification/domain"
	providerdomain "github.com/smallbiznis/courier/internal/provider/domain"
	"github.com/spf13/cobra"
)

func ProvidersCmd() *cobra.Command {
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect and fail over delivery providers",
	}

	providersCmd.AddCommand(providersListCmd())
	providersCmd.AddCommand(providersCurrentCmd())
	providersCmd.AddCommand(providersToggleCmd())
	providersCmd.AddCommand(providersSwitchCmd())
	providersCmd.AddCommand(providersUpdateCmd())
	providersCmd.AddCommand(providersHistoryCmd())
	providersCmd.AddCommand(providersStatsCmd())

	return providersCmd
}

func providersListCmd() *cobra.Command {
	var notificationType string
	var international bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers of a channel by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				items, err := svc.Providers.ListByNotificationType(ctx, notificationdomain.NotificationType(notificationType), international)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	cmd.Flags().StringVarP(&notificationType, "type", "t", "sms", "Notification type (sms or email)")
	cmd.Flags().BoolVar(&international, "international", false, "Only providers that send abroad")
	return cmd
}

func providersCurrentCmd() *cobra.Command {
	var notificationType string
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the provider currently used for a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				current, err := svc.Providers.Current(ctx, notificationdomain.NotificationType(notificationType))
				if err != nil {
					return err
				}
				return printJSON(current)
			})
		},
	}
	cmd.Flags().StringVarP(&notificationType, "type", "t", "sms", "Notification type (sms or email)")
	return cmd
}

func providersToggleCmd() *cobra.Command {
	var req providerdomain.ToggleRequest
	var notificationType string
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Fail over from the current provider to the next one",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.NotificationType = notificationdomain.NotificationType(notificationType)
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				result, err := svc.Providers.Toggle(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().StringVarP(&notificationType, "type", "t", "sms", "Notification type (sms or email)")
	cmd.Flags().StringVar(&req.Identifier, "identifier", "", "Identifier of the current provider")
	cmd.Flags().StringVar(&req.ActorID, "actor", "", "User performing the change")
	_ = cmd.MarkFlagRequired("identifier")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func providersSwitchCmd() *cobra.Command {
	var req providerdomain.SwitchRequest
	var notificationType string
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Make a provider the current one for its channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.NotificationType = notificationdomain.NotificationType(notificationType)
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				result, err := svc.Providers.SwitchTo(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().StringVarP(&notificationType, "type", "t", "sms", "Notification type (sms or email)")
	cmd.Flags().StringVar(&req.Identifier, "identifier", "", "Provider to promote")
	cmd.Flags().StringVar(&req.ActorID, "actor", "", "User performing the change")
	_ = cmd.MarkFlagRequired("identifier")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func providersUpdateCmd() *cobra.Command {
	var req providerdomain.UpdateRequest
	var priority int
	var active bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change priority or active state of a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("priority") {
				req.Priority = &priority
			}
			if cmd.Flags().Changed("active") {
				req.Active = &active
			}
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				updated, err := svc.Providers.Update(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(updated)
			})
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "Provider id")
	cmd.Flags().IntVar(&priority, "priority", 0, "New priority")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the provider may be selected")
	cmd.Flags().StringVar(&req.ActorID, "actor", "", "User performing the change")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func providersHistoryCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show every version of a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				versions, err := svc.Providers.Versions(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(versions)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Provider id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func providersStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Providers with this month's billable SMS volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(ctx context.Context, svc services) error {
				stats, err := svc.Providers.Stats(ctx)
				if err != nil {
					return err
				}
				return printJSON(stats)
			})
		},
	}
}
