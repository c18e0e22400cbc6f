package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courier/internal/billing"
	billingdomain "github.com/smallbiznis/courier/internal/billing/domain"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/config"
	"github.com/smallbiznis/courier/internal/inviteduser"
	invitedomain "github.com/smallbiznis/courier/internal/inviteduser/domain"
	"github.com/smallbiznis/courier/internal/lock"
	"github.com/smallbiznis/courier/internal/observability"
	"github.com/smallbiznis/courier/internal/provider"
	providerdomain "github.com/smallbiznis/courier/internal/provider/domain"
	"github.com/smallbiznis/courier/internal/rate"
	ratedomain "github.com/smallbiznis/courier/internal/rate/domain"
	"github.com/smallbiznis/courier/internal/seed"
	"github.com/smallbiznis/courier/pkg/db"
	"go.uber.org/fx"
)

type services struct {
	fx.In

	Rates     ratedomain.Service
	Billing   billingdomain.Service
	Providers providerdomain.Service
	Invites   invitedomain.Service
	Seeder    *seed.Seeder
}

// run assembles the application graph, starts it, hands the services to fn
// and stops the graph again once fn returns.
func run(ctx context.Context, fn func(context.Context, services) error, opts ...fx.Option) error {
	var svc services

	options := []fx.Option{
		fx.NopLogger,

		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		// Functional Domains
		rate.Module,
		billing.Module,
		provider.Module,
		inviteduser.Module,
		seed.Module,
	}
	options = append(options, opts...)
	options = append(options, fx.Invoke(func(s services) { svc = s }))

	app := fx.New(options...)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx, svc)

	if err := app.Stop(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
