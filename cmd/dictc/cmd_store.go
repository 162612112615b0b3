package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dictionary"
	"github.com/jacoelho/dictionary/internal/m2"
	"github.com/jacoelho/dictionary/internal/notify"
	"github.com/jacoelho/dictionary/internal/qname"
	"github.com/jacoelho/dictionary/internal/store"
	"github.com/jacoelho/dictionary/internal/telemetry"
)

func newStoreCmd(root *rootFlags) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the models kept in the configured store",
	}
	cmd.PersistentFlags().StringVar(&tenant, "tenant", "", "tenant (empty for the shared models)")

	put := &cobra.Command{
		Use:   "put <model>",
		Short: "Compile a model and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			m, err := m2.DecodeFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
			if err != nil {
				return err
			}
			return withService(cmd, root, func(ctx context.Context, svc *dictionary.Service) error {
				name, err := svc.PutModel(ctx, tenant, m)
				if err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "%s stored\n", name)
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cmd.Context(), cfg.StoreDriver, cfg.StoreDSN)
			if err != nil {
				return err
			}
			defer st.Close()
			records, err := st.List(cmd.Context(), tenant)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rec := range records {
				version := rec.Version
				if version == "" {
					version = "-"
				}
				if err := writef(out, "%s\t%s\t%s\t%s\n", rec.Name, version, rec.Format, rec.UpdatedAt.Format(time.RFC3339)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <prefix:name>",
		Short: "Unregister a model and delete it from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, root, func(ctx context.Context, svc *dictionary.Service) error {
				reg, err := svc.Registry(ctx, tenant)
				if err != nil {
					return err
				}
				name, err := qname.Parse(args[0], reg)
				if err != nil {
					return err
				}
				if err := svc.RemoveModel(ctx, tenant, name); err != nil {
					return err
				}
				return writef(cmd.OutOrStdout(), "%s removed\n", name)
			})
		},
	}

	cmd.AddCommand(put, list, rm)
	return cmd
}

// withService opens the configured store and notifier, runs fn against a
// service built on them and releases everything afterwards.
func withService(cmd *cobra.Command, root *rootFlags, fn func(context.Context, *dictionary.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	log := root.logger(cmd, cfg)
	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	var notifier notify.Notifier
	if cfg.RedisAddr != "" {
		r, err := notify.DialRedis(ctx, cfg.RedisAddr, log)
		if err != nil {
			return err
		}
		defer r.Close()
		notifier = r
	}
	metrics, err := telemetry.New(nil, nil)
	if err != nil {
		return err
	}
	svc, err := dictionary.NewService(dictionary.ServiceConfig{
		Store:          st,
		Notifier:       notifier,
		Logger:         log,
		Metrics:        metrics,
		LoadOptions:    dictionary.NewLoadOptions().WithSkipConstraintInitialization(cfg.SkipConstraints),
		RefreshTimeout: cfg.RefreshTimeout,
	})
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}
