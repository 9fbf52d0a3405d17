package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fr0gg/fr0gg/auth"
	"github.com/fr0gg/fr0gg/gallery"
	"github.com/fr0gg/fr0gg/gallery/memoryhost"
	"github.com/fr0gg/fr0gg/gallery/redishost"
	"github.com/fr0gg/fr0gg/httpapi"
	"github.com/fr0gg/fr0gg/mcpservice"
	"github.com/fr0gg/fr0gg/prompt"
	"github.com/fr0gg/fr0gg/sample"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries the configuration shared by every subcommand.
type app struct {
	cfg Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cfg, cfgErr := loadConfig()
	a.cfg = cfg

	root := &cobra.Command{
		Use:           "fr0gg",
		Short:         "Compose ceramic frog souvenir prompts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			if err := a.cfg.validate(); err != nil {
				return err
			}
			log, err := newLogger(cmd.ErrOrStderr(), a.cfg.LogFormat, a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: text or json")
	pf.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn or error")
	pf.StringVar(&a.cfg.CategoriesFile, "categories", a.cfg.CategoriesFile, "YAML or JSON file replacing the built-in category lists")
	pf.StringVar(&a.cfg.Store, "store", a.cfg.Store, "gallery store: memory or redis")
	pf.StringVar(&a.cfg.Redis.RedisAddr, "redis-addr", a.cfg.Redis.RedisAddr, "Redis address for --store=redis")

	root.AddCommand(
		newPromptCmd(a),
		newServeCmd(a),
		newStdioCmd(a),
		newImportCmd(a),
	)
	return root
}

func newPromptCmd(a *app) *cobra.Command {
	var (
		n    int
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print freshly composed prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return fmt.Errorf("-n must be at least 1")
			}
			var opts []prompt.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, prompt.WithSource(sample.NewSeeded(seed)))
			}
			c, err := a.newComposer(opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i := 0; i < n; i++ {
				p, err := c.Compose()
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out, p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 1, "number of prompts to print")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible output")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the MCP endpoint at /mcp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.cfg.Addr, "addr", a.cfg.Addr, "listen address")
	return cmd
}

func newStdioCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.stdio(cmd.Context())
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a realtime database export of image_prompts into the gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := gallery.Import(ctx, store, r)
			if err != nil {
				return err
			}
			a.log.InfoContext(ctx, "gallery.import.ok", slog.Int("added", res.Added), slog.Int("skipped", res.Skipped))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", res.Added, res.Skipped)
			return err
		},
	}
}

func (a *app) newComposer(opts ...prompt.Option) (*prompt.Composer, error) {
	c, err := prompt.New(opts...)
	if err != nil {
		return nil, err
	}
	if a.cfg.CategoriesFile != "" {
		if err := c.LoadFile(a.cfg.CategoriesFile); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// watchCategories reloads the categories file until ctx is done.
func (a *app) watchCategories(ctx context.Context, c *prompt.Composer) {
	if a.cfg.CategoriesFile == "" {
		return
	}
	go func() {
		err := prompt.Watch(ctx, a.cfg.CategoriesFile, c, prompt.WithWatchLogger(a.log))
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.ErrorContext(ctx, "categories.watch.fail", slog.String("err", err.Error()))
		}
	}()
}

func (a *app) openStore(ctx context.Context) (gallery.Store, error) {
	switch a.cfg.Store {
	case "redis":
		return redishost.New(ctx, a.cfg.Redis)
	default:
		return memoryhost.New(), nil
	}
}

// newAuthenticator returns nil when no issuer is configured, which leaves
// publishing disabled.
func (a *app) newAuthenticator(ctx context.Context) (auth.Authenticator, error) {
	if a.cfg.OIDCIssuer == "" {
		return nil, nil
	}
	opts := []auth.AccessTokenAuthOption{auth.WithRequiredScopes(a.cfg.PublishScope)}
	if a.cfg.OIDCJWKSURL != "" {
		return auth.NewStatic(ctx, a.cfg.OIDCIssuer, a.cfg.OIDCAudience, a.cfg.OIDCJWKSURL, opts...)
	}
	return auth.NewFromDiscovery(ctx, a.cfg.OIDCIssuer, a.cfg.OIDCAudience, opts...)
}

func (a *app) newMCPServer(c *prompt.Composer, store gallery.Store) (*mcpservice.Server, error) {
	return mcpservice.New(c, store,
		mcpservice.WithLogger(a.log),
		mcpservice.WithServerInfo("fr0gg", version),
	)
}

func (a *app) serve(ctx context.Context) error {
	c, err := a.newComposer()
	if err != nil {
		return err
	}
	defer c.Close()
	a.watchCategories(ctx, c)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	authn, err := a.newAuthenticator(ctx)
	if err != nil {
		return err
	}

	ms, err := a.newMCPServer(c, store)
	if err != nil {
		return err
	}
	go func() { _ = ms.PublishCategoryUpdates(ctx, c.Subscribe()) }()

	opts := []httpapi.Option{
		httpapi.WithLogger(a.log),
		httpapi.WithRealm(a.cfg.Realm),
		httpapi.WithMaxPageSize(a.cfg.MaxPageSize),
		httpapi.WithMCPHandler(ms.HTTPHandler()),
	}
	if authn != nil {
		opts = append(opts, httpapi.WithAuthenticator(authn))
	}
	h, err := httpapi.New(c, store, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.log.InfoContext(ctx, "http.listen", slog.String("addr", a.cfg.Addr), slog.Bool("publishing", authn != nil))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.InfoContext(ctx, "http.shutdown.ok")
	return nil
}

func (a *app) stdio(ctx context.Context) error {
	c, err := a.newComposer()
	if err != nil {
		return err
	}
	defer c.Close()
	a.watchCategories(ctx, c)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ms, err := a.newMCPServer(c, store)
	if err != nil {
		return err
	}
	go func() { _ = ms.PublishCategoryUpdates(ctx, c.Subscribe()) }()

	if err := ms.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
