package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taskcanvas/pkg/cache"
	"github.com/matzehuels/taskcanvas/pkg/config"
	"github.com/matzehuels/taskcanvas/pkg/rendersync"
	"github.com/matzehuels/taskcanvas/pkg/server"
)

// serveCommand creates the serve command that hosts canvases over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, redisURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host canvases over HTTP",
		Long: `Host canvases over HTTP.

Every request against a canvas is one render frame: the mutation is applied,
the changed nodes are flushed, and the response lists the synced node ids.
With a Redis URL configured, flushed batches are also published to
"<channel>:<canvas id>" for out-of-process renderers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("redis") {
				cfg.Sync.RedisURL = redisURL
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for render sync (overrides sync.redis_url)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	opts := server.Options{
		Padding:        cfg.Layout.Padding,
		Tolerance:      cfg.HitTest.Tolerance,
		Logger:         logger,
		Channel:        cfg.Sync.Channel,
		PublishTimeout: cfg.Sync.PublishTimeout.Duration,
		Retries:        cfg.Sync.Retries,
		CacheTTL:       cfg.Cache.TTL.Duration,
	}

	if cfg.Sync.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := rendersync.NewRedisClient(dialCtx, cfg.Sync.RedisURL)
		cancel()
		if err != nil {
			return err
		}
		defer client.Close()
		opts.Redis = client
		opts.Cache = cache.NewRedisCache(client, cfg.Sync.Channel+":cache:")
		logger.Info("publishing render sync", "channel", cfg.Sync.Channel)
	} else if fc, err := cache.NewFileCache(cfg.CacheDir()); err == nil {
		opts.Cache = fc
	} else {
		logger.Warn("export cache disabled", "error", err)
	}

	return server.New(opts).ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout.Duration)
}
