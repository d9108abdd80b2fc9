package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/target/lab-portal/config"
	"github.com/target/lab-portal/internal/data"
)

type cacheFlushOptions struct {
	Yes bool
}

func runCacheFlush(cmdCtx *commandContext, args []string) error {
	opts, err := parseCacheFlushFlags(args)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return errors.New("cache-flush only applies to CACHE_BACKEND=redis; memory caches clear on restart")
	}
	if confirmErr := confirmAction(opts.Yes, fmt.Sprintf("delete every Redis key under %q", cfg.Cache.KeyPrefix)); confirmErr != nil {
		return confirmErr
	}

	client, err := maybeConnectRedis(cmdCtx.Logger, &cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(nil, client); cerr != nil {
			cmdCtx.Logger.Warn("close redis failed", "error", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	if clearErr := data.NewRedisCacheRepoWithPrefix(client, cfg.Cache.KeyPrefix).Clear(ctx); clearErr != nil {
		return fmt.Errorf("flush cache: %w", clearErr)
	}
	return writef(os.Stdout, "flushed cache prefix %q\n", cfg.Cache.KeyPrefix)
}

func parseCacheFlushFlags(args []string) (cacheFlushOptions, error) {
	fs := flag.NewFlagSet("cache-flush", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := cacheFlushOptions{}
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return cacheFlushOptions{}, err
	}
	return opts, nil
}
