package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cachedfn/cachedfn/gen"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		write   bool
		list    bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "cachedfn [flags] file.go ...",
		Short: "rewrite //cachedfn:memoize annotated functions into memoized versions",
		Long: `cachedfn rewrites Go functions annotated with a //cachedfn:memoize
directive into memoized versions backed by a bounded, time-aware,
single-flight cache. Without -w the rewritten source is printed to
standard output.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, write, list, verbose)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result back to the source file instead of stdout")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list files whose functions would be rewritten")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics")
	return cmd
}

func run(files []string, write, list, verbose bool) error {
	log := newLogger(verbose)
	defer log.Sync() //nolint:errcheck // stderr sync failure is unreportable

	var (
		outMu sync.Mutex
		errMu sync.Mutex
		errs  []error
	)
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, file := range files {
		file := file
		eg.Go(func() error {
			out, n, err := gen.RewriteFile(file)
			if err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				return nil
			}
			log.Debug("processed", zap.String("file", file), zap.Int("rewritten", n))
			if n == 0 {
				return nil
			}
			outMu.Lock()
			defer outMu.Unlock()
			switch {
			case list:
				fmt.Println(file)
			case write:
				if werr := os.WriteFile(file, out, 0o644); werr != nil {
					errMu.Lock()
					errs = append(errs, werr)
					errMu.Unlock()
				}
			default:
				os.Stdout.Write(out) //nolint:errcheck
			}
			return nil
		})
	}
	eg.Wait() //nolint:errcheck // workers never return errors; they collect them
	for _, err := range errs {
		fmt.Fprintln(os.Stderr, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d file(s) failed", len(errs))
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
