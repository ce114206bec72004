// accessctl はAccess Syncの施行操作を1回だけ実行する運用CLI。
// 設定はaccess-syncと同じ環境変数から読み込む。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/disconnect"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/enforcement"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/policy"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/store"
	"github.com/oyaguma3/access-sync/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var output string
	var verbose bool

	flagSet := pflag.NewFlagSet("accessctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&output, "output", "o", formatText, "output format: text, json or yaml")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "write JSON log records to stderr")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	cmd, err := parseCommand(flagSet.Args())
	if err != nil {
		printHelp(stderr, flagSet)
		return err
	}
	if !validFormat(output) {
		return fmt.Errorf("unknown output format %q", output)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg, stderr, verbose)

	pol, err := policy.FromConfig(cfg)
	if err != nil {
		return err
	}

	locker := store.NewNoopLocker()
	if cfg.LockEnabled {
		vc, err := store.NewValkeyClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer vc.Close()
		locker = store.NewLocker(vc, config.LockTTL)
	}

	fields := logging.NewFields(logging.NewMasker(cfg.LogMaskUsername))
	var terminator enforcement.SessionTerminator
	if cfg.UsesRADIUSDisconnect() {
		terminator = disconnect.NewTerminator(cfg)
	}
	engine := enforcement.NewEngine(concentrator.NewManager(cfg), pol, terminator, fields)

	res, err := cmd.execute(ctx, engine, locker)
	if err != nil {
		return err
	}
	if err := render(stdout, output, res); err != nil {
		return err
	}
	if code := exitCode(res); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// initLogger はロガーを初期化する。verboseでない場合は警告以上のみ出力する。
func initLogger(cfg *config.Config, w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
		if strings.EqualFold(cfg.LogLevel, "DEBUG") {
			level = slog.LevelDebug
		}
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h).With("app", "accessctl"))
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `accessctl runs one enforcement operation against the concentrator.

Usage:
  accessctl [flags] suspend <username>
  accessctl [flags] restore <username>
  accessctl [flags] terminate <username>
  accessctl [flags] cut-mac <mac>

Exit status is 0 on success, 2 on partial success and 1 otherwise.

Flags:
%s`, flagSet.FlagUsages())
}
