package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed-export/internal/export"
	"feed-export/internal/handlers"
	"feed-export/internal/logging"
	"feed-export/internal/terminal"
	"feed-export/internal/types"
	"feed-export/pkg/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	configFlag   string
	userFlag     string
	allFlag      bool
	recentFlag   int
	fromFlag     string
	toFlag       string
	outFlag      string
	listenFlag   string
	noUpdateFlag bool
	remuxFlag    bool
	archiveFlag  bool
	yesFlag      bool
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   config.AppName + " [username] [-- yt-dlp args...]",
	Short: "Export a video feed into dated folders with TXT sidecars and a CSV catalog",
	Long: `Downloads a user's feed with yt-dlp, moves every video into its own dated
folder, writes a TXT sidecar per video and keeps a cumulative CSV catalog.
Missing username or selection is asked for interactively. Arguments after
"--" are passed to yt-dlp unchanged.`,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
	RunE:         runExport,
}

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Serve the status page and browse existing exports",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVarP(&outFlag, "out", "o", "", "export root directory")
	pf.StringVar(&listenFlag, "listen", "", "serve the status page on this address")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")

	f := rootCmd.Flags()
	f.StringVarP(&userFlag, "user", "u", "", "account to export, without @")
	f.BoolVar(&allFlag, "all", false, "download every video")
	f.IntVar(&recentFlag, "recent", 0, "download the N most recent videos")
	f.StringVar(&fromFlag, "from", "", "first upload date, YYYY-MM-DD")
	f.StringVar(&toFlag, "to", "", "last upload date, YYYY-MM-DD")
	f.BoolVar(&noUpdateFlag, "no-update", false, "do not run yt-dlp -U")
	f.BoolVar(&remuxFlag, "remux", false, "remux non-mp4 downloads with ffmpeg")
	f.BoolVar(&archiveFlag, "archive", false, "record downloaded ids and skip them next time")
	f.BoolVarP(&yesFlag, "yes", "y", false, "install yt-dlp without asking when missing")

	rootCmd.MarkFlagsMutuallyExclusive("all", "recent", "from")
	rootCmd.MarkFlagsMutuallyExclusive("all", "recent", "to")
	rootCmd.MarkFlagsRequiredTogether("from", "to")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config, applies the persistent flags and starts logging
func setup(cmd *cobra.Command) (*config.Config, io.Closer, error) {
	path := configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if outFlag != "" {
		cfg.ExportRoot = outFlag
	}
	if listenFlag != "" {
		cfg.Server.Listen = listenFlag
	}
	if noUpdateFlag {
		cfg.UpdateYtdlp = false
	}
	if remuxFlag {
		cfg.Remux = true
	}
	if archiveFlag {
		cfg.DownloadArchive = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	closer, err := logging.Init(cfg.Log, verboseFlag, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	logrus.WithField("config", path).Debug("Configuration loaded")
	return cfg, closer, nil
}

// selectionFromFlags returns the selection given on the command line, if any
func selectionFromFlags() (types.Selection, bool, error) {
	switch {
	case recentFlag < 0:
		return types.Selection{}, false, fmt.Errorf("%w: --recent %d", terminal.ErrInvalidNumber, recentFlag)
	case recentFlag > 0:
		return types.Selection{Kind: types.SelectRecent, Count: recentFlag}, true, nil
	case fromFlag != "" || toFlag != "":
		return types.Selection{Kind: types.SelectRange, From: fromFlag, To: toFlag}, true, nil
	case allFlag:
		return types.Selection{Kind: types.SelectAll}, true, nil
	default:
		return types.Selection{}, false, nil
	}
}

// splitArgs separates the optional positional username from the yt-dlp
// passthrough arguments following "--"
func splitArgs(cmd *cobra.Command, args []string) ([]string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	positional, extra := splitArgs(cmd, args)
	if len(positional) > 1 {
		return fmt.Errorf("expected at most one username, got %d arguments", len(positional))
	}

	prompter := terminal.New(os.Stdin, os.Stderr)

	username := userFlag
	if username == "" && len(positional) == 1 {
		username = positional[0]
	}
	if username == "" {
		if username, err = prompter.AskUsername(); err != nil {
			return err
		}
	}

	sel, ok, err := selectionFromFlags()
	if err != nil {
		return err
	}
	if !ok {
		if sel, err = prompter.AskSelection(); err != nil {
			return err
		}
	}

	exp := export.New(cfg)
	exp.Confirm = func() bool {
		return yesFlag || prompter.Confirm("yt-dlp is not installed. Install it now?", true)
	}

	job, err := exp.NewJob(username, sel, extra)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary types.Summary
	if listenFlag == "" {
		summary, err = exp.Run(ctx, job)
	} else {
		summary, err = runWithServer(ctx, cfg, exp, job)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d, moved %d, refreshed %d, skipped %d, failed %d\n",
		summary.Processed, summary.Moved, summary.Refreshed, summary.Skipped, summary.Failed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Export complete: %s\n", job.BaseDir)
	return nil
}

// runWithServer runs the export while serving its progress. The server is
// stopped once the export returns.
func runWithServer(ctx context.Context, cfg *config.Config, exp *export.Exporter, job types.ExportJob) (types.Summary, error) {
	api := &handlers.API{Fs: afero.NewOsFs(), Root: cfg.ExportRoot, Ctx: ctx}

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	g.Go(func() error {
		if err := listen(serverCtx, cfg.Server.Listen, handlers.NewRouter(api)); err != nil {
			logrus.WithError(err).Warn("Status server stopped")
		}
		return nil
	})

	var summary types.Summary
	g.Go(func() error {
		defer stopServer()
		var err error
		summary, err = exp.Run(gctx, job)
		return err
	})

	err := g.Wait()
	return summary, err
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// exports started from the page cannot prompt, so a missing yt-dlp is
	// reported instead of installed
	api := &handlers.API{
		Fs:     afero.NewOsFs(),
		Root:   cfg.ExportRoot,
		Runner: export.New(cfg),
		Ctx:    ctx,
	}

	err = listen(ctx, cfg.Server.Listen, handlers.NewRouter(api))
	api.Wait()
	return err
}

// listen serves h on addr until ctx is done
func listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Server started on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
