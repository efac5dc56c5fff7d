package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"preview-generator/internal/builder"
	"preview-generator/internal/converter"
	"preview-generator/internal/index"
	"preview-generator/internal/logging"
	"preview-generator/internal/memory"
	"preview-generator/internal/preview"
	"preview-generator/internal/startup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	cacheDir      string
	indexPath     string
	officeBinary  string
	officeTimeout time.Duration
	vips          bool
	output        string
	verbose       bool
}

func defaultCacheDir() string {
	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		return filepath.Join(dir, "previews")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "preview-generator")
	}
	return filepath.Join(os.TempDir(), "preview-generator")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "preview",
		Short: "Generate cached previews of images, PDFs, office documents and text files",
		Long: `preview builds JPEG, PDF, HTML, JSON and text previews of local files and
stores them in a cache directory. Repeated requests for an unchanged file
return the cached artifact.`,
		Example: `  preview build photo.heic --kind jpeg --width 512 --height 512
  preview build report.docx --kind pdf --page 0
  preview pages slides.pptx
  preview warm ~/Documents --kind jpeg,json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			startup.LoadEnvFile()
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			}
			logging.SetOutput(cmd.ErrOrStderr())
			return validateOutput(opts.output)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cacheDir, "cache-dir", defaultCacheDir(), "directory for preview artifacts")
	flags.StringVar(&opts.indexPath, "index", "", "SQLite file recording generated artifacts (optional)")
	flags.StringVar(&opts.officeBinary, "soffice", envOr("SOFFICE_PATH", converter.DefaultOfficeBinary), "LibreOffice binary")
	flags.DurationVar(&opts.officeTimeout, "office-timeout", 2*time.Minute, "timeout for one LibreOffice conversion")
	flags.BoolVar(&opts.vips, "vips", envOr("VIPS_ENABLED", "true") == "true", "decode images with libvips")
	flags.StringVarP(&opts.output, "output", "o", outputJSON, "output format: json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newBuildCommand(opts),
		newPagesCommand(opts),
		newMimeTypesCommand(opts),
		newWarmCommand(opts),
		newStatsCommand(opts),
		newRemoveCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// session is a preview manager plus what must be released after a command.
type session struct {
	manager *preview.Manager
	index   *index.Index
	monitor *memory.Monitor
}

func (o *globalOptions) open(ctx context.Context) (*session, error) {
	if o.vips {
		converter.InitVips()
	}

	s := &session{}
	if o.indexPath != "" {
		idx, err := index.New(ctx, o.indexPath)
		if err != nil {
			return nil, err
		}
		s.index = idx
	}

	memory.ConfigureFromEnv()
	s.monitor = memory.NewMonitor(memory.DefaultConfig())
	s.monitor.Start()

	registry := builder.NewRegistry(builder.DefaultCandidates(builder.Options{
		CacheDir:      o.cacheDir,
		OfficeBinary:  o.officeBinary,
		OfficeTimeout: o.officeTimeout,
	})...)

	m, err := preview.New(preview.Config{
		CacheDir:     o.cacheDir,
		Registry:     registry,
		Index:        s.index,
		Backpressure: s.monitor,
	})
	if err != nil {
		s.close(o)
		return nil, err
	}
	s.manager = m
	return s, nil
}

func (s *session) close(o *globalOptions) {
	s.monitor.Stop()
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			logging.Warn("failed to close index: %v", err)
		}
	}
	if o.vips {
		converter.ShutdownVips()
	}
}
