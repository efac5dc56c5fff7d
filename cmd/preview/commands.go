package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"preview-generator/internal/builder"
	"preview-generator/internal/cachepath"
	"preview-generator/internal/preview"
	"preview-generator/internal/startup"
)

func newBuildCommand(opts *globalOptions) *cobra.Command {
	var (
		kindName      string
		page          int
		width, height int
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build (or fetch from cache) one preview of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := builder.ParseKind(kindName)
			if err != nil {
				return err
			}

			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(opts)

			// One dimension alone bounds a square.
			if width == 0 {
				width = height
			} else if height == 0 {
				height = width
			}
			res, err := s.manager.Generate(cmd.Context(), args[0], kind, preview.Options{
				Page:  page,
				Size:  cachepath.Dims{Width: width, Height: height},
				Force: force,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, res)
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", string(builder.KindJPEG), "preview kind: jpeg, pdf, html, json or text")
	cmd.Flags().IntVarP(&page, "page", "p", 0, "zero-based page; -1 for the whole document (pdf, text)")
	cmd.Flags().IntVar(&width, "width", 0, "maximum JPEG width (default from the manager)")
	cmd.Flags().IntVar(&height, "height", 0, "maximum JPEG height (default from the manager)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild even when cached")
	return cmd
}

// pagesOutput matches the body of GET /api/pages.
type pagesOutput struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Pages    int    `json:"pages"`
}

func newPagesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pages <file>",
		Short: "Print the page count of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(opts)

			mime, err := s.manager.MimeType(args[0])
			if err != nil {
				return err
			}
			pages, err := s.manager.PageCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, pagesOutput{Path: args[0], MimeType: mime, Pages: pages})
		},
	}
}

type mimeTypesOutput struct {
	MimeTypes []string              `json:"mimeTypes"`
	Builders  []preview.BuilderInfo `json:"builders"`
}

func newMimeTypesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mimetypes",
		Short: "List supported MIME types and the builders handling them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(opts)

			return writeOutput(cmd.OutOrStdout(), opts.output, mimeTypesOutput{
				MimeTypes: s.manager.SupportedMimeTypes(),
				Builders:  s.manager.Builders(),
			})
		},
	}
}

type warmFailure struct {
	Path  string       `json:"path"`
	Kind  builder.Kind `json:"kind"`
	Error string       `json:"error"`
}

type warmOutput struct {
	Files     int           `json:"files"`
	Kinds     []string      `json:"kinds"`
	Generated int           `json:"generated"`
	Cached    int           `json:"cached"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Failures  []warmFailure `json:"failures,omitempty"`
}

// maxPathWidth bounds paths echoed in warm failures.
const maxPathWidth = 120

func newWarmCommand(opts *globalOptions) *cobra.Command {
	var kindNames []string

	cmd := &cobra.Command{
		Use:   "warm <dir|file>...",
		Short: "Pre-generate previews for every file under the given paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := builder.ParseKinds(kindNames)
			if err != nil {
				return err
			}

			var files []string
			for _, root := range args {
				found, err := preview.CollectFiles(root)
				if err != nil {
					return err
				}
				files = append(files, found...)
			}

			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(opts)

			results, err := s.manager.Warm(cmd.Context(), files, kinds)
			if err != nil {
				return err
			}

			sum := preview.Summarize(results)
			out := warmOutput{
				Files:     len(files),
				Kinds:     lo.Map(kinds, func(k builder.Kind, _ int) string { return string(k) }),
				Generated: sum.Generated,
				Cached:    sum.Cached,
				Skipped:   sum.Skipped,
				Failed:    sum.Failed,
				Failures: lo.FilterMap(results, func(r preview.WarmResult, _ int) (warmFailure, bool) {
					if r.Err == nil {
						return warmFailure{}, false
					}
					return warmFailure{Path: lo.Ellipsis(r.Path, maxPathWidth), Kind: r.Kind, Error: r.Err.Error()}, true
				}),
			}
			if err := writeOutput(cmd.OutOrStdout(), opts.output, out); err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d previews failed", sum.Failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&kindNames, "kind", "k", nil, "preview kinds to generate (default all)")
	return cmd
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and, with --index, artifact counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(opts)

			stats, err := s.manager.CacheStats(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, stats)
		},
	}
}

func newRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file>...",
		Short: "Delete the cached previews of files (needs --index)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close(opts)

			removed := make(map[string]int, len(args))
			for _, path := range args {
				n, err := s.manager.Remove(cmd.Context(), path)
				if err != nil {
					return err
				}
				removed[path] = n
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, map[string]interface{}{"removed": removed})
		},
	}
}

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			if opts.output == outputJSON && !isTerminal(cmd.OutOrStdout()) {
				return writeOutput(cmd.OutOrStdout(), opts.output, info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "preview %s (commit: %s, built: %s, go: %s, %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			return err
		},
	}
}
