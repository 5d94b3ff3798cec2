package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookfetch/internal/config"
	"bookfetch/internal/source"
	"bookfetch/internal/sources"
	"bookfetch/internal/workflow"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		force      bool
		combine    bool
		format     string
		template   string
		outputDir  string
		cookieFile string
		username   string
		password   string
		library    string
	)

	cmd := &cobra.Command{
		Use:   "download <url> [url...]",
		Short: "Download one or more audiobooks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if combine {
				cfg.Output.Combine = true
			}
			if format != "" {
				cfg.Output.Format = strings.ToLower(strings.TrimSpace(format))
			}
			if template != "" {
				cfg.Output.Template = template
			}
			if outputDir != "" {
				expanded, err := config.ExpandPath(outputDir)
				if err != nil {
					return err
				}
				cfg.Output.Dir = expanded
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			registry := sources.NewRegistry(
				source.WithTimeout(time.Duration(cfg.Network.TimeoutSeconds)*time.Second),
				source.WithUserAgent(cfg.Network.UserAgent),
				source.WithLogger(logger),
			)
			applyAuthFlags(cfg, registry, cookieFile, username, password, library)

			runner := workflow.NewRunner(registry, cfg,
				workflow.WithLogger(logger),
				workflow.WithForce(force),
				workflow.WithProgress(newProgressFactory(cmd.ErrOrStderr())),
			)
			return runner.Run(cmd.Context(), args)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing output without asking")
	cmd.Flags().BoolVar(&combine, "combine", false, "Combine multi-part books into a single file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Force an output container (mp3, m4b, ...)")
	cmd.Flags().StringVarP(&template, "template", "t", "", "Output path template, e.g. \"{author}/{title}\"")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory")
	cmd.Flags().StringVar(&cookieFile, "cookie-file", "", "Netscape-format cookie file for authentication")
	cmd.Flags().StringVar(&username, "username", "", "Account username")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&library, "library", "", "Library name, for vendors that scope accounts")

	return cmd
}

// applyAuthFlags layers command-line credentials over the configured
// per-source credentials. Flags apply to every source, since only the source
// matching the URL will consume them.
func applyAuthFlags(cfg *config.Config, registry *source.Registry, cookieFile, username, password, library string) {
	if cookieFile == "" && username == "" && password == "" && library == "" {
		return
	}
	if cfg.Sources == nil {
		cfg.Sources = map[string]config.SourceAuth{}
	}
	for _, src := range registry.All() {
		name := src.Names()[0]
		auth := cfg.Sources[name]
		for key := range cfg.Sources {
			if strings.EqualFold(key, name) {
				auth = cfg.Sources[key]
				name = key
				break
			}
		}
		if cookieFile != "" {
			auth.CookieFile = cookieFile
		}
		if username != "" {
			auth.Username = username
		}
		if password != "" {
			auth.Password = password
		}
		if library != "" {
			auth.Library = library
		}
		cfg.Sources[name] = auth
	}
}
