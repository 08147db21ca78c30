package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mblog/internal/config"
	"git.home.luguber.info/inful/mblog/internal/content"
	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
	"git.home.luguber.info/inful/mblog/internal/logfields"
	"git.home.luguber.info/inful/mblog/internal/render"
	"git.home.luguber.info/inful/mblog/internal/site"
	"git.home.luguber.info/inful/mblog/internal/theme"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Override the configured output directory"`
	} `cmd:"" help:"Build the static site from markdown posts"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := blogerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	switch ctx.Command() {
	case "build":
		adapter.HandleError(runBuild(CLI.Config, CLI.Build.Output))
	case "init":
		adapter.HandleError(runInit(CLI.Config, CLI.Init.Force))
	default:
		ctx.FatalIfErrorf(ctx.PrintUsage(false))
	}
}

func runBuild(configPath, outputOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	build := cfg.BuildSection()

	th, err := theme.Load(resolveThemeDir(build.Theme))
	if err != nil {
		return err
	}

	repo, err := content.NewRepository(build.MarkdownDir)
	if err != nil {
		return err
	}
	posts, err := repo.LoadAll()
	if err != nil {
		return err
	}

	engine := render.NewHTMLEngine(
		th.TemplatesDir(),
		cfg.GetString("theme_config.date_format", ""),
		cfg.SiteSection().BasePath,
	)
	renderer := render.NewRenderer(th, cfg, engine)

	builder := site.NewBuilder(cfg, th, renderer).WithOutputDir(outputOverride)

	buildCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := builder.Build(buildCtx, posts)
	if report != nil {
		report.PostsSkipped = repo.Skipped
	}
	if err != nil {
		return err
	}

	slog.Info("build finished",
		slog.String("outcome", report.Outcome),
		logfields.Count(report.PagesWritten),
		slog.Int("posts", report.PostsParsed),
		slog.Int("skipped", report.PostsSkipped),
		slog.Int("warnings", len(report.Warnings)))
	return nil
}

func runInit(configPath string, force bool) error {
	slog.Info("initializing configuration", logfields.Path(configPath))
	return config.Init(configPath, force)
}

// resolveThemeDir accepts either a directory path or a bare theme name to be
// looked up below themes/.
func resolveThemeDir(name string) string {
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return name
	}
	return filepath.Join("themes", name)
}
