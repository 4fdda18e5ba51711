package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"gemchat/pkg/ai"
	_ "gemchat/pkg/ai/providers"
	"gemchat/pkg/chat"
	"gemchat/pkg/config"
	"gemchat/pkg/history"
	"gemchat/pkg/logging"
	"gemchat/pkg/server"
	"gemchat/pkg/ui"
	"gemchat/pkg/version"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gemchat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	serve := fs.Bool("serve", false, "serve the browser UI instead of the terminal UI")
	addr := fs.String("addr", "", "listen address for --serve (default from config)")
	configPath := fs.String("config", config.GetConfigPath(), "path to the config file")
	showVersion := fs.Bool("version", false, "print version information and exit")
	listModels := fs.Bool("models", false, "list image-capable models of the configured provider and exit")
	listProviders := fs.Bool("providers", false, "list supported LLM providers and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		version.Print(stdout)
		return 0
	}

	if *listProviders {
		printProviders(stdout)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg = config.ApplyEnv(cfg)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *listModels {
		if err := printModels(ctx, cfg, stdout); err != nil {
			fmt.Fprintf(stderr, "Error listing models: %v\n", err)
			return 1
		}
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid config (%s): %v\n", *configPath, err)
		return 1
	}

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	slog.Info("gemchat_start",
		"version", version.Summary(),
		"llm_provider", cfg.LLMProvider,
		"model", cfg.Active().Model,
		"history_driver", cfg.History.Driver,
		"serve", *serve,
	)

	provider, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		slog.Error("provider_init_error", "error", err)
		fmt.Fprintf(stderr, "Error creating %s provider: %v\n", cfg.LLMProvider, err)
		return 1
	}

	store, err := history.Open(cfg)
	if err != nil {
		slog.Error("history_open_error", "error", err)
		fmt.Fprintf(stderr, "Error opening chat history: %v\n", err)
		return 1
	}
	var opts []chat.Option
	if store != nil {
		defer store.Close()
		opts = append(opts, chat.WithStore(store))
	}

	ctrl := chat.NewController(ai.NewGateway(provider, cfg.SystemPrompt), opts...)
	label := cfg.LLMProvider + "/" + cfg.Active().Model

	if *serve {
		srv := server.New(ctx, ctrl, server.WithModelLabel(label))
		fmt.Fprintf(stdout, "gemchat listening on http://%s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			slog.Error("server_error", "error", err)
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return 1
		}
		return 0
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(stderr, "gemchat needs an interactive terminal; use --serve for the browser UI")
		return 1
	}

	wd, _ := os.Getwd()
	model := ui.NewModel(ctx, ctrl, ui.Options{ModelLabel: label, WorkingDir: wd})
	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		slog.Error("tui_error", "error", err)
		fmt.Fprintf(stderr, "Error running UI: %v\n", err)
		return 1
	}
	slog.Info("gemchat_exit")
	return 0
}

func printProviders(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, info := range ai.ListProviders() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Type, info.Name, info.Description)
	}
	tw.Flush()
}

// printModels lists the image-capable models of an OpenAI-compatible provider.
// The configured model is marked with "*".
func printModels(ctx context.Context, cfg config.Config, w io.Writer) error {
	var p config.ProviderConfig
	switch cfg.LLMProvider {
	case config.ProviderOpenRouter:
		p = cfg.Providers.OpenRouter
	case config.ProviderOpenAI:
		p = cfg.Providers.OpenAI
	default:
		return ai.ErrModelsUnsupported
	}

	cache, err := ai.CachedModels(ctx, p.APIURL, p.APIKey, ai.DefaultModelCachePath(), ai.DefaultModelCacheTTL)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range cache.Models {
		if !m.SupportsImages() {
			continue
		}
		mark := " "
		if m.ID == p.Model {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, m.ID, m.Name)
	}
	return tw.Flush()
}
