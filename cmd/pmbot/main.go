// pmbot is a conversational project-management assistant. It reads one
// utterance per line from stdin, resolves it to a structured action, and
// prints the handler's response.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"pmbot/pkg/chat"
	"pmbot/pkg/config"
	"pmbot/pkg/embedding"
	"pmbot/pkg/health"
	"pmbot/pkg/intent"
	"pmbot/pkg/llm"
	"pmbot/pkg/logx"
	"pmbot/pkg/metrics"
	"pmbot/pkg/persistence"
	"pmbot/pkg/rag"
	"pmbot/pkg/tools"
	"pmbot/pkg/utils"
)

// The REPL is a single conversation; turn processing is strictly sequential.
const (
	replUserID = 1
	replChatID = 1
)

func main() {
	configPath := flag.String("config", "pmbot.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logx.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	logger := logx.NewLogger("pmbot")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := unlockSecrets(logger); err != nil {
		return err
	}

	store, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Store close failed: %v", err)
		}
	}()

	// The REPL operator runs the process and owns the store, so destructive
	// actions (task and project deletion) are open to them.
	if _, err := store.UpsertUser(context.Background(), replUserID, "operator", "Operator"); err != nil {
		return fmt.Errorf("failed to register operator: %w", err)
	}
	if err := store.SetUserRole(context.Background(), replUserID, persistence.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant operator admin: %w", err)
	}

	recorder := metrics.NewPrometheusRecorder()
	factory := llm.NewFactory(cfg.LLM, recorder)

	intentClient, err := factory.CreateClient("intent")
	if err != nil {
		return fmt.Errorf("failed to create intent client: %w", err)
	}
	answerClient, err := factory.CreateClient("rag")
	if err != nil {
		return fmt.Errorf("failed to create answer client: %w", err)
	}

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding engine: %w", err)
	}
	logger.Info("Embedding engine: %s", engine.Name())

	counter, err := utils.NewTokenCounter()
	if err != nil {
		logger.Warn("Tokenizer unavailable, using character estimate: %v", err)
	}

	chunker, err := rag.NewChunker(rag.ChunkerConfig{
		Size:    cfg.RAG.ChunkSize,
		Overlap: cfg.RAG.ChunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("invalid chunker config: %w", err)
	}

	bot, err := chat.NewEngine(chat.Deps{
		Extractor: intent.NewExtractor(intentClient, recorder),
		Store:     store,
		Retriever: rag.NewRetriever(engine, store, recorder, cfg.RAG.TopK),
		Answerer:  rag.NewAnswerer(answerClient, counter, cfg.RAG.ContextTokens),
		Ingestor:  rag.NewIngestor(chunker, engine, store),
		Sessions:  tools.NewSessionStore(time.Duration(cfg.Sessions.TTLMinutes) * time.Minute),
		Recorder:  recorder,
	})
	if err != nil {
		return fmt.Errorf("failed to assemble engine: %w", err)
	}

	healthSrv := health.NewServer(cfg.Metrics.ListenAddr)
	healthSrv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Health server shutdown failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return repl(ctx, bot, cfg, logger)
}

// unlockSecrets decrypts the secrets file when present, prompting for its
// password on a terminal. Without a secrets file API keys come from the
// environment.
func unlockSecrets(logger *logx.Logger) error {
	if !config.SecretsFileExists(".") {
		return nil
	}
	if !term.IsTerminal(syscall.Stdin) {
		return fmt.Errorf("secrets file present but stdin is not a terminal; unlock requires a password prompt")
	}

	fmt.Fprint(os.Stderr, "Secrets password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	secrets, err := config.DecryptSecretsFile(".", string(password))
	if err != nil {
		return fmt.Errorf("failed to unlock secrets: %w", err)
	}
	config.SetDecryptedSecrets(secrets)
	logger.Info("Secrets unlocked (%d entries)", len(secrets))
	return nil
}

func repl(ctx context.Context, bot *chat.Engine, cfg config.Config, logger *logx.Logger) error {
	fmt.Println("pmbot ready. Type a message, \\upload <project> <file>, \\usage, or \\quit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == `\quit`:
			return nil
		case line == `\usage`:
			printUsage(ctx, cfg.Metrics.PrometheusURL)
		case strings.HasPrefix(line, `\upload `):
			handleUpload(ctx, bot, strings.TrimPrefix(line, `\upload `), logger)
		default:
			fmt.Println(bot.HandleTurn(ctx, line, "", replUserID, replChatID))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read failed: %w", err)
	}
	return nil
}

// handleUpload simulates the chat adapter's file delivery: it opens an
// upload session for the project, reads the file as plain text, and ingests
// it. Format-specific readers (PDF, DOCX) live in the chat adapter, not
// here.
func handleUpload(ctx context.Context, bot *chat.Engine, args string, logger *logx.Logger) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		fmt.Println(`Usage: \upload <project> <file>`)
		return
	}
	projectName, path := fields[0], fields[1]

	// The target project is already known, so open the session directly
	// rather than classifying a synthetic utterance.
	message, opened := bot.BeginUpload(ctx, replUserID, replChatID, projectName)
	fmt.Println(message)
	if !opened {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Upload read failed: %v", err)
		fmt.Printf("Could not read %s: %v\n", path, err)
		return
	}
	fmt.Println(bot.HandleUpload(ctx, replUserID, replChatID, path, string(data)))
}

func printUsage(ctx context.Context, prometheusURL string) {
	if prometheusURL == "" {
		fmt.Println("No Prometheus server configured (set metrics.prometheus_url).")
		return
	}
	svc, err := metrics.NewQueryService(prometheusURL)
	if err != nil {
		fmt.Printf("Usage query unavailable: %v\n", err)
		return
	}
	report, err := svc.GetUsage(ctx)
	if err != nil {
		fmt.Printf("Usage query failed: %v\n", err)
		return
	}
	fmt.Printf("Turns: %d  Prompt tokens: %d  Completion tokens: %d  Total: %d\n",
		report.Turns, report.PromptTokens, report.CompletionTokens, report.TotalTokens)
}
