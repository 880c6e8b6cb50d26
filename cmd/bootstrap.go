package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/config"
	"github.com/deras16/ChatDb-vertexai/db"
	"github.com/deras16/ChatDb-vertexai/metrics"
	"github.com/deras16/ChatDb-vertexai/transcript"
)

type bootOptions struct {
	resume  string // saved session to continue
	metrics bool   // honour --metrics-addr
}

// stack is everything a command needs once startup succeeded.
type stack struct {
	cfg         *config.AppConfig
	warehouse   db.Warehouse
	provider    ai.Provider
	session     *chat.Session
	transcripts *transcript.Store
	stopMetrics context.CancelFunc
}

// loadConfig reads the config file and environment, fills API keys from
// the keychain, applies --dataset and validates.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if d := strings.TrimSpace(datasetFlag); d != "" {
		cfg.Warehouse.Dataset = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyKeychain is best effort: headless machines often have no keyring.
func applyKeychain(cfg *config.AppConfig) {
	if !config.IsSecretProvider(cfg.AI.Provider) {
		return
	}
	kc, err := config.OpenKeychain()
	if err == nil {
		err = config.ApplySecrets(&cfg.AI, kc)
	}
	if err != nil {
		applog.Event("startup", "keychain unavailable: %v", err)
	}
}

func setupLogging(cfg *config.AppConfig) error {
	return applog.Setup(applog.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Path:   cfg.Log.Path,
	})
}

func bootstrap(ctx context.Context, opts bootOptions) (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	applyKeychain(cfg)
	applog.Event("startup", "chatdb %s driver=%s dataset=%s provider=%s",
		Version, cfg.Warehouse.Driver, cfg.Warehouse.Dataset, cfg.AI.Provider)

	rt := &stack{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	rt.warehouse, err = db.Open(ctx, cfg.Warehouse)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Warehouse.Driver, err)
	}
	rt.provider, err = ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	var history *chat.History
	rt.transcripts, err = openRecorder(cfg.Chat.TranscriptPath, opts.resume != "")
	if err != nil {
		return nil, err
	}
	if opts.resume != "" {
		if rt.transcripts == nil {
			return nil, errors.New("--resume needs chat.transcript_path to be set")
		}
		conv, err := rt.transcripts.Load(opts.resume)
		if err != nil {
			return nil, err
		}
		history = chat.RestoreHistory(conv.Turns, cfg.Chat.MaxHistory)
	}

	rt.session, err = chat.NewSession(rt.warehouse, rt.provider, cfg.Warehouse.Dataset, cfg.Chat, history)
	if err != nil {
		return nil, err
	}
	if opts.resume != "" {
		rt.session.ID = opts.resume
	}
	if rt.transcripts != nil {
		rt.session.Recorder = rt.transcripts
	}

	if opts.metrics && metricsAddr != "" {
		mctx, cancel := context.WithCancel(ctx)
		rt.stopMetrics = cancel
		go func() {
			if err := metrics.Serve(mctx, metricsAddr); err != nil {
				applog.Error("metrics server: %v", err)
			}
		}()
	}

	ok = true
	return rt, nil
}

func (r *stack) Close() {
	if r.stopMetrics != nil {
		r.stopMetrics()
	}
	if r.warehouse != nil {
		_ = r.warehouse.Close()
	}
	applog.Close()
}

// openRecorder opens the transcript store. A failure only disables
// transcripts, unless a session is being resumed from them.
func openRecorder(path string, resuming bool) (*transcript.Store, error) {
	if path == "" {
		return nil, nil
	}
	store, err := transcript.Open(path)
	if err != nil {
		if resuming {
			return nil, err
		}
		logger := applog.For("transcript")
		logger.Warn().Err(err).Msg("transcripts disabled")
		return nil, nil
	}
	return store, nil
}

// openWarehouse is the lighter startup used by commands that never call
// the language model.
func openWarehouse(ctx context.Context) (*config.AppConfig, db.Warehouse, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	w, err := db.Open(ctx, cfg.Warehouse)
	if err != nil {
		applog.Close()
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.Warehouse.Driver, err)
	}
	return cfg, w, nil
}

// transcriptPath resolves the store path for the history commands.
func transcriptPath() (string, error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.Chat.TranscriptPath == "" {
		return "", errors.New("transcripts are disabled (chat.transcript_path is empty)")
	}
	if _, err := os.Stat(cfg.Chat.TranscriptPath); errors.Is(err, os.ErrNotExist) {
		return "", errors.New("no saved conversations yet")
	}
	return cfg.Chat.TranscriptPath, nil
}
