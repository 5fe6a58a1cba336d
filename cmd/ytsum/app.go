package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/nkiryanov/ytsummarizer/internal/logger"
	"github.com/nkiryanov/ytsummarizer/internal/prefs"
	"github.com/nkiryanov/ytsummarizer/internal/session"
	filestore "github.com/nkiryanov/ytsummarizer/internal/storage/file"
	"github.com/nkiryanov/ytsummarizer/internal/storage/memory"
	redisstore "github.com/nkiryanov/ytsummarizer/internal/storage/redis"
)

// Everything commands need, built from the config
type app struct {
	cfg     *Config
	logger  logger.Logger
	client  *http.Client
	baseURL *url.URL
	session *session.Session
	theme   *prefs.Theme

	closers []io.Closer
}

func newApp(ctx context.Context, cfg *Config, fs afero.Fs, errOut io.Writer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}

	baseURL, err := url.Parse(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	a.baseURL = baseURL

	if err := a.initLogger(); err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx, fs)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.session = session.New(store,
		session.WithHTTPClient(a.client),
		session.WithBaseURL(baseURL),
		session.WithLogger(a.logger),
		session.WithLoginRedirect(func(_ context.Context, loginURL string) {
			_, _ = fmt.Fprintf(errOut, "Session expired, log in again with 'ytsum login' (or in browser: %s)\n", loginURL)
		}),
	)
	a.theme = prefs.NewTheme(store)

	return a, nil
}

// Empty log file disables logging, "-" logs to stderr
func (a *app) initLogger() error {
	switch a.cfg.LogFile {
	case "":
		a.logger = logger.NewNoOpLogger()
	case "-":
		l, err := logger.NewTextLogger(a.cfg.LogLevel)
		if err != nil {
			return err
		}
		a.logger = l
	default:
		l, closer, err := logger.NewFileLogger(a.cfg.LogFile, a.cfg.LogLevel)
		if err != nil {
			return err
		}
		a.logger = l
		a.closers = append(a.closers, closer)
	}
	return nil
}

func (a *app) openStore(ctx context.Context, fs afero.Fs) (session.Store, error) {
	switch a.cfg.Storage {
	case StorageMemory:
		return memory.New(), nil
	case StorageFile:
		return filestore.New(fs, profilePath(a.cfg.StoragePath, a.cfg.Profile))
	case StorageRedis:
		client, err := redisstore.Connect(ctx, a.cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		return redisstore.New(client, "ytsum:"+a.cfg.Profile+":"), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", a.cfg.Storage)
	}
}

// Default profile uses path as is, others get own file next to it: storage.json -> storage.work.json
func profilePath(path string, profile string) string {
	if profile == "" || profile == defaultProfile {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + profile + ext
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// Error body of the auth API
type apiError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (e apiError) String() string {
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		msg += fmt.Sprintf("; %s: %s", field, e.Fields[field])
	}
	return msg
}

// Unauthenticated POST to the auth API (login, register, logout)
func (a *app) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := a.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("Auth API request failed", "url", endpoint.String(), "error", err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return fmt.Errorf("server responded with status code %d", resp.StatusCode)
		}
		return errors.New(apiErr.String())
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
