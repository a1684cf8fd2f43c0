// deploywatch опрашивает публичный список кампаний и дергает деплой-хук
// фронтенда, когда набор кампаний меняется. Сравнивается контрольная сумма
// отсортированных slug-ов, а не сырое тело ответа, чтобы не перезапускать
// сборку на шум сериализации.
package main

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/yourusername/campaign-api/internal/config"
)

type publicLinks struct {
	Links []struct {
		Slug string `json:"slug"`
	} `json:"links"`
}

type watcher struct {
	client   *http.Client
	pollURL  string
	hookURL  string
	lastHash string
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}
	if cfg.Deploy.PollURL == "" || cfg.Deploy.HookURL == "" {
		log.Println("deploy.poll_url and deploy.hook_url are required (check DEPLOY_POLL_URL, DEPLOY_HOOK_URL env vars)")
		os.Exit(1)
	}

	w := &watcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		pollURL: cfg.Deploy.PollURL,
		hookURL: cfg.Deploy.HookURL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(cfg.Deploy.PollInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("[deploywatch] запуск: опрос %s каждые %s", w.pollURL, cfg.Deploy.PollInterval)

	for {
		select {
		case <-ticker.C:
			if err := w.check(ctx); err != nil {
				log.Printf("[deploywatch] %v", err)
			}
		case <-quit:
			log.Println("[deploywatch] остановка")
			return
		}
	}
}

// check выполняет один цикл опроса
func (w *watcher) check(ctx context.Context) error {
	hash, err := w.slugHash(ctx)
	if err != nil {
		return err
	}
	if hash == w.lastHash {
		return nil
	}
	w.lastHash = hash

	if err := w.triggerHook(ctx); err != nil {
		return err
	}
	log.Println("[deploywatch] обнаружено изменение кампаний, сборка запущена")
	return nil
}

// slugHash считает md5 от отсортированного списка slug-ов
func (w *watcher) slugHash(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.pollURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", w.pollURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}

	var links publicLinks
	if err := json.Unmarshal(body, &links); err != nil {
		return "", fmt.Errorf("malformed public links response: %w", err)
	}

	slugs := make([]string, len(links.Links))
	for i, l := range links.Links {
		slugs[i] = l.Slug
	}
	sort.Strings(slugs)

	sum := md5.Sum([]byte(strings.Join(slugs, ",")))
	return fmt.Sprintf("%x", sum), nil
}

func (w *watcher) triggerHook(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.hookURL, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST deploy hook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("deploy hook returned status %d", resp.StatusCode)
	}
	return nil
}
