package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gamearr/internal/config"
)

const userAgent = "gamearr/0.1.0"

// Service defines the notification surface exposed to the download engine.
type Service interface {
	NotifyGrabSubmitted(ctx context.Context, gameTitle, releaseTitle, indexer string) error
	NotifyDownloadCompleted(ctx context.Context, gameTitle, platform string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		downloads: cfg.Notifications.Downloads,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	downloads bool
	errors    bool
}

func (n *ntfyService) NotifyGrabSubmitted(ctx context.Context, gameTitle, releaseTitle, indexer string) error {
	if !n.downloads {
		return nil
	}
	gameTitle = strings.TrimSpace(gameTitle)
	message := fmt.Sprintf("⬇️ Grabbed: %s", gameTitle)
	if releaseTitle = strings.TrimSpace(releaseTitle); releaseTitle != "" {
		message = fmt.Sprintf("%s\nRelease: %s", message, releaseTitle)
	}
	if indexer = strings.TrimSpace(indexer); indexer != "" {
		message = fmt.Sprintf("%s\nIndexer: %s", message, indexer)
	}
	return n.send(ctx, payload{
		title:   "Gamearr - Grabbed",
		message: message,
		tags:    []string{"gamearr", "grab", "submitted"},
	})
}

func (n *ntfyService) NotifyDownloadCompleted(ctx context.Context, gameTitle, platform string) error {
	if !n.downloads {
		return nil
	}
	gameTitle = strings.TrimSpace(gameTitle)
	message := fmt.Sprintf("✅ Downloaded: %s", gameTitle)
	if platform = strings.TrimSpace(platform); platform != "" {
		message = fmt.Sprintf("%s (%s)", message, platformLabel(platform))
	}
	return n.send(ctx, payload{
		title:    "Gamearr - Download Complete",
		message:  message,
		tags:     []string{"gamearr", "download", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "Gamearr - Error",
		message:  builder.String(),
		tags:     []string{"gamearr", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Gamearr - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"gamearr", "test"},
		priority: "low",
	})
}

// platformLabel title-cases short lowercase platform names ("switch" -> "Switch")
// and leaves mixed-case names such as "PC" or "PlayStation 5" alone.
func platformLabel(platform string) string {
	if platform != strings.ToLower(platform) {
		return platform
	}
	return cases.Title(language.English).String(platform)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyGrabSubmitted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyDownloadCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
