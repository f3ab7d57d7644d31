package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"linktrack/config"
	"linktrack/internal/model"
	"linktrack/internal/repository"
)

// Notifier 通知分发接口
// 实现必须是即发即忘的：失败只记录日志，不向调用方传播
type Notifier interface {
	Notify(userID uint, title, message string, category model.NotificationCategory, priority int)
}

// Service 通知服务，写入站内通知并可选推送Telegram
type Service struct {
	repo     repository.NotificationRepository
	telegram *TelegramClient
}

// NewService 创建通知服务
func NewService(repo repository.NotificationRepository, cfg config.Telegram) *Service {
	var telegram *TelegramClient
	if cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "" {
		telegram = NewTelegramClient(cfg.BotToken, cfg.ChatID)
	}
	return &Service{repo: repo, telegram: telegram}
}

// Notify 分发一条通知
func (s *Service) Notify(userID uint, title, message string, category model.NotificationCategory, priority int) {
	notification := &model.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
		Priority: priority,
	}
	if err := s.repo.Create(notification); err != nil {
		log.Warnf("failed to store notification for user %d: %v", userID, err)
	}

	if s.telegram != nil {
		text := fmt.Sprintf("<b>%s</b>\n\n%s", title, message)
		if err := s.telegram.SendMessage(text); err != nil {
			log.Warnf("failed to send telegram notification: %v", err)
		}
	}
}

// TelegramClient Telegram Bot API客户端
type TelegramClient struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegramClient 创建Telegram客户端
func NewTelegramClient(botToken, chatID string) *TelegramClient {
	return &TelegramClient{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMessage 发送HTML格式消息
func (t *TelegramClient) SendMessage(text string) error {
	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned non-2xx status: %s", resp.Status)
	}

	return nil
}
