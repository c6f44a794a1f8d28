package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Septrum101/linodeDdns/config"
)

type Telegram struct {
	// ApiHost replaces api.telegram.org, it may carry a scheme.
	ApiHost string
	ChatID  string
	Token   string

	once sync.Once
	bot  *tg.BotAPI
	err  error
}

func (t *Telegram) endpoint() string {
	if t.ApiHost == "" {
		return tg.APIEndpoint
	}
	host := t.ApiHost
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimSuffix(host, "/") + "/bot%s/%s"
}

func (t *Telegram) Webhook(title string, content string) error {
	chatID, err := strconv.ParseInt(t.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("[telegram] chat id %q: %w", t.ChatID, err)
	}

	t.once.Do(func() {
		t.bot, t.err = tg.NewBotAPIWithAPIEndpoint(t.Token, t.endpoint())
	})
	if t.err != nil {
		return fmt.Errorf("[telegram] %w", t.err)
	}

	msg := tg.NewMessage(chatID, fmt.Sprintf("#%s\nHost: %s\n%s",
		config.AppName,
		title,
		content,
	))
	if _, err = t.bot.Send(msg); err != nil {
		return fmt.Errorf("[telegram] %w", err)
	}
	return nil
}
