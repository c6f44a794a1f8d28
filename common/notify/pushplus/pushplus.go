package pushplus

import (
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/Septrum101/linodeDdns/config"
)

const api = "https://www.pushplus.plus/send/"

type PushPlus struct {
	Token string
	// API overrides the send endpoint.
	API string
}

type message struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
}

type result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Webhook pushes a markdown message titled with the managed host.
func (p *PushPlus) Webhook(title string, content string) error {
	endpoint := p.API
	if endpoint == "" {
		endpoint = api
	}

	out := new(result)
	resp, err := resty.New().SetRetryCount(3).R().
		SetBody(&message{
			Token:    p.Token,
			Title:    fmt.Sprintf("[%s] %s", config.AppName, title),
			Content:  fmt.Sprintf("**Host:** %s\n\n%s", title, content),
			Template: "markdown",
		}).
		SetResult(out).
		ForceContentType("application/json").
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("[pushplus] %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("[pushplus] HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Code != 200 {
		msg := out.Msg
		if msg == "" {
			msg = resp.String()
		}
		return fmt.Errorf("[pushplus] code %d: %s", out.Code, msg)
	}
	return nil
}
