package service

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"net/http"
	"path/filepath"
	"sync"
	texttmpl "text/template"

	"mooc_backend/internal/config"
	"mooc_backend/pkg/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// MailMessage 渲染完成、可直接投递的邮件
type MailMessage struct {
	Subject     string
	Recipients  []string
	TextContent string
	HTMLContent string
}

// MailProvider 定义通用邮件投递接口
type MailProvider interface {
	Send(ctx context.Context, msg *MailMessage) error
}

// ConsoleMailProvider 开发环境实现，仅记录日志不实际发送
type ConsoleMailProvider struct{}

func (p *ConsoleMailProvider) Send(ctx context.Context, msg *MailMessage) error {
	logger.Log.Info("邮件（console provider，未实际发送）",
		zap.String("subject", msg.Subject),
		zap.Strings("recipients", msg.Recipients),
		zap.String("body", msg.TextContent),
	)
	return nil
}

// SendgridMailProvider SendGrid 实现
type SendgridMailProvider struct {
	Cfg *config.Config
}

func (p *SendgridMailProvider) Send(ctx context.Context, msg *MailMessage) error {
	mail := p.Cfg.MailSettings()

	personalization := sgmail.NewPersonalization()
	personalization.Subject = msg.Subject
	for _, to := range msg.Recipients {
		personalization.AddTos(sgmail.NewEmail("", to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(mail.FromName, mail.FromAddress))
	m.AddPersonalizations(personalization)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	req := sendgrid.GetRequest(mail.SendgridAPIKey, "/v3/mail/send", "https://api.sendgrid.com")
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d - %s", res.StatusCode, res.Body)
	}
	return nil
}

// MailService 邮件服务，负责模板渲染和投递
type MailService struct {
	Provider MailProvider
	Cfg      *config.Config

	mu        sync.Mutex
	textCache map[string]*texttmpl.Template
	htmlCache map[string]*htmltmpl.Template
}

func NewMailService(cfg *config.Config) *MailService {
	var provider MailProvider
	switch cfg.MailSettings().Provider {
	case "sendgrid":
		provider = &SendgridMailProvider{Cfg: cfg}
	default:
		provider = &ConsoleMailProvider{}
	}

	return NewMailServiceWithProvider(cfg, provider)
}

func NewMailServiceWithProvider(cfg *config.Config, provider MailProvider) *MailService {
	return &MailService{
		Provider:  provider,
		Cfg:       cfg,
		textCache: make(map[string]*texttmpl.Template),
		htmlCache: make(map[string]*htmltmpl.Template),
	}
}

// SendTemplatedMail 渲染模板并批量投递，投递由配置的超时时间限定。
// 接收者列表为空时直接返回，不调用投递端。
func (s *MailService) SendTemplatedMail(ctx context.Context, subject, templateName string, data interface{}, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	// 配置段可能被热更新，单次发送内使用同一份快照
	mail := s.Cfg.MailSettings()

	textBody, err := s.renderText(mail.TemplateDir, templateName, data)
	if err != nil {
		return fmt.Errorf("render mail template %s: %w", templateName, err)
	}
	htmlBody, err := s.renderHTML(mail.TemplateDir, templateName, data)
	if err != nil {
		return fmt.Errorf("render mail template %s: %w", templateName, err)
	}

	msg := &MailMessage{
		Subject:     subject,
		Recipients:  recipients,
		TextContent: textBody,
		HTMLContent: htmlBody,
	}

	ctx, cancel := context.WithTimeout(ctx, mail.SendTimeout)
	defer cancel()

	return s.Provider.Send(ctx, msg)
}

func (s *MailService) renderText(dir, name string, data interface{}) (string, error) {
	s.mu.Lock()
	tmpl, ok := s.textCache[name]
	s.mu.Unlock()

	if !ok {
		var err error
		tmpl, err = texttmpl.ParseFiles(filepath.Join(dir, name+".txt"))
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		s.textCache[name] = tmpl
		s.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderHTML HTML 版本可选，模板文件不存在时返回空串
func (s *MailService) renderHTML(dir, name string, data interface{}) (string, error) {
	s.mu.Lock()
	tmpl, ok := s.htmlCache[name]
	s.mu.Unlock()

	if !ok {
		var err error
		tmpl, err = htmltmpl.ParseFiles(filepath.Join(dir, name+".gohtml"))
		if err != nil {
			return "", nil
		}
		s.mu.Lock()
		s.htmlCache[name] = tmpl
		s.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
