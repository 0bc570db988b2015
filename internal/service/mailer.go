package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// Message 待发送邮件
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer 只把邮件写进日志（开发环境的控制台邮件后端）
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logger.Info("outgoing mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
