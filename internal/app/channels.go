package app

import (
	"fmt"

	"NotifyHub/internal/domain"
	"NotifyHub/internal/sender/broadcast"
	"NotifyHub/internal/sender/database"
	"NotifyHub/internal/sender/email"
	"NotifyHub/internal/sender/slack"
	"NotifyHub/internal/sender/vonage"
	"NotifyHub/internal/service"
)

// buildRegistry регистрирует встроенные каналы. Vonage создается лениво,
// чтобы сервис стартовал без ключей SMS шлюза.
func (a *Application) buildRegistry(store domain.DatabaseNotificationRepository,
	queue domain.JobQueue) (*service.Registry, error) {
	registry := service.NewRegistry()

	transport, err := a.mailTransport()
	if err != nil {
		return nil, err
	}
	registry.Register(domain.ChannelMail, email.NewDriver(transport, queue, a.config.Mail.From))

	registry.Register(domain.ChannelSlack, slack.NewDriver(slack.Config{
		Token:     a.config.Slack.Token,
		APIURL:    a.config.Slack.APIURL,
		Timeout:   a.config.Slack.Timeout,
		RateLimit: a.config.Slack.RateLimit,
		Burst:     a.config.Slack.Burst,
	}, slack.WithQueue(queue)))

	vonageCfg := a.config.Vonage
	registry.Extend(domain.ChannelVonage, func() (domain.Channel, error) {
		return vonage.NewDriver(vonage.Config{
			Key:             vonageCfg.Key,
			Secret:          vonageCfg.Secret,
			From:            vonageCfg.From,
			Endpoint:        vonageCfg.Endpoint,
			Timeout:         vonageCfg.Timeout,
			BreakerFailures: vonageCfg.BreakerFailures,
			BreakerTimeout:  vonageCfg.BreakerTimeout,
		}, vonage.WithQueue(queue))
	})

	registry.Register(domain.ChannelBroadcast, broadcast.NewDriver(a.pubsub, a.config.Broadcast.Prefix, queue))
	registry.Register(domain.ChannelDatabase, database.NewDriver(store))

	return registry, nil
}

func (a *Application) mailTransport() (domain.MailTransport, error) {
	cfg := a.config.Mail
	switch cfg.Driver {
	case "", "smtp":
		sender := email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			SSL:      cfg.SMTP.UseTLS,
			Timeout:  cfg.SMTP.Timeout,
		})
		a.closers = append(a.closers, sender.Close)
		return sender, nil
	case "postmark":
		return email.NewPostmarkSender(cfg.Postmark.ServerToken, cfg.Postmark.AccountToken)
	default:
		return nil, fmt.Errorf("unknown mail driver %q (use smtp/postmark)", cfg.Driver)
	}
}
