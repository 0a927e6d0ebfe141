package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
	"github.com/agrihelp/agrihelp-api/pkg/mailer"
	mailtpl "github.com/agrihelp/agrihelp-api/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, ch, err := helpers.DialQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, stopCtx := context.WithCancel(context.Background())
	defer stopCtx()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			var job mailer.EmailJob
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				helpers.LogError(logger, "bad email job", err, nil)
				_ = msg.Nack(false, false)
				continue
			}
			subject, text, html, err := render(&job)
			if err != nil {
				helpers.LogError(logger, "render failed", err, logrus.Fields{"template": job.Template})
				_ = msg.Nack(false, false)
				continue
			}

			sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err = mg.Send(sendCtx, job.To, subject, text, html)
			cancel()
			if err != nil {
				helpers.LogError(logger, "send failed", err, logrus.Fields{"to": job.To})
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
			helpers.LogInfo(logger, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")
	stopCtx()
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

// render fills subject and bodies from the template when one is named.
func render(job *mailer.EmailJob) (subject, text, html string, err error) {
	helpers.EnsureRecipient(job)
	if job.Template == "" {
		return job.Subject, job.Text, job.HTML, nil
	}
	text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	subject = job.Subject
	if subject == "" {
		subject = helpers.SubjectFor(job.Template, job.Data)
	}
	return subject, text, html, nil
}
