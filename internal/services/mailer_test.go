package services_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"todo-board/backend/internal/config"
	"todo-board/backend/internal/services"
)

func TestNewMailer(t *testing.T) {
	log := zap.NewNop()

	assert.IsType(t, &services.LogMailer{}, services.NewMailer(config.SMTPConfig{}, log))
	assert.IsType(t, &services.SMTPMailer{}, services.NewMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587"}, log))
}

func TestLogMailer_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mailer := services.NewLogMailer(zap.New(core))

	require.NoError(t, mailer.Send(context.Background(), "a@x.io", "Password reset", "body"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.io", entries[0].ContextMap()["to"])
	assert.Equal(t, "Password reset", entries[0].ContextMap()["subject"])
}

func TestSMTPMailer_SendRespectsContextDeadline(t *testing.T) {
	// 接続は受け付けるが挨拶を返さないサーバー
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	accepted := make(chan net.Conn, 1)
	go func() {
		if conn, err := ln.Accept(); err == nil {
			accepted <- conn
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		select {
		case conn := <-accepted:
			conn.Close()
		default:
		}
	})

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	mailer := services.NewSMTPMailer(config.SMTPConfig{Host: host, Port: port, From: "noreply@x.io"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	err = mailer.Send(ctx, "a@x.io", "Password reset", "body")

	assert.Error(t, err)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestSMTPMailer_SendCanceledContext(t *testing.T) {
	mailer := services.NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: "25"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.Send(ctx, "a@x.io", "Password reset", "body")

	assert.Error(t, err)
}
