package handler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/accommodator/internal/adapter/render"
	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/metrics"
)

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramDispatcher feeds bot updates to the engine. Updates are sharded by
// sender onto worker queues, so one user's messages are handled in arrival
// order while different users proceed in parallel.
type TelegramDispatcher struct {
	bot     TelegramSender
	engine  Conversation
	timeout time.Duration
	log     logrus.FieldLogger
	queues  []chan tgbotapi.Update
}

func NewTelegramDispatcher(bot TelegramSender, engine Conversation, workers, queueSize int, timeout time.Duration, log logrus.FieldLogger) *TelegramDispatcher {
	queues := make([]chan tgbotapi.Update, workers)
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, queueSize)
	}
	return &TelegramDispatcher{
		bot:     bot,
		engine:  engine,
		timeout: timeout,
		log:     log,
		queues:  queues,
	}
}

// Run routes updates until ctx is done or updates is closed, then drains the
// worker queues before returning.
func (d *TelegramDispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	for i, queue := range d.queues {
		wg.Add(1)
		go func(id int, queue <-chan tgbotapi.Update) {
			defer wg.Done()
			d.workerLoop(id, queue)
		}(i, queue)
	}
	d.log.WithField("workers", len(d.queues)).Info("telegram dispatcher started")

	d.route(ctx, updates)

	for _, queue := range d.queues {
		close(queue)
	}
	wg.Wait()
	d.log.Info("telegram dispatcher stopped")
}

func (d *TelegramDispatcher) route(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
				continue
			}

			shard := d.shard(update.Message.From.ID)
			select {
			case d.queues[shard] <- update:
				metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(len(d.queues[shard])))
			case <-ctx.Done():
				return
			}
		}
	}
}

func (d *TelegramDispatcher) shard(userID int64) int {
	return int(uint64(userID) % uint64(len(d.queues)))
}

func (d *TelegramDispatcher) workerLoop(id int, queue <-chan tgbotapi.Update) {
	for update := range queue {
		metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(queue)))
		if err := d.handle(update); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"worker":    id,
				"update_id": update.UpdateID,
			}).Error("failed to handle update")
		}
	}
}

func (d *TelegramDispatcher) handle(update tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	reply := d.engine.Handle(ctx, toMessage(update.Message))

	out := tgbotapi.NewMessage(update.Message.Chat.ID, render.Text(reply))
	if _, err := d.bot.Send(out); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func toMessage(m *tgbotapi.Message) domain.Message {
	return domain.Message{
		UserID:    m.From.ID,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Username:  m.From.UserName,
		Text:      m.Text,
	}
}
