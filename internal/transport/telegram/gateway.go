package telegram

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-quiz-bot/internal/app"
	"telegram-quiz-bot/internal/domain"
)

// Gateway connects the controller to the Telegram Bot API. Updates are
// translated into domain events, and the controller's actions are rendered
// as messages, inline keyboards, and in-place edits.
type Gateway struct {
	api        *tgbotapi.BotAPI
	controller *app.Controller

	// lastMsg tracks the question message to annotate per chat. Only the
	// single dispatch loop touches it.
	lastMsg map[string]int
}

func NewGateway(token string, controller *app.Controller) (*Gateway, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		api:        api,
		controller: controller,
		lastMsg:    make(map[string]int),
	}, nil
}

// Run consumes updates via long polling until the context is cancelled.
// Updates are handled strictly one at a time, so events for the same user are
// processed in arrival order with each mutation persisted before the reply.
func (g *Gateway) Run(ctx context.Context) error {
	log.Printf("authorised on account %s", g.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := g.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			g.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.dispatch(update)
		}
	}
}

// RunWebhook registers a webhook with Telegram and serves it until the
// context is cancelled. baseURL is the public HTTPS base; the bot token is
// appended as the path, so the endpoint stays unguessable. addr is the local
// listen address.
func (g *Gateway) RunWebhook(ctx context.Context, baseURL, addr string) error {
	externalURL := strings.TrimSuffix(baseURL, "/") + "/" + g.api.Token
	wh, err := tgbotapi.NewWebhook(externalURL)
	if err != nil {
		return err
	}
	if _, err := g.api.Request(wh); err != nil {
		return err
	}
	log.Printf("authorised on account %s, webhook at %s", g.api.Self.UserName, externalURL)

	updates := g.api.ListenForWebhook("/" + g.api.Token)
	server := &http.Server{Addr: addr}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.dispatch(update)
		}
	}
}

func (g *Gateway) dispatch(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		// Ack the tap so the client stops its spinner, and remember which
		// message the verdict should rewrite.
		ack := tgbotapi.NewCallback(update.CallbackQuery.ID, "")
		if _, err := g.api.Request(ack); err != nil {
			log.Printf("answering callback: %v", err)
		}
		if update.CallbackQuery.Message != nil {
			uid := strconv.FormatInt(update.CallbackQuery.Message.Chat.ID, 10)
			g.lastMsg[uid] = update.CallbackQuery.Message.MessageID
		}
	}

	ev, ok := eventFromUpdate(update)
	if !ok {
		if update.Message != nil && update.Message.IsCommand() {
			g.sendText(strconv.FormatInt(update.Message.Chat.ID, 10), "Unknown command. Try /start.")
		}
		return
	}

	for _, action := range g.controller.Handle(ev) {
		g.apply(action)
	}
}

// eventFromUpdate maps a Telegram update onto the closed event set. Callback
// data that does not parse as an option index becomes choice -1, which scores
// as incorrect rather than being rejected.
func eventFromUpdate(update tgbotapi.Update) (domain.Event, bool) {
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Message == nil {
			return nil, false
		}
		uid := strconv.FormatInt(update.CallbackQuery.Message.Chat.ID, 10)
		choice, err := strconv.Atoi(update.CallbackQuery.Data)
		if err != nil {
			choice = -1
		}
		return domain.ButtonTap{UserID: uid, Choice: choice}, true
	}

	if update.Message == nil {
		return nil, false
	}
	uid := strconv.FormatInt(update.Message.Chat.ID, 10)

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			return domain.Begin{UserID: uid}, true
		case "cancel":
			return domain.Cancel{UserID: uid}, true
		case "reset":
			return domain.Reset{UserID: uid}, true
		case "leaderboard":
			return domain.ShowLeaderboard{UserID: uid}, true
		default:
			return nil, false
		}
	}

	return domain.Text{UserID: uid, Content: update.Message.Text}, true
}

func (g *Gateway) apply(action domain.Action) {
	switch a := action.(type) {
	case domain.SendMessage:
		g.sendText(a.UserID, a.Text)
	case domain.SendQuestion:
		msg := tgbotapi.NewMessage(chatID(a.UserID), a.Text)
		var rows [][]tgbotapi.InlineKeyboardButton
		for i, option := range a.Options {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(option, strconv.Itoa(i)),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		sent, err := g.api.Send(msg)
		if err != nil {
			log.Printf("sending question: %v", err)
			return
		}
		g.lastMsg[a.UserID] = sent.MessageID
	case domain.EditLastMessage:
		id, ok := g.lastMsg[a.UserID]
		if !ok {
			g.sendText(a.UserID, a.Text)
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID(a.UserID), id, a.Text)
		if _, err := g.api.Send(edit); err != nil {
			log.Printf("editing message: %v", err)
		}
	}
}

func (g *Gateway) sendText(userID, text string) {
	if _, err := g.api.Send(tgbotapi.NewMessage(chatID(userID), text)); err != nil {
		log.Printf("sending message: %v", err)
	}
}

func chatID(userID string) int64 {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		log.Printf("non-numeric chat id %q", userID)
	}
	return id
}
