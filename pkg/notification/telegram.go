// Package notification provides implementations for various notification services
package notification

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/colinwz/stonkbot/pkg/alarm"
	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/metric"
	"github.com/colinwz/stonkbot/pkg/session"
	"github.com/colinwz/stonkbot/pkg/snapshot"
)

var greetings = []string{"to the moon! 🚀", "stonks! 👋", "hey! 👋"}

// telegram implements the core.NotifierWithStart interface
type telegram struct {
	settings  *core.Settings
	registry  *alarm.Registry
	catalog   *catalog.Catalog
	prices    *snapshot.Store
	metrics   *metric.Collector
	tracker   *session.Tracker
	client    *tb.Bot
	pending   *pendingTable
	startedAt time.Time

	limiterMu sync.Mutex
	limiters  map[int64]*rate.Limiter
	handled   atomic.Int64
	lastSeen  atomic.Int64 // unix nanos of the latest accepted update
}

// Option is a function that configures a telegram instance
type Option func(telegram *telegram)

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(
	registry *alarm.Registry,
	cat *catalog.Catalog,
	prices *snapshot.Store,
	metrics *metric.Collector,
	tracker *session.Tracker,
	settings *core.Settings,
	options ...Option,
) (core.NotifierWithStart, error) {
	bot := &telegram{
		settings:  settings,
		registry:  registry,
		catalog:   cat,
		prices:    prices,
		metrics:   metrics,
		tracker:   tracker,
		pending:   newPendingTable(),
		startedAt: time.Now(),
		limiters:  make(map[int64]*rate.Limiter),
	}

	// Initialize poller with the rate limiting middleware
	poller := &tb.LongPoller{Timeout: 10 * time.Second}
	middleware := tb.NewMiddlewarePoller(poller, bot.filterUpdate)

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    middleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.client = client

	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	// Apply custom options if provided
	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// filterUpdate drops updates from chats that exceed their rate budget.
// Every chat gets its own token bucket.
func (t *telegram) filterUpdate(u *tb.Update) bool {
	if u.Callback != nil {
		t.handled.Add(1)
		t.lastSeen.Store(time.Now().UnixNano())
		return true
	}
	if u.Message == nil || u.Message.Sender == nil {
		log.Error("message or sender is nil ", u)
		return false
	}

	if !t.limiter(u.Message.Chat.ID).Allow() {
		t.sendTo(u.Message.Chat.ID, "Calm down, I can't work under pressure!")
		return false
	}

	t.handled.Add(1)
	t.lastSeen.Store(time.Now().UnixNano())
	return true
}

func (t *telegram) limiter(chatID int64) *rate.Limiter {
	t.limiterMu.Lock()
	defer t.limiterMu.Unlock()

	limiter, ok := t.limiters[chatID]
	if !ok {
		// 20 messages per minute per chat
		limiter = rate.NewLimiter(rate.Every(3*time.Second), 20)
		t.limiters[chatID] = limiter
	}
	return limiter
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/start", Description: "Register with the bot"},
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/price", Description: "Show the current price of a symbol"},
		{Text: "/search", Description: "Search stocks and coins by name"},
		{Text: "/add", Description: "Set a price alarm"},
		{Text: "/list", Description: "List and delete your alarms"},
		{Text: "/status", Description: "Check bot status"},
		{Text: "/togglemarkethours", Description: "Toggle market open/close alerts"},
		{Text: "/about", Description: "About this bot"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *telegram) {
	client.Handle("/start", bot.StartHandle)
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/price", bot.PriceHandle)
	client.Handle("/search", bot.SearchHandle)
	client.Handle("/add", bot.AddHandle)
	client.Handle("/list", bot.ListHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle("/togglemarkethours", bot.ToggleMarketHoursHandle)
	client.Handle("/about", bot.AboutHandle)
	client.Handle(tb.OnText, bot.TextHandle)
	client.Handle(&tb.InlineButton{Unique: "rmalarm"}, bot.DeleteAlarmCallback)
	client.Handle(&tb.InlineButton{Unique: "rmall"}, bot.DeleteAllCallback)
}

// Start begins the Telegram bot long polling loop
func (t *telegram) Start() {
	go t.client.Start()
	log.Info("telegram bot started")
}

// Send delivers a message to a single chat
func (t *telegram) Send(chatID int64, text string) {
	t.sendTo(chatID, text)
}

// BroadcastMarketHours sends a session change message to every user
// that keeps market hours alerts enabled
func (t *telegram) BroadcastMarketHours(text string) {
	audience, err := t.registry.MarketHoursAudience()
	if err != nil {
		log.WithError(err).Error("failed to load market hours audience")
		return
	}

	for _, chatID := range audience {
		t.sendTo(chatID, text)
	}
}

// OnError notifies nobody but the log; users get friendly errors from
// their own command handlers
func (t *telegram) OnError(err error) {
	log.WithError(err).Error("telegram notifier error")
}

func (t *telegram) sendTo(chatID int64, text string, options ...any) {
	_, err := t.client.Send(&tb.User{ID: chatID}, text, options...)
	if err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

func (t *telegram) sendMessage(to *tb.User, text string, options ...any) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

// StartHandle registers the user and shows the welcome message
func (t *telegram) StartHandle(m *tb.Message) {
	if _, err := t.registry.EnsureUser(m.Chat.ID); err != nil {
		log.WithError(err).Error("failed to register user")
		t.sendMessage(m.Sender, "Something went wrong, please try again.")
		return
	}

	t.sendMessage(m.Sender,
		"Welcome! I watch stock and crypto prices for you.\n"+
			"Set an alarm with /add and I will message you when the price crosses it.\n"+
			"Try /help for the full command list.")
}

// HelpHandle displays available commands
func (t *telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		log.WithError(err).Error("failed to get commands")
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// AboutHandle shows a short description
func (t *telegram) AboutHandle(m *tb.Message) {
	t.sendMessage(m.Sender,
		"I poll stock and crypto price feeds and fire your price alarms.\n"+
			"Equity prices only move during market hours, crypto never sleeps.")
}

// PriceHandle shows the current price of a symbol. Without a payload it
// asks for the symbol with a forced reply.
func (t *telegram) PriceHandle(m *tb.Message) {
	query := strings.TrimSpace(m.Payload)
	if query == "" {
		t.prompt(m.Sender, "Which symbol?", pendingCommand{kind: pendingPrice})
		return
	}
	t.replyPrice(m.Sender, query)
}

func (t *telegram) replyPrice(to *tb.User, query string) {
	info, candidates, err := t.catalog.Resolve(query, t.prices)
	if err != nil {
		t.sendMessage(to, t.resolveErrorText(query, candidates, err))
		return
	}

	quote, ok := t.prices.Quote(info.Market, info.Symbol)
	if !ok {
		t.sendMessage(to, fmt.Sprintf("I have no price for %s right now, try again in a minute.", info.Symbol))
		return
	}

	t.sendMessage(to, fmt.Sprintf("%s (%s): `%.2f $`", info.Symbol, info.Name, quote.Price))
}

// SearchHandle finds symbols by fuzzy name match
func (t *telegram) SearchHandle(m *tb.Message) {
	query := strings.TrimSpace(m.Payload)
	if query == "" {
		t.prompt(m.Sender, "What are you looking for?", pendingCommand{kind: pendingSearch})
		return
	}
	t.replySearch(m.Sender, query)
}

func (t *telegram) replySearch(to *tb.User, query string) {
	info, candidates, err := t.catalog.Resolve(query, t.prices)
	if errors.Is(err, core.ErrAmbiguousSymbol) && len(candidates) > 0 {
		lines := make([]string, 0, len(candidates)+1)
		lines = append(lines, "I found these:")
		for _, c := range candidates {
			lines = append(lines, c.String())
		}
		t.sendMessage(to, strings.Join(lines, "\n"))
		return
	}
	if err != nil {
		t.sendMessage(to, t.resolveErrorText(query, candidates, err))
		return
	}

	t.replyPrice(to, info.Symbol)
}

// AddHandle creates a price alarm. Missing arguments are collected via
// forced replies, one at a time.
func (t *telegram) AddHandle(m *tb.Message) {
	fields := strings.Fields(m.Payload)
	switch len(fields) {
	case 0:
		t.prompt(m.Sender, "Which symbol do you want an alarm for?", pendingCommand{kind: pendingAddSymbol})
	case 1:
		t.prompt(m.Sender, fmt.Sprintf("At what price should I alert you for %s?", strings.ToUpper(fields[0])),
			pendingCommand{kind: pendingAddThreshold, symbol: fields[0]})
	default:
		t.replyAdd(m.Sender, fields[0], fields[1])
	}
}

func (t *telegram) replyAdd(to *tb.User, query, rawThreshold string) {
	created, err := t.registry.Create(to.ID, query, rawThreshold)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidPrice):
			t.sendMessage(to, "That doesn't look like a valid price.")
		case errors.Is(err, core.ErrPriceUnavailable):
			t.sendMessage(to, "I have no current price for that symbol, try again in a minute.")
		default:
			t.sendMessage(to, t.resolveErrorText(query, nil, err))
		}
		return
	}

	t.sendMessage(to, fmt.Sprintf("Alright! I will message you once %s goes %s `%.2f $`",
		created.Symbol, created.Direction, created.Threshold))
}

// ListHandle lists the user's alarms with one delete button each
func (t *telegram) ListHandle(m *tb.Message) {
	alarms, err := t.registry.List(m.Chat.ID)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		log.WithError(err).Error("failed to list alarms")
		return
	}

	if len(alarms) == 0 {
		t.sendMessage(m.Sender, "You have no alarms. Set one with /add.")
		return
	}

	t.sendMessage(m.Sender, "Your alarms, tap one to delete it:", alarmKeyboard(alarms))
}

func alarmKeyboard(alarms []core.Alarm) *tb.ReplyMarkup {
	rows := make([][]tb.InlineButton, 0, len(alarms)+1)
	for _, a := range alarms {
		rows = append(rows, []tb.InlineButton{{
			Unique: "rmalarm",
			Text:   a.String(),
			Data:   a.ID,
		}})
	}
	rows = append(rows, []tb.InlineButton{{
		Unique: "rmall",
		Text:   "❌ Delete all",
	}})

	return &tb.ReplyMarkup{InlineKeyboard: rows}
}

// DeleteAlarmCallback removes a single alarm and refreshes the keyboard
func (t *telegram) DeleteAlarmCallback(c *tb.Callback) {
	chatID := c.Message.Chat.ID
	if err := t.registry.Delete(chatID, strings.TrimSpace(c.Data)); err != nil {
		log.WithError(err).Error("failed to delete alarm")
		t.respond(c, "Something went wrong.")
		return
	}

	t.respond(c, "Alarm deleted.")
	t.refreshAlarmKeyboard(c)
}

// DeleteAllCallback removes every alarm of the user
func (t *telegram) DeleteAllCallback(c *tb.Callback) {
	if err := t.registry.DeleteAll(c.Message.Chat.ID); err != nil {
		log.WithError(err).Error("failed to delete alarms")
		t.respond(c, "Something went wrong.")
		return
	}

	t.respond(c, "All alarms deleted.")
	t.refreshAlarmKeyboard(c)
}

func (t *telegram) respond(c *tb.Callback, text string) {
	if err := t.client.Respond(c, &tb.CallbackResponse{Text: text}); err != nil {
		log.WithError(err).Error("failed to answer callback")
	}
}

func (t *telegram) refreshAlarmKeyboard(c *tb.Callback) {
	alarms, err := t.registry.List(c.Message.Chat.ID)
	if err != nil {
		log.WithError(err).Error("failed to list alarms")
		return
	}

	if len(alarms) == 0 {
		if _, err := t.client.Edit(c.Message, "You have no alarms. Set one with /add."); err != nil {
			log.WithError(err).Error("failed to edit alarm list")
		}
		return
	}

	if _, err := t.client.EditReplyMarkup(c.Message, alarmKeyboard(alarms)); err != nil {
		log.WithError(err).Error("failed to edit alarm keyboard")
	}
}

// StatusHandle displays bot and feed statistics
func (t *telegram) StatusHandle(m *tb.Message) {
	users, err := t.registry.UserCount()
	if err != nil {
		log.WithError(err).Error("failed to count users")
	}

	gate := "closed"
	if t.tracker.IsOpen() {
		gate = "open"
	}

	var sb strings.Builder
	sb.WriteString("*STATUS*\n")
	fmt.Fprintf(&sb, "Uptime: `%s`\n", time.Since(t.startedAt).Round(time.Second))
	fmt.Fprintf(&sb, "Users: `%d`\n", users)
	fmt.Fprintf(&sb, "Updates handled: `%d`\n", t.handled.Load())
	if last := t.lastSeen.Load(); last > 0 {
		fmt.Fprintf(&sb, "Last update: `%s ago`\n", time.Since(time.Unix(0, last)).Round(time.Second))
	}
	fmt.Fprintf(&sb, "Equity session: `%s`\n", gate)

	for _, market := range []core.Market{core.MarketEquity, core.MarketCrypto} {
		stats := t.prices.Stats(market)
		summary := t.metrics.Summarize(market)

		fmt.Fprintf(&sb, "\n*%s*\n", strings.ToUpper(string(market)))
		fmt.Fprintf(&sb, "Symbols: `%d`\n", len(t.prices.Symbols(market)))
		if !stats.UpdatedAt.IsZero() {
			fmt.Fprintf(&sb, "Last update: `%s ago`\n", time.Since(stats.UpdatedAt).Round(time.Second))
		}
		fmt.Fprintf(&sb, "Fetches: `%d ok` / `%d failed`\n", summary.Count, summary.Failures)
		fmt.Fprintf(&sb, "Latency: `%s mean` / `%s p95`\n",
			summary.Mean.Round(time.Millisecond), summary.P95.Round(time.Millisecond))
		if interval, ok := t.metrics.MeanLatencyInterval(market, 0.95); ok {
			fmt.Fprintf(&sb, "Mean 95%% CI: `%s .. %s`\n",
				interval.Lower.Round(time.Millisecond), interval.Upper.Round(time.Millisecond))
		}
		fmt.Fprintf(&sb, "Payload: `%.1f KB total`\n", float64(stats.TotalBytes)/1024)
	}

	t.sendMessage(m.Sender, sb.String())
}

// ToggleMarketHoursHandle flips the market open/close alert preference
func (t *telegram) ToggleMarketHoursHandle(m *tb.Message) {
	enabled, err := t.registry.ToggleMarketHours(m.Chat.ID)
	if err != nil {
		log.WithError(err).Error("failed to toggle market hours alerts")
		t.sendMessage(m.Sender, "Something went wrong, please try again.")
		return
	}

	if enabled {
		t.sendMessage(m.Sender, "Market hours alerts enabled.")
	} else {
		t.sendMessage(m.Sender, "Market hours alerts disabled.")
	}
}

// TextHandle completes pending forced replies and answers greetings
func (t *telegram) TextHandle(m *tb.Message) {
	if m.IsReply() {
		if cmd, ok := t.pending.Take(m.ReplyTo.ID); ok {
			t.completePending(m, cmd)
			return
		}
	}

	switch strings.ToLower(strings.TrimSpace(m.Text)) {
	case "hey", "hi", "hello", "yo", "sup":
		t.sendMessage(m.Sender, greetings[rand.Intn(len(greetings))])
	}
}

func (t *telegram) completePending(m *tb.Message, cmd pendingCommand) {
	answer := strings.TrimSpace(m.Text)

	switch cmd.kind {
	case pendingPrice:
		t.replyPrice(m.Sender, answer)
	case pendingSearch:
		t.replySearch(m.Sender, answer)
	case pendingAddSymbol:
		t.prompt(m.Sender, fmt.Sprintf("At what price should I alert you for %s?", strings.ToUpper(answer)),
			pendingCommand{kind: pendingAddThreshold, symbol: answer})
	case pendingAddThreshold:
		t.replyAdd(m.Sender, cmd.symbol, answer)
	}
}

// prompt sends a forced reply question and remembers which command is
// waiting for the answer
func (t *telegram) prompt(to *tb.User, question string, cmd pendingCommand) {
	sent, err := t.client.Send(to, question, &tb.ReplyMarkup{ForceReply: true})
	if err != nil {
		log.WithError(err).Error("failed to send prompt")
		return
	}
	t.pending.Put(sent.ID, cmd)
}

func (t *telegram) resolveErrorText(query string, candidates []catalog.Candidate, err error) string {
	switch {
	case errors.Is(err, core.ErrAmbiguousSymbol) && len(candidates) > 0:
		lines := make([]string, 0, len(candidates)+1)
		lines = append(lines, fmt.Sprintf("%q matches more than one symbol:", query))
		for _, c := range candidates {
			lines = append(lines, c.String())
		}
		return strings.Join(lines, "\n")
	case errors.Is(err, core.ErrAmbiguousSymbol):
		return fmt.Sprintf("%q is too short, give me at least 3 characters or an exact symbol.", query)
	case errors.Is(err, core.ErrSymbolNotFound):
		return fmt.Sprintf("I don't know %q. Try /search to find the right symbol.", query)
	default:
		return "Something went wrong, please try again."
	}
}
