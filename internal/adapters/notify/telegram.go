package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polyquant/internal/domain"
)

// Telegram implementa ports.AlertSink enviando mensajes a un chat. Los envíos
// son asíncronos: un Telegram lento nunca frena el ciclo de trading.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	minPnL  float64 // cierres con |pnl| por debajo no se notifican
}

// NewTelegram crea el sink validando el token contra la API.
func NewTelegram(token string, chatID int64, minPnL float64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		// Telegram corta a ~20 msg/min por chat
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 5),
		minPnL:  minPnL,
	}, nil
}

// NotifyTrade envía el evento formateado. OPEN y PYRAMID siempre; CLOSE solo
// si el PnL supera el umbral configurado.
func (t *Telegram) NotifyTrade(ctx context.Context, ev domain.TradeEvent) error {
	if ev.Action == domain.ActionClose && ev.PnL > -t.minPnL && ev.PnL < t.minPnL {
		return nil
	}
	t.sendAsync(ctx, t.format(ev))
	return nil
}

// NotifyEmergency avisa del modo de emergencia.
func (t *Telegram) NotifyEmergency(ctx context.Context, active bool, decay float64) error {
	if !active {
		return nil
	}
	t.sendAsync(ctx, fmt.Sprintf(
		"⚠️ *EMERGENCY MODE*\nNo closed trades in hours, loosening all thresholds x%.2f", decay))
	return nil
}

func (t *Telegram) format(ev domain.TradeEvent) string {
	name := domain.TruncateQuestion(ev.Question, ev.MarketID, 60)
	switch ev.Action {
	case domain.ActionOpen:
		return fmt.Sprintf("🟢 *OPEN %s* %s\n`%s` @ %.4f for $%.2f",
			ev.Side, name, ev.StrategyID, ev.Price, ev.Size)
	case domain.ActionPyramid:
		return fmt.Sprintf("➕ *PYRAMID* %s\n@ %.4f +$%.2f", name, ev.Price, ev.Size)
	default:
		icon := "🔴"
		if ev.PnL > 0 {
			icon = "✅"
		}
		return fmt.Sprintf("%s *CLOSE* %s\n%s @ %.4f → *%+.2f* USDC\nBalance: $%.2f",
			icon, name, ev.Reason, ev.Price, ev.PnL, ev.Balance)
	}
}

// sendAsync entrega el mensaje en una goroutine respetando el rate limit.
func (t *Telegram) sendAsync(ctx context.Context, text string) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := t.limiter.Wait(sendCtx); err != nil {
			slog.Warn("telegram rate limit wait", "error", err)
			return
		}
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := t.bot.Send(msg); err != nil {
			slog.Warn("telegram send", "error", err)
		}
	}()
}
