package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes placed orders to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) NotifyOrderPlaced(_ context.Context, s OrderSummary) error {
	n.logger.Info("Order placed",
		zap.Stringer("order_id", s.OrderID),
		zap.Int64("number", s.Number),
		zap.Int64("telegram_id", s.TelegramID),
		zap.String("total", s.Total.StringFixed(2)),
		zap.Int("lines", len(s.Lines)),
		zap.String("address", s.Address),
		zap.Time("date", s.Date),
	)
	return nil
}
