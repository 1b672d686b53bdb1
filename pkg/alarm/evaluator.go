package alarm

import (
	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/logger"
)

// Evaluator decides which alarms fire for a price update and advances
// alarm baselines. It is the only mutator of alarm baselines.
type Evaluator struct {
	registry *Registry
	log      logger.Logger
}

func NewEvaluator(registry *Registry, log logger.Logger) *Evaluator {
	return &Evaluator{registry: registry, log: log}
}

// Evaluate matches a fresh snapshot of one market against every alarm
// of every user and returns the notification intents to deliver.
//
// An upward alarm fires when the price crosses the threshold from
// below: the baseline (last observed price) is still under the
// threshold and the new observation is strictly above it. Downward is
// the mirror image. The baseline then advances to the observed price
// on every pass, fired or not, so re-evaluating the same snapshot
// produces no further crossing. An alarm is never disabled by firing:
// once the price falls back through the threshold and crosses it
// again, it fires again.
//
// Alarms of the other market, and alarms whose symbol is absent from
// the snapshot, are left untouched.
func (e *Evaluator) Evaluate(market core.Market, quotes map[string]core.Quote) ([]core.NotificationIntent, error) {
	var intents []core.NotificationIntent

	err := e.registry.visit(func(user *core.User) {
		for i := range user.Alarms {
			a := &user.Alarms[i]
			if a.Market != market {
				continue
			}

			quote, ok := quotes[a.Symbol]
			if !ok {
				continue
			}

			if crossed(*a, quote.Price) {
				e.log.Infof("alarm fired: %s at %.2f for chat %d", a.Symbol, quote.Price, user.ChatID)
				intents = append(intents, core.NotificationIntent{
					ChatID:    user.ChatID,
					Symbol:    a.Symbol,
					Threshold: a.Threshold,
				})
			}

			a.Baseline = quote.Price
		}
	})
	if err != nil {
		return nil, err
	}

	return intents, nil
}

func crossed(a core.Alarm, observed float64) bool {
	switch a.Direction {
	case core.DirectionUp:
		return a.Threshold > a.Baseline && observed > a.Threshold
	case core.DirectionDown:
		return a.Threshold < a.Baseline && observed < a.Threshold
	default:
		return false
	}
}
