// Package alarm owns the per-user alarm registry and the evaluation
// engine that matches price updates against registered alarms.
package alarm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
	"github.com/colinwz/stonkbot/pkg/logger"
	"github.com/google/uuid"
)

// Registry owns user records and their alarms. Every exported method
// is one full serialized operation; the evaluator's sweep runs under
// the same lock, so a concurrent delete can never interleave with a
// baseline advance on the same alarm set.
type Registry struct {
	mu      sync.Mutex
	users   core.UserStorage
	catalog *catalog.Catalog
	prices  catalog.PriceIndex
	log     logger.Logger
}

func NewRegistry(users core.UserStorage, cat *catalog.Catalog, prices catalog.PriceIndex, log logger.Logger) *Registry {
	return &Registry{
		users:   users,
		catalog: cat,
		prices:  prices,
		log:     log,
	}
}

// EnsureUser returns the user for a chat id, creating it on first
// interaction. New users receive market hours notifications until they
// toggle them off.
func (r *Registry) EnsureUser(chatID int64) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ensureUser(chatID)
}

func (r *Registry) ensureUser(chatID int64) (*core.User, error) {
	user, err := r.users.Get(chatID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return nil, err
	}

	user = &core.User{
		ChatID:           chatID,
		MarketHoursAlert: true,
		CreatedAt:        time.Now(),
	}
	if err := r.users.Save(user); err != nil {
		return nil, err
	}

	r.log.Infof("added new user: %d", chatID)
	return user, nil
}

// Create registers a new alarm for a user. The query is resolved
// through the symbol catalog; the threshold is parsed, validated
// against the ceiling and rounded to two decimals. The baseline is the
// symbol's current snapshot price, so creation fails with
// ErrPriceUnavailable before the first successful poll of that market.
func (r *Registry) Create(chatID int64, query, rawThreshold string) (core.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, _, err := r.catalog.Resolve(query, r.prices)
	if err != nil {
		return core.Alarm{}, err
	}

	threshold, err := ParseThreshold(rawThreshold)
	if err != nil {
		return core.Alarm{}, err
	}

	quote, ok := r.prices.Quote(info.Market, info.Symbol)
	if !ok {
		return core.Alarm{}, fmt.Errorf("%w: %s", core.ErrPriceUnavailable, info.Symbol)
	}

	user, err := r.ensureUser(chatID)
	if err != nil {
		return core.Alarm{}, err
	}

	direction := core.DirectionUp
	if threshold < quote.Price {
		direction = core.DirectionDown
	}

	created := core.Alarm{
		ID:        uuid.NewString(),
		Symbol:    info.Symbol,
		Market:    info.Market,
		Direction: direction,
		Baseline:  quote.Price,
		Threshold: threshold,
		CreatedAt: time.Now(),
	}

	user.Alarms = append(user.Alarms, created)
	if err := r.users.Save(user); err != nil {
		return core.Alarm{}, err
	}

	r.log.Infof("added alarm %s", created.Symbol)
	return created, nil
}

// Delete removes one alarm by id. Deleting an id that does not exist
// is a no-op, so repeated taps on the same list button do nothing.
func (r *Registry) Delete(chatID int64, alarmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.users.Get(chatID)
	if err != nil {
		return err
	}

	for i, a := range user.Alarms {
		if a.ID != alarmID {
			continue
		}

		user.Alarms = append(user.Alarms[:i], user.Alarms[i+1:]...)
		r.log.Infof("deleted alarm %s", a.Symbol)
		return r.users.Save(user)
	}

	return nil
}

// DeleteAll removes every alarm of a user.
func (r *Registry) DeleteAll(chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.users.Get(chatID)
	if err != nil {
		return err
	}

	user.Alarms = nil
	return r.users.Save(user)
}

// List returns a user's alarms in creation order.
func (r *Registry) List(chatID int64) ([]core.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.users.Get(chatID)
	if err != nil {
		return nil, err
	}

	out := make([]core.Alarm, len(user.Alarms))
	copy(out, user.Alarms)
	return out, nil
}

// ToggleMarketHours flips a user's session event notification flag and
// returns the new value.
func (r *Registry) ToggleMarketHours(chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.users.Get(chatID)
	if err != nil {
		return false, err
	}

	user.MarketHoursAlert = !user.MarketHoursAlert
	return user.MarketHoursAlert, r.users.Save(user)
}

// UserCount reports how many users are registered.
func (r *Registry) UserCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users.All()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// MarketHoursAudience lists the chat ids that opted into session event
// notifications.
func (r *Registry) MarketHoursAudience() ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users.All()
	if err != nil {
		return nil, err
	}

	var out []int64
	for _, u := range users {
		if u.MarketHoursAlert {
			out = append(out, u.ChatID)
		}
	}
	return out, nil
}

// visit applies fn to every user under the registry lock and persists
// each mutated record. The evaluator sweeps through here.
func (r *Registry) visit(fn func(*core.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users.All()
	if err != nil {
		return err
	}

	for _, user := range users {
		fn(user)
		if err := r.users.Save(user); err != nil {
			return err
		}
	}

	return nil
}

// ParseThreshold parses and validates a user-supplied alarm threshold.
// It must be a positive number no greater than the ceiling; the stored
// value is rounded to two decimals.
func ParseThreshold(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: must be a number", core.ErrInvalidPrice)
	}

	value = math.Round(value*100) / 100

	if value <= 0 {
		return 0, fmt.Errorf("%w: must be above 0", core.ErrInvalidPrice)
	}

	if value > core.ThresholdCeiling {
		return 0, fmt.Errorf("%w: too high", core.ErrInvalidPrice)
	}

	return value, nil
}
