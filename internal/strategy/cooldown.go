package strategy

import (
	"time"

	"QuantPulse/pkg/logger"
)

// tradeOutcome is one closed trade in the bounded cooldown history.
// Appends must be chronological; the consecutive-loss scan relies on it.
type tradeOutcome struct {
	PnL  float64
	Time time.Time
}

// Cooldown is the consecutive-loss throttling sub-state machine. After a
// configured number of consecutive losing trades it activates at a level
// that shrinks position sizes and, in backtest mode, skips the next trades.
type Cooldown struct {
	cfg CooldownConfig
	log *logger.Logger

	history           []tradeOutcome
	consecutiveLosses int
	consecutiveWins   int

	active        bool
	level         int
	activatedAt   time.Time
	skippedTrades int
	maxSkipTrades int
}

// NewCooldown builds an inactive cooldown tracker.
func NewCooldown(cfg CooldownConfig, log *logger.Logger) *Cooldown {
	return &Cooldown{cfg: cfg, log: log}
}

// Reset unconditionally returns to INACTIVE and clears counters and history.
func (c *Cooldown) Reset() {
	c.history = nil
	c.consecutiveLosses = 0
	c.consecutiveWins = 0
	c.deactivate()
}

func (c *Cooldown) deactivate() {
	c.active = false
	c.level = 0
	c.activatedAt = time.Time{}
	c.skippedTrades = 0
	c.maxSkipTrades = 0
}

// Active reports whether a cooldown is currently in force.
func (c *Cooldown) Active() bool { return c.active }

// Level returns the active cooldown level, 0 when inactive.
func (c *Cooldown) Level() int { return c.level }

// ConsecutiveLosses returns the current losing streak length.
func (c *Cooldown) ConsecutiveLosses() int { return c.consecutiveLosses }

// RecordTrade appends a closed trade outcome, recomputes the streaks and
// activates or recovers the cooldown as needed. Must be called once per
// close, in chronological order.
func (c *Cooldown) RecordTrade(pnl float64, ts time.Time) {
	if !enabled(c.cfg.Enabled) {
		return
	}
	c.history = append(c.history, tradeOutcome{PnL: pnl, Time: ts})
	if limit := c.cfg.HistoryCap; limit > 0 && len(c.history) > limit {
		c.history = c.history[len(c.history)-limit:]
	}
	c.recomputeStreaks()

	if !c.active && c.consecutiveLosses >= c.cfg.LossThreshold {
		c.activate(ts)
		return
	}
	if c.active && c.cfg.Mode == "realtime" && c.realtimeExpired(ts) {
		c.log.Info("cooldown recovered, duration elapsed",
			logger.Int("level", c.level))
		c.deactivate()
	}
}

func (c *Cooldown) recomputeStreaks() {
	c.consecutiveLosses = 0
	c.consecutiveWins = 0
	for i := len(c.history) - 1; i >= 0; i-- {
		pnl := c.history[i].PnL
		if pnl < 0 && c.consecutiveWins == 0 {
			c.consecutiveLosses++
		} else if pnl > 0 && c.consecutiveLosses == 0 {
			c.consecutiveWins++
		} else {
			break
		}
	}
}

func (c *Cooldown) activate(ts time.Time) {
	switch {
	case c.consecutiveLosses >= 7:
		c.level = 3
		c.maxSkipTrades = c.cfg.Backtest.Level3SkipTrades
	case c.consecutiveLosses >= 5:
		c.level = 2
		c.maxSkipTrades = c.cfg.Backtest.Level2SkipTrades
	default:
		c.level = 1
		c.maxSkipTrades = c.cfg.Backtest.Level1SkipTrades
	}
	c.active = true
	c.activatedAt = ts
	c.skippedTrades = 0
	c.log.Warn("cooldown activated",
		logger.Int("level", c.level),
		logger.Int("consecutive_losses", c.consecutiveLosses),
		logger.String("mode", c.cfg.Mode))
}

func (c *Cooldown) levelDuration() time.Duration {
	hours := c.cfg.Realtime.Level1Hours
	switch c.level {
	case 2:
		hours = c.cfg.Realtime.Level2Hours
	case 3:
		hours = c.cfg.Realtime.Level3Hours
	}
	scale := c.cfg.Realtime.TimeframeHrs
	if scale <= 0 {
		scale = 1
	}
	return time.Duration(float64(hours) * scale * float64(time.Hour))
}

func (c *Cooldown) realtimeExpired(now time.Time) bool {
	return !c.activatedAt.IsZero() && now.Sub(c.activatedAt) >= c.levelDuration()
}

// ShouldSkipTrade is consulted once per open-signal evaluation. In backtest
// mode an active cooldown vetoes the next maxSkipTrades evaluations and then
// recovers; the recovering evaluation itself is allowed through. In realtime
// mode trading continues at reduced size, so this only checks expiry.
func (c *Cooldown) ShouldSkipTrade(now time.Time) bool {
	if !c.active {
		return false
	}
	if c.cfg.Mode != "backtest" {
		if c.realtimeExpired(now) {
			c.log.Info("cooldown recovered, duration elapsed",
				logger.Int("level", c.level))
			c.deactivate()
		}
		return false
	}
	if c.skippedTrades < c.maxSkipTrades {
		c.skippedTrades++
		if c.skippedTrades >= c.maxSkipTrades {
			c.log.Info("cooldown recovered, skip quota reached",
				logger.Int("level", c.level),
				logger.Int("skipped", c.skippedTrades))
			c.deactivate()
			return false
		}
		return true
	}
	return false
}

// SizeReduction returns the position-size multiplier imposed by the active
// cooldown level, 1.0 when inactive.
func (c *Cooldown) SizeReduction() float64 {
	if !c.active {
		return 1.0
	}
	switch c.level {
	case 3:
		return c.cfg.SizeReduction.Level3
	case 2:
		return c.cfg.SizeReduction.Level2
	default:
		return c.cfg.SizeReduction.Level1
	}
}
