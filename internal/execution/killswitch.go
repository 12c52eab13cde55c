package execution

// KillSwitch blocks new orders once the day's realized loss reaches the
// configured limit. CurrentLoss reports the running EUR PnL (negative when
// losing); a nil func or zero limit disables the switch.
type KillSwitch struct {
	MaxDailyLossEUR float64
	CurrentLoss     func() float64
}

// Blocked reports whether trading is halted for the rest of the day.
func (k KillSwitch) Blocked() bool {
	if k.MaxDailyLossEUR <= 0 || k.CurrentLoss == nil {
		return false
	}
	return k.CurrentLoss() <= -k.MaxDailyLossEUR
}
