package ledger

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries the money-related knobs the engine needs. Values come from
// the environment with deployment defaults matching the hosted instance.
type Config struct {
	// MinWithdrawalCFA is the smallest amount a user may request.
	MinWithdrawalCFA decimal.Decimal
	// OTPTTL is how long an issued email verification code stays valid.
	OTPTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinWithdrawalCFA: decimalEnv("MIN_WITHDRAWAL_CFA", decimal.NewFromInt(50)),
		OTPTTL:           durationMinutesEnv("OTP_TTL_MINUTES", 10*time.Minute),
	}
}

// PointsToCFA is the reward conversion table used when a task is created
// without an explicit monetary value. The two fixed tiers match the standard
// reward sizes; everything else converts linearly.
func PointsToCFA(points int) decimal.Decimal {
	switch points {
	case 100:
		return decimal.NewFromFloat(0.50)
	case 150:
		return decimal.NewFromFloat(0.70)
	}
	return decimal.NewFromInt(int64(points)).Mul(decimal.NewFromFloat(0.005))
}

func decimalEnv(key string, def decimal.Decimal) decimal.Decimal {
	if s := os.Getenv(key); s != "" {
		if v, err := decimal.NewFromString(s); err == nil && v.IsPositive() {
			return v
		}
	}
	return def
}

func durationMinutesEnv(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return time.Duration(v) * time.Minute
		}
	}
	return def
}
