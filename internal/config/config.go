/*
Package config loads the process configuration: a .env file (via
joho/godotenv, loaded once at startup the way aristath-sentinel does it)
plus environment variables with typed defaults and validation, matching
the full env var surface spec.md section 6 names. CLI flags for -db/-port
are layered on top by cmd/server, flags winning over env,
mirroring the teacher's cmd/server/main.go flag-then-config-struct order.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/warp/cashflow-engine/core"
)

type Config struct {
	DBPath   string
	ExportDir string
	BasePath string

	AdminToken string
	CSRFToken  string

	BufferFloorCents    core.Money
	OverdraftThresholds map[string]core.Money // account id -> min floor cents

	SchedulerEnabled bool
	SchedulerHour    int
	SchedulerMinute  int
	SchedulerTZ      string

	LogFormat string
	LogLevel  string

	ExportS3Bucket string

	// FixedCostCategories feeds household_fixed_costs() and the
	// loan_application_basics/affordability_snapshot packs, which need a
	// caller-supplied notion of "fixed" categories the spec leaves as an
	// Open Question; see DESIGN.md.
	FixedCostCategories []string

	// AlertThresholds tunes the nightly alert rules (spec section 4.9,
	// left as an Open Question for implementers to expose as config).
	AlertThresholds core.AlertThresholds
}

// Load reads .env (if present; missing is not an error) then env vars,
// applying the defaults below. Malformed cents values and overdraft
// thresholds, and out-of-range scheduler hour/minute, are errors; a
// malformed integer or boolean value falls back to its default.
func Load() (Config, error) {
	_ = godotenv.Load() // optional; absence is normal in production envs

	cfg := Config{
		DBPath:           getEnv("DB_PATH", "./cashflow.db"),
		ExportDir:        getEnv("EXPORT_DIR", "./exports"),
		BasePath:         getEnv("BASE_PATH", ""),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		CSRFToken:        os.Getenv("CSRF_TOKEN"),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerHour:    getEnvInt("SCHEDULER_HOUR", 2),
		SchedulerMinute:  getEnvInt("SCHEDULER_MINUTE", 0),
		SchedulerTZ:      getEnv("SCHEDULER_TZ", "UTC"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ExportS3Bucket:   os.Getenv("EXPORT_S3_BUCKET"),
	}

	if raw := os.Getenv("FIXED_COST_CATEGORIES"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.FixedCostCategories = append(cfg.FixedCostCategories, c)
			}
		}
	}

	floor, err := getEnvCents("BUFFER_FLOOR_CENTS", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.BufferFloorCents = floor

	thresholds, err := parseOverdraftThresholds(os.Getenv("OVERDRAFT_ALERT_THRESHOLDS"))
	if err != nil {
		return Config{}, err
	}
	cfg.OverdraftThresholds = thresholds

	minDrop, err := getEnvCents("ALERT_MIN_BALANCE_DROP_CENTS", 10000)
	if err != nil {
		return Config{}, err
	}
	largeDebit, err := getEnvCents("ALERT_LARGE_DEBIT_CENTS", 20000)
	if err != nil {
		return Config{}, err
	}
	driftTolerance, err := getEnvCents("ALERT_DRIFT_AMOUNT_TOLERANCE_CENTS", 500)
	if err != nil {
		return Config{}, err
	}
	cfg.AlertThresholds = core.AlertThresholds{
		MinBalanceDropCents:       minDrop,
		LargeDebitCents:           largeDebit,
		DriftAmountToleranceCents: driftTolerance,
		DriftDateToleranceDays:    getEnvInt("ALERT_DRIFT_DATE_TOLERANCE_DAYS", 3),
		DriftMinConsecutiveCycles: getEnvInt("ALERT_DRIFT_MIN_CONSECUTIVE_CYCLES", 3),
	}

	if cfg.SchedulerHour < 0 || cfg.SchedulerHour > 23 {
		return Config{}, core.NewValidationError("SCHEDULER_HOUR", "must be 0-23")
	}
	if cfg.SchedulerMinute < 0 || cfg.SchedulerMinute > 59 {
		return Config{}, core.NewValidationError("SCHEDULER_MINUTE", "must be 0-59")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvCents(key string, def int64) (core.Money, error) {
	v := os.Getenv(key)
	if v == "" {
		return core.Money(def), nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, core.NewValidationError(key, fmt.Sprintf("must be an integer number of cents: %v", err))
	}
	return core.Money(n), nil
}

// parseOverdraftThresholds parses "acct:cents,acct2:cents2".
func parseOverdraftThresholds(raw string) (map[string]core.Money, error) {
	out := make(map[string]core.Money)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, core.NewValidationError("OVERDRAFT_ALERT_THRESHOLDS", "malformed entry "+pair)
		}
		cents, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, core.NewValidationError("OVERDRAFT_ALERT_THRESHOLDS", "bad cents in "+pair)
		}
		out[strings.TrimSpace(parts[0])] = core.Money(cents)
	}
	return out, nil
}
