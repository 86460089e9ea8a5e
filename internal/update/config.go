package update

import (
	"os"
	"strconv"
	"strings"

	"github.com/fbecker/blockplan/internal/gap"
	"github.com/fbecker/blockplan/internal/model"
)

type RuntimeConfig struct {
	DBPath               string
	DesktopNotifications bool
	DayStartHour         int
	DayEndHour           int
	SlotMinMinutes       int
	SlotMaxMinutes       int
	MostlyFreeBusyMins   int
	DefaultTaskMinutes   int
	HistoryDays          int
	AlertBuffer          int
	BlockLeadMinutes     int
}

func DefaultRuntimeConfig() RuntimeConfig {
	win := gap.DefaultWindow()
	return RuntimeConfig{
		DBPath:               "blockplan.db",
		DesktopNotifications: false,
		DayStartHour:         win.StartHour,
		DayEndHour:           win.EndHour,
		SlotMinMinutes:       win.MinMinutes,
		SlotMaxMinutes:       win.MaxMinutes,
		MostlyFreeBusyMins:   win.MostlyFreeBusyAt,
		DefaultTaskMinutes:   model.DefaultDurationMinutes,
		HistoryDays:          7,
		AlertBuffer:          64,
		BlockLeadMinutes:     5,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("BLOCKPLAN_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v, ok := getEnvBool("BLOCKPLAN_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_DAY_START_HOUR"); ok && v >= 0 && v < 24 {
		cfg.DayStartHour = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_DAY_END_HOUR"); ok && v > 0 && v <= 24 {
		cfg.DayEndHour = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_SLOT_MIN_MINUTES"); ok && v > 0 {
		cfg.SlotMinMinutes = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_SLOT_MAX_MINUTES"); ok && v > 0 {
		cfg.SlotMaxMinutes = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_MOSTLY_FREE_BUSY_MINUTES"); ok && v > 0 {
		cfg.MostlyFreeBusyMins = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_DEFAULT_TASK_MINUTES"); ok && v > 0 {
		cfg.DefaultTaskMinutes = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_HISTORY_DAYS"); ok && v > 0 {
		cfg.HistoryDays = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_ALERT_BUFFER"); ok && v > 0 {
		cfg.AlertBuffer = v
	}
	if v, ok := getEnvInt("BLOCKPLAN_BLOCK_LEAD_MINUTES"); ok && v >= 0 {
		cfg.BlockLeadMinutes = v
	}
	return cfg
}

// Window translates the config into the gap-finder day window.
func (c RuntimeConfig) Window() gap.Window {
	win := gap.DefaultWindow()
	win.StartHour = c.DayStartHour
	win.EndHour = c.DayEndHour
	win.MinMinutes = c.SlotMinMinutes
	win.MaxMinutes = c.SlotMaxMinutes
	win.MostlyFreeBusyAt = c.MostlyFreeBusyMins
	return win
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
