package polltimer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"code.cloudfoundry.org/durationjson"
	"code.cloudfoundry.org/lager/v3"
)

// Config describes a timer and its polling loop in JSON form. Durations
// use the human-readable durationjson format ("30s", "150ms").
type Config struct {
	Interval     durationjson.Duration `json:"interval,omitempty"`
	Active       bool                  `json:"active"`
	PollInterval durationjson.Duration `json:"poll_interval,omitempty"`
}

// DefaultConfig matches a freshly constructed timer: zero interval,
// active, polled every 10ms.
var DefaultConfig = Config{
	Active:       true,
	PollInterval: durationjson.Duration(10 * time.Millisecond),
}

// LoadConfig reads a Config from a JSON file, starting from
// DefaultConfig for any field the file omits.
func LoadConfig(path string) (Config, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer configFile.Close()

	config := DefaultConfig
	if err := json.NewDecoder(configFile).Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// NewTimer builds a timer from the config. Negative and sub-millisecond
// intervals clamp to zero.
func (c Config) NewTimer(logger lager.Logger, millis MillisFunc) *Timer {
	return New(logger, millis, millisFromDuration(time.Duration(c.Interval)), c.Active)
}

func millisFromDuration(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Millisecond)
}
