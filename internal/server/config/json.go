package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/notico/internal/flagx"
	"github.com/dmitrijs2005/notico/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "10s"
// or as integer nanoseconds.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	LogFile         string         `json:"log_file"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags(); when no
// path is given, nothing is loaded. Zero-valued JSON fields leave the
// corresponding Config value untouched.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		config.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.LogFile != "" {
		config.LogFile = jc.LogFile
	}
	if jc.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(jc.ShutdownTimeout.Duration)
	}
}
