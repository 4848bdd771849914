package config

import "time"

type Config struct {
	GracefulDuration time.Duration
	DefaultTimeout   time.Duration
	Backend          Backend
	API              API
	Metrics          Metrics
	Logs             Logs
	Poll             Poll
	Simulation       Simulation
}

type Backend struct {
	BaseURL string
	Probe   Probe
}

// Probe bounds the startup reachability check against the backend. The
// data path itself never retries.
type Probe struct {
	Attempts uint
	Delay    time.Duration
}

type API struct {
	Port int
}

type Metrics struct {
	Port int
}

type Logs struct {
	Level   int
	Encoder EncoderType
}

type EncoderType string

const (
	EncoderTypeJson    EncoderType = "json"
	EncoderTypeConsole EncoderType = "console"
)

type Poll struct {
	Interval     time.Duration
	HistoryLimit int
}

type Simulation struct {
	DefaultType     string
	DefaultLocation DefaultLocation
}

type DefaultLocation struct {
	Lat     float64
	Lon     float64
	Address string
}
