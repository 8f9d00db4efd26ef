package hubconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxFileSize bounds how large a config file this loader will accept,
// the same defensive ceiling the teacher's LoadTuningConfig applies to
// its JSON config file.
const maxFileSize = 4 * 1024 * 1024

// DefaultConfigPath is the --config flag's default, per spec §6.1.
const DefaultConfigPath = "./config/default.yaml"

// Load reads and parses a YAML config file, applying defaults and then
// validating the result.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("hubconfig: stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("hubconfig: config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hubconfig: read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a Config, applies defaults for
// zero-valued fields, normalizes sensor masks per spec §4.2, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("hubconfig: parse yaml: %w", err)
	}
	applyDefaults(cfg)
	normalize(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hubconfig: invalid configuration: %w", err)
	}
	return cfg, nil
}

// Dump serializes cfg back to YAML. Per spec §6.2 the result only needs
// to be functionally equivalent to a hand-written document — key order
// and exact formatting are not guaranteed to match the input.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.DBSCAN == (DBSCANConfig{}) {
		cfg.DBSCAN = DefaultDBSCANConfig()
	}
	if cfg.UI.Listen == "" {
		cfg.UI.Listen = ":8080"
	}
	for i := range cfg.Sensors {
		s := &cfg.Sensors[i]
		if s.Mode == "" {
			s.Mode = ModeRangeOnly
		}
		if s.SkipStep == 0 {
			s.SkipStep = 1
		}
		if s.Mask.Angle == (AngleMaskConfig{}) {
			s.Mask.Angle = AngleMaskConfig{MinDeg: -180, MaxDeg: 180}
		}
		if s.Mask.Range == (RangeMaskConfig{}) {
			s.Mask.Range = RangeMaskConfig{NearM: 0, FarM: 1000}
		}
	}
	for i := range cfg.Sinks {
		if cfg.Sinks[i].Encoding == "" && cfg.Sinks[i].Type == SinkTypeNNG {
			cfg.Sinks[i].Encoding = SinkEncodingJSON
		}
	}
}

// normalize applies the spec §4.2 mask normalization rules (swap if
// min>max, clamp angle to [-180,180], range floors at 0) to every
// sensor's local mask.
func normalize(cfg *Config) {
	for i := range cfg.Sensors {
		m := &cfg.Sensors[i].Mask
		if m.Angle.MinDeg > m.Angle.MaxDeg {
			m.Angle.MinDeg, m.Angle.MaxDeg = m.Angle.MaxDeg, m.Angle.MinDeg
		}
		m.Angle.MinDeg = clamp(m.Angle.MinDeg, -180, 180)
		m.Angle.MaxDeg = clamp(m.Angle.MaxDeg, -180, 180)

		if m.Range.NearM > m.Range.FarM {
			m.Range.NearM, m.Range.FarM = m.Range.FarM, m.Range.NearM
		}
		if m.Range.NearM < 0 {
			m.Range.NearM = 0
		}
		if m.Range.FarM < 0 {
			m.Range.FarM = 0
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate checks invariants spelled out across spec §3 and §6.3. It is
// run by Parse at load time; the control adapter checks PUT/PATCH
// fragments with ValidateDBSCAN and ValidateSink instead.
func (c *Config) Validate() error {
	ids := make(map[string]bool, len(c.Sensors))
	for _, s := range c.Sensors {
		if s.ID == "" {
			return fmt.Errorf("sensor entry missing id")
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate sensor id %q", s.ID)
		}
		ids[s.ID] = true
		if s.Mode != ModeRangeOnly && s.Mode != ModeRangeIntensity {
			return fmt.Errorf("sensor %q: invalid mode %q", s.ID, s.Mode)
		}
		if s.SkipStep < 1 {
			return fmt.Errorf("sensor %q: skip_step must be >= 1", s.ID)
		}
		if s.Mask.Range.NearM > s.Mask.Range.FarM {
			return fmt.Errorf("sensor %q: mask.range.near_m must be <= far_m", s.ID)
		}
		if s.Mask.Angle.MinDeg > s.Mask.Angle.MaxDeg {
			return fmt.Errorf("sensor %q: mask.angle.min_deg must be <= max_deg", s.ID)
		}
	}

	if err := ValidateDBSCAN(c.DBSCAN); err != nil {
		return err
	}

	for i, p := range c.WorldMask.Include {
		if len(p) < 3 {
			return fmt.Errorf("world_mask.include[%d]: polygon needs >= 3 vertices", i)
		}
	}
	for i, p := range c.WorldMask.Exclude {
		if len(p) < 3 {
			return fmt.Errorf("world_mask.exclude[%d]: polygon needs >= 3 vertices", i)
		}
	}

	for i, sk := range c.Sinks {
		if err := ValidateSink(sk); err != nil {
			return fmt.Errorf("sinks[%d]: %w", i, err)
		}
	}

	return nil
}

// ValidateDBSCAN enforces the bounds spec §6.3 lists for PUT /dbscan.
func ValidateDBSCAN(d DBSCANConfig) error {
	switch {
	case d.EpsNorm < 0.1 || d.EpsNorm > 10:
		return fmt.Errorf("dbscan.eps_norm out of range [0.1,10]: %v", d.EpsNorm)
	case d.MinPts < 1 || d.MinPts > 100:
		return fmt.Errorf("dbscan.min_pts out of range [1,100]: %v", d.MinPts)
	case d.KScale < 0.1 || d.KScale > 10:
		return fmt.Errorf("dbscan.k_scale out of range [0.1,10]: %v", d.KScale)
	case d.HMin < 0.001 || d.HMin > d.HMax:
		return fmt.Errorf("dbscan.h_min out of range [0.001,h_max]: %v", d.HMin)
	case d.HMax < d.HMin || d.HMax > 1.0:
		return fmt.Errorf("dbscan.h_max out of range [h_min,1.0]: %v", d.HMax)
	case d.RMax < 1 || d.RMax > 50:
		return fmt.Errorf("dbscan.r_max out of range [1,50]: %v", d.RMax)
	case d.MMax < 10 || d.MMax > 5000:
		return fmt.Errorf("dbscan.m_max out of range [10,5000]: %v", d.MMax)
	}
	return nil
}

// ValidateSink enforces the URL-scheme/encoding rules of spec §6.3.
func ValidateSink(sk SinkConfig) error {
	switch sk.Type {
	case SinkTypeNNG:
		if !strings.HasPrefix(sk.URL, "tcp://") {
			return fmt.Errorf("nng sink url must begin with tcp://, got %q", sk.URL)
		}
		if sk.Encoding != SinkEncodingMsgpack && sk.Encoding != SinkEncodingJSON {
			return fmt.Errorf("nng sink encoding must be msgpack or json, got %q", sk.Encoding)
		}
	case SinkTypeOSC:
		if !strings.HasPrefix(sk.URL, "osc://") {
			return fmt.Errorf("osc sink url must begin with osc://, got %q", sk.URL)
		}
	default:
		return fmt.Errorf("unknown sink type %q", sk.Type)
	}
	if sk.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be >= 0, got %v", sk.RateLimit)
	}
	return nil
}

// ParseEndpoint splits a sensor's "host:port" endpoint string, mirroring
// the §6.2 allowance that endpoint may also arrive as a {host,port}
// object at the REST boundary (handled there; this helper covers the
// plain-string form used by the YAML schema).
func ParseEndpoint(endpoint string) (host string, port int, err error) {
	idx := strings.LastIndex(endpoint, ":")
	if idx < 0 {
		return "", 0, fmt.Errorf("endpoint %q missing port", endpoint)
	}
	host = endpoint[:idx]
	port, err = strconv.Atoi(endpoint[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("endpoint %q has non-numeric port: %w", endpoint, err)
	}
	return host, port, nil
}
