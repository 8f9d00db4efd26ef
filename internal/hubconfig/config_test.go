package hubconfig

import "testing"

const sampleYAML = `
sensors:
  - id: a
    type: urg
    endpoint: "127.0.0.1:10940"
    enabled: true
    mask:
      angle:
        min: 190
        max: -190
      range:
        near: 5
        far: -1
dbscan:
  eps_norm: 2.5
  min_pts: 2
  k_scale: 1.0
  h_min: 0.01
  h_max: 0.5
  r_max: 3
  m_max: 200
sinks:
  - type: nng
    url: "tcp://127.0.0.1:5555"
    encoding: json
`

func TestParseAppliesDefaultsAndNormalization(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cfg.Sensors[0]
	if s.Mode != ModeRangeOnly {
		t.Errorf("expected default mode MD, got %q", s.Mode)
	}
	if s.SkipStep != 1 {
		t.Errorf("expected default skip_step 1, got %d", s.SkipStep)
	}
	if s.Mask.Angle.MinDeg != -180 || s.Mask.Angle.MaxDeg != 180 {
		t.Errorf("expected angle mask swapped and clamped, got [%v,%v]", s.Mask.Angle.MinDeg, s.Mask.Angle.MaxDeg)
	}
	if s.Mask.Range.NearM != 0 || s.Mask.Range.FarM != 5 {
		t.Errorf("expected range mask swapped and floored, got [%v,%v]", s.Mask.Range.NearM, s.Mask.Range.FarM)
	}
}

func TestParseRejectsDuplicateSensorIDs(t *testing.T) {
	const doc = `
sensors:
  - id: a
    endpoint: "127.0.0.1:1"
  - id: a
    endpoint: "127.0.0.1:2"
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestValidateDBSCANBounds(t *testing.T) {
	d := DefaultDBSCANConfig()
	if err := ValidateDBSCAN(d); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	d.MinPts = 0
	if err := ValidateDBSCAN(d); err == nil {
		t.Fatal("expected min_pts=0 to be rejected")
	}
}

func TestValidateSinkURLSchemes(t *testing.T) {
	if err := ValidateSink(SinkConfig{Type: SinkTypeNNG, URL: "http://x", Encoding: "json"}); err == nil {
		t.Fatal("expected non-tcp nng url to be rejected")
	}
	if err := ValidateSink(SinkConfig{Type: SinkTypeOSC, URL: "tcp://x"}); err == nil {
		t.Fatal("expected non-osc-scheme osc url to be rejected")
	}
	if err := ValidateSink(SinkConfig{Type: SinkTypeNNG, URL: "tcp://x", Encoding: "yaml"}); err == nil {
		t.Fatal("expected invalid nng encoding to be rejected")
	}
}

func TestParseEndpoint(t *testing.T) {
	host, port, err := ParseEndpoint("192.168.1.5:10940")
	if err != nil || host != "192.168.1.5" || port != 10940 {
		t.Fatalf("got (%q,%d,%v)", host, port, err)
	}
	if _, _, err := ParseEndpoint("no-port"); err == nil {
		t.Fatal("expected missing-port endpoint to error")
	}
}
