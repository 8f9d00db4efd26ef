// Package hubconfig defines the YAML-loadable configuration schema (spec
// §6.2) and its defaulting/validation rules, grounded on the teacher's
// internal/config.TuningConfig: plain value fields that Parse's defaulting
// pass fills in where a partial document leaves them zero, plus a
// Validate method run once at load time.
package hubconfig

// Config is the root document recognized under the top-level keys of
// spec §6.2.
type Config struct {
	Sensors    []SensorConfig   `yaml:"sensors" json:"sensors"`
	DBSCAN     DBSCANConfig     `yaml:"dbscan" json:"dbscan"`
	Prefilter  PrefilterConfig  `yaml:"prefilter" json:"prefilter"`
	Postfilter PostfilterConfig `yaml:"postfilter" json:"postfilter"`
	UI         UIConfig         `yaml:"ui" json:"ui"`
	Security   SecurityConfig   `yaml:"security" json:"security"`
	WorldMask  WorldMaskConfig  `yaml:"world_mask" json:"world_mask"`
	Sinks      []SinkConfig     `yaml:"sinks" json:"sinks"`
}

type PoseConfig struct {
	TX       float64 `yaml:"tx" json:"tx"`
	TY       float64 `yaml:"ty" json:"ty"`
	ThetaDeg float64 `yaml:"theta" json:"theta"`
}

type AngleMaskConfig struct {
	MinDeg float64 `yaml:"min" json:"min"`
	MaxDeg float64 `yaml:"max" json:"max"`
}

type RangeMaskConfig struct {
	NearM float64 `yaml:"near" json:"near"`
	FarM  float64 `yaml:"far" json:"far"`
}

type MaskConfig struct {
	Angle AngleMaskConfig `yaml:"angle" json:"angle"`
	Range RangeMaskConfig `yaml:"range" json:"range"`
}

// SensorConfig describes one configured slot entry (spec §3 SensorSlot,
// §6.2 sensor entry shape).
type SensorConfig struct {
	ID                  string     `yaml:"id" json:"id"`
	Type                string     `yaml:"type" json:"type"`
	Endpoint            string     `yaml:"endpoint" json:"endpoint"`
	Enabled             bool       `yaml:"enabled" json:"enabled"`
	Mode                string     `yaml:"mode" json:"mode"`
	SkipStep            int        `yaml:"skip_step" json:"skip_step"`
	IgnoreChecksumError bool       `yaml:"ignore_checksum_error" json:"ignore_checksum_error"`
	Pose                PoseConfig `yaml:"pose" json:"pose"`
	Mask                MaskConfig `yaml:"mask" json:"mask"`
}

// NoiseModel is the per-slot sensor noise model (spec §3, §4.6). It is
// not part of the YAML schema's sensor entry — the spec initializes it to
// the default on slot creation and never mutates it from the core — but
// living here keeps the default value next to the rest of the config
// defaults.
type NoiseModel struct {
	DeltaThetaRad float64
	Sigma0        float64
	Alpha         float64
}

// DefaultNoiseModel returns the spec §3 default sensor noise model.
func DefaultNoiseModel() NoiseModel {
	return NoiseModel{DeltaThetaRad: 0.0043633, Sigma0: 0.02, Alpha: 0.004}
}

// DBSCANConfig is the spec §3 DbscanConfig.
type DBSCANConfig struct {
	EpsNorm float64 `yaml:"eps_norm" json:"eps_norm"`
	MinPts  int     `yaml:"min_pts" json:"min_pts"`
	KScale  float64 `yaml:"k_scale" json:"k_scale"`
	HMin    float64 `yaml:"h_min" json:"h_min"`
	HMax    float64 `yaml:"h_max" json:"h_max"`
	RMax    int     `yaml:"r_max" json:"r_max"`
	MMax    int     `yaml:"m_max" json:"m_max"`
}

// DefaultDBSCANConfig returns conservative defaults consistent with the
// bounds in spec §6.3's PUT /dbscan validation.
func DefaultDBSCANConfig() DBSCANConfig {
	return DBSCANConfig{EpsNorm: 2.5, MinPts: 2, KScale: 1.0, HMin: 0.01, HMax: 0.5, RMax: 3, MMax: 200}
}

type NeighborhoodConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	K       int     `yaml:"k" json:"k"`
	RBase   float64 `yaml:"r_base" json:"r_base"`
	RScale  float64 `yaml:"r_scale" json:"r_scale"`
}

type SpikeRemovalConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	DrThreshold float64 `yaml:"dr_threshold" json:"dr_threshold"`
	WindowSize  int     `yaml:"window_size" json:"window_size"`
}

type OutlierRemovalConfig struct {
	Enabled             bool    `yaml:"enabled" json:"enabled"`
	MedianWindow        int     `yaml:"median_window" json:"median_window"`
	OutlierThreshold    float64 `yaml:"outlier_threshold" json:"outlier_threshold"`
	UseRobustRegression bool    `yaml:"use_robust_regression" json:"use_robust_regression"`
}

type IntensityFilterConfig struct {
	Enabled        bool    `yaml:"enabled" json:"enabled"`
	MinIntensity   float64 `yaml:"min_intensity" json:"min_intensity"`
	MinReliability float64 `yaml:"min_reliability" json:"min_reliability"`
}

type IsolationRemovalConfig struct {
	Enabled         bool    `yaml:"enabled" json:"enabled"`
	MinClusterSize  int     `yaml:"min_cluster_size" json:"min_cluster_size"`
	IsolationRadius float64 `yaml:"isolation_radius" json:"isolation_radius"`
}

// PrefilterConfig is the spec §3 PrefilterConfig.
type PrefilterConfig struct {
	Enabled          bool                   `yaml:"enabled" json:"enabled"`
	Neighborhood     NeighborhoodConfig     `yaml:"neighborhood" json:"neighborhood"`
	SpikeRemoval     SpikeRemovalConfig     `yaml:"spike_removal" json:"spike_removal"`
	OutlierRemoval   OutlierRemovalConfig   `yaml:"outlier_removal" json:"outlier_removal"`
	IntensityFilter  IntensityFilterConfig  `yaml:"intensity_filter" json:"intensity_filter"`
	IsolationRemoval IsolationRemovalConfig `yaml:"isolation_removal" json:"isolation_removal"`
}

// PostfilterConfig is the spec §3 PostfilterConfig.
type PostfilterConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	MinPointsSize     int     `yaml:"min_points_size" json:"min_points_size"`
	IsolationRadius   float64 `yaml:"isolation_radius" json:"isolation_radius"`
	RequiredNeighbors int     `yaml:"required_neighbors" json:"required_neighbors"`
}

type UIConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

type SecurityConfig struct {
	APIToken string `yaml:"api_token" json:"api_token"`
}

// WorldMaskConfig is a sequence of polygons, each a sequence of [x,y]
// pairs (spec §6.2).
type WorldMaskConfig struct {
	Include [][][2]float64 `yaml:"include" json:"include"`
	Exclude [][][2]float64 `yaml:"exclude" json:"exclude"`
}

// SinkConfig is the tagged-variant sink descriptor of spec §3/§6.2. Type
// is either "nng" or "osc"; fields not relevant to the tag are left zero.
type SinkConfig struct {
	Type               string  `yaml:"type" json:"type"`
	URL                string  `yaml:"url" json:"url"`
	Encoding           string  `yaml:"encoding" json:"encoding"`
	Topic              string  `yaml:"topic" json:"topic"`
	RateLimit          float64 `yaml:"rate_limit" json:"rate_limit"`
	InBundle           bool    `yaml:"in_bundle" json:"in_bundle"`
	BundleFragmentSize int     `yaml:"bundle_fragment_size" json:"bundle_fragment_size"`
}

const (
	SinkTypeNNG = "nng"
	SinkTypeOSC = "osc"

	SinkEncodingJSON    = "json"
	SinkEncodingMsgpack = "msgpack"

	ModeRangeOnly      = "MD"
	ModeRangeIntensity = "ME"
)
