package config

// Default configuration values.
const (
	DefaultStateFile        = ".leapkpi/state.db"
	DefaultWorkers          = 4
	DefaultFactsDriver      = "duckdb"
	DefaultSeedsDir         = "seeds"
	DefaultAPIAddr          = ":8088"
	DefaultOutlierWindow    = 6
	DefaultOutlierThreshold = 3.0
)

// ApplyDefaults fills unset values of a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Facts == nil {
		c.Facts = &FactsConfig{}
	}
	c.Facts.ApplyDefaults()
	if c.Outlier == nil {
		c.Outlier = &OutlierConfig{}
	}
	if c.Outlier.Window == 0 {
		c.Outlier.Window = DefaultOutlierWindow
	}
	if c.Outlier.Threshold == 0 {
		c.Outlier.Threshold = DefaultOutlierThreshold
	}
	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.Addr == "" {
		c.API.Addr = DefaultAPIAddr
	}
}

// ApplyDefaults fills unset values of a FactsConfig.
func (f *FactsConfig) ApplyDefaults() {
	if f == nil {
		return
	}
	if f.Driver == "" {
		f.Driver = DefaultFactsDriver
	}
}
