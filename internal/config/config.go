package config

import (
	"os"
	"strconv"

	"climent/internal/errors"
)

// Config represents the complete CLI configuration
type Config struct {
	Compute ComputeConfig
	Output  OutputConfig
}

// ComputeConfig holds numeric pipeline settings
type ComputeConfig struct {
	Seed        int64
	NEOFs       int
	NTime       int
	Bootstrap   int
	Sig         float64
	Curvilinear bool
	// ControlRounds multiplies the reference member count when enlarging
	// the control distribution.
	ControlRounds int
}

// OutputConfig holds result rendering settings
type OutputConfig struct {
	PlotDir   string // empty disables plotting
	ExcelFile string // empty disables spreadsheet export
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Compute: ComputeConfig{
			Seed: 42,
			// Fewer components than ensemble members keeps the member
			// covariance invertible.
			NEOFs:         3,
			Bootstrap:     100,
			Sig:           95,
			ControlRounds: 10,
		},
		Output: OutputConfig{
			PlotDir:   "plots",
			ExcelFile: "",
		},
	}

	var err error
	if cfg.Compute.Seed, err = envInt64("CLIMENT_SEED", cfg.Compute.Seed); err != nil {
		return nil, err
	}
	if cfg.Compute.NEOFs, err = envInt("CLIMENT_NEOFS", cfg.Compute.NEOFs); err != nil {
		return nil, err
	}
	if cfg.Compute.NTime, err = envInt("CLIMENT_NTIME", cfg.Compute.NTime); err != nil {
		return nil, err
	}
	if cfg.Compute.Bootstrap, err = envInt("CLIMENT_BOOTSTRAP", cfg.Compute.Bootstrap); err != nil {
		return nil, err
	}
	if cfg.Compute.ControlRounds, err = envInt("CLIMENT_CONTROL_ROUNDS", cfg.Compute.ControlRounds); err != nil {
		return nil, err
	}
	if cfg.Compute.Sig, err = envFloat("CLIMENT_SIG", cfg.Compute.Sig); err != nil {
		return nil, err
	}
	cfg.Compute.Curvilinear = os.Getenv("CLIMENT_CURVILINEAR") == "true"
	if v := os.Getenv("CLIMENT_PLOT_DIR"); v != "" {
		cfg.Output.PlotDir = v
	}
	if v := os.Getenv("CLIMENT_EXCEL_FILE"); v != "" {
		cfg.Output.ExcelFile = v
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Compute.Sig <= 0 || cfg.Compute.Sig >= 100 {
		return errors.New("CONFIG_INVALID", "CLIMENT_SIG must be inside (0,100)")
	}
	if cfg.Compute.Bootstrap < 1 {
		return errors.New("CONFIG_INVALID", "CLIMENT_BOOTSTRAP must be at least 1")
	}
	if cfg.Compute.ControlRounds < 1 {
		return errors.New("CONFIG_INVALID", "CLIMENT_CONTROL_ROUNDS must be at least 1")
	}
	if cfg.Compute.NEOFs < 0 || cfg.Compute.NTime < 0 {
		return errors.New("CONFIG_INVALID", "CLIMENT_NEOFS and CLIMENT_NTIME must be non-negative")
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", key)
	}
	return n, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", key)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", key)
	}
	return f, nil
}
