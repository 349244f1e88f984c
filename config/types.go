package config

// Board describes one board: which pins are debounced, how the tick timer and
// the step channel are set up, and the interrupt priorities. Pins are written
// as "gpio37" or "37".
type Board struct {
	Name     string         `yaml:"name"`
	Debug    bool           `yaml:"debug"`
	Debounce DebounceConfig `yaml:"debounce"`
	Signals  []SignalConfig `yaml:"signals"`
	Stepper  *StepperConfig `yaml:"stepper,omitempty"`
}

// SignalConfig is one debounced input
type SignalConfig struct {
	Name string `yaml:"name"`
	Pin  string `yaml:"pin"`
}

// DebounceConfig configures the tick timer shared by all signals
type DebounceConfig struct {
	TimerChannel  uint32 `yaml:"timer_channel"`
	TickMs        uint32 `yaml:"tick_ms"`
	StableTicks   uint32 `yaml:"stable_ticks"`
	BootstrapHigh bool   `yaml:"bootstrap_high"`
	Priority      uint32 `yaml:"priority"`
}

// StepperConfig configures the PTC step channel. Period and High are in PTC
// clocks. A missing stepper section disables step generation.
type StepperConfig struct {
	Channel    uint32 `yaml:"channel"`
	Period     uint32 `yaml:"period"`
	High       uint32 `yaml:"high"`
	MoveLength uint32 `yaml:"move_length"`
	DirPin     string `yaml:"dir_pin"`
	InvertDir  bool   `yaml:"invert_dir"`
	Priority   uint32 `yaml:"priority"`
}
