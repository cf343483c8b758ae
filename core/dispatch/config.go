package dispatch

// Config defines dispatcher settings.
type Config struct {
	// Baristas are the fixed pool member names; ids are assigned in order
	// starting at 1. The pool cannot be resized at runtime.
	Baristas []string `json:"baristas"`
	// RecalcIntervalSeconds is the priority recalculation period.
	RecalcIntervalSeconds int `json:"recalc_interval_seconds"`
	// CompletionIntervalSeconds is the completion timer period.
	CompletionIntervalSeconds int `json:"completion_interval_seconds"`
}

// SetDefaults applies the reference policy values.
func (c *Config) SetDefaults() {
	if len(c.Baristas) == 0 {
		c.Baristas = []string{"Alice", "Bob", "Charlie"}
	}
	if c.RecalcIntervalSeconds <= 0 {
		c.RecalcIntervalSeconds = 30
	}
	if c.CompletionIntervalSeconds <= 0 {
		c.CompletionIntervalSeconds = 1
	}
}
