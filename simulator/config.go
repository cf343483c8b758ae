package simulator

import "fmt"

// DrinkSpec is one entry of the menu distribution. Frequency is cumulative:
// a uniform draw picks the first entry whose frequency is not below it.
type DrinkSpec struct {
	Name        string  `json:"name"`
	PrepMinutes int     `json:"prep_minutes"`
	Frequency   float64 `json:"frequency"`
}

// Config holds the synthetic workload parameters.
type Config struct {
	ArrivalRatePerMinute float64     `json:"arrival_rate_per_minute"`
	HorizonMinutes       int         `json:"horizon_minutes"`
	Baristas             int         `json:"baristas"`
	RegularRatio         float64     `json:"regular_ratio"`
	Menu                 []DrinkSpec `json:"menu"`
	// Seed makes runs reproducible; 0 seeds from the clock.
	Seed uint64 `json:"seed"`
}

// DefaultMenu is the reference drink distribution.
func DefaultMenu() []DrinkSpec {
	return []DrinkSpec{
		{Name: "Cold Brew", PrepMinutes: 1, Frequency: 0.25},
		{Name: "Espresso", PrepMinutes: 2, Frequency: 0.45},
		{Name: "Americano", PrepMinutes: 2, Frequency: 0.60},
		{Name: "Cappuccino", PrepMinutes: 4, Frequency: 0.80},
		{Name: "Latte", PrepMinutes: 4, Frequency: 0.92},
		{Name: "Mocha", PrepMinutes: 6, Frequency: 1.00},
	}
}

// SetDefaults applies the reference policy values.
func (c *Config) SetDefaults() {
	if c.ArrivalRatePerMinute == 0 {
		c.ArrivalRatePerMinute = 1.4
	}
	if c.HorizonMinutes == 0 {
		c.HorizonMinutes = 180
	}
	if c.Baristas == 0 {
		c.Baristas = 3
	}
	if c.RegularRatio == 0 {
		c.RegularRatio = 0.4
	}
	if len(c.Menu) == 0 {
		c.Menu = DefaultMenu()
	}
}

// Validate reports configuration errors before a run starts; the simulation
// itself never fails mid-run.
func (c Config) Validate() error {
	if c.ArrivalRatePerMinute <= 0 {
		return fmt.Errorf("arrival rate must be positive")
	}
	if c.HorizonMinutes <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	if c.Baristas <= 0 {
		return fmt.Errorf("barista count must be positive")
	}
	if len(c.Menu) == 0 {
		return fmt.Errorf("menu distribution is empty")
	}
	prev := 0.0
	for _, d := range c.Menu {
		if d.Frequency < prev {
			return fmt.Errorf("menu frequencies must be non-decreasing")
		}
		if d.PrepMinutes <= 0 {
			return fmt.Errorf("drink %q has non-positive prep time", d.Name)
		}
		prev = d.Frequency
	}
	if prev < 1 {
		return fmt.Errorf("menu frequencies must end at 1.0")
	}
	return nil
}
