package extraction

import "fmt"

// OptionError is returned when a configuration value does not name a known option
type OptionError struct {
	Option string
	Value  string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Option, e.Value)
}
