package catalog

// Option is one selectable value of a faceted filter.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Options is an ordered option list. Order doubles as the sort rank.
type Options []Option

// Values lists the option values in declared order.
func (o Options) Values() []string {
	out := make([]string, len(o))
	for i, opt := range o {
		out[i] = opt.Value
	}
	return out
}

// Has reports whether value is one of the options.
func (o Options) Has(value string) bool {
	for _, opt := range o {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Label resolves the display label for value, falling back to value itself.
func (o Options) Label(value string) string {
	for _, opt := range o {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}
