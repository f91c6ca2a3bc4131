package transform

// Lookup is a read-only code -> label table. The zero value maps nothing.
type Lookup struct {
	m map[string]string
}

// NewLookup copies pairs so later changes to the argument are not seen.
func NewLookup(pairs map[string]string) Lookup {
	m := make(map[string]string, len(pairs))
	for k, v := range pairs {
		m[k] = v
	}
	return Lookup{m: m}
}

// Get returns the label for code and whether it was mapped.
func (l Lookup) Get(code string) (string, bool) {
	v, ok := l.m[code]
	return v, ok
}

func (l Lookup) Len() int { return len(l.m) }

// Pairs returns a copy of the table.
func (l Lookup) Pairs() map[string]string {
	return NewLookup(l.m).m
}

var (
	Countries = NewLookup(map[string]string{
		"US": "United States of America",
		"CA": "Canada",
		"DE": "Germany",
		"GB": "Great Britain",
		"AU": "Australia",
		"IN": "India",
		"DU": "United Arab Emirates",
		"FR": "France",
	})

	Regions = NewLookup(map[string]string{
		"AMER": "Americas",
		"EMEA": "Europe, Middle East and Africa",
		"APJ":  "Asia Pacific and Japan",
	})

	LifeCycleStatus = NewLookup(map[string]string{
		"C": "Completed",
		"I": "In Progress",
		"X": "Canceled",
	})

	BillingStatus = NewLookup(map[string]string{
		"C": "Billed",
		"I": "Awaiting Billing",
		"X": "Canceled",
	})

	DeliveryStatus = NewLookup(map[string]string{
		"C": "Delivered",
		"I": "In Transit",
		"X": "Canceled",
	})

	Genders = NewLookup(map[string]string{
		"M": "Male",
		"F": "Female",
	})
)
