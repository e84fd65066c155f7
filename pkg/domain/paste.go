package domain

// Paste is one stored record. Times are epoch milliseconds; a nil ExpiresAt
// never expires by time and a nil RemainingViews allows unlimited reads.
type Paste struct {
	ID             string
	Content        string
	CreatedAt      int64
	ExpiresAt      *int64
	RemainingViews *int64
}

// Clone returns a deep copy so callers never share counters with the store.
func (p *Paste) Clone() *Paste {
	c := *p
	if p.ExpiresAt != nil {
		v := *p.ExpiresAt
		c.ExpiresAt = &v
	}
	if p.RemainingViews != nil {
		v := *p.RemainingViews
		c.RemainingViews = &v
	}
	return &c
}

type CreateParams struct {
	Content    string
	TTLSeconds *float64
	MaxViews   *int64
}

// View is what a successful read hands back. RemainingViews is the count
// after this read was charged.
type View struct {
	Content        string
	RemainingViews *int64
	ExpiresAt      *int64
}
