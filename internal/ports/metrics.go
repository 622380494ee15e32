package ports

// Metrics records moderation outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	ReviewSubmitted(label string, contradiction bool)
	ReviewDecided(status string)
	OperationRejected(operation string, reason string)
	SearchServed(kind string, results int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ReviewSubmitted(string, bool)     {}
func (NopMetrics) ReviewDecided(string)             {}
func (NopMetrics) OperationRejected(string, string) {}
func (NopMetrics) SearchServed(string, int)         {}
