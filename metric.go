package raglite

// Metric is the distance function of the vector search index.
type Metric string

// Supported index metrics. The learned query adapter supports both.
const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

// IsValid checks if the metric is one of the supported values.
func (m Metric) IsValid() bool {
	return m == MetricCosine || m == MetricDot
}
