package execution

// Metric is one recorded value column of a run.
type Metric int

const (
	MetricDevice Metric = iota
	MetricAllocation
	MetricPlanInitFwd
	MetricPlanInitInv
	MetricUpload
	MetricFFT
	MetricFFTInverse
	MetricDownload
	MetricCleanup
	MetricBufferSize
	MetricPlanSize
	MetricTransferSize
	MetricDeviation
	MetricTotal

	// NumMetrics is the number of recorded values per run.
	NumMetrics = int(MetricTotal) + 1
)

var metricNames = [NumMetrics]string{
	"Time_Device [ms]",
	"Time_Allocation [ms]",
	"Time_PlanInitFwd [ms]",
	"Time_PlanInitInv [ms]",
	"Time_Upload [ms]",
	"Time_FFT [ms]",
	"Time_iFFT [ms]",
	"Time_Download [ms]",
	"Time_Cleanup [ms]",
	"Size_DeviceBuffer [bytes]",
	"Size_DevicePlan [bytes]",
	"Size_Transfer [bytes]",
	"Error_StandardDeviation",
	"Time_Total [ms]",
}

// String returns the column header of the metric.
func (m Metric) String() string {
	if m < 0 || int(m) >= NumMetrics {
		return "unknown"
	}
	return metricNames[m]
}

// IsTime reports whether the metric is a duration in milliseconds.
func (m Metric) IsTime() bool {
	switch m {
	case MetricBufferSize, MetricPlanSize, MetricTransferSize, MetricDeviation:
		return false
	default:
		return m >= 0 && int(m) < NumMetrics
	}
}

// Metrics returns all metrics in column order.
func Metrics() []Metric {
	out := make([]Metric, NumMetrics)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

// MetricNames returns the column headers in order.
func MetricNames() []string {
	out := make([]string, NumMetrics)
	copy(out, metricNames[:])
	return out
}
