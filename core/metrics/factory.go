package metrics

import "github.com/kilianp07/fjsm/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// KnownSink reports whether a sink type is registered.
func KnownSink(name string) bool { return sinkRegistry.Has(name) }

// NewMetricsSink creates a MetricsSink from the provided configuration.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			for _, built := range sinks[:i] {
				if c, ok := built.(interface{ Close() }); ok {
					c.Close()
				}
			}
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

func init() {
	_ = RegisterMetricsSink("nop", func(map[string]any) (MetricsSink, error) {
		return NopSink{}, nil
	})
}
