package stats

import (
	"gopermute/domain/core"
)

// TwoSampleFunc computes a test statistic from two groups.
type TwoSampleFunc func(x, y []float64) float64

// OneSampleFunc computes a test statistic from a single vector.
type OneSampleFunc func(z []float64) float64

// Kind tags the statistic variants.
type Kind int

const (
	KindMean Kind = iota
	KindT
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindMean:
		return "mean"
	case KindT:
		return "t"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

// Statistic is either a registered kind or a custom function. Custom
// statistics may supply only one of the two forms.
type Statistic struct {
	kind Kind
	name string
	two  TwoSampleFunc
	one  OneSampleFunc
}

type implementation struct {
	two TwoSampleFunc
	one OneSampleFunc
}

// registry maps each built-in kind to its one- and two-sample forms
var registry = map[Kind]implementation{
	KindMean: {two: MeanDifference, one: Mean},
	KindT:    {two: PooledTStatistic, one: OneSampleTStatistic},
}

// names maps the user-facing statistic names onto registered kinds
var names = map[string]Kind{
	"mean": KindMean,
	"t":    KindT,
}

// MeanStatistic is mean(x) - mean(y), or mean(z) for one sample.
func MeanStatistic() Statistic { return Statistic{kind: KindMean, name: "mean"} }

// TStatistic is the pooled two-sample t, or the one-sample t against 0.
func TStatistic() Statistic { return Statistic{kind: KindT, name: "t"} }

// CustomTwoSample wraps a caller-supplied two-group statistic. It must be
// stateless and deterministic.
func CustomTwoSample(name string, f TwoSampleFunc) Statistic {
	return Statistic{kind: KindCustom, name: customName(name), two: f}
}

// CustomOneSample wraps a caller-supplied one-vector statistic.
func CustomOneSample(name string, f OneSampleFunc) Statistic {
	return Statistic{kind: KindCustom, name: customName(name), one: f}
}

func customName(name string) string {
	if name == "" {
		return KindCustom.String()
	}
	return name
}

// Lookup resolves a registered statistic by name.
func Lookup(name string) (Statistic, error) {
	if name == "" {
		return MeanStatistic(), nil
	}
	kind, ok := names[name]
	if !ok {
		return Statistic{}, core.NewInputError(core.ErrUnknownStatistic, "%q", name)
	}
	return Statistic{kind: kind, name: name}, nil
}

// Kind returns the statistic's tag
func (s Statistic) Kind() Kind { return s.kind }

// Name returns the registered or caller-supplied name
func (s Statistic) Name() string {
	if s.name == "" {
		return s.kind.String()
	}
	return s.name
}

// TwoSample returns the two-group form of the statistic.
func (s Statistic) TwoSample() (TwoSampleFunc, error) {
	if s.kind == KindCustom {
		if s.two == nil {
			return nil, core.NewInputError(core.ErrUnknownStatistic, "%s has no two-sample form", s.Name())
		}
		return s.two, nil
	}
	impl, ok := registry[s.kind]
	if !ok {
		return nil, core.NewInputError(core.ErrUnknownStatistic, "kind %d", int(s.kind))
	}
	return impl.two, nil
}

// OneSample returns the single-vector form of the statistic.
func (s Statistic) OneSample() (OneSampleFunc, error) {
	if s.kind == KindCustom {
		if s.one == nil {
			return nil, core.NewInputError(core.ErrUnknownStatistic, "%s has no one-sample form", s.Name())
		}
		return s.one, nil
	}
	impl, ok := registry[s.kind]
	if !ok {
		return nil, core.NewInputError(core.ErrUnknownStatistic, "kind %d", int(s.kind))
	}
	return impl.one, nil
}
