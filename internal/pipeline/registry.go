package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tollframe/pkg/config"
	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/logger"
	"github.com/ajitpratap0/tollframe/pkg/matrix"
	"github.com/ajitpratap0/tollframe/pkg/toll"
	"github.com/ajitpratap0/tollframe/pkg/traffic"
)

// Operation is a stateless transformation over one or more tables.
type Operation interface {
	// Name is the registry key, e.g. "car-matrix"
	Name() string
	Description() string
	// Inputs is the number of input tables Run expects
	Inputs() int
	Run(ctx context.Context, inputs []*frame.Table, params Params) (*frame.Table, error)
}

// Params carries the tunables of every built-in operation.
type Params struct {
	Bins           traffic.Bins
	OutlierFactor  float64
	RouteThreshold float64
	Rescale        matrix.RescaleRule

	Tolerance    float64
	ReferenceID  int64
	HasReference bool
	VehicleRates []toll.VehicleRate
	TimeBuckets  []toll.TimeBucket
	FallbackRate float64
}

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{
		Bins:           traffic.DefaultBins,
		OutlierFactor:  2,
		RouteThreshold: 7,
		Rescale:        matrix.DefaultRescaleRule,
		Tolerance:      toll.DefaultTolerance,
		VehicleRates:   toll.DefaultVehicleRates,
		TimeBuckets:    toll.DefaultTimeBuckets,
		FallbackRate:   toll.DefaultFallbackRate,
	}
}

// ParamsFromConfig maps the traffic and toll sections of cfg to Params.
func ParamsFromConfig(cfg *config.Config) Params {
	p := Params{
		Bins:           traffic.Bins{LowMax: cfg.Traffic.LowMax, MediumMax: cfg.Traffic.MediumMax},
		OutlierFactor:  cfg.Traffic.OutlierFactor,
		RouteThreshold: cfg.Traffic.RouteThreshold,
		Rescale: matrix.RescaleRule{
			Pivot:       cfg.Traffic.Rescale.Pivot,
			AboveFactor: cfg.Traffic.Rescale.AboveFactor,
			BelowFactor: cfg.Traffic.Rescale.BelowFactor,
			Precision:   cfg.Traffic.Rescale.Precision,
		},
		Tolerance:    cfg.Toll.Tolerance,
		FallbackRate: cfg.Toll.FallbackRate,
	}
	for _, r := range cfg.Toll.VehicleRates {
		p.VehicleRates = append(p.VehicleRates, toll.VehicleRate{Vehicle: r.Vehicle, Coefficient: r.Coefficient})
	}
	for _, b := range cfg.Toll.TimeBuckets {
		p.TimeBuckets = append(p.TimeBuckets, toll.TimeBucket{StartHour: b.StartHour, EndHour: b.EndHour, Rate: b.Rate})
	}
	return p
}

// WithReference returns a copy of p selecting id as the reference.
func (p Params) WithReference(id int64) Params {
	p.ReferenceID = id
	p.HasReference = true
	return p
}

// Registry manages operation registration and lookup
type Registry struct {
	operations map[string]Operation
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		operations: make(map[string]Operation),
		logger:     logger.Get().With(zap.String("component", "operation_registry")),
	}
}

// NewDefaultRegistry creates a registry holding every built-in operation
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, op := range Builtins() {
		if err := r.Register(op); err != nil {
			// built-in names are unique
			panic(err)
		}
	}
	return r
}

// Register adds op under op.Name()
func (r *Registry) Register(op Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := op.Name()
	if _, exists := r.operations[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("operation %s already registered", name))
	}

	r.operations[name] = op
	r.logger.Debug("operation registered", zap.String("name", name))
	return nil
}

// Lookup returns the operation registered under name
func (r *Registry) Lookup(name string) (Operation, error) {
	r.mu.RLock()
	op, exists := r.operations[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound, fmt.Sprintf("operation %s not found", name))
	}
	return op, nil
}

// List returns the registered operations sorted by name
func (r *Registry) List() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]Operation, 0, len(r.operations))
	for _, op := range r.operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name() < ops[j].Name() })
	return ops
}
