/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/runplat/runir/table"
)

const (
	metricsNamespace = "runir"
	metricsSubsystem = "intern"
)

// Metrics counts intern table events per table. It implements table.Observer.
type Metrics struct {
	// AssignsTotal counts values stored. Labels: table
	AssignsTotal *prometheus.CounterVec
	// SkipsTotal counts idempotent no-op assignments. Labels: table
	SkipsTotal *prometheus.CounterVec
	// ReplacesTotal counts overwrites of existing handles. Labels: table
	ReplacesTotal *prometheus.CounterVec
	// MissesTotal counts lookups of handles with no value. Labels: table
	MissesTotal *prometheus.CounterVec
	// EntitiesTotal counts entity ids handed out.
	EntitiesTotal prometheus.Counter
}

// Ensure Metrics implements table.Observer.
var _ table.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AssignsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "assigns_total",
			Help:      "Values stored in intern tables",
		}, []string{"table"}),
		SkipsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "skips_total",
			Help:      "Assignments skipped because the handle already had a value",
		}, []string{"table"}),
		ReplacesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "replaces_total",
			Help:      "Existing intern handles overwritten with new values",
		}, []string{"table"}),
		MissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "misses_total",
			Help:      "Lookups of handles that were never interned",
		}, []string{"table"}),
		EntitiesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "entities_total",
			Help:      "Entity ids handed out",
		}),
	}
}

// Assigned implements table.Observer.
func (m *Metrics) Assigned(t string) { m.AssignsTotal.WithLabelValues(t).Inc() }

// Skipped implements table.Observer.
func (m *Metrics) Skipped(t string) { m.SkipsTotal.WithLabelValues(t).Inc() }

// Replaced implements table.Observer.
func (m *Metrics) Replaced(t string) { m.ReplacesTotal.WithLabelValues(t).Inc() }

// Missed implements table.Observer.
func (m *Metrics) Missed(t string) { m.MissesTotal.WithLabelValues(t).Inc() }
