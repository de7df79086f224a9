package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/analysis"
)

type Manager struct {
	// counters
	CounterFrames          *prometheus.CounterVec
	CounterFeedback        *prometheus.CounterVec
	CounterSkippedJoints   *prometheus.CounterVec
	CounterStageChanges    prometheus.Counter
	CounterPlanTransitions *prometheus.CounterVec
	CounterErrors          *prometheus.CounterVec

	// gauges
	GaugeScore         prometheus.Gauge
	GaugeLifeSignal    prometheus.Gauge
	GaugeDroppedEvents prometheus.Gauge

	// histograms
	HistScore         prometheus.Histogram
	HistFrameDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("pose_trainer", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("pose_trainer", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterFrames := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames",
		Help:      "The total number of evaluated frames",
	}, []string{"pose"})
	counterFeedback := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "joint_feedback",
		Help:      "The total number of joint evaluations by severity",
	}, []string{"joint", "severity"})
	counterSkippedJoints := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "skipped_joints",
		Help:      "Joints left out of a frame because of invalid geometry",
	}, []string{"joint"})
	counterStageChanges := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stage_changes",
		Help:      "The total number of exercise stage changes",
	})
	counterPlanTransitions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_transitions",
		Help:      "The total number of training plan transitions",
	}, []string{"kind"})
	counterErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "errors",
		Help:      "The total number of failed session operations",
	}, []string{"op"})

	gaugeScore := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_score",
		Help:      "Score of the most recent frame with a pose",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the trainer is alive",
	})
	gaugeDroppedEvents := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dropped_state_events",
		Help:      "Session state updates skipped because a listener was full",
	})

	histScore := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
		Name:      "score",
		Help:      "Distribution of frame scores",
	})
	histFrameDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets: []float64{
			0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
			0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05,
		},
		Name: "frame_duration_seconds",
		Help: "Time spent evaluating a single frame in seconds",
	})

	return &Manager{
		CounterFrames:          counterFrames,
		CounterFeedback:        counterFeedback,
		CounterSkippedJoints:   counterSkippedJoints,
		CounterStageChanges:    counterStageChanges,
		CounterPlanTransitions: counterPlanTransitions,
		CounterErrors:          counterErrors,
		GaugeScore:             gaugeScore,
		GaugeLifeSignal:        gaugeLifeSignal,
		GaugeDroppedEvents:     gaugeDroppedEvents,
		HistScore:              histScore,
		HistFrameDuration:      histFrameDuration,
	}
}

// ObserveEvaluation records one evaluated frame
func (m *Manager) ObserveEvaluation(res analysis.EvaluationResult, took time.Duration) {
	m.HistFrameDuration.Observe(took.Seconds())
	if res.NoPose {
		m.CounterFrames.WithLabelValues("absent").Inc()
		return
	}
	m.CounterFrames.WithLabelValues("detected").Inc()
	m.GaugeScore.Set(float64(res.Score))
	m.HistScore.Observe(float64(res.Score))
	for _, jf := range res.Joints {
		m.CounterFeedback.WithLabelValues(string(jf.Joint), jf.Severity.String()).Inc()
	}
	for joint := range res.Skipped {
		m.CounterSkippedJoints.WithLabelValues(string(joint)).Inc()
	}
}
