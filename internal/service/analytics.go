package service

import (
	"context"
	"math/rand/v2"
	"time"
)

// Analytics is one sample of the live interview analytics panel. Scores
// range from 0 to 10.
type Analytics struct {
	Communication     float64
	Confidence        float64
	Clarity           float64
	TechnicalAccuracy float64
	Feedback          string
	Sample            int
}

// InitialAnalytics is the first sample shown once a call starts.
var InitialAnalytics = Analytics{
	Communication:     7,
	Confidence:        6,
	Clarity:           7,
	TechnicalAccuracy: 8,
	Feedback:          "Candidate introduction is clear and concise",
}

// AnalyticsFeedback holds the lines the simulator picks from.
var AnalyticsFeedback = []string{
	"Candidate is explaining concepts clearly and with good examples",
	"Good technical depth in the last answer about React hooks",
	"Speaking a bit too quickly, might want to slow down",
	"Good use of technical terminology",
	"The explanation of state management is comprehensive",
	"Candidate seems nervous when discussing testing approaches",
	"Strong answer on performance optimization",
	"Could benefit from more concrete examples",
	"Good communication style and clarity",
	"Excellent explanation of complex concepts in simple terms",
}

// Ticker is the subset of time.Ticker the simulator needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// AnalyticsSimulator produces mock live analytics for an interview call.
// Real media analysis is out of scope; the samples drift randomly.
type AnalyticsSimulator struct {
	StartDelay time.Duration
	Interval   time.Duration
	Rand       func() float64
	NewTicker  func(time.Duration) Ticker
}

// NewAnalyticsSimulator returns a simulator that starts after 3s and updates
// every 5s.
func NewAnalyticsSimulator() *AnalyticsSimulator {
	return &AnalyticsSimulator{
		StartDelay: 3 * time.Second,
		Interval:   5 * time.Second,
		Rand:       rand.Float64,
		NewTicker:  NewTimeTicker,
	}
}

// Next derives the sample that follows prev.
func (s *AnalyticsSimulator) Next(prev Analytics) Analytics {
	next := Analytics{
		Communication:     clampScore(prev.Communication + s.Rand() - 0.4),
		Confidence:        clampScore(prev.Confidence + s.Rand() - 0.5),
		Clarity:           clampScore(prev.Clarity + s.Rand() - 0.5),
		TechnicalAccuracy: clampScore(prev.TechnicalAccuracy + s.Rand() - 0.5),
		Sample:            prev.Sample + 1,
	}
	idx := int(s.Rand() * float64(len(AnalyticsFeedback)))
	idx = min(max(idx, 0), len(AnalyticsFeedback)-1)
	next.Feedback = AnalyticsFeedback[idx]
	return next
}

// Run waits StartDelay, emits InitialAnalytics, and then emits a new sample
// every Interval until ctx is done or emit fails.
func (s *AnalyticsSimulator) Run(ctx context.Context, emit func(Analytics) error) error {
	start := s.NewTicker(s.StartDelay)
	select {
	case <-ctx.Done():
		start.Stop()
		return ctx.Err()
	case <-start.C():
		start.Stop()
	}

	current := InitialAnalytics
	if err := emit(current); err != nil {
		return err
	}

	ticker := s.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			current = s.Next(current)
			if err := emit(current); err != nil {
				return err
			}
		}
	}
}

func clampScore(v float64) float64 {
	return min(max(v, 0), 10)
}
