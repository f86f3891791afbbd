package scoring

import "time"

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights sets the factor weights. Weights summing to zero or with a
// negative entry are ignored.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if valid(w) {
			s.weights = w
		}
	}
}

// WithWeightsFromConfig overrides weights by configuration key. Unknown
// keys and negative values are ignored; missing keys keep their default.
func WithWeightsFromConfig(weights map[string]float64) Option {
	return func(s *Scorer) {
		w := s.weights
		for key, v := range weights {
			if v < 0 {
				continue
			}
			switch key {
			case KeyTrending:
				w.Trending = v
			case KeyTopicRelevance:
				w.TopicRelevance = v
			case KeyFreshness:
				w.Freshness = v
			case KeyQuality:
				w.Quality = v
			case KeyUserContent:
				w.UserContent = v
			}
		}
		if valid(w) {
			s.weights = w
		}
	}
}

// WithNow sets the clock used for freshness.
func WithNow(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

func valid(w Weights) bool {
	if w.Trending < 0 || w.TopicRelevance < 0 || w.Freshness < 0 || w.Quality < 0 || w.UserContent < 0 {
		return false
	}
	return w.Sum() > 0
}
