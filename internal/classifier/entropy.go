package classifier

import "math"

// Entropy is an opt-in classifier that rejects text whose per-byte Shannon
// entropy exceeds a threshold, on the theory that compressed or symbolic
// payloads carry more bits of information per byte than English prose. It
// falls back to the heuristic classifier first, so it only ever narrows
// what Heuristic already accepts.
type Entropy struct {
	Threshold float64
	fallback  Heuristic
}

// NewEntropy returns an entropy-based classifier. threshold is bits/byte;
// 4.2 is a reasonable default for natural-language English text, which
// typically sits in the 3.5–4.3 range.
func NewEntropy(threshold float64) Entropy {
	if threshold <= 0 {
		threshold = 4.2
	}
	return Entropy{Threshold: threshold, fallback: Heuristic{}}
}

func (e Entropy) IsEnglish(text string) bool {
	if text == "" {
		return false
	}
	if !e.fallback.IsEnglish(text) {
		return false
	}
	return shannonEntropy(text) <= e.Threshold
}

func shannonEntropy(s string) float64 {
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}
