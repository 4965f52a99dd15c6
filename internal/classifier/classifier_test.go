package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicIsEnglish(t *testing.T) {
	h := NewHeuristic()

	assert.True(t, h.IsEnglish("please review the attached quarterly report before Friday"))
	assert.True(t, h.IsEnglish("ok"))
	assert.False(t, h.IsEnglish(""))
}

func TestHeuristicRejectsEncodedPayloads(t *testing.T) {
	h := NewHeuristic()

	assert.False(t, h.IsEnglish("X9|st=17 A2|ct=91 ZZ|fin=03"))
	assert.False(t, h.IsEnglish("k1=v9|k2=v3|k3=v7|k4=v2"))
}

func TestHeuristicRejectsLowLetterDensity(t *testing.T) {
	h := NewHeuristic()

	assert.False(t, h.IsEnglish("###///$$$%%%^^^&&&***((()))"))
}

func TestHeuristicWaivesTokenCountForShortText(t *testing.T) {
	h := NewHeuristic()

	assert.True(t, h.IsEnglish("hi"))
	assert.True(t, h.IsEnglish("ack"))
}
