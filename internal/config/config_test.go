package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("READER_MILESTONE_INTERVAL", "")
	t.Setenv("READER_TRANSITION_OUT", "")

	cfg := Load()

	assert.Equal(t, 10, cfg.Reader.MilestoneInterval)
	assert.Equal(t, 150*time.Millisecond, cfg.Reader.TransitionOut)
	assert.Equal(t, 20, cfg.Reader.MinSelectionDim)
	assert.Equal(t, 60, cfg.Assessment.FallbackScoreMin)
	assert.Equal(t, 100, cfg.Assessment.FallbackScoreMax)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("READER_MILESTONE_INTERVAL", "5")
	t.Setenv("READER_TRANSITION_IN", "1s")
	t.Setenv("SPEECH_ENABLED", "true")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg := Load()

	assert.Equal(t, 5, cfg.Reader.MilestoneInterval)
	assert.Equal(t, time.Second, cfg.Reader.TransitionIn)
	assert.True(t, cfg.Ai.SpeechEnabled)
	assert.Equal(t, "openai", cfg.Ai.LLMProvider)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("ASSESSMENT_QUESTION_COUNT", "many")
	t.Setenv("ASSESSMENT_SESSION_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 5, cfg.Assessment.QuestionCount)
	assert.Equal(t, 30*time.Minute, cfg.Assessment.SessionTTL)
}
