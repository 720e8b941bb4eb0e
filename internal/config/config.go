package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Reader     ReaderConfig
	Assessment AssessmentConfig
	Ai         AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SpeechLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ReaderEventTopic   string
}

type DatabaseConfig struct {
	Connection string
}

type ReaderConfig struct {
	MinSelectionDim   int
	MaxCaptureEdge    int
	MilestoneInterval int
	TransitionOut     time.Duration
	TransitionIn      time.Duration
	WorkspaceTTL      time.Duration
	ProgressTTL       time.Duration
	MaxUploadBytes    int
}

type AssessmentConfig struct {
	QuestionCount    int
	FallbackScoreMin int
	FallbackScoreMax int
	SessionTTL       time.Duration
	RequestTimeout   time.Duration
}

type AIConfig struct {
	LLMProvider        string // "ollama" or "openai"
	LLMModel           string // e.g. "llava", "gpt-4o-mini"
	OllamaBaseURL      string
	OpenAIBaseURL      string
	OpenAIKey          string
	SpeechEnabled      bool
	SpeechModel        string
	SpeechVoice        string
	TranscriptionModel string
	ActionsPerMinute   int
	ActionBurst        int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SpeechLogFilePath:  getEnv("SPEECH_LOG_FILE_PATH", "logs/speech.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ReaderEventTopic:   getEnv("READER_EVENT_TOPIC", "READER_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Reader: ReaderConfig{
			MinSelectionDim:   getEnvAsInt("READER_MIN_SELECTION_DIM", 20),
			MaxCaptureEdge:    getEnvAsInt("READER_MAX_CAPTURE_EDGE", 1568),
			MilestoneInterval: getEnvAsInt("READER_MILESTONE_INTERVAL", 10),
			TransitionOut:     getEnvAsDuration("READER_TRANSITION_OUT", 150*time.Millisecond),
			TransitionIn:      getEnvAsDuration("READER_TRANSITION_IN", 150*time.Millisecond),
			WorkspaceTTL:      getEnvAsDuration("READER_WORKSPACE_TTL", 2*time.Hour),
			ProgressTTL:       getEnvAsDuration("READER_PROGRESS_TTL", 90*24*time.Hour),
			MaxUploadBytes:    getEnvAsInt("READER_MAX_UPLOAD_BYTES", 20*1024*1024),
		},
		Assessment: AssessmentConfig{
			QuestionCount:    getEnvAsInt("ASSESSMENT_QUESTION_COUNT", 5),
			FallbackScoreMin: getEnvAsInt("ASSESSMENT_FALLBACK_SCORE_MIN", 60),
			FallbackScoreMax: getEnvAsInt("ASSESSMENT_FALLBACK_SCORE_MAX", 100),
			SessionTTL:       getEnvAsDuration("ASSESSMENT_SESSION_TTL", 30*time.Minute),
			RequestTimeout:   getEnvAsDuration("ASSESSMENT_REQUEST_TIMEOUT", 30*time.Second),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llava"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
			SpeechEnabled:      getEnvAsBool("SPEECH_ENABLED", false),
			SpeechModel:        getEnv("SPEECH_MODEL", "tts-1"),
			SpeechVoice:        getEnv("SPEECH_VOICE", "alloy"),
			TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
			ActionsPerMinute:   getEnvAsInt("AI_ACTIONS_PER_MINUTE", 20),
			ActionBurst:        getEnvAsInt("AI_ACTION_BURST", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("150ms", "2h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
