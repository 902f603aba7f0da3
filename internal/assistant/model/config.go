package model

import "time"

// ================ Config ================
type AssistantConfig struct {
	OwnerName       string        `envconfig:"ASSISTANT_OWNER_NAME" default:"the site owner"`
	Cooldown        time.Duration `envconfig:"ASSISTANT_COOLDOWN" default:"4s"`
	TypingInterval  time.Duration `envconfig:"ASSISTANT_TYPING_INTERVAL" default:"15ms"`
	HistoryTurns    int           `envconfig:"ASSISTANT_HISTORY_TURNS" default:"3"`
	MaxMessageChars int           `envconfig:"ASSISTANT_MAX_MESSAGE_CHARS" default:"5000"`
	GuardPolicyPath string        `envconfig:"GUARD_POLICY_PATH"`
}

type CompletionConfig struct {
	Provider  string        `envconfig:"COMPLETION_PROVIDER" default:"openai"`
	APIKey    string        `envconfig:"COMPLETION_API_KEY"`
	BaseURL   string        `envconfig:"COMPLETION_BASE_URL" default:"https://api.openai.com/v1"`
	Model     string        `envconfig:"COMPLETION_MODEL" default:"gpt-4o-mini"`
	MaxTokens int           `envconfig:"COMPLETION_MAX_TOKENS" default:"500"`
	Timeout   time.Duration `envconfig:"COMPLETION_TIMEOUT" default:"30s"`
}

type ReferenceConfig struct {
	ResumePath       string `envconfig:"RESUME_PATH" default:"static/resume.pdf"`
	ResumeCharBudget int    `envconfig:"RESUME_CHAR_BUDGET" default:"6000"`
	ProjectsPath     string `envconfig:"PROJECTS_PATH"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	SweepSchedule string        `envconfig:"SESSION_SWEEP_SCHEDULE" default:"@every 1m"`
	StoreTTL      time.Duration `envconfig:"SESSION_STORE_TTL" default:"24h"`
}
