package models

// TriageConfig holds the label and keyword sets used by the issue triage
// scorer. Empty slices mean "use the built-in defaults".
type TriageConfig struct {
	FriendlyLabels []string `yaml:"friendly_labels,omitempty" mapstructure:"friendly_labels"`
	SkipLabels     []string `yaml:"skip_labels,omitempty" mapstructure:"skip_labels"`
	EasyKeywords   []string `yaml:"easy_keywords,omitempty" mapstructure:"easy_keywords"`
}

// GlobalConfig holds system-wide settings read from .remedyconfig via Viper.
type GlobalConfig struct {
	WorkDir        string       `yaml:"work_dir" mapstructure:"work_dir"`
	FixerCommand   string       `yaml:"fixer_command" mapstructure:"fixer_command"`
	FixerModel     string       `yaml:"fixer_model,omitempty" mapstructure:"fixer_model"`
	GitHubTokenEnv string       `yaml:"github_token_env" mapstructure:"github_token_env"`
	EventLog       bool         `yaml:"event_log" mapstructure:"event_log"`
	Triage         TriageConfig `yaml:"triage,omitempty" mapstructure:"triage"`
}
