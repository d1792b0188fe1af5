package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Reply ReplyPrompts `yaml:"reply"`
}

// ReplyPrompts contains reply drafting prompts
type ReplyPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserTemplate string `yaml:"user_template"`
}

// LoadPromptsConfig loads prompts configuration from a YAML file.
// Falls back to built-in defaults when no file is found.
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"./configs/prompts.yaml",
			"/etc/replyrota/prompts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No prompts.yaml found, using defaults")
		return DefaultPromptsConfig(), nil
	}

	fmt.Printf("[Config] Loading prompts from: %s\n", loadedPath)

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}
	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()
	if strings.TrimSpace(c.Reply.SystemPrompt) == "" {
		c.Reply.SystemPrompt = defaults.Reply.SystemPrompt
	}
	if strings.TrimSpace(c.Reply.UserTemplate) == "" {
		c.Reply.UserTemplate = defaults.Reply.UserTemplate
	}
}

// BuildReplyPrompt renders the user template. Recognized placeholders:
// {title}, {body}, {author}, {comment}, {recent}.
func (c *PromptsConfig) BuildReplyPrompt(title, body, author, comment string, recent []string) string {
	recentBlock := "- (none)"
	if len(recent) > 0 {
		tail := recent
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		var lines []string
		for _, item := range tail {
			lines = append(lines, "- "+item)
		}
		recentBlock = strings.Join(lines, "\n")
	}

	return strings.NewReplacer(
		"{title}", title,
		"{body}", body,
		"{author}", author,
		"{comment}", comment,
		"{recent}", recentBlock,
	).Replace(c.Reply.UserTemplate)
}

// DefaultPromptsConfig returns the built-in prompt configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Reply: ReplyPrompts{
			SystemPrompt: "You are a Reddit user crafting authentic, casual replies. " +
				"Always start replies with lowercase letters. " +
				"Never include URLs, never mention AI or ChatGPT, " +
				"never use hateful language.",
			UserTemplate: `You are crafting a Reddit comment reply. Make it sound like a real Reddit user - casual, authentic, and conversational.

CRITICAL REQUIREMENTS:
- ALWAYS start with a lowercase letter (Reddit style)
- Vary the length: sometimes 1-2 sentences, sometimes 3-4, keep it dynamic
- Sound natural and conversational, not formal or corporate
- Use Reddit-typical phrases: "yeah", "honestly", "tbh", "imo", "that's fair", "good point", etc.
- Keep it short and punchy - avoid long paragraphs
- No sales language, no promotion, no marketing speak
- Don't repeat the comment text verbatim
- Vary wording compared to prior suggestions
- Match the tone: if comment is casual, be casual; if technical, be technical but still Reddit-style
- NEVER include URLs or links
- NEVER mention AI, ChatGPT, or language models
- NEVER use hateful, discriminatory, or violent language

Post context:
Title: {title}
Body:
{body}

Comment by u/{author}:
{comment}

Recent replies to avoid repeating:
{recent}

Generate ONE reply that sounds like a real Reddit user wrote it. Start with lowercase.`,
		},
	}
}
