package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// loadPromptFiles reads every configured prompt file into the matching
// inline prompt field. A file overrides inline text for the same slot.
func (c *Config) loadPromptFiles() error {
	ops := c.operationConfigs()
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	loaded := 0
	for _, name := range names {
		prompts := &ops[name].Prompts

		if prompts.SystemFile != "" {
			content, err := readPromptFile(prompts.SystemFile, name, "system")
			if err != nil {
				problems = append(problems, err.Error())
			} else {
				prompts.System = content
				loaded++
			}
		}
		if prompts.UserFile != "" {
			content, err := readPromptFile(prompts.UserFile, name, "user")
			if err != nil {
				problems = append(problems, err.Error())
			} else {
				prompts.User = content
				loaded++
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using inline or built-in prompts")
	} else {
		log.Printf("[CONFIG] Total custom prompt files loaded: %d", loaded)
	}
	return nil
}

// readPromptFile loads one prompt file, rejecting missing or blank files
func readPromptFile(filePath, operation, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("invalid path for %s %s prompt: %s", operation, promptType, filePath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", operation, promptType, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", operation, promptType, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", operation, promptType, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		operation, promptType, absPath, len(trimmed))
	return trimmed, nil
}
