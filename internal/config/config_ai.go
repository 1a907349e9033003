package config

// Operation names used for per-operation AI configuration, circuit breakers and metrics
const (
	OperationStructured = "structured"
	OperationFreeform   = "freeform"
	OperationSuggest    = "suggest"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		useSystemPrompts := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &useSystemPrompts
	}
	if opCfg.ModelCheckTimeout <= 0 {
		opCfg.ModelCheckTimeout = c.Observability.HealthCheck.AIModelCheckTimeout
	}
}

// GetStructuredConfig returns the AI configuration for structured letter generation
func (c *Config) GetStructuredConfig() OperationAIConfig {
	config := c.AI.Structured
	c.applyOperationDefaults(&config)
	return config
}

// GetFreeformConfig returns the AI configuration for plain-text letter generation
func (c *Config) GetFreeformConfig() OperationAIConfig {
	config := c.AI.Freeform
	c.applyOperationDefaults(&config)
	return config
}

// GetSuggestConfig returns the AI configuration for the improvement suggestion call
func (c *Config) GetSuggestConfig() OperationAIConfig {
	config := c.AI.Suggest
	c.applyOperationDefaults(&config)
	return config
}

// GetOperationConfig returns the configuration for a named operation
func (c *Config) GetOperationConfig(operation string) (OperationAIConfig, bool) {
	switch operation {
	case OperationStructured:
		return c.GetStructuredConfig(), true
	case OperationFreeform:
		return c.GetFreeformConfig(), true
	case OperationSuggest:
		return c.GetSuggestConfig(), true
	default:
		return OperationAIConfig{}, false
	}
}

// operationConfigs returns pointers to every operation config, keyed by name
func (c *Config) operationConfigs() map[string]*OperationAIConfig {
	return map[string]*OperationAIConfig{
		OperationStructured: &c.AI.Structured,
		OperationFreeform:   &c.AI.Freeform,
		OperationSuggest:    &c.AI.Suggest,
	}
}
