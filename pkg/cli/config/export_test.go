package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, openaiAPIKey, geminiProject, geminiLocation string) *LLM {
	return &LLM{
		provider:       provider,
		openaiAPIKey:   openaiAPIKey,
		geminiProject:  geminiProject,
		geminiLocation: geminiLocation,
	}
}

// NewMessengerForTest creates a Messenger config for testing purposes
func NewMessengerForTest(authURL, apiURL, clientID, clientSecret, deploymentID, destination string) *Messenger {
	return &Messenger{
		authURL:      authURL,
		apiURL:       apiURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		deploymentID: deploymentID,
		destination:  destination,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, databaseID string) *Repository {
	return &Repository{
		backend:    backend,
		projectID:  projectID,
		databaseID: databaseID,
	}
}
