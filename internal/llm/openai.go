package llm

// openAIAdapter handles OpenAI-compatible chat completion APIs.
type openAIAdapter struct{}

// Name returns the provider name.
func (openAIAdapter) Name() string {
	return string(ProviderOpenAI)
}

// ShapeBody injects the prompt into the template.
func (openAIAdapter) ShapeBody(template map[string]any, prompt string) map[string]any {
	return shapeBody(template, prompt)
}

// ExtractText reads choices[0].message.content.
func (openAIAdapter) ExtractText(response any) string {
	s, _ := lookup(response, "choices", 0, "message", "content").(string)
	return s
}
