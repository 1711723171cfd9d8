package llm

// geminiAdapter handles Gemini-compatible generateContent APIs.
type geminiAdapter struct{}

// Name returns the provider name.
func (geminiAdapter) Name() string {
	return string(ProviderGemini)
}

// ShapeBody injects the prompt into the template.
func (geminiAdapter) ShapeBody(template map[string]any, prompt string) map[string]any {
	return shapeBody(template, prompt)
}

// ExtractText reads candidates[0].content.parts[0].text.
func (geminiAdapter) ExtractText(response any) string {
	s, _ := lookup(response, "candidates", 0, "content", "parts", 0, "text").(string)
	return s
}
