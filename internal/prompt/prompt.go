// Package prompt holds the named prompt templates the analysis stages
// render. Templates are a system part plus a user part with
// {placeholder} variables.
package prompt

import (
	"fmt"
	"strings"
)

// Template is a two-part prompt. Placeholders use {name} syntax.
type Template struct {
	System string
	User   string
}

// Render substitutes vars into both parts.
func (t Template) Render(vars map[string]string) (system, user string) {
	system = t.System
	user = t.User
	for k, v := range vars {
		ph := "{" + k + "}"
		system = strings.ReplaceAll(system, ph, v)
		user = strings.ReplaceAll(user, ph, v)
	}
	return system, user
}

// Manager resolves templates by key.
type Manager struct {
	templates map[string]Template
}

// Template keys known to the default manager.
const (
	KeyOutline           = "outline"
	KeyRefineOutline     = "refine_outline"
	KeyGenerateExperts   = "generate_experts"
	KeyExpertQuestion    = "expert_question"
	KeyExpertAnswer      = "expert_answer"
	KeyWriteSection      = "write_section"
	KeyWriteFullAnalysis = "write_full_analysis"
	KeyContinueAnalysis  = "continue_analysis"
)

// NewManager returns a Manager seeded with the built-in templates.
func NewManager() *Manager {
	m := &Manager{templates: make(map[string]Template)}

	m.templates[KeyOutline] = Template{
		System: "You are a product analyst. Write an outline for a detailed analysis of a product. Be comprehensive and specific, considering the product type.",
		User:   "Product: {product}\nProduct Type: {productType}",
	}

	m.templates[KeyRefineOutline] = Template{
		System: "You are refining the outline of a digital product analysis based on expert interviews. Make the outline comprehensive and specific, considering the product type.",
		User:   "Original outline: {original_outline}\n\nExpert interviews: {interviews}\n\nRefine the outline:",
	}

	m.templates[KeyGenerateExperts] = Template{
		System: "Create a diverse group of expert personas to contribute to a digital product analysis. Each persona should have a unique perspective on the product type.",
		User:   "Product: {product}\nProduct Type: {productType}\n\nGenerate 4-5 expert personas, each with a name, expertise, role, and brief description of their focus:",
	}

	m.templates[KeyExpertQuestion] = Template{
		System: "You are a digital product analyst with a specific focus. Your persona is:\nName: {name}\nRole: {role}\nExpertise: {expertise}\nDescription: {description}\n\nAsk a question to gather information for your digital product analysis. Be specific and relevant to your expertise and the product type.",
		User:   "Previous conversation:\n{conversation}\n\nAsk your next question:",
	}

	m.templates[KeyExpertAnswer] = Template{
		System: "You are an expert answering questions for an AI product analyst. Use the provided search results to inform your answer. Provide informative and accurate answers, including relevant citations where possible. Use the format [1], [2], etc. for citations, referring to the numbered search results.",
		User:   "Conversation so far:\n{conversation}\n\nSearch results:\n{search_results}\n\nAnswer the last question:",
	}

	m.templates[KeyWriteSection] = Template{
		System: "Write a section for a digital product analysis based on the provided outline and expert interviews. Consider the specific product type in your analysis.",
		User:   "Product: {product}\nProduct Type: {productType}\nSection: {section}\nExpert interviews: {interviews}\nRelevant references:\n{relevant_references}\n\n\nWrite the section content:",
	}

	m.templates[KeyWriteFullAnalysis] = Template{
		System: "You are writing a complete digital product analysis based on the provided sections. Follow a professional and detailed format. Use markdown formatting for headings and subheadings. Ensure each section has a unique title and relevant subsections. Consider the specific product type throughout the analysis.",
		User:   "Product: {product}\nProduct Type: {productType}\n\nSections: {sections}\n\nRelevant references:\n{relevant_references}\n\nWrite the complete analysis using proper markdown formatting:",
	}

	m.templates[KeyContinueAnalysis] = Template{
		System: "You are continuing a digital product analysis that was cut off due to length limitations. Pick up where the previous content left off and continue the analysis. Consider the product type and ensure you cover all remaining sections.",
		User:   "Product: {product}\nProduct Type: {productType}\n\nPrevious content (ending mid-sentence or mid-paragraph):\n\n{previous_content}\n\nRemaining sections to cover:\n{remaining_sections}\n\nContinue the analysis, ensuring you address all remaining sections:",
	}

	return m
}

// Get returns the template for key, or an error for unknown keys.
func (m *Manager) Get(key string) (Template, error) {
	t, ok := m.templates[key]
	if !ok {
		return Template{}, fmt.Errorf("prompt: template %q not found", key)
	}
	return t, nil
}
