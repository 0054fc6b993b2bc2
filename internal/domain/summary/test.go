package summary

import "context"

type MockLLM struct {
	Value       string
	RewordValue string
	Err         error
	Prompts     []string
}

func (m *MockLLM) Summarize(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Value, m.Err
}

func (m *MockLLM) Reword(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.RewordValue, m.Err
}
