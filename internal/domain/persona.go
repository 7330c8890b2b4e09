package domain

// Persona is a static counselor descriptor. Identity is the name within a
// category; the system prompt steers every generation call for its sessions.
type Persona struct {
	Name         string
	Category     string
	SystemPrompt string
	Greeting     string
	Avatar       string
	Description  string
}
