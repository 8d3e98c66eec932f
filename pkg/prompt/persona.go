package prompt

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Persona is a voice the model is asked to answer in.
type Persona struct {
	ID          string `toml:"-" json:"id"`
	Name        string `toml:"name" json:"name"`
	Instruction string `toml:"instruction" json:"-"`
	Description string `toml:"description,omitempty" json:"description,omitempty"`
	Color       string `toml:"color,omitempty" json:"color,omitempty"`
}

// PersonaFile is the on-disk shape of a personas override file:
//
//	[personas.stoic]
//	name = "Marcus Aurelius"
//	instruction = "Answer with Stoic restraint."
type PersonaFile struct {
	Personas map[string]Persona `toml:"personas"`
}

var builtinOrder = []string{"default", "naval", "graham", "trump", "nietzsche", "aristotle", "future"}

func builtinPersonas() map[string]Persona {
	return map[string]Persona{
		"default": {
			Name:        "AI Assistant",
			Instruction: "Provide a thoughtful, balanced response.",
		},
		"naval": {
			Name: "Naval",
			Instruction: "Channel Naval Ravikant's philosophical approach to wealth, happiness, and life optimization. " +
				"Use concise, tweet-like wisdom with occasional paradoxes. " +
				"Focus on long-term thinking, mental models, and the pursuit of happiness through freedom.",
		},
		"graham": {
			Name: "Paul Graham",
			Instruction: "Write like Paul Graham with clear, thoughtful analysis. Use simple language to explain complex ideas. " +
				"Focus on startups, innovation, and contrarian thinking about conventional wisdom. " +
				"Include occasional personal anecdotes and practical wisdom.",
		},
		"trump": {
			Name: "Donald Trump",
			Instruction: "Write in Donald Trump's distinctive style: confident, bombastic, and direct. " +
				"Use simple vocabulary, short sentences, frequent superlatives (\"tremendous\", \"the best\"), " +
				"and occasional ALL CAPS for emphasis. Make bold, declarative statements and add \"Believe me\" or similar phrases.",
			Description: "Chaotic, confident, punchy",
			Color:       "#e63946",
		},
		"nietzsche": {
			Name: "Nietzsche",
			Instruction: "Write in Friedrich Nietzsche's philosophical style: profound, poetic, and challenging conventional morality. " +
				"Use aphorisms, paradoxes, and metaphors. Emphasize will to power, the übermensch concept, and critique of societal values. " +
				"Be existential and harsh when necessary.",
			Description: "Existential and harsh",
			Color:       "#800020",
		},
		"aristotle": {
			Name: "Aristotle",
			Instruction: "Write in Aristotle's scholarly style: methodical, logical, and ethically grounded. " +
				"Construct arguments using clear premises and conclusions, draw upon empirical observations, " +
				"emphasize the Golden Mean and virtue ethics, and illustrate points with concrete examples. " +
				"Maintain a balanced, moderate tone and seek the underlying purpose (telos) of each topic.",
			Description: "Logical, empirical, balanced",
			Color:       "#DAA520",
		},
		"future": {
			Name: "Future Self",
			Instruction: "Respond as if you are the user's future self, looking back with wisdom gained from experience. " +
				"Offer perspective that comes from having lived through challenges and seen long-term patterns. " +
				"Be encouraging but realistic.",
			Description: "Imaginative projection",
			Color:       "#8A00C4",
		},
	}
}

// LoadPersonaFile reads a personas override file.
func LoadPersonaFile(path string) (map[string]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading personas file: %w", err)
	}

	var file PersonaFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing personas file: %w", err)
	}

	for id, p := range file.Personas {
		if p.Name == "" || p.Instruction == "" {
			return nil, fmt.Errorf("persona %q: %w", id, ErrIncompletePersona)
		}
	}

	return file.Personas, nil
}
