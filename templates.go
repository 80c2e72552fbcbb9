package questionbank

import (
	"math/rand"
	"strings"
)

// Rand is the randomness the engine draws on. *rand.Rand satisfies it;
// tests supply a fixed sequence.
type Rand interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// DefaultRand draws from the math/rand global source, which is safe for
// concurrent use.
var DefaultRand Rand = globalRand{}

// templatePlaceholder is replaced with the capitalized topic
const templatePlaceholder = "<topic>"

// Tier is a mark bracket that selects the eligible template set
type Tier string

const (
	TierShort2 Tier = "short2"
	TierShort4 Tier = "short4"
	TierShort6 Tier = "short6"
	TierLong10 Tier = "long10"
)

var templateBank = map[Tier][]string{
	TierShort2: {
		"What is <topic>?",
		"Define <topic>.",
		"Write a short note on <topic>.",
		"State the meaning of <topic>.",
		"Explain <topic> briefly.",
	},
	TierShort4: {
		"Explain <topic>.",
		"Write a brief explanation on <topic>.",
		"What are the key points of <topic>?",
		"Write a note on <topic>.",
		"State the importance of <topic>.",
	},
	TierShort6: {
		"Describe <topic> in detail.",
		"Explain <topic> with suitable examples.",
		"Write a detailed note on <topic>.",
		"How does <topic> work? Explain.",
		"Discuss the concept of <topic>.",
	},
	TierLong10: {
		"Explain <topic> with a neat diagram. Discuss its advantages.",
		"Discuss <topic> in detail. List its applications.",
		"Explain <topic>. What are its features and uses?",
		"Write a detailed essay on <topic> and its significance.",
		"Describe <topic> in detail. Also explain its types.",
	},
}

// TierForMarks picks the template tier for a mark value
func TierForMarks(marks float64) Tier {
	switch {
	case marks <= 2:
		return TierShort2
	case marks <= 4:
		return TierShort4
	case marks <= 6:
		return TierShort6
	default:
		return TierLong10
	}
}

// Templates returns a copy of the templates in a tier
func Templates(tier Tier) []string {
	return append([]string(nil), templateBank[tier]...)
}

// TemplateBank picks question templates by marks. The pick within a tier
// is uniformly random; supply a fixed Rand for reproducible output.
type TemplateBank struct {
	rnd Rand
}

// NewTemplateBank creates a template bank; a nil rnd uses DefaultRand
func NewTemplateBank(rnd Rand) *TemplateBank {
	if rnd == nil {
		rnd = DefaultRand
	}
	return &TemplateBank{rnd: rnd}
}

// Pick returns a random template from the tier matching marks
func (tb *TemplateBank) Pick(marks float64) string {
	set := templateBank[TierForMarks(marks)]
	return set[tb.rnd.Intn(len(set))]
}

// Fill substitutes the capitalized topic into the template's placeholder
func Fill(template, topic string) string {
	return strings.Replace(template, templatePlaceholder, capitalize(topic), 1)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// tagMarks prefixes a question with its "(<marks> marks) " tag
func tagMarks(marks float64, question string) string {
	return "(" + formatMarks(marks) + " marks) " + question
}
