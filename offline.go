package questionbank

// keywordPoolSize bounds how many ranked keywords the offline generator
// cycles through.
const keywordPoolSize = 30

// OfflineGenerator synthesizes questions from a paragraph without any
// network call by filling mark-tier templates with ranked keywords.
type OfflineGenerator struct {
	templates *TemplateBank
}

// NewOfflineGenerator creates an offline generator; a nil rnd uses DefaultRand
func NewOfflineGenerator(rnd Rand) *OfflineGenerator {
	return &OfflineGenerator{templates: NewTemplateBank(rnd)}
}

// Generate always returns exactly count questions (none for count <= 0)
func (og *OfflineGenerator) Generate(paragraph string, count int, marks float64) []string {
	if count <= 0 {
		return []string{}
	}

	keywords := RankKeywords(paragraph, keywordPoolSize)
	questions := make([]string, 0, count)
	for i := 0; i < count; i++ {
		topic := TopicPlaceholder
		if len(keywords) > 0 {
			topic = keywords[i%len(keywords)]
		}
		questions = append(questions, tagMarks(marks, Fill(og.templates.Pick(marks), topic)))
	}

	GetLogger().Debug("offline questions generated", "count", count, "keywords", len(keywords))
	return questions
}
