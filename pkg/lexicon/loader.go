package lexicon

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// fileFormat mirrors the JSON layout produced by the topic administration
// workflow. Every section is optional; present sections are appended to the
// built-in vocabulary, except topics which replace built-ins sharing an id.
type fileFormat struct {
	PositiveWords  []string            `json:"positive_words"`
	NegativeWords  []string            `json:"negative_words"`
	Friction       []FrictionIndicator `json:"friction_indicators"`
	PivotalPhrases []string            `json:"pivotal_phrases"`
	Topics         []Topic             `json:"topics"`
}

// LoadFile merges user-defined vocabulary from a JSON file into the lexicon.
func (l *Lexicon) LoadFile(path string, logger *logrus.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading lexicon file: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("parsing lexicon file %s: %w", path, err)
	}

	l.PositiveWords = append(l.PositiveWords, ff.PositiveWords...)
	l.NegativeWords = append(l.NegativeWords, ff.NegativeWords...)
	l.Friction = append(l.Friction, ff.Friction...)
	l.PivotalPhrase = append(l.PivotalPhrase, ff.PivotalPhrases...)

	for _, t := range ff.Topics {
		if t.ID == "" || len(t.Keywords) == 0 {
			logger.WithField("topic", t.Name).Warn("Skipping topic without id or keywords")
			continue
		}
		replaced := false
		for i, existing := range l.Topics {
			if existing.ID == t.ID {
				l.Topics[i] = t
				replaced = true
				break
			}
		}
		if !replaced {
			l.Topics = append(l.Topics, t)
		}
	}

	logger.WithFields(logrus.Fields{
		"component": "lexicon",
		"path":      path,
		"topics":    len(ff.Topics),
	}).Info("Merged user-defined lexicon file")
	return nil
}
