package lexicon

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Lexicon holds the keyword tables the classifiers run against: sentiment
// polarity sets, friction indicators, pivotal phrases and the topic table.
// A Lexicon is read-only during a batch; callers take a Snapshot at batch
// start so mid-batch configuration edits never leak into running analysis.
type Lexicon struct {
	PositiveWords []string
	NegativeWords []string
	Friction      []FrictionIndicator
	PivotalPhrase []string
	Topics        []Topic
}

// New returns a lexicon preloaded with the built-in patient-support vocabulary.
func New(logger *logrus.Logger) *Lexicon {
	lex := defaultLexicon()
	logger.WithFields(logrus.Fields{
		"component":      "lexicon",
		"topics":         len(lex.Topics),
		"positive_words": len(lex.PositiveWords),
		"negative_words": len(lex.NegativeWords),
		"friction_terms": len(lex.Friction),
	}).Info("Lexicon initialized with built-in vocabulary")
	return lex
}

// Snapshot returns a deep copy of the lexicon. Batch runs operate on the copy,
// giving every conversation in the batch a consistent view of the topic table.
func (l *Lexicon) Snapshot() *Lexicon {
	cp := &Lexicon{
		PositiveWords: append([]string(nil), l.PositiveWords...),
		NegativeWords: append([]string(nil), l.NegativeWords...),
		Friction:      append([]FrictionIndicator(nil), l.Friction...),
		PivotalPhrase: append([]string(nil), l.PivotalPhrase...),
		Topics:        make([]Topic, len(l.Topics)),
	}
	for i, t := range l.Topics {
		tc := t
		tc.Keywords = append([]string(nil), t.Keywords...)
		tc.PlaybookIDs = append([]string(nil), t.PlaybookIDs...)
		cp.Topics[i] = tc
	}
	return cp
}

// TopicByID looks up a topic in the table.
func (l *Lexicon) TopicByID(id string) (Topic, bool) {
	for _, t := range l.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// HasTopic reports whether the topic table contains the given id.
func (l *Lexicon) HasTopic(id string) bool {
	_, ok := l.TopicByID(id)
	return ok
}

// CountSentiment returns the positive and negative keyword hit counts for the
// given text. Counts accumulate across repeated occurrences of the same
// keyword; the text is matched lowercased, keywords as substrings.
func (l *Lexicon) CountSentiment(text string) (positive, negative int) {
	lower := strings.ToLower(text)
	for _, w := range l.PositiveWords {
		positive += strings.Count(lower, w)
	}
	for _, w := range l.NegativeWords {
		negative += strings.Count(lower, w)
	}
	return positive, negative
}

// MatchTopics returns the ids of every topic whose keyword set matches the
// text. Matching is case-insensitive substring containment, no stemming; a
// text may match any number of topics.
func (l *Lexicon) MatchTopics(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, t := range l.Topics {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = append(matched, t.ID)
				break
			}
		}
	}
	return matched
}

// MatchFriction returns every friction indicator present in the text along
// with its occurrence count.
func (l *Lexicon) MatchFriction(text string) []FrictionMatch {
	lower := strings.ToLower(text)
	var matches []FrictionMatch
	for _, ind := range l.Friction {
		if n := strings.Count(lower, strings.ToLower(ind.Phrase)); n > 0 {
			matches = append(matches, FrictionMatch{Indicator: ind, Count: n})
		}
	}
	return matches
}

// MatchPivotal reports whether the text contains a pivotal phrase.
func (l *Lexicon) MatchPivotal(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range l.PivotalPhrase {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
