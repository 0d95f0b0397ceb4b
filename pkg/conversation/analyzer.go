package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medforge/careinsight/pkg/classify"
	"github.com/medforge/careinsight/pkg/lexicon"
)

// snippetMaxLen bounds the verbatim snippet carried on a friction point.
const snippetMaxLen = 200

// finalTurnWindow is the number of closing turns in which detected friction is
// assumed unresolved at hang-up.
const finalTurnWindow = 2

// Transcript is a completed conversation ready for analysis.
type Transcript struct {
	ConversationID string
	PatientID      string
	Type           ConversationType
	StartedAt      time.Time
	Duration       time.Duration
	Utterances     []classify.Utterance
}

// Analyzer turns a transcript into a ConversationAnalytics record. It holds a
// read-only lexicon snapshot and is safe for concurrent use; Analyze is a pure
// function of the transcript, so identical input yields identical output.
type Analyzer struct {
	logger     *logrus.Entry
	lex        *lexicon.Lexicon
	classifier *classify.Classifier
}

// NewAnalyzer creates an analyzer over the given lexicon snapshot.
func NewAnalyzer(logger *logrus.Logger, lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{
		logger:     logger.WithField("component", "conversation_analyzer"),
		lex:        lex,
		classifier: classify.NewClassifier(logger, lex),
	}
}

// Analyze classifies every turn of the transcript and folds the results into
// the conversation-level record. A transcript with zero utterances fails with
// EmptyConversationError.
func (a *Analyzer) Analyze(t Transcript) (*Analytics, error) {
	total := len(t.Utterances)
	if total == 0 {
		return nil, &EmptyConversationError{ConversationID: t.ConversationID}
	}

	analyzed := make([]classify.AnalyzedUtterance, total)
	for i, u := range t.Utterances {
		analyzed[i] = a.classifier.Classify(u, i, total)
	}

	out := &Analytics{
		ConversationID: t.ConversationID,
		PatientID:      t.PatientID,
		Type:           t.Type,
		StartedAt:      t.StartedAt,
		Duration:       t.Duration,
		Utterances:     analyzed,
	}

	a.reduceSentiment(out)
	a.reduceTopics(out)
	a.reduceFriction(out, t)

	sig := a.deriveSignals(out)
	out.ResolutionStatus, out.EscalationReason = resolveStatus(sig)
	out.Escalated = out.ResolutionStatus == StatusEscalated
	out.OutcomeAchieved = out.ResolutionStatus == StatusResolved
	out.RiskLevel = resolveRisk(sig)
	out.QualityScore = applyScoreRules(qualityBase, qualityRules, sig)
	out.ComplianceScore = applyScoreRules(complianceBase, complianceRules, sig)
	out.EmpathyScore = applyScoreRules(empathyBase, empathyRules, sig)
	out.ChurnRisk = applyScoreRules(churnBase, churnRules, sig)
	out.CallDriver = callDriverFor(out.PrimaryTopic)

	a.logger.WithFields(logrus.Fields{
		"conversation_id": t.ConversationID,
		"utterances":      total,
		"sentiment":       out.OverallSentiment,
		"friction_points": len(out.FrictionPoints),
		"resolution":      out.ResolutionStatus,
		"risk":            out.RiskLevel,
	}).Debug("Conversation analyzed")

	return out, nil
}

// reduceSentiment derives the overall sentiment fields from the per-utterance
// scores: arithmetic mean bucketed at the named thresholds, and the signed
// first-to-last shift.
func (a *Analyzer) reduceSentiment(out *Analytics) {
	sum := 0.0
	for _, u := range out.Utterances {
		sum += u.SentimentScore
	}
	mean := sum / float64(len(out.Utterances))
	out.SentimentScore = mean
	switch {
	case mean > positiveThreshold:
		out.OverallSentiment = classify.SentimentPositive
	case mean < negativeThreshold:
		out.OverallSentiment = classify.SentimentNegative
	default:
		out.OverallSentiment = classify.SentimentNeutral
	}
	out.SentimentShift = out.Utterances[len(out.Utterances)-1].SentimentScore - out.Utterances[0].SentimentScore
}

// reduceTopics unions the per-utterance topic sets and picks the primary topic
// by occurrence count, breaking ties in favor of the earliest-introduced topic.
func (a *Analyzer) reduceTopics(out *Analytics) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for i, u := range out.Utterances {
		for _, topic := range u.Topics {
			if _, seen := counts[topic]; !seen {
				firstSeen[topic] = i
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	out.TopicsDetected = order
	for _, topic := range order {
		if out.PrimaryTopic == "" {
			out.PrimaryTopic = topic
			continue
		}
		best := counts[out.PrimaryTopic]
		if counts[topic] > best ||
			(counts[topic] == best && firstSeen[topic] < firstSeen[out.PrimaryTopic]) {
			out.PrimaryTopic = topic
		}
	}
}

// reduceFriction emits one friction point per friction-flagged utterance and
// computes the conversation friction score.
func (a *Analyzer) reduceFriction(out *Analytics, t Transcript) {
	total := len(out.Utterances)
	weightSum := 0

	for i, u := range out.Utterances {
		if !u.FrictionDetected {
			continue
		}

		barrier, severity := a.inferBarrier(u.Text)
		point := FrictionPoint{
			ID:             frictionPointID(t.ConversationID, i),
			ConversationID: t.ConversationID,
			UtteranceIndex: i,
			Barrier:        barrier,
			Severity:       severity,
			Description:    barrierDescriptions[barrier],
			Snippet:        truncate(u.Text, snippetMaxLen),
			Resolved:       i < total-finalTurnWindow,
			DetectedAt:     u.Timestamp,
		}
		out.FrictionPoints = append(out.FrictionPoints, point)
		weightSum += lexicon.SeverityWeight(severity)
	}

	score := frictionCountWeight*len(out.FrictionPoints) + frictionSeverityWeight*weightSum
	if score > frictionScoreCap {
		score = frictionScoreCap
	}
	out.FrictionScore = score
}

// inferBarrier picks the barrier type for a friction-flagged utterance. When
// indicators from several categories match, the fixed priority order decides;
// severity is the strongest matched indicator. Friction flagged purely on
// negative sentiment falls back to a low-severity support-quality barrier.
func (a *Analyzer) inferBarrier(text string) (lexicon.BarrierType, lexicon.Severity) {
	matches := a.lex.MatchFriction(text)
	if len(matches) == 0 {
		return lexicon.BarrierSupportQuality, lexicon.SeverityLow
	}

	matched := make(map[lexicon.BarrierType]bool, len(matches))
	severity := lexicon.SeverityLow
	for _, m := range matches {
		matched[m.Indicator.Barrier] = true
		if lexicon.SeverityWeight(m.Indicator.Severity) > lexicon.SeverityWeight(severity) {
			severity = m.Indicator.Severity
		}
	}

	for _, b := range barrierPriority {
		if matched[b] {
			return b, severity
		}
	}
	return lexicon.BarrierSupportQuality, severity
}

// deriveSignals collects the facts the rule tables evaluate.
func (a *Analyzer) deriveSignals(out *Analytics) signals {
	sig := signals{
		MeanScore:     out.SentimentScore,
		Shift:         out.SentimentShift,
		FrictionScore: out.FrictionScore,
		FrictionCount: len(out.FrictionPoints),
		LastSentiment: out.Utterances[len(out.Utterances)-1].Sentiment,
	}

	for _, p := range out.FrictionPoints {
		if p.Resolved {
			continue
		}
		sig.AnyUnresolved = true
		if p.Severity == lexicon.SeverityHigh && !sig.HighUnresolved {
			sig.HighUnresolved = true
			sig.UnresolvedBarrier = p.Barrier
		}
	}

	for _, u := range out.Utterances {
		if u.Speaker == classify.SpeakerPatient {
			continue
		}
		if u.Sentiment == classify.SentimentPositive {
			sig.AgentPositiveTurns++
		}
		if a.lex.MatchPivotal(u.Text) {
			sig.AgentOfferedHelp = true
		}
	}

	for _, topicID := range out.TopicsDetected {
		if topic, ok := a.lex.TopicByID(topicID); ok && topic.Category == lexicon.CategoryCompliance {
			sig.ConsentMentioned = true
			break
		}
	}

	return sig
}

// frictionPointID derives a stable identifier so re-analysis of the same
// transcript yields identical records.
func frictionPointID(conversationID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("friction/%s/%d", conversationID, index))).String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
