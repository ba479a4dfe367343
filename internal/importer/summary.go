// Package importer writes parsed tour results into the store, one audited
// transaction per run.
package importer

import "go.uber.org/zap"

// Summary aggregates the counters of one import run.
type Summary struct {
	ToursAttempted          int `json:"tours_attempted" yaml:"tours_attempted"`
	ToursImported           int `json:"tours_imported" yaml:"tours_imported"`
	ToursSkipped            int `json:"tours_skipped" yaml:"tours_skipped"`
	FightsImported          int `json:"fights_imported" yaml:"fights_imported"`
	FightsSkipped           int `json:"fights_skipped" yaml:"fights_skipped"`
	ParticipantsInserted    int `json:"participants_inserted" yaml:"participants_inserted"`
	QuestionsInserted       int `json:"questions_inserted" yaml:"questions_inserted"`
	QuestionResultsInserted int `json:"question_results_inserted" yaml:"question_results_inserted"`
}

// ZapFields renders the summary for structured logging.
func (s *Summary) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Int("tours_attempted", s.ToursAttempted),
		zap.Int("tours_imported", s.ToursImported),
		zap.Int("tours_skipped", s.ToursSkipped),
		zap.Int("fights_imported", s.FightsImported),
		zap.Int("fights_skipped", s.FightsSkipped),
		zap.Int("participants_inserted", s.ParticipantsInserted),
		zap.Int("questions_inserted", s.QuestionsInserted),
		zap.Int("question_results_inserted", s.QuestionResultsInserted),
	}
}
