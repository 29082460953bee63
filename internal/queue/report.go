package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/failsight/backend/internal/storage"
	"github.com/failsight/backend/pkg/intel"
	"github.com/failsight/backend/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReportJobMsg is the payload published to the report queue when a client
// requests a full intelligence report.
type ReportJobMsg struct {
	JobID       string   `json:"job_id"`
	Term        string   `json:"term"`
	Keywords    []string `json:"keywords,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	RequestedBy int64    `json:"requested_by,omitempty"`
}

// ReportArchive is the document the worker writes to object storage: the
// ranked search report plus the answers to every stakeholder question.
type ReportArchive struct {
	JobID       string                    `json:"job_id"`
	Term        string                    `json:"term"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Report      *intel.IntelligenceReport `json:"report"`
	Answers     []*intel.QuestionAnswer   `json:"answers"`
}

var reportQuestions = []intel.Question{
	intel.QuestionFeasibility,
	intel.QuestionResponsibleParty,
	intel.QuestionTimeline,
	intel.QuestionEffectiveAction,
	intel.QuestionInvestigationPriority,
}

// ProcessReportMessage runs the full search and every stakeholder question
// for one report job and archives the result to object storage. A returned
// error sends the message to the retry flow.
func ProcessReportMessage(ctx context.Context, s3Client *s3.Client, engine *intel.Engine, msgBody string) error {
	var msg ReportJobMsg
	if err := json.Unmarshal([]byte(msgBody), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal report job: %w", err)
	}
	if msg.JobID == "" {
		return fmt.Errorf("report job without job_id")
	}

	logger.Info("[Report] Building report", "job_id", msg.JobID, "term", msg.Term)

	report, err := engine.Search(ctx, msg.Term, msg.Keywords, msg.Limit)
	if err != nil {
		return fmt.Errorf("failed to build report for job %s: %w", msg.JobID, err)
	}

	answers := make([]*intel.QuestionAnswer, 0, len(reportQuestions))
	for _, question := range reportQuestions {
		answer, err := engine.AnswerQuestion(ctx, question, msg.Term, msg.Keywords)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("[Report] Skipping question", "job_id", msg.JobID, "question", question, "err", err)
			continue
		}
		answers = append(answers, answer)
	}

	archive := ReportArchive{
		JobID:       msg.JobID,
		Term:        msg.Term,
		GeneratedAt: time.Now().UTC(),
		Report:      report,
		Answers:     answers,
	}

	key, err := storage.PutReport(ctx, s3Client, msg.JobID, archive)
	if err != nil {
		return fmt.Errorf("failed to archive report for job %s: %w", msg.JobID, err)
	}

	logger.Info("[Report] Report archived",
		"job_id", msg.JobID,
		"key", key,
		"results", report.UniqueResults,
		"answers", len(answers),
	)
	return nil
}
