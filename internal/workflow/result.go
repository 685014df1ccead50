package workflow

import "github.com/reviewspace/pkg/models"

// BuildResult derives the consumer-facing result view from the most recent
// qa history record. A failed analysis is a normal business outcome here, not
// a retrieval failure: the error detail rides along as data.
func BuildResult(latest *models.QaHistory) models.ReviewResult {
	if latest == nil {
		return models.ReviewResult{Status: StatusPending.String()}
	}

	status := ReconstructQaStatus(latest.Status)
	result := models.ReviewResult{Status: status.String()}

	switch {
	case status.IsCompleted():
		result.Outcome = latest.Outcome
	case status.IsError():
		result.ErrorDetail = latest.ErrorDetail
	}
	return result
}
