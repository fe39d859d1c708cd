package chi

import (
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest           = "bad_request"
	codeInvalidRequest       = "invalid_request"
	codeNotFound             = "not_found"
	codeRetrievalUnavailable = "retrieval_unavailable"
	codeUnauthorized         = "unauthorized"
	codeInternalError        = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RecommendRequest is the body of POST /recommend.
// MaxResults is a pointer: absent means the configured default, an explicit
// zero is rejected.
type RecommendRequest struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

// Assessment is one catalog record on the wire.
type Assessment struct {
	Identifier           string   `json:"identifier"`
	Name                 string   `json:"name"`
	URL                  string   `json:"url"`
	Description          string   `json:"description"`
	TestType             []string `json:"test_type"`
	Duration             int      `json:"duration"`
	RemoteTestingSupport string   `json:"remote_testing_support"`
	AdaptiveIRTSupport   string   `json:"adaptive_irt_support"`
	JobLevels            []string `json:"job_levels"`
}

// RecommendedAssessment is an Assessment with its ranking data.
type RecommendedAssessment struct {
	Assessment
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}

// RecommendResponse is the body of a successful POST /recommend.
type RecommendResponse struct {
	ID                     string                  `json:"id"`
	RecommendedAssessments []RecommendedAssessment `json:"recommended_assessments"`
	Source                 string                  `json:"source"`
	Candidates             int                     `json:"candidates"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func assessmentFromRecord(r domcat.Record) Assessment {
	return Assessment{
		Identifier:           r.ID(),
		Name:                 r.Name(),
		URL:                  r.URL(),
		Description:          r.Description(),
		TestType:             nonNil(r.TestTypes()),
		Duration:             r.DurationMinutes(),
		RemoteTestingSupport: yesNo(r.RemoteTesting()),
		AdaptiveIRTSupport:   yesNo(r.AdaptiveIRT()),
		JobLevels:            nonNil(r.JobLevels()),
	}
}

func recommendResponseFromDomain(resp recommendation.Response) RecommendResponse {
	items := make([]RecommendedAssessment, len(resp.Items))
	for i, it := range resp.Items {
		items[i] = RecommendedAssessment{
			Assessment: assessmentFromRecord(it.Record),
			Score:      it.Score,
			Rationale:  it.Rationale,
		}
	}
	return RecommendResponse{
		ID:                     resp.ID,
		RecommendedAssessments: items,
		Source:                 string(resp.Source),
		Candidates:             resp.Candidates,
	}
}
