package model

type CallIntent string

const (
	IntentSales    CallIntent = "sales"
	IntentSupport  CallIntent = "support"
	IntentInfo     CallIntent = "info"
	IntentMisroute CallIntent = "misroute"
	IntentShort    CallIntent = "short"
	IntentIVROnly  CallIntent = "ivr_only"
	IntentUnknown  CallIntent = "unknown"
)

// AnalysisSource records which path produced an assessment, so callers and
// tests can tell a model verdict from the deterministic fallback.
type AnalysisSource string

const (
	AnalysisSourceModel     AnalysisSource = "model"
	AnalysisSourceHeuristic AnalysisSource = "heuristic"
)

// ScoreDimensions are the nine fixed rubric dimensions, each scored 0-10.
var ScoreDimensions = []string{
	"greeting", "rapport", "needs", "value", "objections",
	"next_step", "closing", "clarity", "compliance",
}

// Passport binds an assessment to the exact model/rubric/configuration that
// produced it. ConfigHash is deterministic for identical configuration.
type Passport struct {
	Model             string `json:"model"`
	RubricVersion     string `json:"rubric_version"`
	AlertRulesVersion string `json:"alert_rules_version"`
	ConfigHash        string `json:"config_hash"`
	TraceID           string `json:"trace_id"`
}

// QualityAssessment is the classifier/scorer output for one call.
// ScoreTotal is nil when the call is non-evaluable.
type QualityAssessment struct {
	Intent        CallIntent
	Sentiment     int // [-3, 3]
	ScoreTotal    *int
	Dimensions    map[string]int
	Escalate      bool
	SuppressAlert bool
	Source        AnalysisSource
	Passport      Passport
}
