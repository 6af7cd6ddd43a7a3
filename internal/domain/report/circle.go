package report

// Unassigned is shown when a circle has no known teacher or supervisor.
const Unassigned = "غير محدد"

// AsrCircleTime is the circle time slot eligible for the excellence ranking.
const AsrCircleTime = "العصر"

// CircleReport aggregates a circle's students for one filter selection.
type CircleReport struct {
	CircleName     string `json:"circleName"`
	TeacherName    string `json:"teacherName"`
	SupervisorName string `json:"supervisorName"`
	StudentCount   int    `json:"studentCount"`

	TotalMemorizationAchieved  float64 `json:"totalMemorizationAchieved"`
	AvgMemorizationIndex       float64 `json:"avgMemorizationIndex"`
	TotalReviewAchieved        float64 `json:"totalReviewAchieved"`
	AvgReviewIndex             float64 `json:"avgReviewIndex"`
	TotalConsolidationAchieved float64 `json:"totalConsolidationAchieved"`
	AvgConsolidationIndex      float64 `json:"avgConsolidationIndex"`
	AvgGeneralIndex            float64 `json:"avgGeneralIndex"`

	AvgAttendance float64 `json:"avgAttendance"`
	TotalPoints   float64 `json:"totalPoints"`
}

// ExcellenceEntry is a ranked circle of the excellence report.
type ExcellenceEntry struct {
	CircleReport
	ExcellenceScore float64 `json:"excellenceScore"`
	Rank            int     `json:"rank"`
}

// GeneralStats is the institute-wide summary.
type GeneralStats struct {
	TargetDay          string  `json:"targetDay,omitempty"`
	TotalCircles       int     `json:"totalCircles"`
	TotalStudents      int     `json:"totalStudents"`
	TotalMemorization  float64 `json:"totalMemorization"`
	TotalReview        float64 `json:"totalReview"`
	TotalConsolidation float64 `json:"totalConsolidation"`
	TotalAchievement   float64 `json:"totalAchievement"`
	AvgAttendance      float64 `json:"avgAttendance"`
}

// EvalQuestion is one item of the circle visit questionnaire.
type EvalQuestion struct {
	ID   int     `json:"id"`
	Text string  `json:"que"`
	Mark float64 `json:"mark"`
}

// QuestionScore is the score given for one question.
type QuestionScore struct {
	Question string  `json:"question"`
	Score    float64 `json:"score"`
	MaxMark  float64 `json:"maxMark"`
}

// EvalResult is one circle visit, scored against the questionnaire.
type EvalResult struct {
	ID          string          `json:"id"`
	TeacherName string          `json:"teacherName"`
	CircleName  string          `json:"circleName"`
	TotalScore  float64         `json:"totalScore"`
	MaxScore    float64         `json:"maxScore"`
	Scores      []QuestionScore `json:"scores"`
}

// EvalReport holds ranked visit results and the column each question was
// matched to.
type EvalReport struct {
	Results   []EvalResult   `json:"results"`
	HeaderMap map[int]string `json:"headerMap"`
}
