package aggregation

import (
	"sort"
	"strings"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

// EvalQuestions reads the questionnaire sheet.
func (e *Engine) EvalQuestions(rows []sheet.Row) []report.EvalQuestion {
	out := make([]report.EvalQuestion, 0, len(rows))
	for _, row := range rows {
		text := strings.TrimSpace(row.Text(sheet.ColQuestionText))
		if text == "" {
			continue
		}
		out = append(out, report.EvalQuestion{
			ID:   int(normalize.Number(row.Value(sheet.ColQuestionID))),
			Text: text,
			Mark: normalize.Number(row.Value(sheet.ColQuestionMark)),
		})
	}
	return out
}

// Evaluation scores every visit row against the questionnaire.
//
// Question texts are matched to the result sheet's columns ignoring
// whitespace and alef variants, using the first row's labels. A question
// without a matching column scores zero. Results are ordered by total score,
// highest first.
func (e *Engine) Evaluation(rows []sheet.Row, questions []report.EvalQuestion) report.EvalReport {
	rep := report.EvalReport{
		Results:   []report.EvalResult{},
		HeaderMap: make(map[int]string, len(questions)),
	}
	if len(questions) == 0 || len(rows) == 0 {
		return rep
	}

	// lookup holds the raw column label to read; HeaderMap the display form.
	lookup := make([]string, len(questions))
	labels := rows[0].Labels()
	var maxScore float64
	for i, q := range questions {
		maxScore += q.Mark
		want := normalize.HeaderKey(q.Text)
		lookup[i] = q.Text
		rep.HeaderMap[q.ID] = strings.TrimSpace(q.Text)
		for _, label := range labels {
			if normalize.HeaderKey(label) == want {
				lookup[i] = label
				rep.HeaderMap[q.ID] = strings.TrimSpace(label)
				break
			}
		}
	}

	for i, row := range rows {
		teacher := normalize.Clean(row.Text(sheet.ColEvalTeacher))
		circle := normalize.Clean(row.Text(sheet.ColCircle))

		res := report.EvalResult{
			ID:          teacher + "-" + circle + "-" + itoa(i),
			TeacherName: teacher,
			CircleName:  circle,
			MaxScore:    maxScore,
			Scores:      make([]report.QuestionScore, 0, len(questions)),
		}
		for qi, q := range questions {
			score := normalize.Number(row.Value(lookup[qi]))
			res.TotalScore += score
			res.Scores = append(res.Scores, report.QuestionScore{
				Question: q.Text,
				Score:    score,
				MaxMark:  q.Mark,
			})
		}
		rep.Results = append(rep.Results, res)
	}

	sort.SliceStable(rep.Results, func(i, j int) bool {
		return rep.Results[i].TotalScore > rep.Results[j].TotalScore
	})
	return rep
}
