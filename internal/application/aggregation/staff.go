package aggregation

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/halaqat-hub/halaqat-reports/internal/domain/report"
	"github.com/halaqat-hub/halaqat-reports/internal/domain/sheet"
	"github.com/halaqat-hub/halaqat-reports/pkg/normalize"
)

// Teachers builds the roster from the teachers sheet. Rows need an id, a name
// and a circle; a repeated id overwrites the earlier entry in place.
func (e *Engine) Teachers(rows []sheet.Row) []report.Teacher {
	var out []report.Teacher
	index := make(map[string]int)

	for _, row := range rows {
		t := report.Teacher{
			ID:     strings.TrimSpace(row.Text(sheet.ColTeacher)),
			Name:   normalize.Text(row.Text(sheet.ColEvalTeacher)),
			Circle: strings.TrimSpace(row.Text(sheet.ColTeacherCirc)),
		}
		if t.ID == "" || t.Name == "" || t.Circle == "" {
			continue
		}
		if i, ok := index[t.ID]; ok {
			out[i] = t
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// SortTeachersByName orders teachers alphabetically using Arabic collation.
func SortTeachersByName(teachers []report.Teacher) {
	c := collate.New(language.Arabic)
	sort.SliceStable(teachers, func(i, j int) bool {
		return c.CompareString(teachers[i].Name, teachers[j].Name) < 0
	})
}

// Supervisors groups the supervisor sheet by id. Each row assigns one more
// circle; name and password follow the latest non-empty value.
func (e *Engine) Supervisors(rows []sheet.Row) []report.Supervisor {
	var out []report.Supervisor
	index := make(map[string]int)

	for _, row := range rows {
		id := strings.TrimSpace(row.Text(sheet.ColID))
		name := normalize.Clean(row.Text(sheet.ColSupervisorName))
		password := row.Text(sheet.ColPassword)
		if id == "" || name == "" || password == "" {
			continue
		}
		circle := normalize.Clean(row.Text(sheet.ColCircle))

		i, ok := index[id]
		if !ok {
			index[id] = len(out)
			out = append(out, report.Supervisor{ID: id})
			i = len(out) - 1
		}
		s := &out[i]
		s.Name = name
		s.Password = password
		if circle != "" && !s.Supervises(circle) {
			s.Circles = append(s.Circles, circle)
		}
	}
	return out
}

// Productors returns the data-entry accounts; every column must be filled.
func (e *Engine) Productors(rows []sheet.Row) []report.Productor {
	var out []report.Productor
	index := make(map[string]int)

	for _, row := range rows {
		p := report.Productor{
			Role:     strings.TrimSpace(row.Text(sheet.ColRole)),
			Name:     strings.TrimSpace(row.Text(sheet.ColName)),
			Password: strings.TrimSpace(row.Text(sheet.ColProductorPwd)),
		}
		if p.Role == "" || p.Name == "" || p.Password == "" {
			continue
		}
		if i, ok := index[p.Name]; ok {
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}

// supervisorByCircle maps every supervised circle to its supervisor's name.
func supervisorByCircle(supervisors []report.Supervisor) map[string]string {
	m := make(map[string]string)
	for _, s := range supervisors {
		for _, c := range s.Circles {
			m[c] = s.Name
		}
	}
	return m
}
