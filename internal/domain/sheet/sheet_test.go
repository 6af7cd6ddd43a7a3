package sheet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_JSONKeepsColumnOrder(t *testing.T) {
	input := `{"الطالب":"أحمد","id":12,"اسم المستخدم":"1001","ok":true,"x":null,"nested":{"a":1}}`

	var row Row
	require.NoError(t, json.Unmarshal([]byte(input), &row))

	assert.Equal(t, []string{"الطالب", "id", "اسم المستخدم", "ok", "x", "nested"}, row.Labels())
	assert.Equal(t, "12", row.Text("id"))
	assert.Equal(t, json.Number("12"), row.Value("id"))
	assert.Equal(t, "true", row.Text("ok"))
	assert.Equal(t, "", row.Text("x"))
	assert.Equal(t, "", row.Text("nested"))

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
	assert.Equal(t, `{"الطالب":"أحمد","id":12,"اسم المستخدم":"1001","ok":true,"x":null,"nested":{"a":1}}`, string(out))
}

func TestRow_UnmarshalRejectsNonObject(t *testing.T) {
	var row Row
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &row))
}

func TestRow_WithAndCleanLabels(t *testing.T) {
	row := RowOf("a", 1, "b", 2)
	updated := row.With("a", 3).With("c", 4)

	assert.Equal(t, 1, row.Value("a"), "With must not mutate the receiver")
	assert.Equal(t, []string{"a", "b", "c"}, updated.Labels())
	assert.Equal(t, 3, updated.Value("a"))

	dirty := RowOf(" الطالب\u200B ", "أحمد")
	assert.Equal(t, "أحمد", dirty.CleanLabels().Text(ColStudent))
}

func TestRow_Has(t *testing.T) {
	row := RowOf("zero", json.Number("0"), "empty", "", "nil", nil, "text", "x", "num", json.Number("7"))
	assert.False(t, row.Has("zero"))
	assert.False(t, row.Has("empty"))
	assert.False(t, row.Has("nil"))
	assert.False(t, row.Has("missing"))
	assert.True(t, row.Has("text"))
	assert.True(t, row.Has("num"))
}

func TestKeyFor_Rules(t *testing.T) {
	tests := []struct {
		name  string
		sheet Name
		row   Row
		want  string
	}{
		{"explicit id wins", Report, RowOf("id", "abc", ColUsername, "1", ColWeek, "W1"), "abc"},
		{"weekly report", Report, RowOf(ColUsername, json.Number("1001"), ColWeek, " الأسبوع  الأول "), "1001-الأسبوع الأول"},
		{"weekly report alt column", Report, RowOf(ColUsername, "1001", ColWeekAlt, "W2"), "1001-W2"},
		{"daily report", Daily, RowOf(ColUsername, "1001", ColDay, "الأحد 10-03"), "1001-الأحد 10-03"},
		{"teacher attendance", Attendance, RowOf(ColTeacher, json.Number("7"), ColOpDate, "2024-03-10", ColOpTime, "08:00"), "7-2024-03-10-08:00"},
		{"attendance falls back to id", Attendance, RowOf(ColID, "7", ColOpDate, "2024-03-10", ColOpTime, "12:00"), "7-2024-03-10-12:00"},
		{"supervisor attendance with id", SupervisorAttendance, RowOf(ColID, "S1", ColStatus, "حضور", ColOpDate, "2024-05-01", ColOpTime, "08:00"), "S1-2024-05-01-08:00"},
		{"attendance without operation columns", SupervisorAttendance, RowOf(ColID, "S1", ColStatus, "انصراف", ColTime, "2024-05-01T09:00:00.000Z"), "S1-2024-05-01T09:00:00.000Z"},
		{"teacher roster", Teachers, RowOf(ColTeacher, json.Number("7"), ColEvalTeacher, "خالد"), "7"},
		{"evaluation result", EvalResults, RowOf(ColEvalTeacher, "خالد", ColCircle, "الفرقان"), "خالد-الفرقان"},
		{"fallback", Exams, RowOf(ColStudent, "أحمد", ColExamTotal, json.Number("90")), `{"الطالب":"أحمد","إجمالي الدرجة":90}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFor(tt.sheet, tt.row))
		})
	}
}

func TestKeyFor_StableAcrossUnrelatedFields(t *testing.T) {
	a := RowOf(ColUsername, "1001", ColWeek, "W1", ColPoints, json.Number("5"), ColStudent, "أحمد")
	b := RowOf(ColStudent, "أحمد محمد", ColUsername, "1001", ColWeek, "W1", ColPoints, json.Number("9"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, KeyFor(Report, a), KeyFor(Report, a))
	}
	assert.Equal(t, KeyFor(Report, a), KeyFor(Report, b))
	assert.NotEqual(t, KeyFor(Report, a), KeyFor(Report, a.With(ColWeek, "W2")))
}

func TestKeyFor_SupervisorEventsOfOnePersonStayDistinct(t *testing.T) {
	checkIn := RowOf(ColID, "S1", ColStatus, "حضور", ColOpDate, "2024-05-01", ColOpTime, "08:00")
	checkOut := RowOf(ColID, "S1", ColStatus, "انصراف", ColOpDate, "2024-05-01", ColOpTime, "12:00")

	assert.NotEqual(t, KeyFor(SupervisorAttendance, checkIn), KeyFor(SupervisorAttendance, checkOut))
	assert.Len(t, Merge(SupervisorAttendance, []Row{checkIn}, []Row{checkOut}), 2)
}

func TestIsDegenerateKey(t *testing.T) {
	assert.True(t, IsDegenerateKey(Exams, RowOf(ColStudent, "x")))
	assert.False(t, IsDegenerateKey(Exams, RowOf("id", "1")))
	assert.False(t, IsDegenerateKey(Report, RowOf(ColStudent, "x")))
}

func TestMerge_ReplacesInPlaceAndAppends(t *testing.T) {
	cached := []Row{RowOf("id", "a", "v", json.Number("1"))}
	changed := []Row{
		RowOf("id", "a", "v", json.Number("2")),
		RowOf("id", "b", "v", json.Number("1")),
	}

	merged := Merge(Report, cached, changed)

	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].Text("id"))
	assert.Equal(t, "2", merged[0].Text("v"))
	assert.Equal(t, "b", merged[1].Text("id"))
	assert.Equal(t, "1", cached[0].Text("v"), "cached input is untouched")
}

func TestMerge_Idempotent(t *testing.T) {
	cached := []Row{
		RowOf(ColUsername, "1", ColWeek, "W1", ColPoints, json.Number("3")),
		RowOf(ColUsername, "2", ColWeek, "W1", ColPoints, json.Number("4")),
	}
	delta := []Row{
		RowOf(ColUsername, "2", ColWeek, "W1", ColPoints, json.Number("8")),
		RowOf(ColUsername, "3", ColWeek, "W1", ColPoints, json.Number("1")),
	}

	once := Merge(Report, cached, delta)
	twice := Merge(Report, once, delta)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Equal(twice[i]), "row %d differs", i)
	}
	assert.Equal(t, Checksum(once), Checksum(twice))
}

func TestMerge_LastWriteWinsWithinDelta(t *testing.T) {
	delta := []Row{
		RowOf("id", "a", "v", json.Number("1")),
		RowOf("id", "a", "v", json.Number("2")),
	}
	merged := Merge(Daily, nil, delta)
	require.Len(t, merged, 1)
	assert.Equal(t, "2", merged[0].Text("v"))
}

func TestChecksum(t *testing.T) {
	a := []Row{RowOf("id", "a")}
	b := []Row{RowOf("id", "b")}
	assert.Len(t, Checksum(a), 64)
	assert.NotEqual(t, Checksum(a), Checksum(b))
	assert.Equal(t, Checksum(nil), Checksum([]Row{}))
}

func TestNextMeta(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	prev := Meta{Version: 2, LastSync: now.Add(-time.Hour)}

	kept := NextMeta(prev, []Row{RowOf("id", "a")}, time.Time{}, now)
	assert.Equal(t, int64(3), kept.Version)
	assert.Equal(t, prev.LastSync, kept.LastSync)
	assert.Equal(t, 1, kept.RowCount)

	advanced := NextMeta(prev, nil, now, now)
	assert.Equal(t, now, advanced.LastSync)
}

func TestParse(t *testing.T) {
	n, err := Parse("attandance")
	require.NoError(t, err)
	assert.Equal(t, Attendance, n)

	_, err = Parse("attendance")
	assert.ErrorIs(t, err, ErrUnknownSheet)
}
