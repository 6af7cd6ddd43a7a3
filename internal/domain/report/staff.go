package report

import (
	"crypto/subtle"
)

// Teacher is an entry of the teacher roster.
type Teacher struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Circle string `json:"circle"`
}

// Supervisor is a supervisor with every circle assigned to them.
type Supervisor struct {
	ID       string   `json:"id"`
	Name     string   `json:"supervisorName"`
	Password string   `json:"-"`
	Circles  []string `json:"circles"`
}

// CheckPassword compares pw against the supervisor's sheet password.
func (s Supervisor) CheckPassword(pw string) bool {
	return s.Password != "" && subtle.ConstantTimeCompare([]byte(s.Password), []byte(pw)) == 1
}

// Supervises reports whether circle is assigned to s.
func (s Supervisor) Supervises(circle string) bool {
	for _, c := range s.Circles {
		if c == circle {
			return true
		}
	}
	return false
}

// Productor is a staff account allowed to enter data (exams, settings).
type Productor struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Password string `json:"-"`
}

// CheckPassword compares pw against the account password.
func (p Productor) CheckPassword(pw string) bool {
	return p.Password != "" && subtle.ConstantTimeCompare([]byte(p.Password), []byte(pw)) == 1
}

// Settings is the singleton configuration row edited by administrators.
// Empty fields mean "use the consumer's default".
type Settings struct {
	DefaultStudentCountDay  string `json:"defaultStudentCountDay,omitempty"`
	TeacherLateCheckIn      string `json:"teacherLateCheckinTime,omitempty"`
	TeacherEarlyCheckOut    string `json:"teacherEarlyCheckoutTime,omitempty"`
	SupervisorLateCheckIn   string `json:"supervisorLateCheckinTime,omitempty"`
	SupervisorEarlyCheckOut string `json:"supervisorEarlyCheckoutTime,omitempty"`
}

// IsZero reports whether no setting is present.
func (s Settings) IsZero() bool {
	return s == Settings{}
}
