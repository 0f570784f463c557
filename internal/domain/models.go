package domain

import "time"

// Option is one of the two selectable choices for a question.
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Question is a single prompt within an instrument. Index is 1-based and
// stable for the lifetime of the instrument.
type Question struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Instrument is a named fixed questionnaire (e.g. a CAST-style screener)
// with a defined question count and scoring threshold.
type Instrument struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Threshold int        `json:"threshold"`
	Questions []Question `json:"questions"`
}

// QuestionCount returns the number of questions in the instrument.
func (i Instrument) QuestionCount() int {
	return len(i.Questions)
}

// Question returns the question at the given 1-based index.
func (i Instrument) Question(index int) (Question, bool) {
	if index < 1 || index > len(i.Questions) {
		return Question{}, false
	}
	return i.Questions[index-1], true
}

// AllowsValue reports whether value is a selectable option for the question
// at the given index.
func (i Instrument) AllowsValue(index, value int) bool {
	q, ok := i.Question(index)
	if !ok {
		return false
	}
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Progress is a snapshot of how far a screening session has advanced.
type Progress struct {
	SessionID    string    `json:"sessionId"`
	InstrumentID string    `json:"instrumentId"`
	Answered     int       `json:"answered"`
	Total        int       `json:"total"`
	Ratio        float64   `json:"ratio"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Result is the outcome of submitting a screening session. Score and
// Positive are only meaningful when Complete is true.
type Result struct {
	SessionID    string `json:"sessionId"`
	InstrumentID string `json:"instrumentId"`
	Complete     bool   `json:"complete"`
	Score        int    `json:"score,omitempty"`
	Positive     bool   `json:"positive,omitempty"`
}

// Provider is a listed autism-service provider.
type Provider struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Specialty    string    `json:"specialty"`
	City         string    `json:"city"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Website      string    `json:"website"`
	Description  string    `json:"description"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
