package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldYear = iota
	fieldMonth
	fieldDay
	fieldHour
	fieldMinute
	fieldCount
)

type dateInput struct {
	fields [fieldCount]textinput.Model // YYYY, MM, DD, HH, mm
	focus  int                         // 現在フォーカス中のフィールドインデックス
}

func newDateInput() dateInput {
	placeholders := [fieldCount]string{"YYYY", "MM", "DD", "HH", "mm"}
	charLimits := [fieldCount]int{4, 2, 2, 2, 2}

	var fields [fieldCount]textinput.Model
	for i := 0; i < fieldCount; i++ {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = charLimits[i]
		ti.Width = charLimits[i] + 2
		ti.Validate = func(s string) error {
			for _, r := range s {
				if !unicode.IsDigit(r) {
					return fmt.Errorf("digits only")
				}
			}
			return nil
		}
		fields[i] = ti
	}

	return dateInput{fields: fields}
}

func (d *dateInput) Focus() tea.Cmd {
	return d.focusField(fieldYear)
}

func (d *dateInput) Blur() {
	for i := range d.fields {
		d.fields[i].Blur()
	}
}

// SetValue fills the fields from t in its own location.
func (d *dateInput) SetValue(t time.Time) {
	d.fields[fieldYear].SetValue(fmt.Sprintf("%04d", t.Year()))
	d.fields[fieldMonth].SetValue(fmt.Sprintf("%02d", int(t.Month())))
	d.fields[fieldDay].SetValue(fmt.Sprintf("%02d", t.Day()))
	d.fields[fieldHour].SetValue(fmt.Sprintf("%02d", t.Hour()))
	d.fields[fieldMinute].SetValue(fmt.Sprintf("%02d", t.Minute()))
}

// Value returns the entered instant in loc. Year and month default to now's;
// the time defaults to 09:00. Day is required.
func (d *dateInput) Value(now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)

	yyyy := strings.TrimSpace(d.fields[fieldYear].Value())
	mm := strings.TrimSpace(d.fields[fieldMonth].Value())
	dd := strings.TrimSpace(d.fields[fieldDay].Value())
	hh := strings.TrimSpace(d.fields[fieldHour].Value())
	mi := strings.TrimSpace(d.fields[fieldMinute].Value())

	if yyyy == "" {
		yyyy = fmt.Sprintf("%04d", now.Year())
	}
	if mm == "" {
		mm = fmt.Sprintf("%02d", int(now.Month()))
	}
	if dd == "" {
		return time.Time{}, fmt.Errorf("day is required")
	}
	if hh == "" {
		hh = "09"
	}
	if mi == "" {
		mi = "00"
	}

	s := fmt.Sprintf("%s-%s-%s %s:%s", yyyy, padLeft(mm, 2), padLeft(dd, 2), padLeft(hh, 2), padLeft(mi, 2))
	t, err := time.ParseInLocation("2006-01-02 15:04", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s", s)
	}
	return t, nil
}

func padLeft(s string, length int) string {
	if n, err := strconv.Atoi(s); err == nil && len(s) < length {
		return fmt.Sprintf("%0*d", length, n)
	}
	return s
}

func (d *dateInput) IsEmpty() bool {
	for i := range d.fields {
		if d.fields[i].Value() != "" {
			return false
		}
	}
	return true
}

func (d *dateInput) focusField(idx int) tea.Cmd {
	d.focus = idx
	var cmds []tea.Cmd
	for i := range d.fields {
		if i == idx {
			cmds = append(cmds, d.fields[i].Focus())
		} else {
			d.fields[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (d dateInput) Update(msg tea.Msg) (dateInput, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "right":
			if d.focus < fieldCount-1 {
				cmd := d.focusField(d.focus + 1)
				return d, cmd
			}
			return d, nil
		case "shift+tab", "left":
			if d.focus > 0 {
				cmd := d.focusField(d.focus - 1)
				return d, cmd
			}
			return d, nil
		}
	}

	var cmd tea.Cmd
	d.fields[d.focus], cmd = d.fields[d.focus].Update(msg)
	return d, cmd
}

func (d dateInput) View() string {
	f := d.fields
	return f[fieldYear].View() + " - " + f[fieldMonth].View() + " - " + f[fieldDay].View() +
		"   " + f[fieldHour].View() + " : " + f[fieldMinute].View()
}
