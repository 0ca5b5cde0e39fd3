package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/nissyi-gh/todo/internal/model"
)

// TaskItem wraps model.Task to satisfy the list.DefaultItem interface.
type TaskItem struct {
	Task model.Task
	// Now is the instant the overdue and due-today markers are computed against.
	Now time.Time
}

func (i TaskItem) Title() string {
	check := "[ ]"
	if i.Task.Done {
		check = "[x]"
	}
	dueMark := ""
	if i.Task.IsOverdue(i.Now) {
		dueMark = "⚠️ "
	} else if !i.Task.Done && i.Task.IsDueToday(i.Now) {
		dueMark = "📅 "
	}
	bell := ""
	if i.Task.HasReminder() {
		bell = " 🔔"
	}
	tags := ""
	if len(i.Task.Tags) > 0 {
		tags = "  #" + strings.Join(i.Task.Tags, " #")
	}
	return fmt.Sprintf("%s %s%s%s%s", check, dueMark, i.Task.Title, bell, tags)
}

func (i TaskItem) Description() string {
	if i.Task.DueAt == nil {
		return ""
	}
	return "due " + i.Task.DueAt.In(i.Now.Location()).Format("2006-01-02 15:04")
}

func (i TaskItem) FilterValue() string {
	return i.Task.Title
}
