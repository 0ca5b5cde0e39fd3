package prompt

import (
	"fmt"
	"strings"

	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/model"
)

const yamlFormat = `以下のYAMLフォーマットで出力してください。YAMLのコードブロックのみを出力し、それ以外の文章は含めないでください。

` + "```yaml" + `
- id: "task-1"
  title: "タスク名"
  note: "タスクのメモ"
  tags:
    - "タグ名"
  createdAt: "2026-01-01T09:00:00Z"
  dueAt: "2026-01-02T18:00:00+09:00"
  done: false
` + "```" + `

フィールドの説明:
- id: (必須) 一覧の中で一意な文字列。既存タスクのidは変更しないでください
- title: (必須) タスクのタイトル
- note: (任意) タスクのメモ
- tags: (任意) タグのリスト
- createdAt: (任意) 作成日時 (ISO 8601形式)
- dueAt: (任意) 期限日時 (ISO 8601形式)。期限がなければ省略するか null
- done: (任意) 完了していれば true

出力したYAMLは現在のタスク一覧をまるごと置き換えます。残したい既存タスクも必ず含めてください。`

// GenerateNew returns a prompt for creating a task list from scratch.
func GenerateNew() string {
	return fmt.Sprintf(`あなたはタスク管理のアシスタントです。
ユーザーの要求に基づいて、タスクを適切な粒度に分解してください。

%s
`, yamlFormat)
}

// GenerateFromTasks returns a prompt that hands the current list to the
// assistant so that it can reorganize or extend it.
func GenerateFromTasks(tasks []model.Task) (string, error) {
	if len(tasks) == 0 {
		return GenerateNew(), nil
	}

	current := make([]model.Task, len(tasks))
	for i, t := range tasks {
		current[i] = t.Clone()
		// reminder handles are device-local
		current[i].NotificationID = ""
	}
	doc, err := codec.Export(current, codec.YAML)
	if err != nil {
		return "", fmt.Errorf("export tasks: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("あなたはタスク管理のアシスタントです。\n")
	sb.WriteString("以下の現在のタスク一覧を、ユーザーの要求に合わせて整理・追加してください。\n")
	sb.WriteString("大きなタスクは具体的なタスクに分解してください。\n\n")

	open := 0
	for _, t := range tasks {
		if !t.Done {
			open++
		}
	}
	sb.WriteString(fmt.Sprintf("## 現在のタスク (%d件、未完了%d件)\n", len(tasks), open))
	sb.WriteString("```yaml\n")
	sb.Write(doc)
	sb.WriteString("```\n\n")

	sb.WriteString(yamlFormat)
	sb.WriteString("\n")

	return sb.String(), nil
}
