package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/nissyi-gh/todo/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTasks() []model.Task {
	created := time.Date(2026, 10, 17, 8, 30, 0, 123000000, time.UTC)
	due := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	return []model.Task{
		{
			ID:             "01JABC",
			Title:          "Meeting",
			Note:           "bring slides",
			Tags:           []string{"work", "重要"},
			CreatedAt:      created,
			DueAt:          &due,
			NotificationID: "b7c1e2",
		},
		{
			ID:        "01JABD",
			Title:     "Buy milk",
			Tags:      []string{},
			CreatedAt: created.Add(time.Minute),
			Done:      true,
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{JSON, YAML} {
		t.Run(string(f), func(t *testing.T) {
			tasks := sampleTasks()

			data, err := Export(tasks, f)
			require.NoError(t, err)

			got, err := Import(data, f)
			require.NoError(t, err)
			assert.Equal(t, tasks, got)
		})
	}
}

func TestRoundTrip_Empty(t *testing.T) {
	for _, f := range []Format{JSON, YAML} {
		data, err := Export(nil, f)
		require.NoError(t, err)

		got, err := Import(data, f)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestExport_JSONShape(t *testing.T) {
	data, err := Export(sampleTasks()[1:], JSON)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"id": "01JABD"`)
	assert.Contains(t, s, `"createdAt": "2026-10-17T08:31:00.123Z"`)
	assert.Contains(t, s, `"dueAt": null`)
	assert.Contains(t, s, `"notificationId": null`)
	assert.Contains(t, s, `"tags": []`)
	assert.NotContains(t, s, `"note"`)
}

func TestImport_Defaults(t *testing.T) {
	got, err := Import([]byte(`[{"id":"1","title":"Rest","tags":[" a ","a",""]}]`), JSON)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.False(t, got[0].Done)
	assert.Nil(t, got[0].DueAt)
	assert.True(t, got[0].CreatedAt.IsZero())
	assert.Equal(t, []string{"a"}, got[0].Tags)
	assert.Empty(t, got[0].NotificationID)
}

func TestImport_JSTimestamp(t *testing.T) {
	got, err := Import([]byte(`[{"id":"1","title":"a","dueAt":"2026-10-18T00:00:00.000Z"}]`), JSON)
	require.NoError(t, err)
	require.NotNil(t, got[0].DueAt)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), *got[0].DueAt)
}

func TestImport_YAMLUnquotedTimestamp(t *testing.T) {
	doc := `
- id: "1"
  title: Meeting
  dueAt: 2026-10-18T09:00:00Z
  tags: [work]
`
	got, err := Import([]byte(doc), YAML)
	require.NoError(t, err)
	require.NotNil(t, got[0].DueAt)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), *got[0].DueAt)
	assert.Equal(t, []string{"work"}, got[0].Tags)
}

func TestImport_FormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		index  int
		field  string
	}{
		{name: "missing title", format: JSON, input: `[{"id":"1"}]`, index: 0, field: "title"},
		{name: "missing id", format: JSON, input: `[{"title":"a"}]`, index: 0, field: "id"},
		{name: "numeric id", format: JSON, input: `[{"id":1,"title":"a"}]`, index: 0, field: "id"},
		{name: "null title", format: JSON, input: `[{"id":"1","title":null}]`, index: 0, field: "title"},
		{name: "object top level", format: JSON, input: `{"id":"1","title":"a"}`, index: -1},
		{name: "null top level", format: JSON, input: `null`, index: -1},
		{name: "empty", format: JSON, input: ``, index: -1},
		{name: "broken json", format: JSON, input: `[{"id":"1",`, index: -1},
		{name: "element not object", format: JSON, input: `[{"id":"1","title":"a"},"x"]`, index: 1},
		{name: "bad done", format: JSON, input: `[{"id":"1","title":"a","done":"yes"}]`, index: 0, field: "done"},
		{name: "bad dueAt", format: JSON, input: `[{"id":"1","title":"a","dueAt":"tomorrow"}]`, index: 0},
		{name: "duplicate id", format: JSON, input: `[{"id":"1","title":"a"},{"id":"1","title":"b"}]`, index: 1, field: "id"},
		{name: "yaml mapping top level", format: YAML, input: "tasks:\n  - title: a\n", index: -1},
		{name: "yaml missing title", format: YAML, input: "- id: \"1\"\n", index: 0, field: "title"},
		{name: "yaml int id", format: YAML, input: "- id: 1\n  title: a\n", index: 0, field: "id"},
		{name: "yaml scalar element", format: YAML, input: "- just text\n", index: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Import([]byte(tt.input), tt.format)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.index, fe.Index)
			if tt.field != "" {
				assert.Equal(t, tt.field, fe.Field)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)

	assert.Equal(t, YAML, FormatFromPath("backup.yaml"))
	assert.Equal(t, JSON, FormatFromPath("backup.txt"))
}

func TestSniff(t *testing.T) {
	assert.Equal(t, JSON, Sniff([]byte("  \n[{\"id\":\"1\"}]")))
	assert.Equal(t, JSON, Sniff([]byte("{}")))
	assert.Equal(t, YAML, Sniff([]byte("- id: \"1\"\n  title: a\n")))
	assert.Equal(t, YAML, Sniff(nil))
}
