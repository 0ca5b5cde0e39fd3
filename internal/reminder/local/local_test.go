package local

import (
	"context"
	"testing"
	"time"

	"github.com/nissyi-gh/todo/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatform_Fires(t *testing.T) {
	p := New()
	defer p.Close()

	handle, err := p.ScheduleAt(context.Background(), time.Now().Add(20*time.Millisecond), reminder.Payload{TaskID: "1", Body: "Meeting"})
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	select {
	case a := <-p.Alerts():
		assert.Equal(t, handle, a.Handle)
		assert.Equal(t, "1", a.Payload.TaskID)
		assert.Equal(t, "Meeting", a.Payload.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("alert did not fire")
	}
	assert.Equal(t, 0, p.Pending())
}

func TestPlatform_PastTriggerFiresImmediately(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ScheduleAt(context.Background(), time.Now().Add(-time.Hour), reminder.Payload{TaskID: "1"})
	require.NoError(t, err)

	select {
	case <-p.Alerts():
	case <-time.After(2 * time.Second):
		t.Fatal("alert did not fire")
	}
}

func TestPlatform_CancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := New()
	defer p.Close()

	handle, err := p.ScheduleAt(ctx, time.Now().Add(50*time.Millisecond), reminder.Payload{TaskID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Pending())

	require.NoError(t, p.Cancel(ctx, handle))
	require.NoError(t, p.Cancel(ctx, handle))
	require.NoError(t, p.Cancel(ctx, "never-issued"))
	assert.Equal(t, 0, p.Pending())

	select {
	case a := <-p.Alerts():
		t.Fatalf("cancelled alert fired: %+v", a)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestPlatform_Close(t *testing.T) {
	ctx := context.Background()
	p := New()

	_, err := p.ScheduleAt(ctx, time.Now().Add(time.Hour), reminder.Payload{TaskID: "1"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, 0, p.Pending())
	_, err = p.ScheduleAt(ctx, time.Now(), reminder.Payload{TaskID: "2"})
	assert.ErrorIs(t, err, ErrClosed)
}
