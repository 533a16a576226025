package workflow_test

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
	"github.com/dmitrymomot/notifyplan/pkg/notifications"
	"github.com/dmitrymomot/notifyplan/pkg/workflow"
)

// MockSender is a mock implementation of notifications.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, req notifications.Request) notifications.DeliveryResult {
	args := m.Called(ctx, req)
	return args.Get(0).(notifications.DeliveryResult)
}

func (m *MockSender) requests() []notifications.Request {
	var out []notifications.Request
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(1).(notifications.Request))
	}
	return out
}

func okSender() *MockSender {
	s := &MockSender{}
	s.On("Send", mock.Anything, mock.Anything).Return(notifications.DeliveryResult{Success: true, NotificationID: "n1"})
	return s
}

// finished collects the final state of every drive.
type finished struct {
	mu  sync.Mutex
	all []*workflow.Context
}

func (f *finished) observe(_ context.Context, wc *workflow.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = append(f.all, wc)
}

func (f *finished) last(t *testing.T) *workflow.Context {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.all)
	return f.all[len(f.all)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newEngine(sender notifications.Sender, opts ...workflow.Option) (*workflow.Engine, *finished) {
	f := &finished{}
	opts = append([]workflow.Option{
		workflow.WithLogger(logger.Nop()),
		workflow.WithObserver(f.observe),
	}, opts...)
	return workflow.New(sender, opts...), f
}

func chain(steps ...workflow.Step) workflow.Definition {
	for i := range steps[:len(steps)-1] {
		if steps[i].NextStepID == "" {
			steps[i].NextStepID = steps[i+1].ID
		}
	}
	return workflow.Definition{ID: "def", Name: "test", Steps: steps, Enabled: true}
}

func TestEngine_SendDelayComplete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sender := okSender()
	e, done := newEngine(sender)

	def := chain(
		workflow.Step{ID: "send", Type: workflow.StepSend, Config: workflow.SendConfig{
			Type:    notifications.TypeBillDue,
			Title:   "Rent",
			Message: "Rent is due",
			Data:    map[string]any{"amount": 1200},
		}},
		workflow.Step{ID: "wait", Type: workflow.StepDelay, Config: workflow.DelayConfig{Delay: 0}},
		workflow.Step{ID: "done", Type: workflow.StepComplete},
	)

	id, err := e.Start(ctx, "u1", def)
	require.NoError(t, err)

	final := done.last(t)
	assert.Equal(t, id, final.WorkflowID)
	assert.Equal(t, workflow.StatusCompleted, final.Status)
	require.Len(t, final.History, 3)
	for i, stepID := range []string{"send", "wait", "done"} {
		assert.Equal(t, stepID, final.History[i].StepID)
		assert.True(t, final.History[i].Success)
	}

	_, err = e.Status(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)

	reqs := sender.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "u1", reqs[0].RecipientID)
	assert.Equal(t, notifications.TypeBillDue, reqs[0].Type)
	assert.Equal(t, notifications.PriorityMedium, reqs[0].Priority)
	assert.Empty(t, reqs[0].Channels)
	assert.Equal(t, id, reqs[0].Data["workflowId"])
	assert.Equal(t, "send", reqs[0].Data["stepId"])
	assert.Equal(t, 1200, reqs[0].Data["amount"])
}

func TestEngine_SendDefaults(t *testing.T) {
	t.Parallel()

	sender := okSender()
	e, _ := newEngine(sender)

	_, err := e.Start(context.Background(), "u1", chain(workflow.Step{ID: "s", Type: workflow.StepSend}))
	require.NoError(t, err)

	reqs := sender.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, notifications.TypeSystem, reqs[0].Type)
	assert.Equal(t, "Notification", reqs[0].Title)
	assert.Equal(t, notifications.PriorityMedium, reqs[0].Priority)
}

func TestEngine_SendTagsLoggingContext(t *testing.T) {
	t.Parallel()

	sender := okSender()
	e, _ := newEngine(sender)

	id, err := e.Start(context.Background(), "u1", chain(
		workflow.Step{ID: "first", Type: workflow.StepSend},
		workflow.Step{ID: "second", Type: workflow.StepSend},
	))
	require.NoError(t, err)

	require.Len(t, sender.Calls, 2)
	for i, stepID := range []string{"first", "second"} {
		ctx := sender.Calls[i].Arguments.Get(0).(context.Context)
		gotWorkflow, gotStep, ok := logger.WorkflowFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, id, gotWorkflow)
		assert.Equal(t, stepID, gotStep)
	}
}

func TestEngine_FailingStepHalts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Panic("boom")
	e, _ := newEngine(sender)

	id, err := e.Start(ctx, "u1", chain(
		workflow.Step{ID: "send", Type: workflow.StepSend},
		workflow.Step{ID: "done", Type: workflow.StepComplete},
	))
	require.NoError(t, err)

	wc, err := e.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusHalted, wc.Status)
	assert.Equal(t, "send", wc.CurrentStepID)
	require.Len(t, wc.History, 1)
	assert.False(t, wc.History[0].Success)
	assert.Contains(t, wc.History[0].Error, "boom")
}

func TestEngine_Escalate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("one level", func(t *testing.T) {
		t.Parallel()
		sender := okSender()
		e, _ := newEngine(sender)

		id, err := e.Start(ctx, "u1", chain(workflow.Step{
			ID:     "esc",
			Type:   workflow.StepEscalate,
			Config: workflow.EscalateConfig{Title: "Rent overdue", Message: "Pay now"},
		}), workflow.WithData(map[string]any{"priority": "low"}))
		require.NoError(t, err)

		wc, err := e.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "medium", wc.Data["priority"])

		req := sender.requests()[0]
		assert.Equal(t, "[ESCALATED] Rent overdue", req.Title)
		assert.Equal(t, "Pay now", req.Message)
		assert.Equal(t, notifications.PriorityMedium, req.Priority)
		assert.Equal(t, []notifications.Channel{
			notifications.ChannelEmail,
			notifications.ChannelSMS,
			notifications.ChannelPush,
		}, req.Channels)
		assert.Equal(t, true, req.Data["escalated"])
	})

	t.Run("clamped at urgent", func(t *testing.T) {
		t.Parallel()
		sender := okSender()
		e, _ := newEngine(sender)

		id, err := e.Start(ctx, "u1", chain(
			workflow.Step{ID: "e1", Type: workflow.StepEscalate},
			workflow.Step{ID: "e2", Type: workflow.StepEscalate},
			workflow.Step{ID: "e3", Type: workflow.StepEscalate},
			workflow.Step{ID: "e4", Type: workflow.StepEscalate},
		), workflow.WithData(map[string]any{"priority": notifications.PriorityLow}))
		require.NoError(t, err)

		wc, err := e.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "urgent", wc.Data["priority"])
		assert.Len(t, wc.History, 4)

		var got []notifications.Priority
		for _, req := range sender.requests() {
			got = append(got, req.Priority)
		}
		assert.Equal(t, []notifications.Priority{"medium", "high", "urgent", "urgent"}, got)
	})

	t.Run("missing priority starts at medium", func(t *testing.T) {
		t.Parallel()
		e, _ := newEngine(okSender())

		id, err := e.Start(ctx, "u1", chain(workflow.Step{ID: "e", Type: workflow.StepEscalate}))
		require.NoError(t, err)

		wc, err := e.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "high", wc.Data["priority"])
	})

	t.Run("unrecognised priority restarts the scale", func(t *testing.T) {
		t.Parallel()
		sender := okSender()
		e, _ := newEngine(sender)

		id, err := e.Start(ctx, "u1", chain(workflow.Step{ID: "e", Type: workflow.StepEscalate}),
			workflow.WithData(map[string]any{"priority": "critical"}))
		require.NoError(t, err)

		wc, err := e.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "low", wc.Data["priority"])
		assert.Equal(t, notifications.PriorityLow, sender.requests()[0].Priority)
	})
}

func TestEngine_Cancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newEngine(okSender())

	assert.False(t, e.Cancel(ctx, "workflow_0_missing"))

	id, err := e.Start(ctx, "u1", chain(workflow.Step{ID: "s", Type: workflow.StepSend}))
	require.NoError(t, err)

	assert.True(t, e.Cancel(ctx, id))
	_, err = e.Status(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
	assert.False(t, e.Cancel(ctx, id))
}

func TestEngine_CancelDuringDelay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sender := okSender()
	e, done := newEngine(sender)

	id, future, err := e.Launch(ctx, "u1", chain(
		workflow.Step{ID: "wait", Type: workflow.StepDelay, Config: workflow.DelayConfig{Delay: 50 * time.Millisecond}},
		workflow.Step{ID: "send", Type: workflow.StepSend},
	))
	require.NoError(t, err)
	require.True(t, e.Cancel(ctx, id))

	final, err := future.AwaitWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Nil(t, final)
	assert.Empty(t, sender.requests())

	done.mu.Lock()
	defer done.mu.Unlock()
	assert.Empty(t, done.all)
}

func TestEngine_CancelBetweenStepAndWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sender := okSender()
	e, done := newEngine(sender)

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	gate := func(context.Context, *workflow.Context) (bool, error) {
		// The second call is the edge check that runs before the write.
		if calls.Add(1) == 2 {
			close(entered)
			<-release
		}
		return true, nil
	}

	id, future, err := e.Launch(ctx, "u1", chain(
		workflow.Step{ID: "gate", Type: workflow.StepCondition, Condition: gate},
		workflow.Step{ID: "send", Type: workflow.StepSend},
		workflow.Step{ID: "done", Type: workflow.StepComplete},
	))
	require.NoError(t, err)

	<-entered
	require.True(t, e.Cancel(ctx, id))
	close(release)

	final, err := future.AwaitWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Nil(t, final)

	_, err = e.Status(ctx, id)
	assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
	assert.Empty(t, sender.requests())

	done.mu.Lock()
	defer done.mu.Unlock()
	assert.Empty(t, done.all)
}

func TestEngine_CancelLongChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	steps := make([]workflow.Step, 500)
	for i := range steps {
		steps[i] = workflow.Step{ID: "c" + strconv.Itoa(i), Type: workflow.StepCondition}
	}
	def := chain(steps...)

	for range 20 {
		e, _ := newEngine(okSender())
		id, future, err := e.Launch(ctx, "u1", def)
		require.NoError(t, err)

		time.Sleep(50 * time.Microsecond)
		cancelled := e.Cancel(ctx, id)

		_, err = future.AwaitWithTimeout(5 * time.Second)
		require.NoError(t, err)
		if cancelled {
			_, err = e.Status(ctx, id)
			assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
		}
	}
}

func TestEngine_InterruptedDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	e, _ := newEngine(okSender())

	id, err := e.Start(ctx, "u1", chain(
		workflow.Step{ID: "wait", Type: workflow.StepDelay, Config: workflow.DelayConfig{Delay: time.Hour}},
		workflow.Step{ID: "done", Type: workflow.StepComplete},
	))
	require.NoError(t, err)

	wc, err := e.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusHalted, wc.Status)
	require.Len(t, wc.History, 1)
	assert.False(t, wc.History[0].Success)
	assert.Contains(t, wc.History[0].Error, "delay interrupted")
}

func TestEngine_Conditions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	paid := func(_ context.Context, wc *workflow.Context) (bool, error) {
		return wc.Data["paid"] == true, nil
	}
	unpaid := func(ctx context.Context, wc *workflow.Context) (bool, error) {
		ok, err := paid(ctx, wc)
		return !ok, err
	}

	def := func() workflow.Definition {
		return chain(
			workflow.Step{ID: "check", Type: workflow.StepCondition, Condition: unpaid},
			workflow.Step{ID: "remind", Type: workflow.StepSend},
			workflow.Step{ID: "done", Type: workflow.StepComplete},
		)
	}

	t.Run("edge passes", func(t *testing.T) {
		t.Parallel()
		sender := okSender()
		e, done := newEngine(sender)

		_, err := e.Start(ctx, "u1", def())
		require.NoError(t, err)

		final := done.last(t)
		assert.Equal(t, workflow.StatusCompleted, final.Status)
		assert.Equal(t, true, final.History[0].Result)
		assert.Len(t, sender.requests(), 1)
	})

	t.Run("edge blocks and halts", func(t *testing.T) {
		t.Parallel()
		sender := okSender()
		e, _ := newEngine(sender)

		id, err := e.Start(ctx, "u1", def(), workflow.WithData(map[string]any{"paid": true}))
		require.NoError(t, err)

		wc, err := e.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusHalted, wc.Status)
		require.Len(t, wc.History, 1)
		assert.Equal(t, false, wc.History[0].Result)
		assert.True(t, wc.History[0].Success)
		assert.Empty(t, sender.requests())
	})

	t.Run("predicate error fails the condition step", func(t *testing.T) {
		t.Parallel()
		e, _ := newEngine(okSender())
		broken := func(context.Context, *workflow.Context) (bool, error) { return false, errors.New("no data") }

		id, err := e.Start(ctx, "u1", chain(
			workflow.Step{ID: "check", Type: workflow.StepCondition, Condition: broken},
			workflow.Step{ID: "done", Type: workflow.StepComplete},
		))
		require.NoError(t, err)

		wc, err := e.Status(ctx, id)
		require.NoError(t, err)
		assert.False(t, wc.History[0].Success)
		assert.Contains(t, wc.History[0].Error, "no data")
	})
}

func TestEngine_Halts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name    string
		def     workflow.Definition
		history int
		current string
	}{
		{"no steps", workflow.Definition{ID: "empty"}, 0, ""},
		{"no next step", chain(workflow.Step{ID: "a", Type: workflow.StepSend}), 1, ""},
		{"unknown next step", workflow.Definition{Steps: []workflow.Step{
			{ID: "a", Type: workflow.StepSend, NextStepID: "ghost"},
		}}, 1, "ghost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, _ := newEngine(okSender())

			id, err := e.Start(ctx, "u1", tt.def)
			require.NoError(t, err)

			wc, err := e.Status(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, workflow.StatusHalted, wc.Status)
			assert.Len(t, wc.History, tt.history)
			assert.Equal(t, tt.current, wc.CurrentStepID)
		})
	}
}

func TestEngine_StartRejectsInvalidDefinitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newEngine(okSender())

	tests := []struct {
		name string
		def  workflow.Definition
		want error
	}{
		{"empty step id", workflow.Definition{Steps: []workflow.Step{{Type: workflow.StepSend}}}, workflow.ErrInvalidDefinition},
		{"duplicate ids", workflow.Definition{Steps: []workflow.Step{
			{ID: "a", Type: workflow.StepSend},
			{ID: "a", Type: workflow.StepComplete},
		}}, workflow.ErrInvalidDefinition},
		{"unknown type", workflow.Definition{Steps: []workflow.Step{{ID: "a", Type: "wait"}}}, workflow.ErrUnknownStepType},
		{"mismatched config", workflow.Definition{Steps: []workflow.Step{
			{ID: "a", Type: workflow.StepSend, Config: workflow.DelayConfig{}},
		}}, workflow.ErrInvalidStepConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Start(ctx, "u1", tt.def)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := e.Start(ctx, "", chain(workflow.Step{ID: "a", Type: workflow.StepComplete}))
	assert.ErrorIs(t, err, workflow.ErrInvalidDefinition)
}

func TestEngine_WorkflowID(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1717232400000)
	e, _ := newEngine(okSender(), workflow.WithClock(func() time.Time { return at }))

	pattern := regexp.MustCompile(`^workflow_1717232400000_[0-9a-z]{9}$`)
	seen := make(map[string]bool)
	for range 20 {
		id, err := e.Start(context.Background(), "u1", chain(workflow.Step{ID: "a", Type: workflow.StepSend}))
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id])
		seen[id] = true
	}

	custom, _ := newEngine(okSender(), workflow.WithIDGenerator(func() string { return "fixed" }))
	id, err := custom.Start(context.Background(), "u1", chain(workflow.Step{ID: "a", Type: workflow.StepSend}))
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)
}

func TestEngine_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	e, _ := newEngine(okSender(), workflow.WithClock(clk.Now))

	def := chain(workflow.Step{ID: "a", Type: workflow.StepSend})
	old, err := e.Start(ctx, "u1", def)
	require.NoError(t, err)

	clk.Advance(23 * time.Hour)
	fresh, err := e.Start(ctx, "u2", def)
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	n, err := e.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.Status(ctx, old)
	assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
	_, err = e.Status(ctx, fresh)
	assert.NoError(t, err)
}

func TestEngine_Sweeper(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("runs on schedule", func(t *testing.T) {
		t.Parallel()
		clk := &clock{now: time.Now()}
		e, _ := newEngine(okSender(),
			workflow.WithClock(clk.Now),
			workflow.WithConfig(workflow.Config{SweepSchedule: "@every 1s", Timeout: time.Minute}),
		)

		id, err := e.Start(ctx, "u1", chain(workflow.Step{ID: "a", Type: workflow.StepSend}))
		require.NoError(t, err)
		clk.Advance(time.Hour)

		require.NoError(t, e.StartSweeper(ctx))
		assert.ErrorIs(t, e.StartSweeper(ctx), workflow.ErrSweeperRunning)
		defer e.Stop()

		assert.Eventually(t, func() bool {
			_, err := e.Status(ctx, id)
			return errors.Is(err, workflow.ErrWorkflowNotFound)
		}, 3*time.Second, 50*time.Millisecond)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		t.Parallel()
		e, _ := newEngine(okSender(), workflow.WithConfig(workflow.Config{SweepSchedule: "every minute"}))
		assert.ErrorIs(t, e.StartSweeper(ctx), workflow.ErrInvalidSchedule)
		e.Stop()
	})
}

func TestEngine_StatusIsACopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, _ := newEngine(okSender())

	id, err := e.Start(ctx, "u1", chain(workflow.Step{ID: "a", Type: workflow.StepSend}),
		workflow.WithData(map[string]any{"nested": map[string]any{"k": "v"}}))
	require.NoError(t, err)

	wc, err := e.Status(ctx, id)
	require.NoError(t, err)
	wc.Data["nested"].(map[string]any)["k"] = "changed"
	wc.History = nil

	again, err := e.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v", again.Data["nested"].(map[string]any)["k"])
	assert.Len(t, again.History, 1)
}
