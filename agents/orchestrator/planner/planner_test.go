package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/biographer/biography"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
)

type fakeLLM struct {
	response string
}

func (f *fakeLLM) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (*llm.Response, error) {
	return &llm.Response{Role: llm.Assistant, Content: []llm.Content{&llm.TextContent{Text: f.response}}}, nil
}
func (f *fakeLLM) Stream(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	return nil, nil
}
func (f *fakeLLM) SupportsStreaming() bool { return false }

func TestPlanParsesAddPlanAndFollowUpQuestion(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	model := &fakeLLM{response: `<tool_calls>
  <add_plan>
    <action_type>memory_update</action_type>
    <section_path>1 Early Life</section_path>
    <update_plan>Add the farm memory</update_plan>
    <memory_id>m1</memory_id>
  </add_plan>
  <add_follow_up_question>
    <content>What was your favorite animal on the farm?</content>
    <context>farm childhood</context>
  </add_follow_up_question>
</tool_calls>`}
	p := New(Config{}, model)

	plans, questions, err := p.Plan(ctx, tree, Request{NewMemories: []*memory.Memory{{ID: "m1", Title: "Farm", Text: "grew up on a farm"}}})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, ActionMemoryUpdate, plans[0].ActionType)
	require.Equal(t, "1 Early Life", plans[0].SectionPath)
	require.Equal(t, []string{"m1"}, plans[0].MemoryIDs)
	require.Len(t, questions, 1)
	require.Contains(t, questions[0].Content, "favorite animal")
}

func TestPlanParsesUserAddActionType(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	model := &fakeLLM{response: `<tool_calls>
  <add_plan>
    <action_type>user_add</action_type>
    <section_path>1 Career</section_path>
    <update_plan>Write about the new job</update_plan>
  </add_plan>
</tool_calls>`}
	p := New(Config{}, model)

	plans, _, err := p.Plan(ctx, tree, Request{UserSectionPath: "1 Career", UserPrompt: "Talk about my new job"})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, ActionUserAdd, plans[0].ActionType)
}

func TestPlanRetriesOnNumberingGapThenSucceeds(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	model := &sequencedLLM{responses: []string{
		`<tool_calls><add_plan><action_type>user_add</action_type><section_path>3 Career</section_path><update_plan>job</update_plan></add_plan></tool_calls>`,
		`<tool_calls><add_plan><action_type>user_add</action_type><section_path>2 Career</section_path><update_plan>job</update_plan></add_plan></tool_calls>`,
	}}
	p := New(Config{MaxRetries: 2}, model)

	plans, _, err := p.Plan(ctx, tree, Request{UserSectionPath: "2 Career", UserPrompt: "Talk about my new job"})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, "2 Career", plans[0].SectionPath)
	require.Equal(t, 2, model.calls)
}

func TestPlanFailsAfterExhaustingRetries(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	_, err := tree.AddSection(ctx, "1 Early Life", "x")
	require.NoError(t, err)

	model := &sequencedLLM{responses: []string{
		`<tool_calls><add_plan><action_type>user_add</action_type><section_path>3 Career</section_path><update_plan>job</update_plan></add_plan></tool_calls>`,
	}}
	p := New(Config{MaxRetries: 1}, model)

	_, _, err = p.Plan(ctx, tree, Request{UserSectionPath: "3 Career", UserPrompt: "Talk about my new job"})
	require.Error(t, err)
	require.Equal(t, 2, model.calls)
}

type sequencedLLM struct {
	responses []string
	calls     int
}

func (f *sequencedLLM) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (*llm.Response, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return &llm.Response{Role: llm.Assistant, Content: []llm.Content{&llm.TextContent{Text: f.responses[i]}}}, nil
}
func (f *sequencedLLM) Stream(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	return nil, nil
}
func (f *sequencedLLM) SupportsStreaming() bool { return false }

func TestPlanReturnsEmptyWhenNoToolCalls(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	model := &fakeLLM{response: "no structured output here"}
	p := New(Config{}, model)

	plans, questions, err := p.Plan(ctx, tree, Request{})
	require.NoError(t, err)
	require.Empty(t, plans)
	require.Empty(t, questions)
}
