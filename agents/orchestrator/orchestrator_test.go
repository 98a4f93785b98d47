package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/biographer/agenda"
	"github.com/deepnoodle-ai/biographer/biography"
	"github.com/deepnoodle-ai/biographer/llm"
	"github.com/deepnoodle-ai/biographer/memory"
	"github.com/deepnoodle-ai/biographer/store"
)

type scriptedLLM struct {
	responses []string
	calls     int
}

func (f *scriptedLLM) Generate(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (*llm.Response, error) {
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return &llm.Response{Role: llm.Assistant, Content: []llm.Content{&llm.TextContent{Text: f.responses[i]}}}, nil
}
func (f *scriptedLLM) Stream(ctx context.Context, messages []*llm.Message, opts ...llm.GenerateOption) (llm.Stream, error) {
	return nil, nil
}
func (f *scriptedLLM) SupportsStreaming() bool { return false }

func TestTriggerIncrementalUpdateWritesAndSaves(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	ag := agenda.New(1)
	embedder := memory.NewTermFrequencyEmbedder(16)
	bank := memory.NewBank(embedder, nil)
	mem, err := bank.AddMemory(ctx, "Farm", "grew up on a farm", 5, 0, "quote", nil)
	require.NoError(t, err)

	dir := t.TempDir()
	bioStore := store.NewBiographyStore(dir)
	agendaStore := store.NewAgendaStore(dir)

	model := &scriptedLLM{responses: []string{
		`<tool_calls>
  <add_plan>
    <action_type>memory_update</action_type>
    <section_path>1 Early Life</section_path>
    <update_plan>Add the farm memory</update_plan>
    <memory_id>` + mem.ID + `</memory_id>
  </add_plan>
  <add_follow_up_question>
    <content>What was the farm's name?</content>
    <context>childhood</context>
  </add_follow_up_question>
</tool_calls>`,
		`<tool_calls><add_section><section_path>1 Early Life</section_path><content>Grew up on a farm.</content></add_section></tool_calls>`,
	}}

	o := New(Config{UserID: "alice"}, model, tree, ag, bank, bioStore, agendaStore)

	require.NoError(t, o.TriggerIncrementalUpdate(ctx, []*memory.Memory{mem}))
	require.Equal(t, StateIdle, o.State())

	section, err := tree.GetSection("1 Early Life", "", false)
	require.NoError(t, err)
	require.NotNil(t, section)
	require.Contains(t, ag.GetQuestionsAndNotesStr(false), "farm's name")

	versions, err := bioStore.ListVersions("alice")
	require.NoError(t, err)
	require.NotEmpty(t, versions)
}

func TestTriggerIncrementalUpdateSkipsWhenAlreadyInFlight(t *testing.T) {
	ctx := context.Background()
	tree := biography.New("alice", 1)
	model := &scriptedLLM{responses: []string{"<tool_calls></tool_calls>"}}
	o := New(Config{UserID: "alice"}, model, tree, nil, nil, nil, nil)

	<-o.slot // simulate an update already holding the slot
	require.NoError(t, o.TriggerIncrementalUpdate(ctx, nil))
	o.slot <- struct{}{}
}
