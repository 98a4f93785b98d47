package scribe

// Prompt fragments grounded on original_source's agents/note_taker/prompts.py
// and agents/session_scribe/session_scribe.py — the three distinct prompt
// shapes the Scribe issues per Q&A pair.

const updateAgendaPromptTemplate = `<interviewer_message>
%s
</interviewer_message>
<user_message>
%s
</user_message>

<questions_and_notes>
%s
</questions_and_notes>

<instructions>
Record the user's response against the question it answers using the
update_session_note tool. Only record concrete facts the user actually
stated.
</instructions>

<output_format>
Wrap tool calls in <tool_calls> tags:
<tool_calls>
  <update_session_note>
    <question_id>...</question_id>
    <note>...</note>
  </update_session_note>
</tool_calls>
</output_format>`

const followupsPromptTemplate = `<questions_and_notes>
%s
</questions_and_notes>

%s

<instructions>
Decide whether a follow-up question should be proposed based on the user's
last response. If a good one exists, call add_interview_question. If you
need more context, call recall first. If nothing follows naturally, return
an empty tool_calls block.
</instructions>

<output_format>
<tool_calls>
  <add_interview_question>
    <topic>...</topic>
    <question>...</question>
    <question_id>...</question_id>
    <parent_id>...</parent_id>
    <parent_text>...</parent_text>
  </add_interview_question>
</tool_calls>

or, to accept similar existing questions and add anyway:
<proceed>true</proceed>
<tool_calls>...</tool_calls>
</output_format>`

const memoryQuestionPromptTemplate = `<interviewer_message>
%s
</interviewer_message>
<user_message>
%s
</user_message>

<instructions>
Extract any new atomic memories from the user's response using
update_memory_bank, and record the question actually asked using
add_historical_question, citing the memory ids it is answered by. Rate
the importance of each memory on a scale from 1 to 10.
</instructions>

<output_format>
<tool_calls>
  <update_memory_bank>
    <title>...</title>
    <text>...</text>
    <source_quote>...</source_quote>
    <importance_score>1-10</importance_score>
  </update_memory_bank>
  <add_historical_question>
    <question>...</question>
    <memory_id>...</memory_id>
  </add_historical_question>
</tool_calls>
</output_format>`
