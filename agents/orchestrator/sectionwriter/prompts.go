package sectionwriter

// Prompt fragments transliterated from original_source's
// agents/biography_team/section_writer/prompts.py and
// content/biography/biography_styles.py.

var biographyStyles = map[string]string{
	"chronological": "Write in chronological order, following the subject's life timeline.",
	"thematic":      "Organize by theme rather than strict time order, grouping related experiences together.",
}

func biographyStyleInstructions(style string) string {
	if s, ok := biographyStyles[style]; ok {
		return s
	}
	return biographyStyles["chronological"]
}

var toolDescriptionFragments = map[string]string{
	"recall": `<recall>
  <reasoning>why you need more context</reasoning>
  <query>...</query>
</recall>`,
	"add_section": `<add_section>
  <section_path>...</section_path>
  <content>...</content>
</add_section>`,
	"update_section": `<update_section>
  <section_path>...</section_path>
  <section_title>...</section_title>
  <content>...</content>
  <new_title>...</new_title>
</update_section>`,
	"add_follow_up_question": `<add_follow_up_question>
  <content>...</content>
  <context>...</context>
</add_follow_up_question>`,
}

func toolDescriptions(names ...string) string {
	out := ""
	for _, n := range names {
		out += toolDescriptionFragments[n] + "\n"
	}
	return out
}

const sectionWriterPromptTemplate = `<section_writer_persona>
You are a biography section writer, weaving new information into a
subject's life story.
</section_writer_persona>

%s

<update_plan>
%s
</update_plan>

<current_content>
%s
</current_content>

<relevant_memories>
%s
</relevant_memories>

<style_instructions>
%s
</style_instructions>

<instructions>
Write the section using the plan and memories above. If you need more
context before writing, call recall first.
</instructions>

<output_format>
Wrap tool calls in <tool_calls> tags:
<tool_calls>
%s</tool_calls>
</output_format>`

const userAddSectionPromptTemplate = `<section_writer_persona>
You are a biography section writer, adding a new section the subject
requested directly.
</section_writer_persona>

<section_path>%s</section_path>
<update_plan>
%s
</update_plan>

<recall_results>
%s
</recall_results>

<style_instructions>
%s
</style_instructions>

<instructions>
Write the new section at the given path. If you need more context before
writing, call recall first.
</instructions>

<output_format>
Wrap tool calls in <tool_calls> tags:
<tool_calls>
%s</tool_calls>
</output_format>`

const userCommentEditPromptTemplate = `<section_writer_persona>
You are a biography section writer, revising a section based on the
subject's direct feedback.
</section_writer_persona>

<section_title>%s</section_title>
<current_content>
%s
</current_content>
<update_plan>
%s
</update_plan>

<recall_results>
%s
</recall_results>

<style_instructions>
%s
</style_instructions>

<instructions>
Revise the section to address the feedback. If you need more context
before writing, call recall first.
</instructions>

<output_format>
Wrap tool calls in <tool_calls> tags:
<tool_calls>
%s</tool_calls>
</output_format>`
