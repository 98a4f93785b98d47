package planner

// Prompt fragments transliterated from original_source's
// agents/biography_team/planner/prompts.py.

const sectionPathFormat = `<format_notes>
Section paths use forward slashes for hierarchy, max 3 levels. Each level
must start with a sequential number: "1 Early Life", then
"1 Early Life/1.1 Childhood", then "1 Early Life/1.1 Childhood/1.1.1 Games".
You cannot create section "3" before sections "1" and "2" exist.
</format_notes>`

const memoryUpdateOutputFormat = `<output_format>
<tool_calls>
  <add_plan>
    <action_type>memory_update</action_type>
    <section_path>...</section_path>
    <update_plan>...</update_plan>
    <memory_id>...</memory_id>
  </add_plan>
  <add_follow_up_question>
    <content>...</content>
    <context>...</context>
  </add_follow_up_question>
</tool_calls>
</output_format>`

const userAddOutputFormat = `<output_format>
Use the provided section_path as-is.
<tool_calls>
  <add_plan>
    <action_type>user_add</action_type>
    <section_path>...</section_path>
    <update_plan>...</update_plan>
  </add_plan>
</tool_calls>
</output_format>`

const userCommentOutputFormat = `<output_format>
<tool_calls>
  <add_plan>
    <action_type>user_update</action_type>
    <section_title>...</section_title>
    <update_plan>...</update_plan>
  </add_plan>
</tool_calls>
</output_format>`
