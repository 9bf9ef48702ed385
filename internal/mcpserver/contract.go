package mcpserver

// ResumeModelContract describes how resume data is organised, for LLM
// consumers reading it through the tools below.
const ResumeModelContract = `# Resume Data Model

All data belongs to one user. Tools return JSON.

## Documents

- Every user has exactly one **master** document (` + "`" + `isMaster: true` + "`" + `), listed first.
  It holds every item the user has written.
- Other documents are tailored resumes. They reuse items of the master document;
  they never own items of their own.

## Sections

Sections (e.g. Education, Experience, Skills) are global. A document lists the
sections it shows, in order.

## Section items

| kind           | fields                                                                 |
|----------------|------------------------------------------------------------------------|
| educations     | school, location, startDate, endDate, degree, gpa?, awardsAndHonors?, activities? |
| experiences    | title, organization, location, startDate, endDate? (absent = current)  |
| skills         | name, textSnippetId?, textSnippetVersion?                              |
| text_snippets  | id, version, parent?, type, content                                    |

Dates are ` + "`" + `YYYY-MM-DD` + "`" + `.

## Order

Items appear in a document in the order of their ` + "`" + `position` + "`" + `. Positions are
unique per document but may have gaps; only their relative order matters.
Text snippets (bullets) are ordered per experience per document.

## Text snippet versions

A text snippet is identified by ` + "`" + `id` + "`" + ` and ` + "`" + `version` + "`" + ` (a timestamp). Editing a
snippet adds a new version whose ` + "`" + `parent` + "`" + ` is the previous one; old versions stay
referenced by the documents that use them. ` + "`" + `list_section_items` + "`" + ` with kind
` + "`" + `text_snippets` + "`" + ` returns the latest version of each snippet.
`
