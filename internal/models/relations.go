package models

// Ordered relationships between documents and the items attached to them.
var (
	DocumentSections = &Relation{
		Table:        "documents_x_sections",
		ParentColumn: "document_id",
		ItemColumn:   "section_id",
		ParentKey:    "documentId",
		ItemKey:      "sectionId",
		ParentNoun:   "document",
		ItemNoun:     "section",
	}

	DocumentEducations = &Relation{
		Table:        "documents_x_educations",
		ParentColumn: "document_id",
		ItemColumn:   "education_id",
		ParentKey:    "documentId",
		ItemKey:      "educationId",
		ParentNoun:   "document",
		ItemNoun:     "education",
	}

	DocumentExperiences = &Relation{
		Table:        "documents_x_experiences",
		ParentColumn: "document_id",
		ItemColumn:   "experience_id",
		ParentKey:    "documentId",
		ItemKey:      "experienceId",
		ParentNoun:   "document",
		ItemNoun:     "experience",
	}

	DocumentSkills = &Relation{
		Table:        "documents_x_skills",
		ParentColumn: "document_id",
		ItemColumn:   "skill_id",
		ParentKey:    "documentId",
		ItemKey:      "skillId",
		ParentNoun:   "document",
		ItemNoun:     "skill",
	}

	// ExperienceTextSnippets orders snippet versions under one
	// documents_x_experiences row, so the same experience can carry different
	// bullets in different documents.
	ExperienceTextSnippets = &Relation{
		Table:         "experiences_x_text_snippets",
		ParentColumn:  "document_x_experience_id",
		ItemColumn:    "text_snippet_id",
		VersionColumn: "text_snippet_version",
		ParentKey:     "documentXExperienceId",
		ItemKey:       "textSnippetId",
		VersionKey:    "textSnippetVersion",
		ParentNoun:    "experience",
		ItemNoun:      "text snippet",
	}
)
