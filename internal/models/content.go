package models

import (
	"context"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// ExperienceContent is an experience together with the bullets attached to
// it in one document.
type ExperienceContent struct {
	Experience
	TextSnippets []TextSnippet `json:"textSnippets"`
}

// DocumentContent is everything needed to render a document.
type DocumentContent struct {
	Document
	ContactInfo *ContactInfo        `json:"contactInfo"`
	Sections    []Section           `json:"sections"`
	Educations  []Education         `json:"educations"`
	Experiences []ExperienceContent `json:"experiences"`
	Skills      []Skill             `json:"skills"`
}

// GetDocumentContent loads doc and all of its ordered section content.
func GetDocumentContent(ctx context.Context, q database.Querier, doc *Document) (*DocumentContent, error) {
	out := &DocumentContent{Document: *doc}

	contact, err := GetContactInfo(ctx, q, doc.Owner)
	switch {
	case err == nil:
		out.ContactInfo = contact
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}

	if out.Sections, err = GetSectionsInDocument(ctx, q, doc.ID); err != nil {
		return nil, err
	}
	if out.Educations, err = GetEducationsInDocument(ctx, q, doc.ID); err != nil {
		return nil, err
	}
	if out.Skills, err = GetSkillsInDocument(ctx, q, doc.ID); err != nil {
		return nil, err
	}

	experiences, err := GetExperiencesInDocument(ctx, q, doc.ID)
	if err != nil {
		return nil, err
	}
	out.Experiences = make([]ExperienceContent, 0, len(experiences))
	for _, exp := range experiences {
		dxeID, err := DocumentExperienceID(ctx, q, doc.ID, exp.ID)
		if err != nil {
			return nil, err
		}
		snippets, err := GetTextSnippetsInExperience(ctx, q, dxeID)
		if err != nil {
			return nil, err
		}
		out.Experiences = append(out.Experiences, ExperienceContent{Experience: exp, TextSnippets: snippets})
	}
	return out, nil
}
