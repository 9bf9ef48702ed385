package resumeservice

import (
	"context"

	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
)

// Educations

// ListEducations returns every education owned by username.
func (s *Service) ListEducations(ctx context.Context, username string) ([]models.Education, error) {
	return models.GetEducations(ctx, s.db, username)
}

// CreateEducation creates an education and appends it to the master document.
func (s *Service) CreateEducation(ctx context.Context, username string, documentID int64, in models.NewEducation) (*models.Education, *models.RelationRow, error) {
	return createSectionItem(ctx, s, educationType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Education, error) {
			return models.AddEducation(ctx, q, username, in)
		})
}

// AttachEducation appends an existing education to a document.
func (s *Service) AttachEducation(ctx context.Context, username string, documentID, educationID int64) (*models.RelationRow, error) {
	return attachExistingItem(ctx, s, educationType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Education, error) {
			return ValidateOwnership(ctx, q, username, "Education", educationID, models.GetEducation)
		})
}

// ReorderEducations sets the order of a document's educations.
func (s *Service) ReorderEducations(ctx context.Context, username string, documentID int64, ids []int64) ([]models.Education, error) {
	return reorderSectionItems(ctx, s, educationType, username, Parent{DocumentID: documentID}, ids)
}

// DetachEducation removes an education from a document.
func (s *Service) DetachEducation(ctx context.Context, username string, documentID, educationID int64) error {
	return detachItem(ctx, s, educationType, username, Parent{DocumentID: documentID}, educationID)
}

// UpdateEducation edits an education in place. Every document showing it is
// notified.
func (s *Service) UpdateEducation(ctx context.Context, username string, id int64, u models.EducationUpdate) (*models.Education, error) {
	var (
		e      *models.Education
		docIDs []int64
	)
	err := s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		if e, err = ValidateOwnership(ctx, q, username, "Education", id, models.GetEducation); err != nil {
			return err
		}
		if err := e.Update(ctx, q, u); err != nil {
			return err
		}
		docIDs, err = models.DocumentEducations.ParentsOf(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyDocuments(username, docIDs)
	return e, nil
}

// DeleteEducation deletes an education from every document.
func (s *Service) DeleteEducation(ctx context.Context, username string, id int64) error {
	return deleteFromDocuments(ctx, s, username, "Education", id, models.GetEducation, models.DocumentEducations.ParentsOf)
}

// Experiences

// ListExperiences returns every experience owned by username.
func (s *Service) ListExperiences(ctx context.Context, username string) ([]models.Experience, error) {
	return models.GetExperiences(ctx, s.db, username)
}

// CreateExperience creates an experience and appends it to the master
// document.
func (s *Service) CreateExperience(ctx context.Context, username string, documentID int64, in models.NewExperience) (*models.Experience, *models.RelationRow, error) {
	return createSectionItem(ctx, s, experienceType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Experience, error) {
			return models.AddExperience(ctx, q, username, in)
		})
}

// AttachExperience appends an existing experience to a document.
func (s *Service) AttachExperience(ctx context.Context, username string, documentID, experienceID int64) (*models.RelationRow, error) {
	return attachExistingItem(ctx, s, experienceType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Experience, error) {
			return ValidateOwnership(ctx, q, username, "Experience", experienceID, models.GetExperience)
		})
}

// ReorderExperiences sets the order of a document's experiences.
func (s *Service) ReorderExperiences(ctx context.Context, username string, documentID int64, ids []int64) ([]models.Experience, error) {
	return reorderSectionItems(ctx, s, experienceType, username, Parent{DocumentID: documentID}, ids)
}

// DetachExperience removes an experience, and the bullets ordered under it,
// from a document.
func (s *Service) DetachExperience(ctx context.Context, username string, documentID, experienceID int64) error {
	return detachItem(ctx, s, experienceType, username, Parent{DocumentID: documentID}, experienceID)
}

// UpdateExperience edits an experience in place.
func (s *Service) UpdateExperience(ctx context.Context, username string, id int64, u models.ExperienceUpdate) (*models.Experience, error) {
	var (
		e      *models.Experience
		docIDs []int64
	)
	err := s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		if e, err = ValidateOwnership(ctx, q, username, "Experience", id, models.GetExperience); err != nil {
			return err
		}
		if err := e.Update(ctx, q, u); err != nil {
			return err
		}
		docIDs, err = models.DocumentExperiences.ParentsOf(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyDocuments(username, docIDs)
	return e, nil
}

// DeleteExperience deletes an experience from every document.
func (s *Service) DeleteExperience(ctx context.Context, username string, id int64) error {
	return deleteFromDocuments(ctx, s, username, "Experience", id, models.GetExperience, models.DocumentExperiences.ParentsOf)
}

// Skills

// ListSkills returns every skill owned by username.
func (s *Service) ListSkills(ctx context.Context, username string) ([]models.Skill, error) {
	return models.GetSkills(ctx, s.db, username)
}

// CreateSkill creates a skill and appends it to the master document. A
// referenced text snippet must belong to username.
func (s *Service) CreateSkill(ctx context.Context, username string, documentID int64, in models.NewSkill) (*models.Skill, *models.RelationRow, error) {
	return createSectionItem(ctx, s, skillType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Skill, error) {
			if err := s.checkSkillSnippet(ctx, q, username, in.TextSnippetID, in.TextSnippetVersion); err != nil {
				return nil, err
			}
			return models.AddSkill(ctx, q, username, in)
		})
}

// AttachSkill appends an existing skill to a document.
func (s *Service) AttachSkill(ctx context.Context, username string, documentID, skillID int64) (*models.RelationRow, error) {
	return attachExistingItem(ctx, s, skillType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Skill, error) {
			return ValidateOwnership(ctx, q, username, "Skill", skillID, models.GetSkill)
		})
}

// ReorderSkills sets the order of a document's skills.
func (s *Service) ReorderSkills(ctx context.Context, username string, documentID int64, ids []int64) ([]models.Skill, error) {
	return reorderSectionItems(ctx, s, skillType, username, Parent{DocumentID: documentID}, ids)
}

// DetachSkill removes a skill from a document.
func (s *Service) DetachSkill(ctx context.Context, username string, documentID, skillID int64) error {
	return detachItem(ctx, s, skillType, username, Parent{DocumentID: documentID}, skillID)
}

// UpdateSkill edits a skill in place. A new text snippet reference must
// belong to username.
func (s *Service) UpdateSkill(ctx context.Context, username string, id int64, u models.SkillUpdate) (*models.Skill, error) {
	var (
		sk     *models.Skill
		docIDs []int64
	)
	err := s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		if sk, err = ValidateOwnership(ctx, q, username, "Skill", id, models.GetSkill); err != nil {
			return err
		}
		if err := s.checkSkillSnippet(ctx, q, username, u.TextSnippetID, u.TextSnippetVersion); err != nil {
			return err
		}
		if err := sk.Update(ctx, q, u); err != nil {
			return err
		}
		docIDs, err = models.DocumentSkills.ParentsOf(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifyDocuments(username, docIDs)
	return sk, nil
}

// DeleteSkill deletes a skill from every document.
func (s *Service) DeleteSkill(ctx context.Context, username string, id int64) error {
	return deleteFromDocuments(ctx, s, username, "Skill", id, models.GetSkill, models.DocumentSkills.ParentsOf)
}
