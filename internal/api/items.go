package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/resumeservice"
)

// itemRoutes serves one kind of section item: T is the record, In the body
// accepted on create and U the body accepted on update.
type itemRoutes[T, In, U any] struct {
	noun   string // JSON key of a single record, e.g. "education"
	plural string // URL segment and JSON key of a list

	validateNew    func(*In) error
	validateUpdate func(*U) error

	list    func(ctx context.Context, username string) ([]T, error)
	create  func(ctx context.Context, username string, documentID int64, in In) (*T, *models.RelationRow, error)
	attach  func(ctx context.Context, username string, documentID, itemID int64) (*models.RelationRow, error)
	reorder func(ctx context.Context, username string, documentID int64, ids []int64) ([]T, error)
	detach  func(ctx context.Context, username string, documentID, itemID int64) error
	update  func(ctx context.Context, username string, id int64, u U) (*T, error)
	remove  func(ctx context.Context, username string, id int64) error
}

func (ir itemRoutes[T, In, U]) relationKey() string {
	return "document_x_" + ir.noun
}

// mount registers the item routes on a router scoped to /users/{username}.
func (ir itemRoutes[T, In, U]) mount(r chi.Router) {
	r.Get("/"+ir.plural, ir.List)
	r.Patch("/"+ir.plural+"/{itemId}", ir.Update)
	r.Delete("/"+ir.plural+"/{itemId}", ir.Delete)

	r.Post("/documents/{documentId}/"+ir.plural, ir.Create)
	r.Put("/documents/{documentId}/"+ir.plural, ir.Reorder)
	r.Post("/documents/{documentId}/"+ir.plural+"/{itemId}", ir.Attach)
	r.Delete("/documents/{documentId}/"+ir.plural+"/{itemId}", ir.Detach)
}

func (ir itemRoutes[T, In, U]) List(w http.ResponseWriter, r *http.Request) {
	items, err := ir.list(r.Context(), username(r))
	if err != nil {
		writeError(w, r, "list "+ir.plural, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{ir.plural: items})
}

func (ir itemRoutes[T, In, U]) Create(w http.ResponseWriter, r *http.Request) {
	op := "create " + ir.noun
	docID, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var in In
	if err := decodeValid(w, r, &in, ir.validateNew); err != nil {
		writeError(w, r, op, err)
		return
	}
	item, row, err := ir.create(r.Context(), username(r), docID, in)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{ir.noun: item, ir.relationKey(): row})
}

func (ir itemRoutes[T, In, U]) Attach(w http.ResponseWriter, r *http.Request) {
	op := "attach " + ir.noun
	docID, itemID, err := documentAndItem(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	row, err := ir.attach(r.Context(), username(r), docID, itemID)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{ir.relationKey(): row})
}

func (ir itemRoutes[T, In, U]) Reorder(w http.ResponseWriter, r *http.Request) {
	op := "reorder " + ir.plural
	docID, err := idParam(r, "documentId")
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var ids []int64
	if err := decodeJSON(w, r, &ids); err != nil {
		writeError(w, r, op, err)
		return
	}
	items, err := ir.reorder(r.Context(), username(r), docID, ids)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{ir.plural: items})
}

func (ir itemRoutes[T, In, U]) Detach(w http.ResponseWriter, r *http.Request) {
	op := "detach " + ir.noun
	docID, itemID, err := documentAndItem(r)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	if err := ir.detach(r.Context(), username(r), docID, itemID); err != nil {
		writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ir itemRoutes[T, In, U]) Update(w http.ResponseWriter, r *http.Request) {
	op := "update " + ir.noun
	id, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	var u U
	if err := decodeValid(w, r, &u, ir.validateUpdate); err != nil {
		writeError(w, r, op, err)
		return
	}
	item, err := ir.update(r.Context(), username(r), id, u)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{ir.noun: item})
}

func (ir itemRoutes[T, In, U]) Delete(w http.ResponseWriter, r *http.Request) {
	op := "delete " + ir.noun
	id, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	if err := ir.remove(r.Context(), username(r), id); err != nil {
		writeError(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func documentAndItem(r *http.Request) (int64, int64, error) {
	docID, err := idParam(r, "documentId")
	if err != nil {
		return 0, 0, err
	}
	itemID, err := idParam(r, "itemId")
	if err != nil {
		return 0, 0, err
	}
	return docID, itemID, nil
}

func educationRoutes(svc *resumeservice.Service) itemRoutes[models.Education, models.NewEducation, models.EducationUpdate] {
	return itemRoutes[models.Education, models.NewEducation, models.EducationUpdate]{
		noun:           "education",
		plural:         "educations",
		validateNew:    validateNewEducation,
		validateUpdate: validateEducationUpdate,
		list:           svc.ListEducations,
		create:         svc.CreateEducation,
		attach:         svc.AttachEducation,
		reorder:        svc.ReorderEducations,
		detach:         svc.DetachEducation,
		update:         svc.UpdateEducation,
		remove:         svc.DeleteEducation,
	}
}

func experienceRoutes(svc *resumeservice.Service) itemRoutes[models.Experience, models.NewExperience, models.ExperienceUpdate] {
	return itemRoutes[models.Experience, models.NewExperience, models.ExperienceUpdate]{
		noun:           "experience",
		plural:         "experiences",
		validateNew:    validateNewExperience,
		validateUpdate: validateExperienceUpdate,
		list:           svc.ListExperiences,
		create:         svc.CreateExperience,
		attach:         svc.AttachExperience,
		reorder:        svc.ReorderExperiences,
		detach:         svc.DetachExperience,
		update:         svc.UpdateExperience,
		remove:         svc.DeleteExperience,
	}
}

func skillRoutes(svc *resumeservice.Service) itemRoutes[models.Skill, models.NewSkill, models.SkillUpdate] {
	return itemRoutes[models.Skill, models.NewSkill, models.SkillUpdate]{
		noun:           "skill",
		plural:         "skills",
		validateNew:    validateNewSkill,
		validateUpdate: validateSkillUpdate,
		list:           svc.ListSkills,
		create:         svc.CreateSkill,
		attach:         svc.AttachSkill,
		reorder:        svc.ReorderSkills,
		detach:         svc.DetachSkill,
		update:         svc.UpdateSkill,
		remove:         svc.DeleteSkill,
	}
}
