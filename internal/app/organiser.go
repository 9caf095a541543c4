package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

// CreateQuizInput carries the organiser-supplied quiz metadata.
type CreateQuizInput struct {
	Title      string            `json:"title" validate:"required"`
	Guidelines string            `json:"guidelines"`
	Visibility domain.Visibility `json:"visibility" validate:"omitempty,oneof=open link-restricted"`
}

// Organiser owns catalog mutations: quiz lifecycle, question CRUD and
// visibility migration. New quizzes start inactive, matching participant
// expectations that a quiz only appears once its organiser flips it on.
type Organiser struct {
	store      store.Store
	catalog    *Catalog
	validate   *validator.Validate
	clock      func() time.Time
	newID      func() string
	invalidate func(ctx context.Context, quizID string)
}

func NewOrganiser(s store.Store, catalog *Catalog) *Organiser {
	return &Organiser{
		store:      s,
		catalog:    catalog,
		validate:   validator.New(),
		clock:      time.Now,
		newID:      uuid.NewString,
		invalidate: func(context.Context, string) {},
	}
}

// WithInvalidator registers a cache-invalidation hook fired after every
// mutation that changes what a catalog read would return.
func (o *Organiser) WithInvalidator(fn func(ctx context.Context, quizID string)) *Organiser {
	o.invalidate = fn
	return o
}

// WithIDSource is for deterministic ids in tests.
func (o *Organiser) WithIDSource(newID func() string) *Organiser {
	o.newID = newID
	return o
}

// CreateQuiz stores a new inactive quiz in the catalog matching its
// visibility. Link-restricted quizzes get a shareable code derived from a
// fresh uuid.
func (o *Organiser) CreateQuiz(ctx context.Context, organiserID string, input CreateQuizInput) (domain.Quiz, error) {
	if organiserID == "" {
		return domain.Quiz{}, domain.ErrInvalidUID
	}
	if err := o.validate.Struct(input); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	quiz := domain.Quiz{
		ID:          o.newID(),
		Title:       input.Title,
		Guidelines:  input.Guidelines,
		Active:      false,
		Visibility:  input.Visibility,
		OrganiserID: organiserID,
		CreatedAt:   o.clock().UTC(),
	}
	if quiz.Visibility == "" {
		quiz.Visibility = domain.VisibilityOpen
	}
	if quiz.Visibility == domain.VisibilityLink {
		quiz.LinkCode = o.newID()[:8]
	}

	fields, err := store.Fields(quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := o.store.Put(ctx, catalogFor(quiz.Visibility), quiz.ID, fields); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// SetActive toggles participant visibility of a quiz.
func (o *Organiser) SetActive(ctx context.Context, quizID string, active bool) error {
	resolved, err := o.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	catalog := catalogFor(resolved.Quiz.Visibility)
	if err := o.store.Update(ctx, catalog, quizID, map[string]any{"active": active}); err != nil {
		return err
	}
	o.invalidate(ctx, quizID)
	return nil
}

// AddQuestion validates and appends a question to a quiz. MCQ invariants
// are enforced before the write so the catalog never stores content the
// reader would reject.
func (o *Organiser) AddQuestion(ctx context.Context, quizID string, q domain.Question) (domain.Question, error) {
	resolved, err := o.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	if q.ID == "" {
		q.ID = o.newID()
	}
	if err := validateQuestion(q); err != nil {
		return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fields, err := store.Fields(q)
	if err != nil {
		return domain.Question{}, err
	}
	path := store.QuestionsPath(o.store, catalogFor(resolved.Quiz.Visibility), quizID)
	if err := o.store.Put(ctx, path, q.ID, fields); err != nil {
		return domain.Question{}, err
	}
	o.invalidate(ctx, quizID)
	return q, nil
}

// UpdateQuestion replaces a question's content, keeping its id.
func (o *Organiser) UpdateQuestion(ctx context.Context, quizID string, q domain.Question) error {
	resolved, err := o.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := validateQuestion(q); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	path := store.QuestionsPath(o.store, catalogFor(resolved.Quiz.Visibility), quizID)
	if _, err := o.store.Get(ctx, path, q.ID); err != nil {
		return err
	}
	fields, err := store.Fields(q)
	if err != nil {
		return err
	}
	if err := o.store.Put(ctx, path, q.ID, fields); err != nil {
		return err
	}
	o.invalidate(ctx, quizID)
	return nil
}

// DeleteQuestion removes one question from a quiz.
func (o *Organiser) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	resolved, err := o.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	path := store.QuestionsPath(o.store, catalogFor(resolved.Quiz.Visibility), quizID)
	if err := o.store.Delete(ctx, path, questionID); err != nil {
		return err
	}
	o.invalidate(ctx, quizID)
	return nil
}

// DeleteQuiz removes a quiz and its question subcollection. Questions go
// first so a crash mid-delete leaves a resolvable quiz, not orphaned
// questions under a missing parent.
func (o *Organiser) DeleteQuiz(ctx context.Context, quizID string) error {
	resolved, err := o.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	catalog := catalogFor(resolved.Quiz.Visibility)
	if err := o.deleteQuestions(ctx, catalog, quizID, resolved.Questions); err != nil {
		return err
	}
	if err := o.store.Delete(ctx, catalog, quizID); err != nil {
		return err
	}
	o.invalidate(ctx, quizID)
	return nil
}

// MigrateVisibility moves a quiz and its questions between catalogs. The
// store offers no cross-document transactions, so the invariant "present in
// exactly one catalog" is maintained by sequencing: write everything to the
// target, then delete from the source. A crash between the phases leaves
// the quiz present in both, and re-running the migration converges; the
// quiz is never absent from both.
func (o *Organiser) MigrateVisibility(ctx context.Context, quizID string, target domain.Visibility) (domain.Quiz, error) {
	if target != domain.VisibilityOpen && target != domain.VisibilityLink {
		return domain.Quiz{}, fmt.Errorf("%w: visibility %q", domain.ErrInvalidInput, target)
	}

	resolved, err := o.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := resolved.Quiz

	targetCatalog := catalogFor(target)
	// Phase 1: write the quiz and its questions into the target catalog.
	// Skipped when the resolved copy already lives there (a retry after a
	// crash between the phases), which makes the whole operation re-runnable.
	if resolved.Quiz.Visibility != target {
		quiz.Visibility = target
		switch target {
		case domain.VisibilityLink:
			if quiz.LinkCode == "" {
				quiz.LinkCode = o.newID()[:8]
			}
		case domain.VisibilityOpen:
			quiz.LinkCode = ""
		}
		fields, err := store.Fields(quiz)
		if err != nil {
			return domain.Quiz{}, err
		}
		if err := o.store.Put(ctx, targetCatalog, quizID, fields); err != nil {
			return domain.Quiz{}, err
		}
		targetPath := store.QuestionsPath(o.store, targetCatalog, quizID)
		for _, q := range resolved.Questions {
			qf, err := store.Fields(q)
			if err != nil {
				return domain.Quiz{}, err
			}
			if err := o.store.Put(ctx, targetPath, q.ID, qf); err != nil {
				return domain.Quiz{}, err
			}
		}
	}

	// Phase 2: remove whatever remains in the opposite catalog. Running
	// only after phase 1 succeeds keeps the quiz resolvable throughout:
	// transiently present in both catalogs, never absent from both.
	sourceCatalog := store.CollectionQuizLinks
	if targetCatalog == store.CollectionQuizLinks {
		sourceCatalog = store.CollectionQuizzes
	}
	if err := o.deleteQuestions(ctx, sourceCatalog, quizID, resolved.Questions); err != nil {
		return domain.Quiz{}, err
	}
	if err := o.store.Delete(ctx, sourceCatalog, quizID); err != nil {
		return domain.Quiz{}, err
	}

	o.invalidate(ctx, quizID)
	return quiz, nil
}

func (o *Organiser) deleteQuestions(ctx context.Context, catalog, quizID string, questions []domain.Question) error {
	path := store.QuestionsPath(o.store, catalog, quizID)
	for _, q := range questions {
		if err := o.store.Delete(ctx, path, q.ID); err != nil {
			return err
		}
	}
	return nil
}
