package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nisschay/Edu-Rag/internal/data/repos"
	"github.com/nisschay/Edu-Rag/internal/domain"
)

// errNotFound hides both missing rows and rows owned by someone else.
var errNotFound = errors.New("not found")

// ScopeResolver walks the ownership chain topic -> unit -> subject ->
// user so handlers never expose another user's rows.
type ScopeResolver struct {
	subjects repos.SubjectRepo
	units    repos.UnitRepo
	topics   repos.TopicRepo
}

func NewScopeResolver(subjects repos.SubjectRepo, units repos.UnitRepo, topics repos.TopicRepo) *ScopeResolver {
	return &ScopeResolver{subjects: subjects, units: units, topics: topics}
}

func (r *ScopeResolver) Subject(ctx context.Context, userID, subjectID uuid.UUID) (*domain.Subject, error) {
	subject, err := r.subjects.GetByID(ctx, nil, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if subject.UserID != userID {
		return nil, errNotFound
	}
	return subject, nil
}

func (r *ScopeResolver) Unit(ctx context.Context, userID, unitID uuid.UUID) (*domain.Unit, error) {
	unit, err := r.units.GetByID(ctx, nil, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	if _, err := r.Subject(ctx, userID, unit.SubjectID); err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *ScopeResolver) Topic(ctx context.Context, userID, topicID uuid.UUID) (*domain.Topic, *domain.Unit, error) {
	topic, err := r.topics.GetByID(ctx, nil, topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errNotFound
		}
		return nil, nil, err
	}
	unit, err := r.Unit(ctx, userID, topic.UnitID)
	if err != nil {
		return nil, nil, err
	}
	return topic, unit, nil
}
