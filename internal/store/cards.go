package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school_transport/internal/models"
)

// CardUpdate holds card changes. Nil fields are left unchanged.
type CardUpdate struct {
	Status *string `json:"status"`
	Active *bool   `json:"active"`
}

// RegisterCard stores a new card. Card ids are unique across all cards ever registered.
func (s *Store) RegisterCard(ctx context.Context, card *models.StudentCard) error {
	if card.Status == "" {
		card.Status = models.CardStatusActive
	}
	if !models.ValidCardStatus(card.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidCardStatus, card.Status)
	}
	if card.IssuedDate.IsZero() {
		card.IssuedDate = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, card.StudentID).Error; err != nil {
			return fmt.Errorf("student %d: %w", card.StudentID, err)
		}

		var existing int64
		if err := tx.Unscoped().Model(&models.StudentCard{}).Where("card_id = ?", card.CardID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateCard
		}

		if err := tx.Omit(clause.Associations).Create(card).Error; err != nil {
			return err
		}
		card.Student = student
		return nil
	})
	if isUniqueViolation(err) {
		return ErrDuplicateCard
	}
	return err
}

// UpdateCard changes the status or active flag of a card.
func (s *Store) UpdateCard(ctx context.Context, id uint, in CardUpdate) (*models.StudentCard, error) {
	if in.Status != nil && !models.ValidCardStatus(*in.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCardStatus, *in.Status)
	}

	var card models.StudentCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&card, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&card).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("Student").First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// FindCard returns the first card registered under cardID, whatever its status or
// active flag, or nil when there is none.
func (s *Store) FindCard(ctx context.Context, cardID string) (*models.StudentCard, error) {
	var cards []models.StudentCard
	err := s.db.WithContext(ctx).
		Preload("Student").
		Where("card_id = ?", cardID).
		Order("id ASC").
		Limit(1).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}

// ListCards returns cards, optionally only those of one student.
func (s *Store) ListCards(ctx context.Context, studentID uint) ([]models.StudentCard, error) {
	var cards []models.StudentCard
	q := s.db.WithContext(ctx).Preload("Student").Order("id")
	if studentID != 0 {
		q = q.Where("student_id = ?", studentID)
	}
	err := q.Find(&cards).Error
	return cards, err
}
