package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"school_transport/internal/models"
)

// StudentUpdate holds student changes. A new address clears the coordinates.
type StudentUpdate struct {
	Name         *string `json:"name"`
	AdmissionNo  *string `json:"admission_no"`
	HouseAddress *string `json:"house_address"`
}

func (s *Store) CreateStudent(ctx context.Context, student *models.Student) error {
	student.HouseAddress = strings.TrimSpace(student.HouseAddress)
	if student.HouseAddress == "" {
		return ErrAddressRequired
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(student).Error
	if isUniqueViolation(err) {
		return ErrDuplicateStudent
	}
	return err
}

func (s *Store) GetStudent(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// ListStudents returns students ordered by id. unlocatedOnly keeps those still missing coordinates.
func (s *Store) ListStudents(ctx context.Context, unlocatedOnly bool) ([]models.Student, error) {
	var students []models.Student
	q := s.db.WithContext(ctx).Order("id")
	if unlocatedOnly {
		q = q.Where("latitude = ? OR longitude = ?", 0, 0)
	}
	err := q.Find(&students).Error
	return students, err
}

func (s *Store) UpdateStudent(ctx context.Context, id uint, in StudentUpdate) (*models.Student, error) {
	if in.HouseAddress != nil && strings.TrimSpace(*in.HouseAddress) == "" {
		return nil, ErrAddressRequired
	}

	var student models.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.AdmissionNo != nil {
			updates["admission_no"] = *in.AdmissionNo
		}
		if in.HouseAddress != nil && strings.TrimSpace(*in.HouseAddress) != strings.TrimSpace(student.HouseAddress) {
			updates["house_address"] = strings.TrimSpace(*in.HouseAddress)
			updates["latitude"] = 0.0
			updates["longitude"] = 0.0
			updates["geocode_attempted_at"] = nil
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&student).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&student, id).Error
	})
	if isUniqueViolation(err) {
		return nil, ErrDuplicateStudent
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *Store) DeleteStudent(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM route_students WHERE student_id = ?", student.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", student.ID).Delete(&models.StudentCard{}).Error; err != nil {
			return err
		}
		return tx.Delete(&student).Error
	})
}
