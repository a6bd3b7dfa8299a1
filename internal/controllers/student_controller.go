package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/models"
	"school_transport/internal/store"
)

const (
	studentNotFound = "Student not found"
	cardNotFound    = "Card not found"
)

// ListStudents returns all students; ?unlocated=true keeps those still missing coordinates.
func (a *API) ListStudents(c *gin.Context) {
	unlocated, _ := strconv.ParseBool(c.DefaultQuery("unlocated", "false"))
	students, err := a.Store.ListStudents(c.Request.Context(), unlocated)
	if err != nil {
		respondStoreError(c, err, studentNotFound, "fetch students")
		return
	}
	c.JSON(http.StatusOK, students)
}

func (a *API) CreateStudent(c *gin.Context) {
	var input struct {
		Name         string `json:"name" binding:"required"`
		AdmissionNo  string `json:"admission_no" binding:"required"`
		HouseAddress string `json:"house_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	student := models.Student{
		Name:         strings.TrimSpace(input.Name),
		AdmissionNo:  strings.TrimSpace(input.AdmissionNo),
		HouseAddress: strings.TrimSpace(input.HouseAddress),
	}
	if student.Name == "" || student.AdmissionNo == "" || student.HouseAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, admission_no and house_address cannot be blank"})
		return
	}
	if err := a.Store.CreateStudent(c.Request.Context(), &student); err != nil {
		respondStoreError(c, err, studentNotFound, "create student")
		return
	}
	logrus.WithField("student_id", student.ID).Info("Student created")
	c.JSON(http.StatusCreated, student)
}

func (a *API) GetStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	student, err := a.Store.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, studentNotFound, "fetch student")
		return
	}
	c.JSON(http.StatusOK, student)
}

// UpdateStudent edits a student. A new house address clears the stored coordinates.
func (a *API) UpdateStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input store.StudentUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	student, err := a.Store.UpdateStudent(c.Request.Context(), id, input)
	if err != nil {
		respondStoreError(c, err, studentNotFound, "update student")
		return
	}
	c.JSON(http.StatusOK, student)
}

func (a *API) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := a.Store.DeleteStudent(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, studentNotFound, "delete student")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}

// ListCards returns registered cards, optionally for one ?student_id.
func (a *API) ListCards(c *gin.Context) {
	var studentID uint64
	if raw := c.Query("student_id"); raw != "" {
		var err error
		if studentID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student_id"})
			return
		}
	}
	cards, err := a.Store.ListCards(c.Request.Context(), uint(studentID))
	if err != nil {
		respondStoreError(c, err, cardNotFound, "fetch cards")
		return
	}
	c.JSON(http.StatusOK, cards)
}

// RegisterCard assigns an RFID card to a student. Card ids can never be reused.
func (a *API) RegisterCard(c *gin.Context) {
	var input struct {
		CardID     string     `json:"card_id" binding:"required"`
		StudentID  uint       `json:"student_id" binding:"required"`
		Active     *bool      `json:"active"`
		Status     string     `json:"status"`
		IssuedDate *time.Time `json:"issued_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	card := models.StudentCard{
		CardID:    strings.TrimSpace(input.CardID),
		StudentID: input.StudentID,
		Active:    true,
		Status:    input.Status,
	}
	if input.Active != nil {
		card.Active = *input.Active
	}
	if input.IssuedDate != nil {
		card.IssuedDate = *input.IssuedDate
	}
	if card.CardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_id cannot be blank"})
		return
	}

	if err := a.Store.RegisterCard(c.Request.Context(), &card); err != nil {
		respondStoreError(c, err, studentNotFound, "register card")
		return
	}
	logrus.WithFields(logrus.Fields{
		"card_id":    card.CardID,
		"student_id": card.StudentID,
	}).Info("Card registered")
	c.JSON(http.StatusCreated, card)
}

// UpdateCard changes the status or active flag of a card.
func (a *API) UpdateCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input store.CardUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	card, err := a.Store.UpdateCard(c.Request.Context(), id, input)
	if err != nil {
		respondStoreError(c, err, cardNotFound, "update card")
		return
	}
	c.JSON(http.StatusOK, card)
}
