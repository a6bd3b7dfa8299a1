package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"school_transport/internal/checkin"
)

// CheckIn handles a card tap posted by an RFID reader.
func (a *API) CheckIn(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		logrus.WithError(err).Warn("CheckIn: failed to read request body")
		c.JSON(http.StatusBadRequest, checkin.Response{Status: checkin.StatusError, Message: checkin.MessageInvalidPayload})
		return
	}

	req, err := checkin.ParseRequest(body)
	if err != nil {
		logrus.WithError(err).WithField("client_ip", c.ClientIP()).Warn("CheckIn: rejected payload")
		c.JSON(http.StatusBadRequest, checkin.Response{Status: checkin.StatusError, Message: parseErrorMessage(err)})
		return
	}

	resp, err := a.Resolver.CheckIn(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, checkin.ErrCardNotFound):
		c.JSON(http.StatusNotFound, resp)
	default:
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func parseErrorMessage(err error) string {
	switch {
	case errors.Is(err, checkin.ErrMissingCardID):
		return checkin.MessageMissingCardID
	case errors.Is(err, checkin.ErrInvalidTimestamp):
		return "Invalid timestamp"
	case errors.Is(err, checkin.ErrInvalidEventType):
		return "Invalid event_type"
	default:
		return checkin.MessageInvalidPayload
	}
}
