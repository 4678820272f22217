// Package handlers adapts the HTTP API onto the services. Handlers only bind
// input and shape output; every failure goes through c.Error so the error
// middleware renders it.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
)

const dayLayout = "2006-01-02"

// Day is a calendar date read as "2006-01-02" or as an RFC 3339 timestamp.
type Day struct {
	time.Time
}

// UnmarshalJSON accepts both layouts and null.
func (d *Day) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseDay(*raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Day) value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

func parseDay(raw string) (time.Time, error) {
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		fail(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// actor returns the caller stored by the auth middleware. A missing actor
// holds no permission, so services answer Forbidden.
func actor(c *gin.Context) access.Actor {
	a, _ := access.FromContext(c.Request.Context())
	return a
}

func queryDay(c *gin.Context, key string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := parseDay(raw)
	if err != nil {
		fail(c, apperror.NewValidation("invalid date").WithDetail(key, raw))
		return time.Time{}, false
	}
	return t, true
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fail(c, apperror.NewValidation("invalid number").WithDetail(key, raw))
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
