// Package request validates inbound request bodies and path parameters
// before any storage access.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"identity-service/internal/model"
)

const (
	MsgMissingBody   = "missing request body"
	MsgBodyNotJSON   = "request body must be JSON"
	MsgMissingFields = "request body requires username and password"
	MsgMissingUserID = "must specify user id"
)

// ValidationError is a client input failure. Message is safe to return to
// the caller verbatim.
type ValidationError struct {
	Message string
	// Fields lists the struct fields that failed their tags, if any.
	Fields []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type credentialBody struct {
	UID string `json:"uid" binding:"required"`
	Pwd string `json:"pwd" binding:"required"`
}

type patchBody struct {
	UID string `json:"uid" binding:"required"`
}

// ParseID reads the :id path parameter. Anything other than a positive
// decimal integer that fits a signed 64-bit column is rejected.
func ParseID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Message: MsgMissingUserID}
	}
	return uint64(id), nil
}

// DecodeCredential validates a {uid, pwd} body.
func DecodeCredential(c *gin.Context) (model.Credential, error) {
	var body credentialBody
	if err := decode(c, &body); err != nil {
		return model.Credential{}, err
	}
	return model.Credential{UID: body.UID, Pwd: body.Pwd}, nil
}

// DecodeUserPatch validates a {uid} body for PUT and PATCH.
func DecodeUserPatch(c *gin.Context) (model.UserPatch, error) {
	var body patchBody
	if err := decode(c, &body); err != nil {
		return model.UserPatch{}, err
	}
	return model.UserPatch{UID: &body.UID}, nil
}

func decode(c *gin.Context, obj any) error {
	raw, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return &ValidationError{Message: MsgMissingBody}
	}
	if !json.Valid(raw) {
		return &ValidationError{Message: MsgBodyNotJSON}
	}
	if err := binding.JSON.BindBody(raw, obj); err != nil {
		return &ValidationError{Message: MsgMissingFields, Fields: failedFields(err)}
	}
	return nil
}

func failedFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
