package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperr "github.com/medrec/hpquestion/pkg/error"
)

func TestSuccess_WritesDataWithoutMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	Success(rr, http.StatusOK, map[string]string{"HPQuestionId": "q1"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"200","data":{"HPQuestionId":"q1"}}`, rr.Body.String())
}

func TestSuccess_KeepsEmptyList(t *testing.T) {
	rr := httptest.NewRecorder()
	Success(rr, http.StatusOK, []string{})

	assert.JSONEq(t, `{"status":"200","data":[]}`, rr.Body.String())
}

func TestMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	Message(rr, http.StatusOK, MessageSuccess)

	assert.JSONEq(t, `{"status":"200","message":"success"}`, rr.Body.String())
}

func TestAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	AppError(rr, apperr.NewNotFound("HP question not found"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"status":"404","message":"HP question not found"}`, rr.Body.String())
}

func TestWriteJSON_MessageAndData(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusInternalServerError, "1 of 2 items failed", []int{1})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"status":"500","message":"1 of 2 items failed","data":[1]}`, rr.Body.String())
}
