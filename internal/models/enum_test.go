package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatus_LegalTransitions(t *testing.T) {
	assert.True(t, RequestNew.CanTransitionTo(RequestProcessing))
	assert.True(t, RequestNew.CanTransitionTo(RequestCancelled))
	assert.True(t, RequestProcessing.CanTransitionTo(RequestCompleted))
	assert.True(t, RequestProcessing.CanTransitionTo(RequestCancelled))
}

func TestRequestStatus_IllegalTransitions(t *testing.T) {
	assert.False(t, RequestNew.CanTransitionTo(RequestCompleted), "processing cannot be skipped")
	assert.False(t, RequestCompleted.CanTransitionTo(RequestProcessing), "completed is terminal")
	assert.False(t, RequestCancelled.CanTransitionTo(RequestNew), "cancelled is terminal")
	assert.False(t, RequestProcessing.CanTransitionTo(RequestNew))
	assert.False(t, RequestNew.CanTransitionTo(RequestNew), "no self loops")
}

func TestRequestStatus_IsValid(t *testing.T) {
	for _, s := range []RequestStatus{RequestNew, RequestProcessing, RequestCompleted, RequestCancelled} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, RequestStatus("archived").IsValid())
	assert.False(t, RequestStatus("").IsValid())
}

func TestRequestType_IsValid(t *testing.T) {
	for _, rt := range []RequestType{
		RequestVerification, RequestRepair, RequestConsultation,
		RequestSeal, RequestAccountAttach, RequestReadingSubmit, RequestOther,
	} {
		assert.True(t, rt.IsValid(), string(rt))
	}
	assert.False(t, RequestType("plumbing").IsValid())
	assert.False(t, RequestType("").IsValid())
}
