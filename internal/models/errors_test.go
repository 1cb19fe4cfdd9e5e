package models

import (
	"errors"
	"testing"
)

func TestResultConstructors(t *testing.T) {
	ok := Ok()
	if !ok.OK || ok.Code != ErrNone {
		t.Errorf("Ok() = %+v, want OK=true, Code=ErrNone", ok)
	}

	fail := Fail(ErrMaxLoss)
	if fail.OK || fail.Code != ErrMaxLoss {
		t.Errorf("Fail() = %+v, want OK=false, Code=ErrMaxLoss", fail)
	}

	wrapped := errors.New("boom")
	failErr := FailErr(ErrRiskEngineError, wrapped)
	if failErr.OK || failErr.Code != ErrRiskEngineError || failErr.Err != wrapped {
		t.Errorf("FailErr() = %+v, want OK=false, Code=ErrRiskEngineError, Err=%v", failErr, wrapped)
	}
}
